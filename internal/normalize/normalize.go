// Package normalize holds the pure value normalizers shared by the deck model:
// size units, option keys and URL classification.
package normalize

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// DimensionUnit is appended to purely numeric sizes.
const DimensionUnit = "pt"

// Dimension converts a raw size into its rendered form. Numbers gain the
// DimensionUnit suffix, strings ("50%", "1000px", "") pass through unchanged.
// The second result is false when v is neither a number nor a string.
func Dimension(v any) (string, bool) {
	switch n := v.(type) {
	case string:
		return n, true
	case int:
		return strconv.Itoa(n) + DimensionUnit, true
	case int8, int16, int32, int64:
		i, _ := Int64(n)
		return strconv.FormatInt(i, 10) + DimensionUnit, true
	case uint, uint8, uint16, uint32, uint64:
		u, _ := Uint64(n)
		return strconv.FormatUint(u, 10) + DimensionUnit, true
	case float32:
		return strconv.FormatFloat(float64(n), 'f', -1, 32) + DimensionUnit, true
	case float64:
		return strconv.FormatFloat(n, 'f', -1, 64) + DimensionUnit, true
	default:
		return "", false
	}
}

// Int64 widens any signed integer type.
func Int64(v any) (int64, bool) {
	switch n := v.(type) {
	case int:
		return int64(n), true
	case int8:
		return int64(n), true
	case int16:
		return int64(n), true
	case int32:
		return int64(n), true
	case int64:
		return n, true
	default:
		return 0, false
	}
}

// Uint64 widens any unsigned integer type.
func Uint64(v any) (uint64, bool) {
	switch n := v.(type) {
	case uint:
		return uint64(n), true
	case uint8:
		return uint64(n), true
	case uint16:
		return uint64(n), true
	case uint32:
		return uint64(n), true
	case uint64:
		return n, true
	default:
		return 0, false
	}
}

// Key maps an option key to its canonical spelling ("default-style" -> "default_style").
func Key(k string) string {
	return strings.ReplaceAll(k, "-", "_")
}

// Keys returns a copy of m with every key canonicalised. When both spellings of
// the same key are present the underscore spelling wins, independent of map order.
func Keys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		nk := Key(k)
		if _, taken := out[nk]; taken && nk != k {
			continue
		}
		out[nk] = v
	}
	return out
}

// Tree canonicalises the keys of every mapping nested in v. map[any]any
// mappings, as produced by some decoders, become map[string]any.
func Tree(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := Keys(t)
		for k, child := range out {
			out[k] = Tree(child)
		}
		return out
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, child := range t {
			m[fmt.Sprint(k)] = child
		}
		return Tree(m)
	case []any:
		out := make([]any, len(t))
		for i, child := range t {
			out[i] = Tree(child)
		}
		return out
	default:
		return v
	}
}

// IsURL reports whether p is an absolute URL: it needs a scheme, a host and a path.
func IsURL(p string) bool {
	if p == "" {
		return false
	}
	u, err := url.Parse(p)
	if err != nil {
		return false
	}
	return u.Scheme != "" && u.Host != "" && u.Path != ""
}

// TrimTrailingSlash strips every trailing "/" from a base URL.
func TrimTrailingSlash(s string) string {
	return strings.TrimRight(s, "/")
}

// JoinURL joins a base URL and a relative asset path with exactly one slash.
func JoinURL(base, rel string) string {
	return TrimTrailingSlash(base) + "/" + strings.TrimLeft(rel, "/")
}
