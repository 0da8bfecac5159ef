package project

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/pelletier/go-toml/v2"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
)

// Format is a deck document encoding.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
	FormatTOML Format = "toml"
)

// FormatOf picks the format from a file extension, defaulting to YAML.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		return FormatJSON
	case ".toml":
		return FormatTOML
	default:
		return FormatYAML
	}
}

// Decode parses a deck document into a key-normalized mapping. JSON may carry
// comments and trailing commas.
func Decode(data []byte, format Format) (map[string]any, error) {
	var (
		raw any
		err error
	)
	switch format {
	case FormatJSON:
		raw, err = decodeJSON(data)
	case FormatTOML:
		var m map[string]any
		err = toml.Unmarshal(data, &m)
		raw = m
	default:
		err = yaml.Unmarshal(data, &raw)
	}
	if err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryValidation, fmt.Sprintf("parse %s document", format)).
			WithContext("format", string(format)).
			UserAction().
			Build()
	}
	if raw == nil {
		return map[string]any{}, nil
	}
	doc, ok := normalize.Tree(raw).(map[string]any)
	if !ok {
		return nil, derrors.ValidationError(fmt.Sprintf("deck document must be a mapping, got %T", raw)).Build()
	}
	return doc, nil
}

func decodeJSON(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, err
	}
	return numbers(raw), nil
}

// numbers turns json.Number leaves into int64 when integral, else float64,
// so integer fields keep their integer kind.
func numbers(v any) any {
	switch t := v.(type) {
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return i
		}
		if f, err := t.Float64(); err == nil {
			return f
		}
		return t.String()
	case map[string]any:
		for k, child := range t {
			t[k] = numbers(child)
		}
		return t
	case []any:
		for i, child := range t {
			t[i] = numbers(child)
		}
		return t
	default:
		return v
	}
}
