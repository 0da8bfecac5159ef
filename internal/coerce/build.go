package coerce

import (
	"fmt"

	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
)

// Build coerces raw into a value described by t. path names raw's position in
// the document and is used for every error raised below it.
//
// The result is a string, bool, int, float64 or dimension string for primitive
// kinds, a Node for node kinds and a []Node for list kinds.
func Build(t Type, raw any, path string) (any, error) {
	switch t.Kind {
	case KindList:
		return buildList(t.Node, raw, path)
	case KindNode:
		return buildNode(t.Node, raw, path, true)
	default:
		return buildPrimitive(t, raw, path)
	}
}

// BuildNode builds raw as node type n and asserts the concrete node type.
// The document root goes through here; an empty root mapping is rejected.
func BuildNode[T Node](n *NodeType, raw any, path string) (T, error) {
	var zero T
	out, err := buildNode(n, raw, path, true)
	if err != nil {
		return zero, err
	}
	typed, ok := out.(T)
	if !ok {
		return zero, fmt.Errorf("%s: %s finished as %T", displayPath(path), n.Name, out)
	}
	return typed, nil
}

func buildList(n *NodeType, raw any, path string) ([]Node, error) {
	if node, ok := raw.(Node); ok && node.NodeType() == n {
		return []Node{node}, nil
	}
	items, ok := asSequence(raw)
	if !ok {
		items = []any{raw}
	}
	out := make([]Node, 0, len(items))
	for i, item := range items {
		node, err := buildNode(n, item, IndexPath(path, i), true)
		if err != nil {
			return nil, err
		}
		out = append(out, node)
	}
	return out, nil
}

func buildNode(n *NodeType, raw any, path string, required bool) (Node, error) {
	if node, ok := raw.(Node); ok {
		if node.NodeType() == n {
			return node, nil
		}
		return nil, &TypeMismatchError{Path: path, Expected: n.Name, Actual: node.NodeType().Name}
	}
	m, ok := asMapping(raw)
	if !ok {
		return nil, &TypeMismatchError{Path: path, Expected: n.Name, Actual: kindOf(raw)}
	}
	if len(m) == 0 && required {
		return nil, &EmptyRequiredFieldError{Path: path, Node: n.Name}
	}
	m = normalize.Keys(m)

	vals := make(map[string]any, len(n.Fields))
	for _, f := range n.Fields {
		fp := JoinPath(path, f.Name)
		rv, present := m[f.Name]
		if !present || rv == nil {
			v, err := defaultFor(f, fp)
			if err != nil {
				return nil, err
			}
			vals[f.Name] = v
			continue
		}
		var (
			v   any
			err error
		)
		switch f.Type.Kind {
		case KindNode:
			v, err = buildNode(f.Type.Node, rv, fp, f.Required)
		case KindList:
			v, err = buildList(f.Type.Node, rv, fp)
		default:
			v, err = buildPrimitive(f.Type, rv, fp)
		}
		if err != nil {
			return nil, err
		}
		vals[f.Name] = v
	}
	return n.Finish(Values{node: n, path: path, vals: vals})
}

func defaultFor(f Field, path string) (any, error) {
	switch f.Type.Kind {
	case KindNode:
		return buildNode(f.Type.Node, map[string]any{}, path, false)
	case KindList:
		return []Node(nil), nil
	}
	if f.Default != nil {
		return buildPrimitive(f.Type, f.Default, path)
	}
	switch f.Type.Kind {
	case KindBool:
		return false, nil
	case KindInt:
		return 0, nil
	case KindFloat:
		return 0.0, nil
	default:
		return "", nil
	}
}

func buildPrimitive(t Type, raw any, path string) (any, error) {
	switch t.Kind {
	case KindString:
		if s, ok := raw.(string); ok {
			return s, nil
		}
	case KindBool:
		if b, ok := raw.(bool); ok {
			return b, nil
		}
	case KindInt:
		if i, ok := normalize.Int64(raw); ok {
			return int(i), nil
		}
		if u, ok := normalize.Uint64(raw); ok {
			return int(u), nil
		}
	case KindFloat:
		switch f := raw.(type) {
		case float64:
			return f, nil
		case float32:
			return float64(f), nil
		}
	case KindDimension:
		if d, ok := normalize.Dimension(raw); ok {
			return d, nil
		}
	default:
		return nil, fmt.Errorf("%s: %s is not a primitive kind", displayPath(path), t.Kind)
	}
	return nil, &TypeMismatchError{Path: path, Expected: t.Expected(), Actual: kindOf(raw)}
}

func asMapping(raw any) (map[string]any, bool) {
	switch m := raw.(type) {
	case map[string]any:
		return m, true
	case map[any]any:
		out := make(map[string]any, len(m))
		for k, v := range m {
			out[fmt.Sprint(k)] = v
		}
		return out, true
	default:
		return nil, false
	}
}

func asSequence(raw any) ([]any, bool) {
	switch s := raw.(type) {
	case []any:
		return s, true
	case []map[string]any:
		out := make([]any, len(s))
		for i, m := range s {
			out[i] = m
		}
		return out, true
	case []Node:
		out := make([]any, len(s))
		for i, n := range s {
			out[i] = n
		}
		return out, true
	default:
		return nil, false
	}
}

// kindOf names the runtime kind of a raw value for error messages.
func kindOf(raw any) string {
	if node, ok := raw.(Node); ok {
		return node.NodeType().Name
	}
	switch raw.(type) {
	case nil:
		return "null"
	case string:
		return "string"
	case bool:
		return "bool"
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return "int"
	case float32, float64:
		return "float"
	case map[string]any, map[any]any:
		return "mapping"
	case []any, []map[string]any:
		return "sequence"
	default:
		return fmt.Sprintf("%T", raw)
	}
}
