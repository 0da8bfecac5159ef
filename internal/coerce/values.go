package coerce

import "fmt"

// Values holds the built field values of one node while its Finish step runs.
// Accessors panic on names missing from the field table: that is a bug in the
// table, not in the document.
type Values struct {
	node *NodeType
	path string
	vals map[string]any
}

// Path is the document path of the node being finished.
func (v Values) Path() string { return v.path }

// FieldPath is the document path of one of the node's fields.
func (v Values) FieldPath(name string) string { return JoinPath(v.path, name) }

func (v Values) get(name string, want Kind) any {
	f, ok := v.node.field(name)
	if !ok {
		panic(fmt.Sprintf("coerce: %s has no field %q", v.node.Name, name))
	}
	if f.Type.Kind != want {
		panic(fmt.Sprintf("coerce: %s.%s is %s, not %s", v.node.Name, name, f.Type.Kind, want))
	}
	return v.vals[name]
}

func (v Values) String(name string) string {
	s, _ := v.get(name, KindString).(string)
	return s
}

func (v Values) Dimension(name string) string {
	s, _ := v.get(name, KindDimension).(string)
	return s
}

func (v Values) Bool(name string) bool {
	b, _ := v.get(name, KindBool).(bool)
	return b
}

func (v Values) Int(name string) int {
	i, _ := v.get(name, KindInt).(int)
	return i
}

func (v Values) Float(name string) float64 {
	f, _ := v.get(name, KindFloat).(float64)
	return f
}

// Node returns a built composite field.
func (v Values) Node(name string) Node {
	n, _ := v.get(name, KindNode).(Node)
	return n
}

// NodeAs returns a built composite field as its concrete type.
func NodeAs[T Node](v Values, name string) T {
	t, _ := v.Node(name).(T)
	return t
}

// ListAs returns a built list field as a slice of its concrete node type.
func ListAs[T Node](v Values, name string) []T {
	nodes, _ := v.get(name, KindList).([]Node)
	out := make([]T, 0, len(nodes))
	for _, n := range nodes {
		if t, ok := n.(T); ok {
			out = append(out, t)
		}
	}
	return out
}
