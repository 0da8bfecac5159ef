package coerce

import "fmt"

// Kind tags a field descriptor.
type Kind int

const (
	KindString Kind = iota + 1
	KindBool
	KindInt
	KindFloat
	// KindDimension accepts a number (rendered "<n>pt") or a string.
	KindDimension
	KindNode
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindDimension:
		return "number or string"
	case KindNode:
		return "node"
	case KindList:
		return "list"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Type is a tagged type descriptor: a primitive kind, a node kind or a list of nodes.
type Type struct {
	Kind Kind
	Node *NodeType
}

func String() Type    { return Type{Kind: KindString} }
func Bool() Type      { return Type{Kind: KindBool} }
func Int() Type       { return Type{Kind: KindInt} }
func Float() Type     { return Type{Kind: KindFloat} }
func Dimension() Type { return Type{Kind: KindDimension} }

// NodeOf describes a single composite field of node type n.
func NodeOf(n *NodeType) Type { return Type{Kind: KindNode, Node: n} }

// ListOf describes an ordered list of nodes of type n.
func ListOf(n *NodeType) Type { return Type{Kind: KindList, Node: n} }

// Expected renders the descriptor the way error messages name it.
func (t Type) Expected() string {
	switch t.Kind {
	case KindNode:
		return t.Node.Name
	case KindList:
		return "list of " + t.Node.Name
	default:
		return t.Kind.String()
	}
}

// Field declares one entry of a node's field table.
type Field struct {
	Name string
	Type Type
	// Default is used when the key is absent or null. Primitive fields only;
	// absent composites become an all-default instance, absent lists are empty.
	Default any
	// Required makes a present-but-empty mapping an EmptyRequiredFieldError.
	// Optional composites fall back to their defaults instead.
	Required bool
}

// Node is implemented by every built deck value.
type Node interface {
	NodeType() *NodeType
}

// NodeType is the closed description of one node: its field table and the
// post-construction step that turns gathered values into the finished node.
type NodeType struct {
	Name   string
	Fields []Field
	Finish func(v Values) (Node, error)
}

func (n *NodeType) field(name string) (Field, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}
