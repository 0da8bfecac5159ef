// Package coerce turns untyped document values (the maps, slices and scalars a
// YAML or JSON decoder produces) into typed deck nodes.
//
// There is no reflection involved. Every node type declares a field table
// (NodeType.Fields), each field carries a tagged Type descriptor, and a single
// generic Build walks raw input against those tables:
//
//	primitive kind  -> runtime type must match (TypeMismatchError otherwise)
//	node kind       -> raw must be a mapping; fields are built one by one, then
//	                   NodeType.Finish runs exactly once and returns the node
//	list-of kind    -> a single mapping is promoted to a one-element list
//
// Nodes are never modified after Finish returns them. Passing an already built
// node back through Build returns it unchanged.
package coerce
