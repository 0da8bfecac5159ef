// Package slides defines the deck document model: the closed set of node
// types a deck is built from and the field tables the coercion engine uses to
// build them.
//
// A deck is built once per request or build with Build and is not mutated
// afterwards. Config's finish step derives the outline slide and the math
// plugin flag from the finished tree.
package slides
