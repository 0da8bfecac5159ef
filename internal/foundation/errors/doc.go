// Package errors provides the classified error primitives used across deckbuilder.
//
// Domain packages return typed errors (coerce.TypeMismatchError,
// packager.AssetFetchError, ...) that implement Classifier, so the CLI and HTTP
// adapters can route them without knowing the concrete types.
//
//	err := errors.NetworkError("asset download failed").
//		WithContext("url", u).
//		WithCause(cause).
//		Build()
package errors
