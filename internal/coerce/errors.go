package coerce

import (
	"fmt"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
)

// TypeMismatchError reports a raw value whose runtime type does not match the
// declared field type.
type TypeMismatchError struct {
	Path     string
	Expected string
	Actual   string
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %s, got %s", displayPath(e.Path), e.Expected, e.Actual)
}

// Classify implements derrors.Classifier.
func (e *TypeMismatchError) Classify() *derrors.ClassifiedError {
	return derrors.ValidationError(e.Error()).
		WithContext("field", e.Path).
		WithContext("expected", e.Expected).
		WithContext("actual", e.Actual).
		Build()
}

// EmptyRequiredFieldError reports an empty mapping in a position that needs content.
type EmptyRequiredFieldError struct {
	Path string
	Node string
}

func (e *EmptyRequiredFieldError) Error() string {
	return fmt.Sprintf("%s: %s cannot be empty", displayPath(e.Path), e.Node)
}

// Classify implements derrors.Classifier.
func (e *EmptyRequiredFieldError) Classify() *derrors.ClassifiedError {
	return derrors.ValidationError(e.Error()).WithContext("field", e.Path).Build()
}

func displayPath(p string) string {
	if p == "" {
		return "document"
	}
	return p
}

// JoinPath appends a field name to a parent path ("nav[1]" + "title").
func JoinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "." + name
}

// IndexPath appends a list index to a path ("nav" + 1 -> "nav[1]").
func IndexPath(parent string, i int) string {
	return fmt.Sprintf("%s[%d]", parent, i)
}
