package slides

import (
	"fmt"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
)

// InvalidOutlineLevelError reports an outline value outside 0..MaxOutline.
type InvalidOutlineLevelError struct {
	Path  string
	Value int
}

func (e *InvalidOutlineLevelError) Error() string {
	return fmt.Sprintf("%s: outline level should be 0, 1 or 2, not %d", e.Path, e.Value)
}

// Classify implements derrors.Classifier.
func (e *InvalidOutlineLevelError) Classify() *derrors.ClassifiedError {
	return derrors.ValidationError(e.Error()).
		WithContext("field", e.Path).
		WithContext("value", e.Value).
		Build()
}
