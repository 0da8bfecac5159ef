package packager

import (
	"fmt"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
)

// AssetFetchError reports a CDN asset that could not be downloaded into the
// bundle. The bundle would reference a missing file, so it is fatal.
type AssetFetchError struct {
	URL         string
	Destination string
	Err         error
}

func (e *AssetFetchError) Error() string {
	return fmt.Sprintf("fetch %s into %s: %v", e.URL, e.Destination, e.Err)
}

func (e *AssetFetchError) Unwrap() error { return e.Err }

// Classify implements derrors.Classifier.
func (e *AssetFetchError) Classify() *derrors.ClassifiedError {
	return derrors.WrapError(e.Err, derrors.CategoryNetwork, e.Error()).
		WithContext("url", e.URL).
		WithContext("destination", e.Destination).
		Fatal().
		Build()
}
