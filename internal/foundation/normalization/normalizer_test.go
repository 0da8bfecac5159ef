package normalization

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mode string

func newModes() *Normalizer[mode] {
	return NewNormalizer(map[string]mode{"Fixed": "fixed", "linear": "linear"}, "linear")
}

func TestNormalize(t *testing.T) {
	n := newModes()
	assert.Equal(t, mode("fixed"), n.Normalize("  FIXED "))
	assert.Equal(t, mode("linear"), n.Normalize("bogus"))
}

func TestNormalizeWithError(t *testing.T) {
	n := newModes()

	got, err := n.NormalizeWithError("Linear")
	require.NoError(t, err)
	assert.Equal(t, mode("linear"), got)

	got, err = n.NormalizeWithError("")
	require.NoError(t, err)
	assert.Equal(t, mode("linear"), got)

	_, err = n.NormalizeWithError("cubic")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "[fixed linear]")
}

func TestValidKeysIsCopy(t *testing.T) {
	n := newModes()
	keys := n.ValidKeys()
	keys[0] = "mutated"
	assert.Equal(t, []string{"fixed", "linear"}, n.ValidKeys())
}
