package project

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

const deckYAML = `
title: Demo
default-style: false
nav:
  - title: Cover
  - title: First
    sub:
      - title: Child
        math: x^2
`

func TestFindPrefersYAML(t *testing.T) {
	fsys := afero.NewMemMapFs()
	dir := "/decks/demo"
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, "reveal.yml"), []byte("title: yml"), 0o644))
	require.NoError(t, afero.WriteFile(fsys, filepath.Join(dir, "reveal.yaml"), []byte("title: yaml"), 0o644))

	p, err := Find(fsys, dir)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "reveal.yaml"), p.File)
	assert.Equal(t, filepath.Join(dir, "static"), p.StaticPath())
}

func TestFindMissing(t *testing.T) {
	_, err := Find(afero.NewMemMapFs(), "/empty")
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryNotFound))
}

func TestProjectDeck(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/d/reveal.yaml", []byte(deckYAML), 0o644))

	p, err := Find(fsys, "/d")
	require.NoError(t, err)

	v, err := schema.New()
	require.NoError(t, err)

	deck, err := p.Deck(v)
	require.NoError(t, err)
	assert.Equal(t, "Demo", deck.Title)
	assert.False(t, deck.DefaultStyle)
	assert.True(t, deck.Plugin.Math)
	require.Len(t, deck.Nav[0].Sub, 1)
	assert.Equal(t, "+ [First](#/1)\n  + [Child](#/1/1)", deck.Nav[0].Sub[0].Doc)
}

func TestCompileSchemaFailure(t *testing.T) {
	v, err := schema.New()
	require.NoError(t, err)

	_, err = Compile(map[string]any{"outline": "two"}, v)
	var schemaErr *schema.Error
	require.ErrorAs(t, err, &schemaErr)
}

func TestCompileOutlineOutOfRange(t *testing.T) {
	v, err := schema.New()
	require.NoError(t, err)

	_, err = Compile(map[string]any{"outline": 5}, v)
	var invalid *slides.InvalidOutlineLevelError
	require.ErrorAs(t, err, &invalid)
	assert.Equal(t, 5, invalid.Value)
	assert.Equal(t, "outline", invalid.Path)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{"yaml", FormatYAML, "title: T\noutline: 1\nshow-arrows: false\n"},
		{"json with comments", FormatJSON, `{
			// heading
			"title": "T",
			"outline": 1,
			"show-arrows": false,
		}`},
		{"toml", FormatTOML, "title = \"T\"\noutline = 1\nshow-arrows = false\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.data), tt.format)
			require.NoError(t, err)
			assert.Equal(t, "T", doc["title"])
			assert.Equal(t, false, doc["show_arrows"])

			deck, err := Compile(doc, nil)
			require.NoError(t, err)
			assert.Equal(t, 1, deck.Outline)
		})
	}
}

func TestDecodeJSONFloat(t *testing.T) {
	doc, err := Decode([]byte(`{"watermark_size": 1.5, "outline": 2}`), FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, 1.5, doc["watermark_size"])
	assert.Equal(t, int64(2), doc["outline"])
}

func TestDecodeRejects(t *testing.T) {
	_, err := Decode([]byte("- a\n- b\n"), FormatYAML)
	require.Error(t, err)
	assert.True(t, derrors.HasCategory(err, derrors.CategoryValidation))

	_, err = Decode([]byte("title: [unterminated"), FormatYAML)
	require.Error(t, err)
}

func TestDecodeEmpty(t *testing.T) {
	doc, err := Decode(nil, FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatYAML, FormatOf("reveal.yml"))
	assert.Equal(t, FormatJSON, FormatOf("reveal.JSON"))
	assert.Equal(t, FormatTOML, FormatOf("x/reveal.toml"))
}
