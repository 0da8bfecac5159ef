package slides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/deckbuilder/internal/coerce"
)

func TestBuildDefaults(t *testing.T) {
	c, err := Build(map[string]any{"title": "Deck"})
	require.NoError(t, err)

	assert.Equal(t, "en", c.Lang)
	assert.Equal(t, "serif", c.Theme)
	assert.Equal(t, "zenburn", c.CodeTheme)
	assert.Equal(t, "img/icon.png", c.Icon)
	assert.Equal(t, 2, c.Outline)
	assert.True(t, c.DefaultStyle)
	assert.Equal(t, "default", c.NavMode)
	assert.True(t, c.ShowArrows)
	assert.True(t, c.Center)
	assert.False(t, c.Loop)
	assert.True(t, c.History)
	assert.Equal(t, "c/t", c.SlideNum)
	assert.True(t, c.Progress)
	assert.False(t, c.MouseWheel)
	assert.False(t, c.PreviewLinks)
	assert.Equal(t, "slide", c.Transition)
	assert.Equal(t, Plugin{Notes: true, Highlight: true}, c.Plugin)
	assert.Equal(t, Footer{}, c.Footer)
	assert.Empty(t, c.Nav)
}

func TestBuildEmptyDocument(t *testing.T) {
	_, err := Build(map[string]any{})
	var empty *coerce.EmptyRequiredFieldError
	require.ErrorAs(t, err, &empty)
}

func TestBuildNormalizesDashedKeys(t *testing.T) {
	c, err := Build(map[string]any{
		"default-style": false,
		"code-theme":    "monokai",
		"plugin":        map[string]any{"zoom": true},
		"nav": []any{map[string]any{
			"title": "Cover",
			"sub":   []any{map[string]any{"title": "x", "fragment": map[string]any{"img": "fade-in"}}},
		}},
	})
	require.NoError(t, err)
	assert.False(t, c.DefaultStyle)
	assert.Equal(t, "monokai", c.CodeTheme)
	assert.True(t, c.Plugin.Zoom)
	assert.Equal(t, "fade-in", c.Nav[0].Sub[0].Fragment.Img)
}

func TestBuildTitleFromCover(t *testing.T) {
	c, err := Build(map[string]any{"nav": []any{map[string]any{"title": "Cover"}}})
	require.NoError(t, err)
	assert.Equal(t, "Cover", c.Title)

	c, err = Build(map[string]any{"title": "Own", "nav": []any{map[string]any{"title": "Cover"}}})
	require.NoError(t, err)
	assert.Equal(t, "Own", c.Title)
}

func TestBuildCDNTrailingSlash(t *testing.T) {
	c, err := Build(map[string]any{"cdn": "https://cdn.example/deck/"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/deck", c.CDN)
}

func TestBuildSizes(t *testing.T) {
	c, err := Build(map[string]any{
		"watermark_size": 30,
		"footer":         map[string]any{"src": "f.png", "width": 12, "height": "2em", "link": "https://x.org/"},
		"nav": []any{map[string]any{
			"title": "Cover",
			"img":   []any{map[string]any{"src": "a.png", "width": 50, "height": "50%", "label": "A"}},
		}},
	})
	require.NoError(t, err)

	assert.Equal(t, "30pt", c.WatermarkSize)
	assert.Equal(t, Footer{Image: Image{SizedAsset: SizedAsset{Src: "f.png", Width: "12pt", Height: "2em"}}, Link: "https://x.org/"}, c.Footer)
	assert.Equal(t, []Image{{SizedAsset: SizedAsset{Src: "a.png", Width: "50pt", Height: "50%"}, Label: "A"}}, c.Nav[0].Img)
}

func TestBuildEmbedDefaults(t *testing.T) {
	c, err := Build(map[string]any{"nav": []any{
		map[string]any{"title": "a"},
		map[string]any{"title": "b", "embed": map[string]any{"src": "https://x.org/e", "width": 300}},
	}})
	require.NoError(t, err)

	assert.Equal(t, SizedAsset{Width: DefaultEmbedWidth, Height: DefaultEmbedHeight}, c.Nav[0].Embed)
	assert.Equal(t, SizedAsset{Src: "https://x.org/e", Width: "300pt", Height: DefaultEmbedHeight}, c.Nav[1].Embed)
	assert.Equal(t, SizedAsset{}, c.Nav[1].Youtube)
}

func TestBuildTypeMismatchNamesField(t *testing.T) {
	tests := []struct {
		name string
		raw  map[string]any
		path string
	}{
		{"string field", map[string]any{"theme": 3}, "theme"},
		{"bool field", map[string]any{"loop": "no"}, "loop"},
		{"int field", map[string]any{"outline": "2"}, "outline"},
		{"plugin flag", map[string]any{"plugin": map[string]any{"math": "yes"}}, "plugin.math"},
		{"nested slide", map[string]any{"nav": []any{map[string]any{"title": "a", "sub": []any{map[string]any{"doc": 1}}}}}, "nav[0].sub[0].doc"},
		{"image size", map[string]any{"nav": map[string]any{"img": map[string]any{"width": []any{}}}}, "nav[0].img[0].width"},
		{"footer", map[string]any{"footer": "f.png"}, "footer"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.raw)
			var mismatch *coerce.TypeMismatchError
			require.ErrorAs(t, err, &mismatch)
			assert.Equal(t, tt.path, mismatch.Path)
		})
	}
}

func TestBuildSingletonPromotion(t *testing.T) {
	single, err := Build(map[string]any{"nav": map[string]any{
		"title": "Cover",
		"img":   map[string]any{"src": "a.png"},
		"sub":   map[string]any{"title": "child"},
	}})
	require.NoError(t, err)

	listed, err := Build(map[string]any{"nav": []any{map[string]any{
		"title": "Cover",
		"img":   []any{map[string]any{"src": "a.png"}},
		"sub":   []any{map[string]any{"title": "child"}},
	}}})
	require.NoError(t, err)

	assert.Equal(t, listed, single)
}

func TestBuildIdempotent(t *testing.T) {
	first, err := Build(map[string]any{
		"title": "T",
		"nav": []any{
			map[string]any{"title": "Cover"},
			map[string]any{"title": "A", "math": "x^2"},
		},
	})
	require.NoError(t, err)

	again, err := Build(first)
	require.NoError(t, err)
	assert.Same(t, first, again)

	top, err := coerce.Build(coerce.ListOf(TopSlideType), first.Nav[1], "nav")
	require.NoError(t, err)
	assert.Equal(t, []coerce.Node{first.Nav[1]}, top)
}

func TestBuildRebuildFromBuiltSlides(t *testing.T) {
	first, err := Build(map[string]any{"nav": []any{
		map[string]any{"title": "Cover"},
		map[string]any{"title": "A"},
	}})
	require.NoError(t, err)
	require.Len(t, first.Nav[0].Sub, 1)

	nav := make([]any, len(first.Nav))
	for i, s := range first.Nav {
		nav[i] = s
	}
	second, err := Build(map[string]any{"outline": 0, "nav": nav})
	require.NoError(t, err)

	assert.Len(t, first.Nav[0].Sub, 1, "source slides must not change")
	assert.Equal(t, first.Nav[0].Sub, second.Nav[0].Sub)
}

func TestBuildInvalidOutline(t *testing.T) {
	for _, level := range []int{-1, 3} {
		_, err := Build(map[string]any{"outline": level})
		var invalid *InvalidOutlineLevelError
		require.ErrorAs(t, err, &invalid)
		assert.Equal(t, level, invalid.Value)
		assert.Equal(t, "outline", invalid.Path)
	}
}

func TestBuildPluginMathIgnoresDocument(t *testing.T) {
	c, err := Build(map[string]any{"plugin": map[string]any{"math": true}})
	require.NoError(t, err)
	assert.False(t, c.Plugin.Math)
}

func TestSlideCount(t *testing.T) {
	c, err := Build(map[string]any{"nav": []any{
		map[string]any{"title": "Cover"},
		map[string]any{"title": "A", "sub": []any{map[string]any{"title": "B"}}},
	}})
	require.NoError(t, err)
	// cover, generated outline, A, B
	assert.Equal(t, 4, c.SlideCount())
}
