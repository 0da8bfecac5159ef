package slides

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func outlineDeck(extra map[string]any) map[string]any {
	doc := map[string]any{
		"nav": []any{
			map[string]any{"title": "Cover"},
			map[string]any{"title": "A"},
			map[string]any{"title": "B", "sub": []any{map[string]any{"title": "C"}}},
		},
	}
	for k, v := range extra {
		doc[k] = v
	}
	return doc
}

func TestOutlineWithHistory(t *testing.T) {
	c, err := Build(outlineDeck(map[string]any{"outline": 2, "history": true}))
	require.NoError(t, err)

	require.Len(t, c.Nav[0].Sub, 1)
	outline := c.Nav[0].Sub[0]
	assert.Equal(t, OutlineTitle, outline.Title)
	assert.Equal(t, "+ [A](#/1)\n+ [B](#/2)\n  + [C](#/2/1)", outline.Doc)
}

func TestOutlineWithoutHistory(t *testing.T) {
	c, err := Build(outlineDeck(map[string]any{"history": false}))
	require.NoError(t, err)
	assert.Equal(t, "+ A\n+ B\n  + C", c.Nav[0].Sub[0].Doc)
}

func TestOutlineTopLevelOnly(t *testing.T) {
	c, err := Build(outlineDeck(map[string]any{"outline": 1}))
	require.NoError(t, err)
	assert.Equal(t, "+ [A](#/1)\n+ [B](#/2)", c.Nav[0].Sub[0].Doc)
}

func TestOutlineDisabled(t *testing.T) {
	c, err := Build(outlineDeck(map[string]any{"outline": 0}))
	require.NoError(t, err)
	assert.Empty(t, c.Nav[0].Sub)
}

func TestOutlineSkipsCoverAndUntitled(t *testing.T) {
	c, err := Build(map[string]any{"nav": []any{
		map[string]any{"title": "Cover", "sub": []any{map[string]any{"title": "Intro"}}},
		map[string]any{"doc": "no title", "sub": []any{map[string]any{"title": "Kept"}, map[string]any{"doc": "x"}}},
	}})
	require.NoError(t, err)

	sub := c.Nav[0].Sub
	require.Len(t, sub, 2)
	assert.Equal(t, "Intro", sub[0].Title)
	assert.Equal(t, "  + [Kept](#/1/1)", sub[1].Doc)
}

func TestOutlineNotAddedWithoutBullets(t *testing.T) {
	c, err := Build(map[string]any{"nav": []any{map[string]any{"title": "Cover"}}})
	require.NoError(t, err)
	assert.Empty(t, c.Nav[0].Sub)
}

func TestNeedsMath(t *testing.T) {
	c, err := Build(map[string]any{"nav": []any{
		map[string]any{"title": "Cover"},
		map[string]any{"title": "A", "sub": []any{map[string]any{"math": `\int x`}}},
	}})
	require.NoError(t, err)
	assert.True(t, c.Plugin.Math)

	c, err = Build(outlineDeck(nil))
	require.NoError(t, err)
	assert.False(t, c.Plugin.Math)
}

func TestOutlineDocDirect(t *testing.T) {
	nav := []TopSlide{
		{Slide: Slide{Title: "Cover"}},
		{Slide: Slide{Title: "A"}, Sub: []Slide{{Title: "A1"}, {Title: "A2"}}},
	}
	assert.Equal(t, "+ [A](#/1)\n  + [A1](#/1/1)\n  + [A2](#/1/2)", OutlineDoc(nav, 2, true))
	assert.Empty(t, OutlineDoc(nav[:1], 2, true))
}
