package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDimension(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
		ok   bool
	}{
		{"int", 300, "300pt", true},
		{"int64", int64(42), "42pt", true},
		{"uint8", uint8(7), "7pt", true},
		{"float", 12.5, "12.5pt", true},
		{"whole float", float64(3), "3pt", true},
		{"percent string", "50%", "50%", true},
		{"px string", "1000px", "1000px", true},
		{"empty string", "", "", true},
		{"bool", true, "", false},
		{"list", []any{1}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Dimension(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestKeys(t *testing.T) {
	got := Keys(map[string]any{
		"default-style": false,
		"code-theme":    "monokai",
		"title":         "T",
	})
	assert.Equal(t, map[string]any{"default_style": false, "code_theme": "monokai", "title": "T"}, got)

	// Underscore spelling wins regardless of iteration order.
	for range 20 {
		got = Keys(map[string]any{"slide-num": "h.v", "slide_num": "c/t"})
		assert.Equal(t, "c/t", got["slide_num"])
		assert.Len(t, got, 1)
	}
}

func TestIsURL(t *testing.T) {
	assert.True(t, IsURL("https://cdn.example/img/x.png"))
	assert.True(t, IsURL("http://example.com/a"))
	assert.False(t, IsURL("https://cdn.example"), "host without path is not an asset URL")
	assert.False(t, IsURL("img/x.png"))
	assert.False(t, IsURL("/static/img/x.png"))
	assert.False(t, IsURL(""))
	assert.False(t, IsURL("://bad"))
}

func TestJoinURL(t *testing.T) {
	assert.Equal(t, "https://cdn.example/img/x.png", JoinURL("https://cdn.example/", "/img/x.png"))
	assert.Equal(t, "https://cdn.example/img/x.png", JoinURL("https://cdn.example", "img/x.png"))
	assert.Equal(t, "https://cdn.example", TrimTrailingSlash("https://cdn.example///"))
}

func TestTree(t *testing.T) {
	in := map[string]any{
		"code-theme": "x",
		"nav": []any{
			map[any]any{"show-arrows": true, "sub": map[string]any{"slide-num": "c"}},
		},
	}
	want := map[string]any{
		"code_theme": "x",
		"nav": []any{
			map[string]any{"show_arrows": true, "sub": map[string]any{"slide_num": "c"}},
		},
	}
	assert.Equal(t, want, Tree(in))
	assert.Equal(t, "plain", Tree("plain"))
}
