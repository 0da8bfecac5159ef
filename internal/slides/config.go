package slides

import (
	"slices"

	"git.home.luguber.info/inful/deckbuilder/internal/coerce"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
)

// Config is the deck document root.
type Config struct {
	Lang          string
	Title         string
	Description   string
	Author        string
	CDN           string
	Theme         string
	CodeTheme     string
	Icon          string
	Outline       int
	DefaultStyle  bool
	ExtraStyle    string
	Watermark     string
	WatermarkSize string
	NavMode       string
	ShowArrows    bool
	Center        bool
	Loop          bool
	History       bool
	SlideNum      string
	Progress      bool
	MouseWheel    bool
	PreviewLinks  bool
	Transition    string
	Footer        Footer
	Nav           []TopSlide
	Plugin        Plugin
}

func (*Config) NodeType() *coerce.NodeType { return ConfigType }

// Build coerces a raw document into a finished Config. raw is usually the
// decoded mapping of a deck file; an already built *Config is returned as is.
func Build(raw any) (*Config, error) {
	return coerce.BuildNode[*Config](ConfigType, raw, "")
}

func configFields() []coerce.Field {
	return []coerce.Field{
		{Name: "lang", Type: coerce.String(), Default: "en"},
		{Name: "title", Type: coerce.String()},
		{Name: "description", Type: coerce.String()},
		{Name: "author", Type: coerce.String()},
		{Name: "cdn", Type: coerce.String()},
		{Name: "theme", Type: coerce.String(), Default: "serif"},
		{Name: "code_theme", Type: coerce.String(), Default: "zenburn"},
		{Name: "icon", Type: coerce.String(), Default: "img/icon.png"},
		{Name: "outline", Type: coerce.Int(), Default: 2},
		{Name: "default_style", Type: coerce.Bool(), Default: true},
		{Name: "extra_style", Type: coerce.String()},
		{Name: "watermark", Type: coerce.String()},
		{Name: "watermark_size", Type: coerce.Dimension()},
		{Name: "nav_mode", Type: coerce.String(), Default: "default"},
		{Name: "show_arrows", Type: coerce.Bool(), Default: true},
		{Name: "center", Type: coerce.Bool(), Default: true},
		{Name: "loop", Type: coerce.Bool(), Default: false},
		{Name: "history", Type: coerce.Bool(), Default: true},
		{Name: "slide_num", Type: coerce.String(), Default: "c/t"},
		{Name: "progress", Type: coerce.Bool(), Default: true},
		{Name: "mouse_wheel", Type: coerce.Bool(), Default: false},
		{Name: "preview_links", Type: coerce.Bool(), Default: false},
		{Name: "transition", Type: coerce.String(), Default: "slide"},
		{Name: "footer", Type: coerce.NodeOf(FooterType)},
		{Name: "nav", Type: coerce.ListOf(TopSlideType)},
		{Name: "plugin", Type: coerce.NodeOf(PluginType)},
	}
}

func finishConfig(v coerce.Values) (coerce.Node, error) {
	c := &Config{
		Lang:          v.String("lang"),
		Title:         v.String("title"),
		Description:   v.String("description"),
		Author:        v.String("author"),
		CDN:           normalize.TrimTrailingSlash(v.String("cdn")),
		Theme:         v.String("theme"),
		CodeTheme:     v.String("code_theme"),
		Icon:          v.String("icon"),
		Outline:       v.Int("outline"),
		DefaultStyle:  v.Bool("default_style"),
		ExtraStyle:    v.String("extra_style"),
		Watermark:     v.String("watermark"),
		WatermarkSize: v.Dimension("watermark_size"),
		NavMode:       v.String("nav_mode"),
		ShowArrows:    v.Bool("show_arrows"),
		Center:        v.Bool("center"),
		Loop:          v.Bool("loop"),
		History:       v.Bool("history"),
		SlideNum:      v.String("slide_num"),
		Progress:      v.Bool("progress"),
		MouseWheel:    v.Bool("mouse_wheel"),
		PreviewLinks:  v.Bool("preview_links"),
		Transition:    v.String("transition"),
		Footer:        coerce.NodeAs[Footer](v, "footer"),
		Nav:           coerce.ListAs[TopSlide](v, "nav"),
		Plugin:        coerce.NodeAs[Plugin](v, "plugin"),
	}
	if c.Outline < 0 || c.Outline > MaxOutline {
		return nil, &InvalidOutlineLevelError{Path: v.FieldPath("outline"), Value: c.Outline}
	}
	if c.Title == "" && len(c.Nav) > 0 {
		c.Title = c.Nav[0].Title
	}

	c.Plugin.Math = NeedsMath(c.Nav)
	if doc := OutlineDoc(c.Nav, c.Outline, c.History); doc != "" {
		cover := &c.Nav[0]
		cover.Sub = append(slices.Clip(cover.Sub), Slide{Title: OutlineTitle, Doc: doc})
	}
	return c, nil
}

// Walk visits every slide depth-first in document order. child is 0 for a
// top-level slide and k for its k-th child.
func (c *Config) Walk(fn func(top, child int, s *Slide)) {
	walk(c.Nav, fn)
}

func walk(nav []TopSlide, fn func(top, child int, s *Slide)) {
	for i := range nav {
		fn(i, 0, &nav[i].Slide)
		for j := range nav[i].Sub {
			fn(i, j+1, &nav[i].Sub[j])
		}
	}
}

// SlideCount counts top-level and child slides, including a generated outline.
func (c *Config) SlideCount() int {
	n := 0
	c.Walk(func(int, int, *Slide) { n++ })
	return n
}
