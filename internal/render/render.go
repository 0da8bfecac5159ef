// Package render turns a built deck into a reveal.js HTML page.
package render

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
	"golang.org/x/text/language"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

//go:embed templates/*.tmpl templates/deck.css
var templateFS embed.FS

// Paths of the reveal.js core inside the static mirror.
const (
	ResetCSS  = "reveal.js/reset.css"
	RevealCSS = "reveal.js/reveal.css"
	RevealJS  = "reveal.js/reveal.js"
)

// Renderer renders a deck with a path resolver.
type Renderer interface {
	Render(w io.Writer, deck *slides.Config, res assets.PathResolver) error
}

// Options tune a rendering beyond the deck itself.
type Options struct {
	// LiveReload is the server-sent events route the page subscribes to;
	// empty disables it.
	LiveReload string
}

// HTML is the default Renderer. It is safe for concurrent use.
type HTML struct {
	tmpl  *template.Template
	md    goldmark.Markdown
	opts  Options
	style template.CSS
}

// NewHTML parses the embedded page template.
func NewHTML(opts Options) (*HTML, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/deck.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse deck template: %w", err)
	}
	md := goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)
	style, err := templateFS.ReadFile("templates/deck.css")
	if err != nil {
		return nil, fmt.Errorf("read default style: %w", err)
	}
	// #nosec G203 -- embedded stylesheet, not user input
	return &HTML{tmpl: tmpl, md: md, opts: opts, style: template.CSS(style)}, nil
}

// Render writes the page for deck to w.
func (h *HTML) Render(w io.Writer, deck *slides.Config, res assets.PathResolver) error {
	p, err := h.page(deck, res)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := h.tmpl.ExecuteTemplate(&buf, "deck.html.tmpl", p); err != nil {
		return derrors.WrapError(err, derrors.CategoryRender, "execute deck template").Fatal().Build()
	}
	_, err = w.Write(buf.Bytes())
	return err
}

// String renders deck into a string.
func (h *HTML) String(deck *slides.Config, res assets.PathResolver) (string, error) {
	var b strings.Builder
	if err := h.Render(&b, deck, res); err != nil {
		return "", err
	}
	return b.String(), nil
}

type page struct {
	Lang         string
	Title        string
	Description  string
	Author       string
	Icon         string
	ResetCSS     string
	RevealCSS    string
	RevealJS     string
	Theme        string
	CodeTheme    string
	DefaultStyle template.CSS
	ExtraStyle   template.CSS
	Watermark    *media
	Footer       *footer
	Sections     []section
	Plugins      []plugin
	PluginIdents template.JS
	Options      template.JS
	LiveReload   string
}

type section struct {
	Top slideView
	Sub []slideView
}

type slideView struct {
	ID      string
	Heading template.HTML
	Body    template.HTML
	Math    *mathView
	Images  []media
	Youtube *media
	Embed   *media
}

type mathView struct {
	Text     string
	Fragment string
}

type media struct {
	Src      string
	Width    string
	Height   string
	Label    string
	Fragment string
}

type footer struct {
	media
	Link string
}

type plugin struct {
	Name   string
	Ident  string
	Script string
}

// revealOptions mirrors Reveal.initialize; field order fixes the output.
type revealOptions struct {
	Controls       bool   `json:"controls"`
	Progress       bool   `json:"progress"`
	SlideNumber    any    `json:"slideNumber"`
	History        bool   `json:"history"`
	Center         bool   `json:"center"`
	Loop           bool   `json:"loop"`
	MouseWheel     bool   `json:"mouseWheel"`
	PreviewLinks   bool   `json:"previewLinks"`
	Transition     string `json:"transition"`
	NavigationMode string `json:"navigationMode"`
}

// PluginNames lists the optional plugins in load order. Each owns
// static/plugin/<name>.
var PluginNames = []string{"highlight", "notes", "search", "zoom", "math"}

var pluginIdents = map[string]string{
	"highlight": "RevealHighlight",
	"notes":     "RevealNotes",
	"search":    "RevealSearch",
	"zoom":      "RevealZoom",
	"math":      "RevealMath",
}

// ThemePath is the static path of the deck's reveal.js theme.
func ThemePath(deck *slides.Config) string { return "reveal.js/theme/" + deck.Theme + ".css" }

// CodeThemePath is the static path of the highlight.js theme, or "" when the
// highlight plugin is off.
func CodeThemePath(deck *slides.Config) string {
	if !deck.Plugin.Highlight {
		return ""
	}
	return "plugin/highlight/" + deck.CodeTheme + ".css"
}

// PluginScript is the static path of a plugin's script.
func PluginScript(name string) string { return "plugin/" + name + "/" + name + ".js" }

// BaseAssets lists the static files every page of deck links to besides its
// own content: the reveal.js core, the themes and each enabled plugin.
func BaseAssets(deck *slides.Config) []string {
	out := []string{ResetCSS, RevealCSS, ThemePath(deck)}
	if ct := CodeThemePath(deck); ct != "" {
		out = append(out, ct)
	}
	out = append(out, RevealJS)
	enabled := EnabledPlugins(deck.Plugin)
	for _, name := range PluginNames {
		if enabled[name] {
			out = append(out, PluginScript(name))
		}
	}
	return out
}

// EnabledPlugins maps plugin names to their flag on deck.
func EnabledPlugins(p slides.Plugin) map[string]bool {
	return map[string]bool{
		"highlight": p.Highlight,
		"notes":     p.Notes,
		"search":    p.Search,
		"zoom":      p.Zoom,
		"math":      p.Math,
	}
}

func (h *HTML) page(deck *slides.Config, res assets.PathResolver) (page, error) {
	p := page{
		Lang:         LangTag(deck.Lang),
		Title:        deck.Title,
		Description:  deck.Description,
		Author:       deck.Author,
		Icon:         res.Resolve(deck.Icon),
		ResetCSS:     res.Resolve(ResetCSS),
		RevealCSS:    res.Resolve(RevealCSS),
		RevealJS:     res.Resolve(RevealJS),
		Theme:        res.Resolve(ThemePath(deck)),
		CodeTheme:    res.Resolve(CodeThemePath(deck)),
		LiveReload:   h.opts.LiveReload,
	}
	if deck.DefaultStyle {
		p.DefaultStyle = h.style
	}
	if deck.ExtraStyle != "" {
		p.ExtraStyle = template.CSS(res.Include(deck.ExtraStyle))
	}
	if deck.Watermark != "" {
		p.Watermark = &media{Src: res.Resolve(deck.Watermark), Width: deck.WatermarkSize}
	}
	if deck.Footer.Src != "" {
		p.Footer = &footer{media: h.image(deck.Footer.Image, "", res), Link: deck.Footer.Link}
	}

	for i, top := range deck.Nav {
		tv, err := h.slide(top.Slide, i == 0, res)
		if err != nil {
			return page{}, err
		}
		s := section{Top: tv}
		for _, sub := range top.Sub {
			sv, err := h.slide(sub, false, res)
			if err != nil {
				return page{}, err
			}
			s.Sub = append(s.Sub, sv)
		}
		p.Sections = append(p.Sections, s)
	}

	enabled := EnabledPlugins(deck.Plugin)
	var idents []string
	for _, name := range PluginNames {
		if !enabled[name] {
			continue
		}
		p.Plugins = append(p.Plugins, plugin{
			Name:   name,
			Ident:  pluginIdents[name],
			Script: res.Resolve(PluginScript(name)),
		})
		idents = append(idents, pluginIdents[name])
	}
	p.PluginIdents = template.JS(strings.Join(idents, ", "))

	opts := revealOptions{
		Controls:       deck.ShowArrows,
		Progress:       deck.Progress,
		SlideNumber:    false,
		History:        deck.History,
		Center:         deck.Center,
		Loop:           deck.Loop,
		MouseWheel:     deck.MouseWheel,
		PreviewLinks:   deck.PreviewLinks,
		Transition:     deck.Transition,
		NavigationMode: deck.NavMode,
	}
	if deck.SlideNum != "" {
		opts.SlideNumber = deck.SlideNum
	}
	raw, err := json.Marshal(opts)
	if err != nil {
		return page{}, derrors.WrapError(err, derrors.CategoryRender, "encode reveal options").Build()
	}
	p.Options = template.JS(raw)
	return p, nil
}

func (h *HTML) slide(s slides.Slide, cover bool, res assets.PathResolver) (slideView, error) {
	v := slideView{ID: s.ID}
	if s.Title != "" {
		tag := "h2"
		if cover {
			tag = "h1"
		}
		v.Heading = template.HTML(fmt.Sprintf("<%s>%s</%s>", tag, template.HTMLEscapeString(s.Title), tag))
	}

	doc := s.Doc
	if s.Include != "" {
		if text := res.Include(s.Include); text != "" {
			doc += "\n\n" + text
		}
	}
	if strings.TrimSpace(doc) != "" {
		var buf bytes.Buffer
		if err := h.md.Convert([]byte(doc), &buf); err != nil {
			return slideView{}, derrors.WrapError(err, derrors.CategoryRender, "convert slide markdown").
				WithContext("slide", s.Title).Build()
		}
		v.Body = template.HTML(buf.String())
	}

	if s.Math != "" {
		v.Math = &mathView{Text: s.Math, Fragment: s.Fragment.Math}
	}
	for _, img := range s.Img {
		v.Images = append(v.Images, h.image(img, s.Fragment.Img, res))
	}
	if s.Youtube.Src != "" {
		v.Youtube = &media{
			Src:      youtubeURL(s.Youtube.Src),
			Width:    s.Youtube.Width,
			Height:   s.Youtube.Height,
			Fragment: s.Fragment.Youtube,
		}
	}
	if s.Embed.Src != "" {
		v.Embed = &media{
			Src:      res.Resolve(s.Embed.Src),
			Width:    s.Embed.Width,
			Height:   s.Embed.Height,
			Fragment: s.Fragment.Embed,
		}
	}
	return v, nil
}

func (h *HTML) image(img slides.Image, fragment string, res assets.PathResolver) media {
	return media{
		Src:      res.Resolve(img.Src),
		Width:    img.Width,
		Height:   img.Height,
		Label:    img.Label,
		Fragment: fragment,
	}
}

// youtubeURL accepts a video id or a full URL.
func youtubeURL(src string) string {
	if normalize.IsURL(src) {
		return src
	}
	return "https://www.youtube.com/embed/" + src
}

// LangTag canonicalizes a BCP 47 language tag, falling back to "en".
func LangTag(lang string) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return language.English.String()
	}
	return tag.String()
}
