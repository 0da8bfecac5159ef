// Package assets decides how deck asset paths are rendered and reads files
// spliced into slides at render time.
package assets

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
)

// Mode selects how relative asset paths are rendered.
type Mode int

const (
	// ModeLive renders paths under the live server's static route and falls
	// back to the CDN for files missing from the local mirror.
	ModeLive Mode = iota
	// ModeBundle renders paths relative to the bundle root, never the CDN.
	ModeBundle
)

func (m Mode) String() string {
	if m == ModeBundle {
		return "bundle"
	}
	return "live"
}

const (
	// StaticRoute is the live server's static prefix.
	StaticRoute = "/static/"
	// BundleStatic is the static prefix inside a bundle.
	BundleStatic = "static/"

	// DefaultDistribution is a public copy of the reveal.js package whose
	// layout DistributionPath maps onto.
	DefaultDistribution = "https://cdn.jsdelivr.net/npm/reveal.js@5.1.0"

	includeTimeout = 10 * time.Second
)

// DistributionPath maps a static path of the reveal.js core or a plugin to
// its place in the reveal.js package. Deck-owned paths report false.
func DistributionPath(rel string) (string, bool) {
	rel = strings.TrimLeft(rel, "/")
	switch {
	case strings.HasPrefix(rel, "reveal.js/"):
		return "dist/" + strings.TrimPrefix(rel, "reveal.js/"), true
	case strings.HasPrefix(rel, "plugin/"):
		return rel, true
	}
	return "", false
}

// DistributionURL is the download URL of rel under the distribution base.
func DistributionURL(base, rel string) (string, bool) {
	if base == "" {
		return "", false
	}
	p, ok := DistributionPath(rel)
	if !ok {
		return "", false
	}
	return normalize.JoinURL(normalize.TrimTrailingSlash(base), p), true
}

// PathResolver is what the renderer needs from a resolver.
type PathResolver interface {
	Resolve(p string) string
	Include(p string) string
}

// Resolver renders asset paths for one project. It is read-only after
// construction and safe for concurrent use.
type Resolver struct {
	fs        afero.Fs
	staticDir string
	cdn       string
	mode      Mode
	client    *http.Client
	dist      string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithHTTPClient sets the client used to read remote includes.
func WithHTTPClient(c *http.Client) Option {
	return func(r *Resolver) { r.client = c }
}

// WithDistribution serves reveal.js files missing from both the mirror and
// the deck's CDN from base. Empty disables it.
func WithDistribution(base string) Option {
	return func(r *Resolver) { r.dist = base }
}

// New builds a resolver over the static mirror at staticDir on fsys.
func New(fsys afero.Fs, staticDir, cdn string, mode Mode, opts ...Option) *Resolver {
	r := &Resolver{
		fs:        fsys,
		staticDir: staticDir,
		cdn:       normalize.TrimTrailingSlash(cdn),
		mode:      mode,
		client:    &http.Client{Timeout: includeTimeout},
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode reports the rendering mode.
func (r *Resolver) Mode() Mode { return r.mode }

// Resolve renders p for the page: "" stays empty, absolute URLs are kept,
// anything else is a static asset path. In live mode a file missing from
// the mirror comes from the CDN, then from the reveal.js distribution.
func (r *Resolver) Resolve(p string) string {
	if p == "" {
		return ""
	}
	if normalize.IsURL(p) {
		return p
	}
	rel := strings.TrimLeft(p, "/")
	if r.mode == ModeBundle {
		return BundleStatic + rel
	}
	if r.Exists(rel) {
		return StaticRoute + rel
	}
	if r.cdn != "" {
		return normalize.JoinURL(r.cdn, rel)
	}
	if u, ok := DistributionURL(r.dist, rel); ok {
		return u
	}
	return StaticRoute + rel
}

// Exists reports whether rel is present in the local static mirror.
func (r *Resolver) Exists(rel string) bool {
	ok, err := afero.Exists(r.fs, r.LocalPath(rel))
	return err == nil && ok
}

// LocalPath maps a static-relative path into the mirror on disk.
func (r *Resolver) LocalPath(rel string) string {
	clean := path.Clean("/" + strings.TrimLeft(rel, "/"))
	return filepath.Join(r.staticDir, filepath.FromSlash(clean))
}

// Include returns the text behind p. Missing or unreadable files and failed
// remote reads yield "".
func (r *Resolver) Include(p string) string {
	if p == "" {
		return ""
	}
	if normalize.IsURL(p) {
		return r.fetch(p)
	}
	rel := strings.TrimLeft(p, "/")
	if r.mode == ModeLive && r.cdn != "" && !r.Exists(rel) {
		return r.fetch(normalize.JoinURL(r.cdn, rel))
	}
	data, err := afero.ReadFile(r.fs, r.LocalPath(rel))
	if err != nil {
		slog.Debug("Include file missing", logfields.Path(p), logfields.Error(err))
		return ""
	}
	return string(data)
}

// fetch reads a remote include. Bundles never reach the network here: the
// packager has already materialized every include it could.
func (r *Resolver) fetch(url string) string {
	if r.mode == ModeBundle {
		slog.Debug("Skipping remote include in bundle mode", logfields.URL(url))
		return ""
	}
	ctx, cancel := context.WithTimeout(context.Background(), includeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return ""
	}
	resp, err := r.client.Do(req)
	if err != nil {
		slog.Debug("Remote include unavailable", logfields.URL(url), logfields.Error(err))
		return ""
	}
	defer func() { _ = resp.Body.Close() }()
	if resp.StatusCode != http.StatusOK {
		slog.Debug("Remote include unavailable", logfields.URL(url), logfields.Status(resp.StatusCode))
		return ""
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return ""
	}
	return string(data)
}
