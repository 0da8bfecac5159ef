// Package packager turns a built deck into a self-contained static bundle:
// the project's static mirror, any CDN assets it lacks, and a single
// index.html rendered with bundle-relative paths.
package packager

import (
	"context"
	"log/slog"
	"net/http"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/afero"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
	"git.home.luguber.info/inful/deckbuilder/internal/normalize"
	"git.home.luguber.info/inful/deckbuilder/internal/render"
	"git.home.luguber.info/inful/deckbuilder/internal/retry"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

const (
	// StaticDir is the static mirror directory in both project and bundle.
	StaticDir = "static"
	// IndexFile is the bundle's entry page.
	IndexFile = "index.html"
	// EditorDir holds the live editor assets, which bundles never need.
	EditorDir = "ace"
	// ArchiveExt is appended to the destination path for archives.
	ArchiveExt = ".tar.zst"

	fetchTimeout = 30 * time.Second
)

// Packager builds static bundles. A Packager may be reused but a single
// destination must not be packed concurrently.
type Packager struct {
	fs       afero.Fs
	renderer render.Renderer
	client   *http.Client
	policy   retry.Policy
	recorder metrics.Recorder
	archive  bool
	dist     string
}

// Option configures a Packager.
type Option func(*Packager)

// WithHTTPClient sets the client used for CDN downloads.
func WithHTTPClient(c *http.Client) Option { return func(p *Packager) { p.client = c } }

// WithRetryPolicy sets the retry policy for CDN downloads.
func WithRetryPolicy(rp retry.Policy) Option { return func(p *Packager) { p.policy = rp } }

// WithRecorder sets the metrics recorder.
func WithRecorder(r metrics.Recorder) Option {
	return func(p *Packager) {
		if r != nil {
			p.recorder = r
		}
	}
}

// WithDistribution downloads reveal.js files that neither the mirror nor the
// deck's CDN provide from base.
func WithDistribution(base string) Option { return func(p *Packager) { p.dist = base } }

// WithArchive makes Build also write <dest>.tar.zst.
func WithArchive(enabled bool) Option { return func(p *Packager) { p.archive = enabled } }

// New returns a Packager writing through fsys.
func New(fsys afero.Fs, renderer render.Renderer, opts ...Option) *Packager {
	p := &Packager{
		fs:       fsys,
		renderer: renderer,
		client:   &http.Client{Timeout: fetchTimeout},
		policy:   retry.DefaultPolicy(),
		recorder: metrics.NoopRecorder{},
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// BuildState carries one pack run through its stages.
type BuildState struct {
	Deck   *slides.Config
	Src    string
	Dest   string
	Report *Report

	fs          afero.Fs
	stageWarned bool
}

// SrcStatic is the project's static mirror.
func (bs *BuildState) SrcStatic() string { return filepath.Join(bs.Src, StaticDir) }

// DestStatic is the bundle's static directory.
func (bs *BuildState) DestStatic() string { return filepath.Join(bs.Dest, StaticDir) }

// staticPath maps a static-relative asset path into the bundle without
// letting it escape the static directory.
func (bs *BuildState) staticPath(rel string) string {
	clean := path.Clean("/" + strings.TrimLeft(rel, "/"))
	return filepath.Join(bs.DestStatic(), filepath.FromSlash(clean))
}

func (bs *BuildState) warn(msg string, attrs ...any) {
	bs.stageWarned = true
	bs.Report.Warnings = append(bs.Report.Warnings, msg)
	slog.Warn(msg, attrs...)
}

// Build packs deck, whose project lives at src, into dest. dest is created if
// needed; existing files in it are overwritten, and assets already present
// are not downloaded again.
func (p *Packager) Build(ctx context.Context, deck *slides.Config, src, dest string) (*Report, error) {
	if deck == nil {
		return nil, derrors.ValidationError("packager: nil deck").Build()
	}
	bs := &BuildState{
		Deck: deck,
		Src:  src,
		Dest: dest,
		fs:   p.fs,
		Report: &Report{
			Source:  src,
			Dest:    dest,
			Slides:  deck.SlideCount(),
			Started: time.Now(),
		},
	}
	slog.Info("Packing deck", logfields.Project(src), logfields.Dest(dest), logfields.Slides(bs.Report.Slides))

	stages := []StageDef{
		{StageCopyStatic, p.stageCopyStatic},
		{StageFetchAssets, p.stageFetchAssets},
		{StageRender, p.stageRender},
		{StagePruneInlined, p.stagePruneInlined},
		{StagePrunePlugins, p.stagePrunePlugins},
		{StageVerify, p.stageVerify},
	}
	if p.archive {
		stages = append(stages, StageDef{StageArchive, p.stageArchive})
	}

	err := runStages(ctx, bs, stages, p.recorder)
	bs.Report.finish(err)
	p.recorder.ObserveBuildDuration(bs.Report.Duration)
	p.recorder.IncBuildOutcome(bs.Report.Outcome)
	if err != nil {
		return bs.Report, err
	}
	slog.Info("Deck packed",
		logfields.Dest(dest),
		slog.String("digest", bs.Report.Digest),
		slog.Int("fetched", len(bs.Report.Fetched)),
		slog.Int("warnings", len(bs.Report.Warnings)),
		logfields.Since(bs.Report.Started))
	return bs.Report, nil
}

// requiredAssets lists the asset paths a bundle cannot work without: the
// reveal.js files the page links, then in deck order icon, watermark,
// footer and per slide its images and embed.
func requiredAssets(deck *slides.Config) []string {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || normalize.IsURL(p) || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	for _, p := range render.BaseAssets(deck) {
		add(p)
	}
	add(deck.Icon)
	add(deck.Watermark)
	add(deck.Footer.Src)
	deck.Walk(func(_, _ int, s *slides.Slide) {
		for _, img := range s.Img {
			add(img.Src)
		}
		add(s.Embed.Src)
	})
	return out
}

// inlinedAssets lists the files whose content is spliced into the page:
// extra_style and every slide include.
func inlinedAssets(deck *slides.Config) []string {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p == "" || normalize.IsURL(p) || seen[p] {
			return
		}
		seen[p] = true
		out = append(out, p)
	}
	add(deck.ExtraStyle)
	deck.Walk(func(_, _ int, s *slides.Slide) { add(s.Include) })
	return out
}
