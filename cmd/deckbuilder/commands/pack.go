package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/config"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/notify"
	"git.home.luguber.info/inful/deckbuilder/internal/packager"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
	"git.home.luguber.info/inful/deckbuilder/internal/render"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
)

const notifyTimeout = 10 * time.Second

// PackCmd implements the 'pack' command.
type PackCmd struct {
	Path    string `arg:"" optional:"" default:"." help:"Project path"`
	Dist    string `name:"dist" help:"Output directory (defaults to PATH/build)"`
	Archive bool   `name:"archive" help:"Also write a .tar.zst archive next to the output"`
	Notify  string `name:"notify" help:"NATS URL for the completion event (overrides notify.url)"`
}

func (p *PackCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root, p.Path)
	if err != nil {
		return err
	}
	if p.Notify != "" {
		cfg.Notify.URL = p.Notify
	}
	rep, err := RunPack(context.Background(), cfg, afero.NewOsFs(), p.Path, p.Dist, p.Archive)
	if rep != nil {
		printReport(os.Stdout, rep)
	}
	publishEvent(cfg, rep, err)
	return err
}

// RunPack freezes the project at path into dist.
func RunPack(ctx context.Context, cfg *config.Config, fsys afero.Fs, path, dist string, archive bool) (*packager.Report, error) {
	proj, err := project.Find(fsys, path)
	if err != nil {
		return nil, err
	}
	if dist == "" {
		dist = filepath.Join(proj.Dir, "build")
	}
	validator, err := schema.New()
	if err != nil {
		return nil, err
	}
	deck, err := proj.Deck(validator)
	if err != nil {
		return nil, err
	}
	renderer, err := render.NewHTML(render.Options{})
	if err != nil {
		return nil, err
	}
	recorder, _ := newMetrics(cfg)
	pk := packager.New(fsys, renderer,
		packager.WithHTTPClient(&http.Client{Timeout: cfg.Fetch.Timeout.Std()}),
		packager.WithRetryPolicy(cfg.RetryPolicy()),
		packager.WithRecorder(recorder),
		packager.WithArchive(archive),
		packager.WithDistribution(cfg.Fetch.Distribution),
	)
	return pk.Build(ctx, deck, proj.Dir, dist)
}

func printReport(w io.Writer, rep *packager.Report) {
	_, _ = fmt.Fprintf(w, "Packed %d slides into %s (%s)\n", rep.Slides, rep.Dest, rep.Outcome)
	for _, st := range rep.Stages {
		_, _ = fmt.Fprintf(w, "  %-14s %s\n", st.Stage, st.Duration.Round(time.Millisecond))
	}
	_, _ = fmt.Fprintf(w, "  copied %d, fetched %d, pruned %d\n", rep.Copied, len(rep.Fetched), len(rep.Pruned))
	for _, warning := range rep.Warnings {
		_, _ = fmt.Fprintf(w, "  warning: %s\n", warning)
	}
	if rep.Digest != "" {
		_, _ = fmt.Fprintf(w, "  digest  %s\n", rep.Digest)
	}
	if rep.Archive != "" {
		_, _ = fmt.Fprintf(w, "  archive %s\n", rep.Archive)
	}
}

// publishEvent reports the pack outcome on NATS. Delivery problems are
// logged and never fail the pack.
func publishEvent(cfg *config.Config, rep *packager.Report, packErr error) {
	var pub notify.Publisher = notify.Noop{}
	if cfg.Notify.URL != "" {
		n, err := notify.Connect(cfg.Notify.URL, cfg.Notify.Subject)
		if err != nil {
			slog.Warn("Pack event not delivered", logfields.Error(err))
			return
		}
		pub = n
	}
	defer func() { _ = pub.Close() }()
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := pub.Publish(ctx, notify.EventFromReport(rep, packErr)); err != nil {
		slog.Warn("Pack event not delivered", logfields.Error(err))
	}
}
