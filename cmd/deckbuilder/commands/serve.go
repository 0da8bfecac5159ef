package commands

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/config"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
	"git.home.luguber.info/inful/deckbuilder/internal/preview"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
	"git.home.luguber.info/inful/deckbuilder/internal/server"
)

// ServeCmd implements the 'serve' command.
type ServeCmd struct {
	IP      string `arg:"" optional:"" help:"IP address to bind (defaults to server.host)"`
	Port    int    `name:"port" default:"-1" help:"Port to listen on; 0 picks a free port (defaults to server.port)"`
	Path    string `short:"p" name:"path" default:"." help:"Project path"`
	NoWatch bool   `name:"no-watch" help:"Disable live reload"`
}

func (s *ServeCmd) Run(g *Global, root *CLI) error {
	cfg, err := loadConfig(g, root, s.Path)
	if err != nil {
		return err
	}
	p, err := project.Find(afero.NewOsFs(), s.Path)
	if err != nil {
		return err
	}
	host, port := cfg.Server.Host, cfg.Server.Port
	if s.IP != "" {
		host = s.IP
	}
	if s.Port >= 0 {
		port = s.Port
	}
	watch := cfg.Server.Watch && !s.NoWatch
	cert, key, _ := cfg.TLSFiles(p.Dir)
	return serveProject(cfg, p, net.JoinHostPort(host, strconv.Itoa(port)), watch, cert, key)
}

// serveProject runs the live server for p until SIGINT or SIGTERM.
func serveProject(cfg *config.Config, p *project.Project, addr string, watch bool, cert, key string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	validator, err := schema.New()
	if err != nil {
		return err
	}
	recorder, registry := newMetrics(cfg)
	store, err := openPreviewStore(ctx, cfg, recorder)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	janitor, err := preview.NewJanitor(store, cfg.Preview.TTL.Std(), cfg.Preview.Sweep.Std())
	if err != nil {
		return err
	}
	janitor.Start()
	defer func() { _ = janitor.Stop() }()

	srv, err := server.New(p, server.Options{
		Validator:    validator,
		Store:        store,
		Recorder:     recorder,
		Registry:     registry,
		HTTPClient:   &http.Client{Timeout: cfg.Fetch.Timeout.Std()},
		Distribution: cfg.Fetch.Distribution,
		Watch:        watch,
	})
	if err != nil {
		return err
	}
	return srv.Serve(ctx, addr, cert, key)
}

// openPreviewStore persists previews in SQLite when a database path is
// configured and keeps them in memory otherwise.
func openPreviewStore(ctx context.Context, cfg *config.Config, recorder metrics.Recorder) (*preview.Store, error) {
	var backend preview.Backend = preview.NewMemoryBackend()
	if cfg.Preview.Database != "" {
		db, err := preview.NewSQLiteBackend(cfg.Preview.Database)
		if err != nil {
			return nil, err
		}
		slog.Debug("Opened preview database", logfields.Path(cfg.Preview.Database))
		backend = db
	}
	st, err := preview.New(ctx, backend, cfg.Preview.Capacity, preview.WithRecorder(recorder))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}
	return st, nil
}
