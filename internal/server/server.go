// Package server is the live deck server: it renders the project's deck on
// every request, serves its static mirror, hosts the editor endpoints and
// pushes reloads to open browsers when project files change.
package server

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/inful/mdfp"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
	"git.home.luguber.info/inful/deckbuilder/internal/preview"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
	"git.home.luguber.info/inful/deckbuilder/internal/render"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
	smw "git.home.luguber.info/inful/deckbuilder/internal/server/middleware"
	"git.home.luguber.info/inful/deckbuilder/internal/slides"
)

//go:embed templates/editor.html.tmpl
var editorTemplate embed.FS

// Routes served besides the deck itself.
const (
	HandlerRoute = "/_handler"
	PreviewRoute = "/_preview"
	EditorRoute  = "/_editor"
	MetricsRoute = "/metrics"

	shutdownTimeout = 5 * time.Second
)

// Options configures a Server. Zero values select in-memory defaults.
type Options struct {
	Validator  *schema.Validator
	Store      *preview.Store
	Recorder   metrics.Recorder
	Registry   *prom.Registry
	HTTPClient *http.Client
	// Distribution serves reveal.js files that neither the static mirror
	// nor the deck's cdn provides.
	Distribution string
	// Watch enables live reload.
	Watch bool
}

// Server serves one project. The project handle is fixed at construction.
type Server struct {
	project  *project.Project
	opts     Options
	live     *render.HTML
	plain    *render.HTML
	editor   *template.Template
	store    *preview.Store
	hub      *LiveReloadHub
	recorder metrics.Recorder
	errors   *derrors.HTTPErrorAdapter
	router   *mux.Router
}

// New wires the routes for p.
func New(p *project.Project, opts Options) (*Server, error) {
	if opts.Recorder == nil {
		opts.Recorder = metrics.NoopRecorder{}
	}
	s := &Server{
		project:  p,
		opts:     opts,
		store:    opts.Store,
		recorder: opts.Recorder,
		errors:   derrors.NewHTTPErrorAdapter(slog.Default()),
	}
	if s.store == nil {
		st, err := preview.New(context.Background(), preview.NewMemoryBackend(), 64, preview.WithRecorder(opts.Recorder))
		if err != nil {
			return nil, err
		}
		s.store = st
	}
	var liveOpts render.Options
	if opts.Watch {
		s.hub = NewLiveReloadHub()
		liveOpts.LiveReload = LiveReloadRoute
	}
	var err error
	if s.live, err = render.NewHTML(liveOpts); err != nil {
		return nil, err
	}
	if s.plain, err = render.NewHTML(render.Options{}); err != nil {
		return nil, err
	}
	if s.editor, err = template.ParseFS(editorTemplate, "templates/editor.html.tmpl"); err != nil {
		return nil, derrors.WrapError(err, derrors.CategoryInternal, "parse editor template").Build()
	}
	s.routes()
	return s, nil
}

func (s *Server) routes() {
	r := mux.NewRouter()
	r.HandleFunc("/", s.handleIndex).Methods(http.MethodGet, http.MethodHead)
	r.PathPrefix(assets.StaticRoute).HandlerFunc(s.handleStatic).Methods(http.MethodGet, http.MethodHead)
	r.HandleFunc(HandlerRoute, s.handleEditorSubmit).Methods(http.MethodGet, http.MethodPost)
	r.HandleFunc(PreviewRoute, s.handlePreview).Methods(http.MethodGet)
	r.HandleFunc(EditorRoute, s.handleEditor).Methods(http.MethodGet)
	if s.hub != nil {
		r.Handle(LiveReloadRoute, s.hub).Methods(http.MethodGet)
	}
	if s.opts.Registry != nil {
		r.Handle(MetricsRoute, metrics.HTTPHandler(s.opts.Registry)).Methods(http.MethodGet)
	}
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		s.errorPage(w, req, http.StatusNotFound, fmt.Sprintf("%s was not found on this server.", req.URL.Path))
	})
	chain := smw.Chain(slog.Default(), s.recorder, routeLabel, func(w http.ResponseWriter, req *http.Request, err error) {
		s.errorPage(w, req, http.StatusInternalServerError, err.Error())
	})
	r.Use(mux.MiddlewareFunc(chain))
	s.router = r
}

// routeLabel keeps metric cardinality bounded by using the route template.
func routeLabel(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tpl, err := route.GetPathTemplate(); err == nil {
			return tpl
		}
	}
	return "other"
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// Hub returns the live reload hub, or nil when watching is off.
func (s *Server) Hub() *LiveReloadHub { return s.hub }

// Serve listens on addr until ctx ends. TLS is used when certFile and
// keyFile are both set.
func (s *Server) Serve(ctx context.Context, addr, certFile, keyFile string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	if s.hub != nil {
		w, err := NewWatcher(s.project.Dir, s.project.File, s.hub, s.fingerprint)
		if err != nil {
			return err
		}
		go w.Run(ctx)
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return derrors.WrapError(err, derrors.CategoryNetwork, "listen").WithContext("addr", addr).Build()
	}
	// Port 0 picks a free port; log the bound address.
	bound := ln.Addr().String()

	errCh := make(chan error, 1)
	go func() {
		if certFile != "" && keyFile != "" {
			slog.Info("Serving deck", logfields.URL("https://"+bound), logfields.Project(s.project.Dir))
			errCh <- srv.ServeTLS(ln, certFile, keyFile)
			return
		}
		slog.Info("Serving deck", logfields.URL("http://"+bound), logfields.Project(s.project.Dir))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return derrors.WrapError(err, derrors.CategoryNetwork, "serve").WithContext("addr", addr).Build()
	case <-ctx.Done():
	}
	slog.Info("Shutting down server")
	if s.hub != nil {
		s.hub.Shutdown()
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Warn("HTTP server shutdown error", logfields.Error(err))
	}
	return nil
}

func (s *Server) resolver(deck *slides.Config) *assets.Resolver {
	opts := []assets.Option{}
	if s.opts.HTTPClient != nil {
		opts = append(opts, assets.WithHTTPClient(s.opts.HTTPClient))
	}
	if s.opts.Distribution != "" {
		opts = append(opts, assets.WithDistribution(s.opts.Distribution))
	}
	return assets.New(s.project.Fs, s.project.StaticPath(), deck.CDN, assets.ModeLive, opts...)
}

// renderDeck compiles the project document and renders it in live mode.
func (s *Server) renderDeck(r *render.HTML, deck *slides.Config) ([]byte, error) {
	var buf bytes.Buffer
	t0 := time.Now()
	if err := r.Render(&buf, deck, s.resolver(deck)); err != nil {
		return nil, err
	}
	s.recorder.ObserveRenderDuration(assets.ModeLive.String(), time.Since(t0))
	return buf.Bytes(), nil
}

// fingerprint summarizes the document and the page it renders to, so that
// saves which change nothing visible do not reload browsers.
func (s *Server) fingerprint() string {
	src, err := afero.ReadFile(s.project.Fs, s.project.File)
	if err != nil {
		return mdfp.CalculateFingerprintFromParts("", err.Error())
	}
	var page string
	if deck, err := s.project.Deck(s.opts.Validator); err != nil {
		page = err.Error()
	} else if out, err := s.renderDeck(s.plain, deck); err != nil {
		page = err.Error()
	} else {
		page = string(out)
	}
	return mdfp.CalculateFingerprintFromParts(string(src), page)
}
