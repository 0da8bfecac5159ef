package server

import (
	"bytes"
	"fmt"
	"html"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/afero"

	"git.home.luguber.info/inful/deckbuilder/internal/assets"
	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
	"git.home.luguber.info/inful/deckbuilder/internal/render"
	smw "git.home.luguber.info/inful/deckbuilder/internal/server/middleware"
)

const maxEditorBody = 1 << 20

// EditorResult is the JSON answer of the editor submit endpoint.
type EditorResult struct {
	Validated bool   `json:"validated"`
	Msg       string `json:"msg,omitempty"`
	ID        uint64 `json:"id,omitempty"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	deck, err := s.project.Deck(s.opts.Validator)
	if err != nil {
		s.errorPage(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	page, err := s.renderDeck(s.live, deck)
	if err != nil {
		s.errorPage(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, http.StatusOK, page)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	rel := strings.TrimPrefix(r.URL.Path, assets.StaticRoute)
	res := assets.New(s.project.Fs, s.project.StaticPath(), "", assets.ModeLive)
	p := res.LocalPath(rel)
	info, err := s.project.Fs.Stat(p)
	switch {
	case err != nil:
		s.errorPage(w, r, http.StatusNotFound, fmt.Sprintf("%s was not found on this server.", r.URL.Path))
		return
	case info.IsDir():
		s.errorPage(w, r, http.StatusForbidden, fmt.Sprintf("%s is a directory.", r.URL.Path))
		return
	}
	f, err := s.project.Fs.Open(p)
	if err != nil {
		s.errorPage(w, r, http.StatusForbidden, err.Error())
		return
	}
	defer func() { _ = f.Close() }()
	http.ServeContent(w, r, info.Name(), info.ModTime(), f)
}

// handleEditorSubmit validates, builds and renders the posted document and
// stores the result for the preview endpoint.
func (s *Server) handleEditorSubmit(w http.ResponseWriter, r *http.Request) {
	text := r.URL.Query().Get("config")
	if r.Method == http.MethodPost {
		body, err := io.ReadAll(io.LimitReader(r.Body, maxEditorBody))
		if err != nil {
			s.writeJSON(w, r, http.StatusBadRequest, EditorResult{Msg: "<p>" + html.EscapeString(err.Error()) + "</p>"})
			return
		}
		text = string(body)
	}
	id, err := s.compilePreview(r, text)
	if err != nil {
		slog.Debug("Editor document rejected", logfields.RequestID(smw.RequestID(r.Context())), logfields.Error(err))
		s.writeJSON(w, r, http.StatusOK, EditorResult{Msg: "<p>" + html.EscapeString(err.Error()) + "</p>"})
		return
	}
	s.writeJSON(w, r, http.StatusOK, EditorResult{Validated: true, ID: id})
}

func (s *Server) compilePreview(r *http.Request, text string) (uint64, error) {
	doc, err := project.Decode([]byte(text), project.FormatYAML)
	if err != nil {
		return 0, err
	}
	deck, err := project.Compile(doc, s.opts.Validator)
	if err != nil {
		return 0, err
	}
	page, err := s.renderDeck(s.plain, deck)
	if err != nil {
		return 0, err
	}
	return s.store.Add(r.Context(), string(page))
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("id")
	if raw == "" {
		e, ok, err := s.store.Latest(r.Context())
		if err != nil {
			s.errorPage(w, r, http.StatusInternalServerError, err.Error())
			return
		}
		if !ok {
			writeHTML(w, http.StatusOK, nil)
			return
		}
		writeHTML(w, http.StatusOK, []byte(e.HTML))
		return
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		s.errorPage(w, r, http.StatusNotFound, fmt.Sprintf("preview %q does not exist.", raw))
		return
	}
	e, ok, err := s.store.Get(r.Context(), id)
	switch {
	case err != nil:
		s.errorPage(w, r, http.StatusInternalServerError, err.Error())
	case ok:
		writeHTML(w, http.StatusOK, []byte(e.HTML))
	case s.store.Issued(id):
		s.errorPage(w, r, http.StatusGone, fmt.Sprintf("preview %d has been evicted.", id))
	default:
		s.errorPage(w, r, http.StatusNotFound, fmt.Sprintf("preview %d does not exist.", id))
	}
}

type editorPage struct {
	Title        string
	Source       string
	HandlerRoute string
	PreviewRoute string
}

func (s *Server) handleEditor(w http.ResponseWriter, r *http.Request) {
	src, err := afero.ReadFile(s.project.Fs, s.project.File)
	if err != nil && !os.IsNotExist(err) {
		s.errorPage(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	var buf bytes.Buffer
	if err := s.editor.Execute(&buf, editorPage{
		Title:        s.project.Dir,
		Source:       string(src),
		HandlerRoute: HandlerRoute,
		PreviewRoute: PreviewRoute,
	}); err != nil {
		s.errorPage(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	writeHTML(w, http.StatusOK, buf.Bytes())
}

// errorPage answers with a one-slide deck describing the failure.
func (s *Server) errorPage(w http.ResponseWriter, r *http.Request, code int, detail string) {
	slog.Warn("Serving error deck",
		logfields.RequestID(smw.RequestID(r.Context())),
		logfields.Path(r.URL.Path),
		logfields.Status(code),
		slog.String("detail", detail))
	deck := render.ErrorDeck(code, detail)
	page, err := s.plain.String(deck, s.resolver(deck))
	if err != nil {
		s.errors.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryRender, "render error deck").Build())
		return
	}
	writeHTML(w, code, []byte(page))
}

func writeHTML(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// writeJSON encodes into a buffer first so a failed encode never sends a
// partial body.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		s.errors.WriteErrorResponse(w, r, derrors.WrapError(err, derrors.CategoryInternal, "encode response").Build())
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write(append(b, '\n'))
}
