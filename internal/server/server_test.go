package server

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
	"git.home.luguber.info/inful/deckbuilder/internal/preview"
	"git.home.luguber.info/inful/deckbuilder/internal/project"
	"git.home.luguber.info/inful/deckbuilder/internal/schema"
)

const deckDoc = `title: Live talk
nav:
  - title: Cover
    doc: Hello
  - title: Second
    img:
      src: img/pic.png
`

func newProject(t *testing.T, doc string) *project.Project {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/talk/reveal.yaml", []byte(doc), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/talk/static/img/pic.png", []byte("png-bytes"), 0o644))
	require.NoError(t, fsys.MkdirAll("/talk/static/plugin", 0o755))
	p, err := project.Find(fsys, "/talk")
	require.NoError(t, err)
	return p
}

func newServer(t *testing.T, p *project.Project, opts Options) *Server {
	t.Helper()
	if opts.Validator == nil {
		v, err := schema.New()
		require.NoError(t, err)
		opts.Validator = v
	}
	s, err := New(p, opts)
	require.NoError(t, err)
	return s
}

func get(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	t.Helper()
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, target, nil))
	resp := rr.Result()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestIndexRendersLiveDeck(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})
	resp, body := get(t, s.Handler(), "/")

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "<title>Live talk</title>")
	assert.Contains(t, body, `src="/static/reveal.js/reveal.js"`)
	assert.Contains(t, body, `src="/static/img/pic.png"`)
	assert.NotContains(t, body, "EventSource")
	assert.NotEmpty(t, resp.Header.Get("X-Request-Id"))
}

func TestIndexWithWatchInjectsLiveReload(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{Watch: true})
	require.NotNil(t, s.Hub())
	_, body := get(t, s.Handler(), "/")
	assert.Contains(t, body, "EventSource")
	assert.Contains(t, body, LiveReloadRoute)
}

func TestIndexBuildFailureShowsErrorDeck(t *testing.T) {
	s := newServer(t, newProject(t, "outline: 7\nnav: []\n"), Options{})
	resp, body := get(t, s.Handler(), "/")

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Contains(t, body, "<title>500 Internal Server Error</title>")
	assert.Contains(t, body, "reveal.js/theme/night.css")
	assert.Contains(t, body, "outline")
}

func TestIndexFallsBackToDistribution(t *testing.T) {
	const dist = "https://dist.example/reveal.js@5"
	s := newServer(t, newProject(t, deckDoc), Options{Distribution: dist})

	_, body := get(t, s.Handler(), "/")
	assert.Contains(t, body, `src="`+dist+`/dist/reveal.js"`)
	assert.Contains(t, body, `href="`+dist+`/dist/theme/serif.css"`)
	assert.Contains(t, body, `src="`+dist+`/plugin/notes/notes.js"`)
	// Project files never come from the distribution.
	assert.Contains(t, body, `src="/static/img/pic.png"`)

	// The error deck resolves the same way.
	s = newServer(t, newProject(t, "outline: 7\nnav: []\n"), Options{Distribution: dist})
	_, body = get(t, s.Handler(), "/")
	assert.Contains(t, body, `src="`+dist+`/dist/reveal.js"`)
}

func TestStaticRoute(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})

	resp, body := get(t, s.Handler(), "/static/img/pic.png")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "png-bytes", body)

	resp, body = get(t, s.Handler(), "/static/plugin")
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Contains(t, body, "403 Forbidden")

	resp, body = get(t, s.Handler(), "/static/img/missing.png")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "404 Not Found")
}

func TestUnknownRouteIsErrorDeck(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})
	resp, body := get(t, s.Handler(), "/nope")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Contains(t, body, "404 Not Found")
}

func submit(t *testing.T, h http.Handler, doc string) EditorResult {
	t.Helper()
	resp, body := get(t, h, HandlerRoute+"?config="+url.QueryEscape(doc))
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "application/json")
	var res EditorResult
	require.NoError(t, json.Unmarshal([]byte(body), &res))
	return res
}

func TestEditorSubmitAndPreview(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})
	h := s.Handler()

	first := submit(t, h, "title: One\nnav:\n  - title: A\n")
	require.True(t, first.Validated, first.Msg)
	assert.Equal(t, uint64(1), first.ID)

	second := submit(t, h, "title: Two\nnav:\n  - title: B\n")
	require.True(t, second.Validated)
	assert.Equal(t, uint64(2), second.ID)

	_, body := get(t, h, PreviewRoute+"?id=1")
	assert.Contains(t, body, "<title>One</title>")
	assert.NotContains(t, body, "EventSource")

	_, body = get(t, h, PreviewRoute)
	assert.Contains(t, body, "<title>Two</title>")
}

func TestEditorRejectsInvalidDocument(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})

	res := submit(t, s.Handler(), "outline: 3\n")
	assert.False(t, res.Validated)
	assert.Zero(t, res.ID)
	assert.Contains(t, res.Msg, "<p>")
	assert.Contains(t, res.Msg, "outline level should be 0, 1 or 2, not 3")

	res = submit(t, s.Handler(), "nav: [unclosed\n")
	assert.False(t, res.Validated)
}

func TestEditorPostBody(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, HandlerRoute, strings.NewReader("title: Posted\n"))
	s.Handler().ServeHTTP(rr, req)
	var res EditorResult
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &res))
	assert.True(t, res.Validated)
}

func TestPreviewEvictedIsGone(t *testing.T) {
	store, err := preview.New(context.Background(), preview.NewMemoryBackend(), 1)
	require.NoError(t, err)
	s := newServer(t, newProject(t, deckDoc), Options{Store: store})
	h := s.Handler()

	submit(t, h, "title: One\n")
	submit(t, h, "title: Two\n")

	resp, body := get(t, h, PreviewRoute+"?id=1")
	assert.Equal(t, http.StatusGone, resp.StatusCode)
	assert.Contains(t, body, "410 Gone")

	resp, _ = get(t, h, PreviewRoute+"?id=99")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = get(t, h, PreviewRoute+"?id=abc")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestPreviewEmptyStore(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})
	resp, body := get(t, s.Handler(), PreviewRoute)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, body)
}

func TestEditorPage(t *testing.T) {
	s := newServer(t, newProject(t, deckDoc), Options{})
	resp, body := get(t, s.Handler(), EditorRoute)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "title: Live talk")
	assert.Contains(t, body, "_handler")
}

func TestMetricsRoute(t *testing.T) {
	reg := prom.NewRegistry()
	s := newServer(t, newProject(t, deckDoc), Options{Registry: reg, Recorder: metrics.NewPrometheusRecorder(reg)})
	h := s.Handler()

	get(t, h, "/")
	resp, body := get(t, h, MetricsRoute)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, body, "deckbuilder_http_requests_total")
	assert.Contains(t, body, "deckbuilder_render_duration_seconds")
}

func TestFingerprintTracksVisibleChanges(t *testing.T) {
	p := newProject(t, deckDoc)
	s := newServer(t, p, Options{})

	before := s.fingerprint()
	assert.Equal(t, before, s.fingerprint())

	require.NoError(t, afero.WriteFile(p.Fs, p.File, []byte(deckDoc+"author: Someone\n"), 0o644))
	assert.NotEqual(t, before, s.fingerprint())
}

