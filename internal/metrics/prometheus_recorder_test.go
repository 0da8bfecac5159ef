package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

func TestPrometheusRecorder(t *testing.T) {
	reg := prom.NewRegistry()
	pr := NewPrometheusRecorder(reg)
	pr.ObserveStageDuration("copy_static", 150*time.Millisecond)
	pr.IncStageResult("copy_static", ResultSuccess)
	pr.ObserveBuildDuration(500 * time.Millisecond)
	pr.IncBuildOutcome(BuildOutcomeSuccess)
	pr.IncAssetFetch(ResultSuccess)
	pr.IncFetchRetry()
	pr.ObserveRenderDuration("bundle", 10*time.Millisecond)
	pr.IncHTTPRequest("/", http.StatusOK)
	pr.SetPreviewEntries(2)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather: %v", err)
	}
	if len(mfs) != 9 {
		t.Fatalf("expected 9 metric families, got %d", len(mfs))
	}
}

func TestHTTPHandlerServesRegistry(t *testing.T) {
	reg := prom.NewRegistry()
	NewPrometheusRecorder(reg).SetPreviewEntries(4)

	rec := httptest.NewRecorder()
	HTTPHandler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "deckbuilder_preview_entries 4") {
		t.Fatalf("missing gauge in output:\n%s", rec.Body.String())
	}
}
