package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

const namespace = "deckbuilder"

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	stageDuration  *prom.HistogramVec
	stageResults   *prom.CounterVec
	buildDuration  prom.Histogram
	buildOutcome   *prom.CounterVec
	assetFetches   *prom.CounterVec
	fetchRetries   prom.Counter
	renderDuration *prom.HistogramVec
	httpRequests   *prom.CounterVec
	previewEntries prom.Gauge
}

// NewPrometheusRecorder constructs the collectors and registers them on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		stageDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Duration of individual pack stages",
			Buckets:   prom.DefBuckets,
		}, []string{"stage"}),
		stageResults: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "stage_results_total",
			Help:      "Pack stage result counts by outcome",
		}, []string{"stage", "result"}),
		buildDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "build_duration_seconds",
			Help:      "Total pack duration",
			Buckets:   prom.DefBuckets,
		}),
		buildOutcome: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "build_outcomes_total",
			Help:      "Pack outcomes by final status",
		}, []string{"outcome"}),
		assetFetches: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asset_fetches_total",
			Help:      "CDN asset downloads by result",
		}, []string{"result"}),
		fetchRetries: prom.NewCounter(prom.CounterOpts{
			Namespace: namespace,
			Name:      "asset_fetch_retries_total",
			Help:      "CDN asset download retries after transient failures",
		}),
		renderDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: namespace,
			Name:      "render_duration_seconds",
			Help:      "Deck render duration by resolver mode",
			Buckets:   prom.DefBuckets,
		}, []string{"mode"}),
		httpRequests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Live server requests by route and status",
		}, []string{"route", "status"}),
		previewEntries: prom.NewGauge(prom.GaugeOpts{
			Namespace: namespace,
			Name:      "preview_entries",
			Help:      "Previews currently held by the editor store",
		}),
	}
	reg.MustRegister(pr.stageDuration, pr.stageResults, pr.buildDuration, pr.buildOutcome,
		pr.assetFetches, pr.fetchRetries, pr.renderDuration, pr.httpRequests, pr.previewEntries)
	return pr
}

func (p *PrometheusRecorder) ObserveStageDuration(stage string, d time.Duration) {
	if p == nil {
		return
	}
	p.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncStageResult(stage string, result ResultLabel) {
	if p == nil {
		return
	}
	p.stageResults.WithLabelValues(stage, string(result)).Inc()
}

func (p *PrometheusRecorder) ObserveBuildDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.buildDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) {
	if p == nil {
		return
	}
	p.buildOutcome.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) IncAssetFetch(result ResultLabel) {
	if p == nil {
		return
	}
	p.assetFetches.WithLabelValues(string(result)).Inc()
}

func (p *PrometheusRecorder) IncFetchRetry() {
	if p == nil {
		return
	}
	p.fetchRetries.Inc()
}

func (p *PrometheusRecorder) ObserveRenderDuration(mode string, d time.Duration) {
	if p == nil {
		return
	}
	p.renderDuration.WithLabelValues(mode).Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncHTTPRequest(route string, status int) {
	if p == nil {
		return
	}
	p.httpRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) SetPreviewEntries(n int) {
	if p == nil {
		return
	}
	p.previewEntries.Set(float64(n))
}
