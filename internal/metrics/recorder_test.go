package metrics

import (
	"testing"
	"time"
)

type testRecorder struct {
	NoopRecorder
	stageDurations map[string]int
	stageResults   map[string]map[ResultLabel]int
	buildOutcomes  map[BuildOutcomeLabel]int
}

func newTestRecorder() *testRecorder {
	return &testRecorder{
		stageDurations: map[string]int{},
		stageResults:   map[string]map[ResultLabel]int{},
		buildOutcomes:  map[BuildOutcomeLabel]int{},
	}
}

func (t *testRecorder) ObserveStageDuration(stage string, _ time.Duration) {
	t.stageDurations[stage]++
}

func (t *testRecorder) IncStageResult(stage string, result ResultLabel) {
	m, ok := t.stageResults[stage]
	if !ok {
		m = map[ResultLabel]int{}
		t.stageResults[stage] = m
	}
	m[result]++
}

func (t *testRecorder) IncBuildOutcome(outcome BuildOutcomeLabel) { t.buildOutcomes[outcome]++ }

func TestRecorderInterfaceSatisfied(t *testing.T) {
	var _ Recorder = NoopRecorder{}
	var _ Recorder = (*PrometheusRecorder)(nil)

	r := newTestRecorder()
	var rec Recorder = r
	rec.ObserveStageDuration("render", time.Millisecond)
	rec.IncStageResult("render", ResultSuccess)
	rec.IncBuildOutcome(BuildOutcomeSuccess)
	rec.IncAssetFetch(ResultFatal)

	if r.stageDurations["render"] != 1 || r.stageResults["render"][ResultSuccess] != 1 {
		t.Fatalf("unexpected recorder state: %+v", r)
	}
	if r.buildOutcomes[BuildOutcomeSuccess] != 1 {
		t.Fatalf("expected one success outcome, got %d", r.buildOutcomes[BuildOutcomeSuccess])
	}
}

func TestNilPrometheusRecorderIsSafe(t *testing.T) {
	var p *PrometheusRecorder
	p.ObserveStageDuration("x", time.Second)
	p.IncHTTPRequest("/", 200)
	p.SetPreviewEntries(3)
}
