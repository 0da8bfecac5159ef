package packager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
)

// StageName is a strongly-typed identifier for a pack stage.
type StageName string

// Canonical stage names, in execution order.
const (
	StageCopyStatic   StageName = "copy_static"
	StageFetchAssets  StageName = "fetch_assets"
	StageRender       StageName = "render"
	StagePruneInlined StageName = "prune_inlined"
	StagePrunePlugins StageName = "prune_plugins"
	StageVerify       StageName = "verify"
	StageArchive      StageName = "archive"
)

// Stage is one step of a pack run.
type Stage func(ctx context.Context, bs *BuildState) error

// StageDef pairs a stage name with its executing function.
type StageDef struct {
	Name StageName
	Fn   Stage
}

// StageError wraps the failure of a stage.
type StageError struct {
	Stage StageName
	Err   error
}

func (e *StageError) Error() string { return fmt.Sprintf("stage %s: %v", e.Stage, e.Err) }
func (e *StageError) Unwrap() error { return e.Err }

// runStages executes stages in order, recording timing and stopping on the
// first error. Stages are not interrupted once started.
func runStages(ctx context.Context, bs *BuildState, stages []StageDef, recorder metrics.Recorder) error {
	for _, st := range stages {
		t0 := time.Now()
		err := st.Fn(ctx, bs)
		dur := time.Since(t0)
		bs.Report.recordStage(st.Name, dur)
		recorder.ObserveStageDuration(string(st.Name), dur)
		if err != nil {
			recorder.IncStageResult(string(st.Name), metrics.ResultFatal)
			slog.Error("Pack stage failed", logfields.Stage(string(st.Name)), logfields.Error(err))
			return &StageError{Stage: st.Name, Err: err}
		}
		result := metrics.ResultSuccess
		if bs.stageWarned {
			result = metrics.ResultWarning
			bs.stageWarned = false
		}
		recorder.IncStageResult(string(st.Name), result)
		slog.Debug("Pack stage complete", logfields.Stage(string(st.Name)), logfields.Since(t0))
	}
	return nil
}
