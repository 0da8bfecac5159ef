package packager

import (
	"time"

	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
)

// StageTiming is the duration of one executed stage.
type StageTiming struct {
	Stage    StageName     `json:"stage"`
	Duration time.Duration `json:"duration"`
}

// Report summarizes a pack run.
type Report struct {
	Source   string        `json:"source"`
	Dest     string        `json:"dest"`
	Stages   []StageTiming `json:"stages"`
	Copied   int           `json:"copied"`
	Fetched  []string      `json:"fetched,omitempty"`
	Pruned   []string      `json:"pruned,omitempty"`
	Warnings []string      `json:"warnings,omitempty"`
	Slides   int           `json:"slides"`
	// Digest is the hex BLAKE3-256 of index.html.
	Digest   string                    `json:"digest"`
	Archive  string                    `json:"archive,omitempty"`
	Outcome  metrics.BuildOutcomeLabel `json:"outcome"`
	Started  time.Time                 `json:"started"`
	Duration time.Duration             `json:"duration"`
}

func (r *Report) recordStage(name StageName, d time.Duration) {
	r.Stages = append(r.Stages, StageTiming{Stage: name, Duration: d})
}

func (r *Report) finish(err error) {
	r.Duration = time.Since(r.Started)
	switch {
	case err != nil:
		r.Outcome = metrics.BuildOutcomeFailed
	case len(r.Warnings) > 0:
		r.Outcome = metrics.BuildOutcomeWarning
	default:
		r.Outcome = metrics.BuildOutcomeSuccess
	}
}
