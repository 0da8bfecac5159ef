package preview

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
)

// Janitor periodically drops previews older than a TTL.
type Janitor struct {
	scheduler gocron.Scheduler
	store     *Store
	ttl       time.Duration
}

// NewJanitor schedules a sweep of store every interval.
func NewJanitor(store *Store, ttl, interval time.Duration) (*Janitor, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create gocron scheduler: %w", err)
	}
	j := &Janitor{scheduler: s, store: store, ttl: ttl}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(j.sweep),
		gocron.WithName("preview-sweep"),
	); err != nil {
		_ = s.Shutdown()
		return nil, fmt.Errorf("failed to create preview sweep job: %w", err)
	}
	return j, nil
}

// Start begins the scheduler.
func (j *Janitor) Start() {
	slog.Debug("Starting preview janitor", slog.Duration("ttl", j.ttl))
	j.scheduler.Start()
}

// Stop shuts the scheduler down.
func (j *Janitor) Stop() error {
	return j.scheduler.Shutdown()
}

func (j *Janitor) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := j.store.Sweep(ctx, j.store.now().Add(-j.ttl))
	if err != nil {
		slog.Error("Preview sweep failed", logfields.Error(err))
		return
	}
	if n > 0 {
		slog.Debug("Swept expired previews", slog.Int("count", n))
	}
}
