// Package preview keeps the decks rendered by the editor endpoint so the
// preview page can fetch them. The store is bounded: inserting past capacity
// evicts the entries with the smallest ids. Ids come from a counter, never
// from the clock, so two previews in the same instant never collide.
package preview

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	derrors "git.home.luguber.info/inful/deckbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/deckbuilder/internal/logfields"
	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
)

// Entry is one stored preview.
type Entry struct {
	ID      uint64
	HTML    string
	Created time.Time
}

// Meta is an entry without its body.
type Meta struct {
	ID      uint64
	Created time.Time
}

// Backend persists entries. Implementations need not be safe for concurrent
// use; Store serializes access.
type Backend interface {
	Put(ctx context.Context, e Entry) error
	Get(ctx context.Context, id uint64) (Entry, bool, error)
	// List returns all entries ordered by ascending id.
	List(ctx context.Context) ([]Meta, error)
	Delete(ctx context.Context, ids ...uint64) error
	Close() error
}

// Store is the bounded preview map.
type Store struct {
	mu       sync.Mutex
	backend  Backend
	capacity int
	next     uint64
	recorder metrics.Recorder
	now      func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithRecorder reports the entry count to r.
func WithRecorder(r metrics.Recorder) Option {
	return func(s *Store) { s.recorder = r }
}

// WithClock overrides time.Now for entry timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// New wraps backend in a store holding at most capacity entries. Ids continue
// after the largest id already in the backend.
func New(ctx context.Context, backend Backend, capacity int, opts ...Option) (*Store, error) {
	if capacity < 1 {
		return nil, derrors.ConfigError(fmt.Sprintf("preview capacity must be at least 1, got %d", capacity)).Build()
	}
	s := &Store{
		backend:  backend,
		capacity: capacity,
		recorder: metrics.NoopRecorder{},
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	metas, err := backend.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list previews: %w", err)
	}
	if n := len(metas); n > 0 {
		s.next = metas[n-1].ID
	}
	if err := s.evict(ctx, metas); err != nil {
		return nil, err
	}
	return s, nil
}

// Add stores html under a fresh id and returns it.
func (s *Store) Add(ctx context.Context, html string) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// The id is only consumed once the entry is stored.
	e := Entry{ID: s.next + 1, HTML: html, Created: s.now()}
	if err := s.backend.Put(ctx, e); err != nil {
		return 0, fmt.Errorf("store preview %d: %w", e.ID, err)
	}
	s.next = e.ID
	metas, err := s.backend.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list previews: %w", err)
	}
	if err := s.evict(ctx, metas); err != nil {
		return 0, err
	}
	return e.ID, nil
}

// evict drops the smallest ids until the store fits its capacity.
func (s *Store) evict(ctx context.Context, metas []Meta) error {
	over := len(metas) - s.capacity
	if over > 0 {
		ids := make([]uint64, over)
		for i := range ids {
			ids[i] = metas[i].ID
		}
		if err := s.backend.Delete(ctx, ids...); err != nil {
			return fmt.Errorf("evict previews: %w", err)
		}
		slog.Debug("Evicted previews", slog.Int("count", over), logfields.PreviewID(ids[over-1]))
		metas = metas[over:]
	}
	s.recorder.SetPreviewEntries(len(metas))
	return nil
}

// Get returns the preview with id.
func (s *Store) Get(ctx context.Context, id uint64) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Get(ctx, id)
}

// Issued reports whether id was ever handed out by Add, so callers can tell
// an evicted preview from one that never existed.
func (s *Store) Issued(id uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return id >= 1 && id <= s.next
}

// Latest returns the preview with the largest id.
func (s *Store) Latest(ctx context.Context) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metas, err := s.backend.List(ctx)
	if err != nil || len(metas) == 0 {
		return Entry{}, false, err
	}
	return s.backend.Get(ctx, metas[len(metas)-1].ID)
}

// Len reports the number of stored previews.
func (s *Store) Len(ctx context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metas, err := s.backend.List(ctx)
	return len(metas), err
}

// Sweep deletes entries created before cutoff, always keeping the latest.
func (s *Store) Sweep(ctx context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	metas, err := s.backend.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list previews: %w", err)
	}
	if len(metas) < 2 {
		return 0, nil
	}
	var expired []uint64
	for _, m := range metas[:len(metas)-1] {
		if m.Created.Before(cutoff) {
			expired = append(expired, m.ID)
		}
	}
	if len(expired) == 0 {
		return 0, nil
	}
	if err := s.backend.Delete(ctx, expired...); err != nil {
		return 0, fmt.Errorf("sweep previews: %w", err)
	}
	s.recorder.SetPreviewEntries(len(metas) - len(expired))
	return len(expired), nil
}

// Close releases the backend.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.backend.Close()
}
