package preview

import (
	"context"
	"slices"
)

// MemoryBackend keeps previews in a map.
type MemoryBackend struct {
	entries map[uint64]Entry
}

// NewMemoryBackend returns an empty in-process backend.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{entries: make(map[uint64]Entry)}
}

func (m *MemoryBackend) Put(_ context.Context, e Entry) error {
	m.entries[e.ID] = e
	return nil
}

func (m *MemoryBackend) Get(_ context.Context, id uint64) (Entry, bool, error) {
	e, ok := m.entries[id]
	return e, ok, nil
}

func (m *MemoryBackend) List(context.Context) ([]Meta, error) {
	out := make([]Meta, 0, len(m.entries))
	for _, e := range m.entries {
		out = append(out, Meta{ID: e.ID, Created: e.Created})
	}
	slices.SortFunc(out, func(a, b Meta) int {
		switch {
		case a.ID < b.ID:
			return -1
		case a.ID > b.ID:
			return 1
		}
		return 0
	})
	return out, nil
}

func (m *MemoryBackend) Delete(_ context.Context, ids ...uint64) error {
	for _, id := range ids {
		delete(m.entries, id)
	}
	return nil
}

func (m *MemoryBackend) Close() error { return nil }
