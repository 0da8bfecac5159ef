package preview

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/deckbuilder/internal/metrics"
)

type gaugeRecorder struct {
	metrics.NoopRecorder
	entries int
}

func (g *gaugeRecorder) SetPreviewEntries(n int) { g.entries = n }

// failingBackend rejects writes while fail is set.
type failingBackend struct {
	*MemoryBackend
	fail bool
}

func (f *failingBackend) Put(ctx context.Context, e Entry) error {
	if f.fail {
		return errors.New("disk full")
	}
	return f.MemoryBackend.Put(ctx, e)
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func backends(t *testing.T) map[string]func() Backend {
	return map[string]func() Backend{
		"memory": func() Backend { return NewMemoryBackend() },
		"sqlite": func() Backend {
			b, err := NewSQLiteBackend(":memory:")
			require.NoError(t, err)
			return b
		},
	}
}

func TestStoreEvictsSmallestIDs(t *testing.T) {
	for name, newBackend := range backends(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			rec := &gaugeRecorder{}
			s, err := New(ctx, newBackend(), 2, WithRecorder(rec))
			require.NoError(t, err)
			defer func() { _ = s.Close() }()

			var ids []uint64
			for _, html := range []string{"a", "b", "c"} {
				id, err := s.Add(ctx, html)
				require.NoError(t, err)
				ids = append(ids, id)
			}
			assert.Equal(t, []uint64{1, 2, 3}, ids)

			_, ok, err := s.Get(ctx, 1)
			require.NoError(t, err)
			assert.False(t, ok, "oldest id must be evicted")
			assert.True(t, s.Issued(1))
			assert.False(t, s.Issued(4))
			assert.False(t, s.Issued(0))

			e, ok, err := s.Get(ctx, 2)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, "b", e.HTML)

			latest, ok, err := s.Latest(ctx)
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, uint64(3), latest.ID)
			assert.Equal(t, "c", latest.HTML)

			n, err := s.Len(ctx)
			require.NoError(t, err)
			assert.Equal(t, 2, n)
			assert.Equal(t, 2, rec.entries)
		})
	}
}

func TestStoreIDsAreUniqueWithinOneInstant(t *testing.T) {
	c := &clock{t: time.Unix(100, 0)}
	s, err := New(context.Background(), NewMemoryBackend(), 10, WithClock(c.now))
	require.NoError(t, err)

	seen := map[uint64]bool{}
	for range 5 {
		id, err := s.Add(context.Background(), "x")
		require.NoError(t, err)
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestStoreFailedAddDoesNotIssueID(t *testing.T) {
	ctx := context.Background()
	b := &failingBackend{MemoryBackend: NewMemoryBackend(), fail: true}
	s, err := New(ctx, b, 4)
	require.NoError(t, err)

	_, err = s.Add(ctx, "lost")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.False(t, s.Issued(1))

	b.fail = false
	id, err := s.Add(ctx, "kept")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), id)
	assert.True(t, s.Issued(1))
}

func TestStoreLatestEmpty(t *testing.T) {
	s, err := New(context.Background(), NewMemoryBackend(), 1)
	require.NoError(t, err)
	_, ok, err := s.Latest(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestNewRejectsZeroCapacity(t *testing.T) {
	_, err := New(context.Background(), NewMemoryBackend(), 0)
	require.Error(t, err)
}

func TestSweepKeepsLatest(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Unix(1000, 0)}
	s, err := New(ctx, NewMemoryBackend(), 10, WithClock(c.now))
	require.NoError(t, err)

	_, err = s.Add(ctx, "old")
	require.NoError(t, err)
	_, err = s.Add(ctx, "old too")
	require.NoError(t, err)
	c.t = c.t.Add(time.Hour)
	_, err = s.Add(ctx, "fresh")
	require.NoError(t, err)

	n, err := s.Sweep(ctx, c.t.Add(-time.Minute))
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	left, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, left)

	// only the latest is left, and the latest is never swept
	n, err = s.Sweep(ctx, c.t.Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "previews.db")

	b, err := NewSQLiteBackend(path)
	require.NoError(t, err)
	s, err := New(ctx, b, 5)
	require.NoError(t, err)
	_, err = s.Add(ctx, "first")
	require.NoError(t, err)
	_, err = s.Add(ctx, "second")
	require.NoError(t, err)
	require.NoError(t, s.Close())

	b, err = NewSQLiteBackend(path)
	require.NoError(t, err)
	s, err = New(ctx, b, 1)
	require.NoError(t, err)
	defer func() { _ = s.Close() }()

	n, err := s.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "reopening with a smaller capacity evicts")

	id, err := s.Add(ctx, "third")
	require.NoError(t, err)
	assert.Equal(t, uint64(3), id, "ids continue after the stored maximum")
}

func TestJanitorSweeps(t *testing.T) {
	ctx := context.Background()
	c := &clock{t: time.Now().Add(-time.Hour)}
	s, err := New(ctx, NewMemoryBackend(), 10, WithClock(c.now))
	require.NoError(t, err)
	_, err = s.Add(ctx, "stale")
	require.NoError(t, err)
	c.t = time.Now()
	_, err = s.Add(ctx, "live")
	require.NoError(t, err)

	j, err := NewJanitor(s, time.Minute, 20*time.Millisecond)
	require.NoError(t, err)
	j.Start()
	defer func() { _ = j.Stop() }()

	require.Eventually(t, func() bool {
		n, err := s.Len(ctx)
		return err == nil && n == 1
	}, 2*time.Second, 10*time.Millisecond)
}
