package preview

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteBackend persists previews so they survive a server restart.
type SQLiteBackend struct {
	db *sql.DB
}

// NewSQLiteBackend opens or creates the preview database at dbPath.
// Use ":memory:" for a throwaway database.
func NewSQLiteBackend(dbPath string) (*SQLiteBackend, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A :memory: database exists per connection.
	db.SetMaxOpenConns(1)

	b := &SQLiteBackend{db: db}
	if err := b.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return b, nil
}

func (b *SQLiteBackend) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS previews (
		id INTEGER PRIMARY KEY,
		html TEXT NOT NULL,
		created INTEGER NOT NULL
	);
	`
	_, err := b.db.Exec(schema)
	return err
}

func (b *SQLiteBackend) Put(ctx context.Context, e Entry) error {
	_, err := b.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO previews (id, html, created) VALUES (?, ?, ?)",
		int64(e.ID), e.HTML, e.Created.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("insert preview: %w", err)
	}
	return nil
}

func (b *SQLiteBackend) Get(ctx context.Context, id uint64) (Entry, bool, error) {
	var (
		e       Entry
		rawID   int64
		created int64
	)
	err := b.db.QueryRowContext(ctx,
		"SELECT id, html, created FROM previews WHERE id = ?", int64(id),
	).Scan(&rawID, &e.HTML, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("query preview: %w", err)
	}
	e.ID = uint64(rawID)
	e.Created = time.Unix(0, created)
	return e, true, nil
}

func (b *SQLiteBackend) List(ctx context.Context) ([]Meta, error) {
	rows, err := b.db.QueryContext(ctx, "SELECT id, created FROM previews ORDER BY id")
	if err != nil {
		return nil, fmt.Errorf("query previews: %w", err)
	}
	defer rows.Close()

	var out []Meta
	for rows.Next() {
		var id, created int64
		if err := rows.Scan(&id, &created); err != nil {
			return nil, fmt.Errorf("scan preview: %w", err)
		}
		out = append(out, Meta{ID: uint64(id), Created: time.Unix(0, created)})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return out, nil
}

func (b *SQLiteBackend) Delete(ctx context.Context, ids ...uint64) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	query := "DELETE FROM previews WHERE id IN (?" + strings.Repeat(", ?", len(ids)-1) + ")"
	if _, err := b.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("delete previews: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (b *SQLiteBackend) Close() error {
	return b.db.Close()
}
