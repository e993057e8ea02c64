// Package journal records provider round trips in a SQLite database so
// expensive fetches can be audited after the fact.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure-Go SQLite driver.
)

const schema = `
CREATE TABLE IF NOT EXISTS fetches (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	symbol     TEXT NOT NULL,
	interval   TEXT NOT NULL,
	start_at   TEXT NOT NULL,
	end_at     TEXT NOT NULL,
	rows       INTEGER NOT NULL,
	elapsed_ms INTEGER NOT NULL,
	fetched_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fetches_symbol ON fetches(symbol, interval);
`

// Entry is one recorded provider fetch.
type Entry struct {
	Symbol    string
	Interval  string
	Start     time.Time
	End       time.Time
	Rows      int
	Elapsed   time.Duration
	FetchedAt time.Time
}

// Journal is a SQLite-backed fetch log.
type Journal struct {
	db *sql.DB
}

// Open opens (or creates) the journal database at dbPath, creating
// parent directories and the schema as needed.
func Open(dbPath string) (*Journal, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir: %w", err)
	}
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing journal schema: %w", err)
	}
	return &Journal{db: db}, nil
}

// Close closes the underlying database.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Record inserts one fetch entry. A zero FetchedAt is filled with the
// current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.FetchedAt.IsZero() {
		e.FetchedAt = time.Now().UTC()
	}
	_, err := j.db.ExecContext(ctx,
		`INSERT INTO fetches (symbol, interval, start_at, end_at, rows, elapsed_ms, fetched_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Symbol, e.Interval,
		e.Start.UTC().Format(time.RFC3339),
		e.End.UTC().Format(time.RFC3339),
		e.Rows, e.Elapsed.Milliseconds(),
		e.FetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("recording fetch: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first, up to limit.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := j.db.QueryContext(ctx,
		`SELECT symbol, interval, start_at, end_at, rows, elapsed_ms, fetched_at
		 FROM fetches ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var e Entry
		var start, end, fetched string
		var elapsedMS int64
		if err := rows.Scan(&e.Symbol, &e.Interval, &start, &end, &e.Rows, &elapsedMS, &fetched); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		e.Start, _ = time.Parse(time.RFC3339, start)
		e.End, _ = time.Parse(time.RFC3339, end)
		e.FetchedAt, _ = time.Parse(time.RFC3339, fetched)
		e.Elapsed = time.Duration(elapsedMS) * time.Millisecond
		out = append(out, e)
	}
	return out, rows.Err()
}
