// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package journal keeps a local SQLite log of every remote request the
// engine resolves, so spent quota can be audited after the fact.
// Implements: prd005-quota-journal (R1-R4);
//
//	docs/ARCHITECTURE § Quota Journal.
package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/biblio-engine/pkg/types"
)

// Outcome values recorded per request. Sized marks a search that only
// counted its matches without downloading them.
const (
	StatusCache      = "cache"
	StatusDownloaded = "downloaded"
	StatusSized      = "sized"
	StatusAborted    = "aborted"
	StatusFailed     = "failed"
)

// Entry is one journal row. QuotaRemaining is -1 when the provider did
// not report quota for the request.
type Entry struct {
	ID             string
	StartedAt      time.Time
	API            string
	Kind           string
	Identifier     string
	Pages          int
	Entries        int
	Status         string
	Detail         string
	QuotaRemaining int
	Duration       time.Duration
}

// Journal wraps the SQLite request log. A nil *Journal is a valid no-op
// recorder, which is what Open returns when journaling is disabled.
type Journal struct {
	db *sql.DB
}

// Open opens or creates the journal database. With journaling disabled
// it returns (nil, nil) and every method becomes a no-op.
func Open(cfg types.JournalConfig) (*Journal, error) {
	if !cfg.Enabled {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating journal directory: %w", err)
	}

	db, err := sql.Open("sqlite3", cfg.Path+"?_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("opening journal database: %w", err)
	}

	j := &Journal{db: db}
	if err := j.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal schema: %w", err)
	}
	return j, nil
}

// Close releases the database connection.
func (j *Journal) Close() error {
	if j == nil {
		return nil
	}
	return j.db.Close()
}

func (j *Journal) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS requests (
			id TEXT PRIMARY KEY,
			started_at TEXT NOT NULL,
			api TEXT NOT NULL,
			kind TEXT NOT NULL,
			identifier TEXT,
			pages INTEGER NOT NULL DEFAULT 0,
			entries INTEGER NOT NULL DEFAULT 0,
			status TEXT NOT NULL,
			detail TEXT,
			quota_remaining INTEGER NOT NULL DEFAULT -1,
			duration_ms INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_started_at ON requests(started_at)`,
		`CREATE INDEX IF NOT EXISTS idx_requests_api ON requests(api)`,
	}
	for _, stmt := range statements {
		if _, err := j.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// Record appends one entry. A missing ID gets a fresh UUID and a zero
// StartedAt becomes the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if j == nil {
		return nil
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.StartedAt.IsZero() {
		e.StartedAt = time.Now()
	}

	_, err := j.db.ExecContext(ctx,
		`INSERT INTO requests
			(id, started_at, api, kind, identifier, pages, entries, status, detail, quota_remaining, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.StartedAt.UTC().Format(time.RFC3339Nano), e.API, e.Kind, e.Identifier,
		e.Pages, e.Entries, e.Status, e.Detail, e.QuotaRemaining, e.Duration.Milliseconds(),
	)
	if err != nil {
		return fmt.Errorf("recording journal entry: %w", err)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A nil journal
// returns no entries.
func (j *Journal) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if j == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}

	rows, err := j.db.QueryContext(ctx,
		`SELECT id, started_at, api, kind, identifier, pages, entries, status, detail, quota_remaining, duration_ms
		 FROM requests ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying journal: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var startedAt string
		var durationMS int64
		if err := rows.Scan(&e.ID, &startedAt, &e.API, &e.Kind, &e.Identifier,
			&e.Pages, &e.Entries, &e.Status, &e.Detail, &e.QuotaRemaining, &durationMS); err != nil {
			return nil, fmt.Errorf("scanning journal row: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, startedAt); err == nil {
			e.StartedAt = t
		}
		e.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Prune deletes entries older than the cutoff and reports how many rows
// were removed.
func (j *Journal) Prune(ctx context.Context, cutoff time.Time) (int64, error) {
	if j == nil {
		return 0, nil
	}
	res, err := j.db.ExecContext(ctx,
		`DELETE FROM requests WHERE started_at < ?`,
		cutoff.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, fmt.Errorf("pruning journal: %w", err)
	}
	return res.RowsAffected()
}
