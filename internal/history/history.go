// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package history persists run telemetry to SQLite so cost and latency
// can be tracked across queries. Only summaries and execution records are
// stored; the evidence itself lives in result files, never in the
// database.
// Implements: prd006-history (R1-R4);
//
//	docs/ARCHITECTURE § Run History.
package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/pdiddy/genescout/pkg/types"
)

// Store manages the run-history SQLite database.
type Store struct {
	db         *sql.DB
	maxResults int
}

// NewStore opens or creates the history database at cfg.Path, creating
// the schema if it does not exist.
func NewStore(cfg types.HistoryConfig) (*Store, error) {
	path := cfg.Path
	if path == "" {
		path = "genescout.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating history directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening history database: %w", err)
	}

	maxResults := cfg.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	s := &Store{db: db, maxResults: maxResults}
	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}
	return s, nil
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) createSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			query TEXT NOT NULL,
			timestamp TEXT NOT NULL,
			duration REAL,
			success INTEGER NOT NULL,
			error TEXT,
			genes INTEGER,
			associations INTEGER,
			annotations INTEGER,
			pathways INTEGER,
			publications INTEGER,
			prompt_tokens INTEGER,
			completion_tokens INTEGER
		)`,
		`CREATE TABLE IF NOT EXISTS run_records (
			run_id INTEGER NOT NULL REFERENCES runs(id),
			position INTEGER NOT NULL,
			tool TEXT NOT NULL,
			duration REAL,
			success INTEGER NOT NULL,
			error TEXT,
			rows_returned INTEGER,
			prompt_tokens INTEGER,
			completion_tokens INTEGER,
			PRIMARY KEY (run_id, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_records_tool ON run_records(tool)`,
	}
	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("executing schema statement: %w", err)
		}
	}
	return nil
}

// SaveRun persists one finished run's summary and execution records.
func (s *Store) SaveRun(ctx context.Context, res *types.AggregateResult) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`INSERT INTO runs (query, timestamp, duration, success, error,
			genes, associations, annotations, pathways, publications,
			prompt_tokens, completion_tokens)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		res.Query, res.Timestamp.UTC().Format(time.RFC3339Nano), res.Duration,
		res.Success, res.Err,
		len(res.Genes), len(res.Associations), len(res.Annotations),
		len(res.Pathways), len(res.Publications),
		res.TotalPromptTokens(), res.TotalCompletionTokens(),
	)
	if err != nil {
		return 0, fmt.Errorf("inserting run: %w", err)
	}
	runID, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("reading run id: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO run_records (run_id, position, tool, duration, success,
			error, rows_returned, prompt_tokens, completion_tokens)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return 0, fmt.Errorf("preparing record insert: %w", err)
	}
	defer stmt.Close()

	for i, r := range res.Records {
		_, err := stmt.ExecContext(ctx,
			runID, i, r.Tool, r.Duration, r.Success, r.Error,
			r.RowsReturned, r.PromptTokens, r.CompletionTokens,
		)
		if err != nil {
			return 0, fmt.Errorf("inserting record %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("committing run: %w", err)
	}
	return runID, nil
}

// RunSummary is one row of the run history listing.
type RunSummary struct {
	ID               int64
	Query            string
	Timestamp        time.Time
	Duration         float64
	Success          bool
	Error            string
	EvidenceCount    int
	PromptTokens     int
	CompletionTokens int
}

// Recent returns the newest runs, most recent first, capped at the
// configured listing size.
func (s *Store) Recent(ctx context.Context) ([]RunSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, query, timestamp, duration, success, error,
			genes + associations + annotations + pathways + publications,
			prompt_tokens, completion_tokens
		 FROM runs ORDER BY id DESC LIMIT ?`, s.maxResults)
	if err != nil {
		return nil, fmt.Errorf("querying runs: %w", err)
	}
	defer rows.Close()

	var out []RunSummary
	for rows.Next() {
		var r RunSummary
		var ts string
		if err := rows.Scan(&r.ID, &r.Query, &ts, &r.Duration, &r.Success,
			&r.Error, &r.EvidenceCount, &r.PromptTokens, &r.CompletionTokens); err != nil {
			return nil, fmt.Errorf("scanning run row: %w", err)
		}
		if parsed, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			r.Timestamp = parsed
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// ToolStats aggregates per-tool telemetry across all stored runs.
type ToolStats struct {
	Tool        string
	Calls       int
	Failures    int
	AvgDuration float64
}

// Stats returns per-tool call counts, failure counts, and mean latency,
// ordered by call count.
func (s *Store) Stats(ctx context.Context) ([]ToolStats, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT tool, COUNT(*), SUM(CASE WHEN success THEN 0 ELSE 1 END), AVG(duration)
		 FROM run_records GROUP BY tool ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying tool stats: %w", err)
	}
	defer rows.Close()

	var out []ToolStats
	for rows.Next() {
		var t ToolStats
		if err := rows.Scan(&t.Tool, &t.Calls, &t.Failures, &t.AvgDuration); err != nil {
			return nil, fmt.Errorf("scanning stats row: %w", err)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}
