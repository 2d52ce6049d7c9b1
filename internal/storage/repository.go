package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"
)

// RefreshRun is one journal entry describing a refresh attempt.
type RefreshRun struct {
	ID         string    `json:"id"`
	Trigger    string    `json:"trigger"`
	Status     string    `json:"status"`
	Source     string    `json:"source,omitempty"`
	Records    int       `json:"records"`
	Dropped    int       `json:"dropped"`
	Version    uint64    `json:"version"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	DurationMs int64     `json:"duration_ms"`
}

// SQLiteRepository is the refresh journal backed by SQLite.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// A single writer avoids SQLITE_BUSY between the refresher and status reads.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if _, err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the database connection.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// RecordRefresh appends a run to the journal.
func (r *SQLiteRepository) RecordRefresh(ctx context.Context, run RefreshRun) error {
	err := r.queries.InsertRefreshRun(ctx, InsertRefreshRunParams{
		ID:         run.ID,
		Trigger:    run.Trigger,
		Status:     run.Status,
		Source:     run.Source,
		Records:    int64(run.Records),
		Dropped:    int64(run.Dropped),
		Version:    int64(run.Version),
		Error:      run.Error,
		StartedAt:  run.StartedAt.UTC(),
		DurationMs: run.DurationMs,
	})
	if err != nil {
		return fmt.Errorf("insert refresh run %s: %w", run.ID, err)
	}

	slog.DebugContext(ctx, "Refresh run journaled",
		"component", "storage",
		"run_id", run.ID,
		"status", run.Status)
	return nil
}

// RecentRefreshes returns the latest runs, newest first.
func (r *SQLiteRepository) RecentRefreshes(ctx context.Context, limit int) ([]RefreshRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := r.queries.ListRecentRefreshRuns(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list refresh runs: %w", err)
	}
	out := make([]RefreshRun, 0, len(rows))
	for _, row := range rows {
		out = append(out, RefreshRun{
			ID:         row.ID,
			Trigger:    row.Trigger,
			Status:     row.Status,
			Source:     row.Source,
			Records:    int(row.Records),
			Dropped:    int(row.Dropped),
			Version:    uint64(row.Version),
			Error:      row.Error,
			StartedAt:  row.StartedAt,
			DurationMs: row.DurationMs,
		})
	}
	return out, nil
}

// RefreshCounts returns the number of journaled runs per status.
func (r *SQLiteRepository) RefreshCounts(ctx context.Context) (map[string]int64, error) {
	rows, err := r.queries.CountRefreshRunsByStatus(ctx)
	if err != nil {
		return nil, fmt.Errorf("count refresh runs: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.Runs
	}
	return out, nil
}

// PruneRefreshes deletes runs older than maxAge.
func (r *SQLiteRepository) PruneRefreshes(ctx context.Context, maxAge time.Duration) (int64, error) {
	n, err := r.queries.DeleteRefreshRunsBefore(ctx, time.Now().Add(-maxAge).UTC())
	if err != nil {
		return 0, fmt.Errorf("prune refresh runs: %w", err)
	}
	return n, nil
}
