package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

type RefreshRunRow struct {
	ID         string
	Trigger    string
	Status     string
	Source     string
	Records    int64
	Dropped    int64
	Version    int64
	Error      string
	StartedAt  time.Time
	DurationMs int64
}

const insertRefreshRun = `-- name: InsertRefreshRun :exec
INSERT INTO refresh_runs (id, trigger, status, source, records, dropped, version, error, started_at, duration_ms)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
`

type InsertRefreshRunParams struct {
	ID         string
	Trigger    string
	Status     string
	Source     string
	Records    int64
	Dropped    int64
	Version    int64
	Error      string
	StartedAt  time.Time
	DurationMs int64
}

func (q *Queries) InsertRefreshRun(ctx context.Context, arg InsertRefreshRunParams) error {
	_, err := q.db.ExecContext(ctx, insertRefreshRun,
		arg.ID,
		arg.Trigger,
		arg.Status,
		arg.Source,
		arg.Records,
		arg.Dropped,
		arg.Version,
		arg.Error,
		arg.StartedAt,
		arg.DurationMs,
	)
	return err
}

const listRecentRefreshRuns = `-- name: ListRecentRefreshRuns :many
SELECT id, trigger, status, source, records, dropped, version, error, started_at, duration_ms
FROM refresh_runs
ORDER BY started_at DESC, rowid DESC
LIMIT ?
`

func (q *Queries) ListRecentRefreshRuns(ctx context.Context, limit int64) ([]RefreshRunRow, error) {
	rows, err := q.db.QueryContext(ctx, listRecentRefreshRuns, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []RefreshRunRow
	for rows.Next() {
		var i RefreshRunRow
		if err := rows.Scan(
			&i.ID,
			&i.Trigger,
			&i.Status,
			&i.Source,
			&i.Records,
			&i.Dropped,
			&i.Version,
			&i.Error,
			&i.StartedAt,
			&i.DurationMs,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteRefreshRunsBefore = `-- name: DeleteRefreshRunsBefore :execrows
DELETE FROM refresh_runs WHERE started_at < ?
`

func (q *Queries) DeleteRefreshRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteRefreshRunsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

const countRefreshRunsByStatus = `-- name: CountRefreshRunsByStatus :many
SELECT status, COUNT(*) AS runs FROM refresh_runs GROUP BY status ORDER BY status
`

type CountRefreshRunsByStatusRow struct {
	Status string
	Runs   int64
}

func (q *Queries) CountRefreshRunsByStatus(ctx context.Context) ([]CountRefreshRunsByStatusRow, error) {
	rows, err := q.db.QueryContext(ctx, countRefreshRunsByStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []CountRefreshRunsByStatusRow
	for rows.Next() {
		var i CountRefreshRunsByStatusRow
		if err := rows.Scan(&i.Status, &i.Runs); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
