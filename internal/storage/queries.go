package storage

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Preference struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

const getPreference = `SELECT key, value, updated_at FROM preferences WHERE key = ?`

func (q *Queries) GetPreference(ctx context.Context, key string) (Preference, error) {
	row := q.db.QueryRowContext(ctx, getPreference, key)
	var p Preference
	err := row.Scan(&p.Key, &p.Value, &p.UpdatedAt)
	return p, err
}

const upsertPreference = `INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`

type UpsertPreferenceParams struct {
	Key       string
	Value     string
	UpdatedAt time.Time
}

func (q *Queries) UpsertPreference(ctx context.Context, arg UpsertPreferenceParams) error {
	_, err := q.db.ExecContext(ctx, upsertPreference, arg.Key, arg.Value, arg.UpdatedAt)
	return err
}

const deletePreference = `DELETE FROM preferences WHERE key = ?`

func (q *Queries) DeletePreference(ctx context.Context, key string) error {
	_, err := q.db.ExecContext(ctx, deletePreference, key)
	return err
}

const listPreferences = `SELECT key, value, updated_at FROM preferences ORDER BY key`

func (q *Queries) ListPreferences(ctx context.Context) ([]Preference, error) {
	rows, err := q.db.QueryContext(ctx, listPreferences)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []Preference
	for rows.Next() {
		var p Preference
		if err := rows.Scan(&p.Key, &p.Value, &p.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, p)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

type LoadHistory struct {
	ID         int64
	Generation int64
	Source     string
	Records    int64
	Success    bool
	Error      string
	DurationMs int64
	LoadedAt   time.Time
}

const insertLoadHistory = `INSERT INTO load_history (generation, source, records, success, error, duration_ms, loaded_at)
VALUES (?, ?, ?, ?, ?, ?, ?)`

type InsertLoadHistoryParams struct {
	Generation int64
	Source     string
	Records    int64
	Success    bool
	Error      string
	DurationMs int64
	LoadedAt   time.Time
}

func (q *Queries) InsertLoadHistory(ctx context.Context, arg InsertLoadHistoryParams) error {
	_, err := q.db.ExecContext(ctx, insertLoadHistory,
		arg.Generation, arg.Source, arg.Records, arg.Success, arg.Error, arg.DurationMs, arg.LoadedAt)
	return err
}

const listRecentLoads = `SELECT id, generation, source, records, success, error, duration_ms, loaded_at
FROM load_history ORDER BY id DESC LIMIT ?`

func (q *Queries) ListRecentLoads(ctx context.Context, limit int64) ([]LoadHistory, error) {
	rows, err := q.db.QueryContext(ctx, listRecentLoads, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []LoadHistory
	for rows.Next() {
		var h LoadHistory
		if err := rows.Scan(&h.ID, &h.Generation, &h.Source, &h.Records, &h.Success, &h.Error, &h.DurationMs, &h.LoadedAt); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const pruneLoadHistory = `DELETE FROM load_history WHERE id NOT IN (SELECT id FROM load_history ORDER BY id DESC LIMIT ?)`

func (q *Queries) PruneLoadHistory(ctx context.Context, keep int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, pruneLoadHistory, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
