// Package storage persists dashboard preferences and load history in SQLite.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"ledgerstats/internal/core"
	"ledgerstats/internal/log"

	_ "modernc.org/sqlite"
)

// DefaultHistoryLimit bounds how many load events are kept.
const DefaultHistoryLimit = 200

type PreferenceStore struct {
	db           *sql.DB
	queries      *Queries
	logger       *log.Logger
	historyLimit int64
	now          func() time.Time
}

func NewPreferenceStore(dbPath string, logger *log.Logger) (*PreferenceStore, error) {
	if logger == nil {
		logger = log.Discard()
	}
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &PreferenceStore{
		db:           db,
		queries:      New(db),
		logger:       logger.WithComponent(log.ComponentStorage),
		historyLimit: DefaultHistoryLimit,
		now:          time.Now,
	}, nil
}

func (s *PreferenceStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (s *PreferenceStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Get returns the value stored under key.
func (s *PreferenceStore) Get(ctx context.Context, key string) (string, bool, error) {
	p, err := s.queries.GetPreference(ctx, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference %s: %w", key, err)
	}
	return p.Value, true, nil
}

// Set stores value under key, replacing any previous value.
func (s *PreferenceStore) Set(ctx context.Context, key, value string) error {
	err := s.queries.UpsertPreference(ctx, UpsertPreferenceParams{
		Key:       key,
		Value:     value,
		UpdatedAt: s.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("set preference %s: %w", key, err)
	}
	s.logger.DebugContext(ctx, "Preference saved", "key", key)
	return nil
}

// Delete removes key. Missing keys are not an error.
func (s *PreferenceStore) Delete(ctx context.Context, key string) error {
	if err := s.queries.DeletePreference(ctx, key); err != nil {
		return fmt.Errorf("delete preference %s: %w", key, err)
	}
	return nil
}

// All returns every stored preference keyed by name.
func (s *PreferenceStore) All(ctx context.Context) (map[string]string, error) {
	prefs, err := s.queries.ListPreferences(ctx)
	if err != nil {
		return nil, fmt.Errorf("list preferences: %w", err)
	}
	out := make(map[string]string, len(prefs))
	for _, p := range prefs {
		out[p.Key] = p.Value
	}
	return out, nil
}

// SaveFirstBillDate persists the earliest raw date of the last load.
func (s *PreferenceStore) SaveFirstBillDate(ctx context.Context, date string) error {
	return s.Set(ctx, core.FirstBillDateKey, date)
}

// FirstBillDate returns the persisted earliest raw date, if any.
func (s *PreferenceStore) FirstBillDate(ctx context.Context) (string, bool, error) {
	return s.Get(ctx, core.FirstBillDateKey)
}

// RecordLoad appends a load event and prunes history beyond the limit.
func (s *PreferenceStore) RecordLoad(ctx context.Context, ev core.LoadEvent) error {
	at := ev.At
	if at.IsZero() {
		at = s.now()
	}
	err := s.queries.InsertLoadHistory(ctx, InsertLoadHistoryParams{
		Generation: int64(ev.Generation),
		Source:     ev.Source,
		Records:    int64(ev.Records),
		Success:    ev.Success,
		Error:      ev.Error,
		DurationMs: ev.DurationMs,
		LoadedAt:   at.UTC(),
	})
	if err != nil {
		return fmt.Errorf("insert load history: %w", err)
	}
	if _, err := s.queries.PruneLoadHistory(ctx, s.historyLimit); err != nil {
		s.logger.WarnContext(ctx, "Failed to prune load history", log.FieldError, err)
	}
	return nil
}

// RecentLoads returns up to limit load events, newest first.
func (s *PreferenceStore) RecentLoads(ctx context.Context, limit int) ([]core.LoadEvent, error) {
	if limit <= 0 || int64(limit) > s.historyLimit {
		limit = int(s.historyLimit)
	}
	rows, err := s.queries.ListRecentLoads(ctx, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list load history: %w", err)
	}
	out := make([]core.LoadEvent, 0, len(rows))
	for _, h := range rows {
		out = append(out, core.LoadEvent{
			Generation: uint64(h.Generation),
			Source:     h.Source,
			Records:    int(h.Records),
			Success:    h.Success,
			Error:      h.Error,
			DurationMs: h.DurationMs,
			At:         h.LoadedAt,
		})
	}
	return out, nil
}
