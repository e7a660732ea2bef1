package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"ledgerstats/internal/core"
)

func newTestStore(t *testing.T) *PreferenceStore {
	t.Helper()
	store, err := NewPreferenceStore(filepath.Join(t.TempDir(), "nested", "prefs.db"), nil)
	if err != nil {
		t.Fatalf("NewPreferenceStore() error = %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestPreferenceStore_GetSet(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "missing"); err != nil || ok {
		t.Fatalf("Get(missing) = ok %v, err %v", ok, err)
	}

	if err := store.Set(ctx, "theme", "dark"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "theme", "light"); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}
	v, ok, err := store.Get(ctx, "theme")
	if err != nil || !ok || v != "light" {
		t.Fatalf("Get(theme) = %q, %v, %v", v, ok, err)
	}

	if err := store.Delete(ctx, "theme"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, ok, _ := store.Get(ctx, "theme"); ok {
		t.Fatal("expected theme to be deleted")
	}
}

func TestPreferenceStore_FirstBillDate(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	if err := store.SaveFirstBillDate(ctx, "2023-11-30 10:00:00"); err != nil {
		t.Fatalf("SaveFirstBillDate() error = %v", err)
	}
	got, ok, err := store.FirstBillDate(ctx)
	if err != nil || !ok || got != "2023-11-30 10:00:00" {
		t.Fatalf("FirstBillDate() = %q, %v, %v", got, ok, err)
	}

	all, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All() error = %v", err)
	}
	if all[core.FirstBillDateKey] != "2023-11-30 10:00:00" {
		t.Fatalf("All() = %v", all)
	}
}

func TestPreferenceStore_LoadHistory(t *testing.T) {
	store := newTestStore(t)
	store.historyLimit = 3
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)

	for i := 1; i <= 5; i++ {
		ev := core.LoadEvent{
			Generation: uint64(i),
			Source:     "memory",
			Records:    i * 10,
			Success:    i != 4,
			DurationMs: int64(i),
			At:         base.Add(time.Duration(i) * time.Minute),
		}
		if i == 4 {
			ev.Error = "backend unavailable"
		}
		if err := store.RecordLoad(ctx, ev); err != nil {
			t.Fatalf("RecordLoad(%d) error = %v", i, err)
		}
	}

	loads, err := store.RecentLoads(ctx, 10)
	if err != nil {
		t.Fatalf("RecentLoads() error = %v", err)
	}
	if len(loads) != 3 {
		t.Fatalf("expected history pruned to 3, got %d", len(loads))
	}
	if loads[0].Generation != 5 || loads[1].Success || loads[1].Error != "backend unavailable" {
		t.Fatalf("unexpected history: %+v", loads)
	}
	if !loads[2].At.Equal(base.Add(3 * time.Minute)) {
		t.Errorf("At = %v, want %v", loads[2].At, base.Add(3*time.Minute))
	}
}

func TestRunMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "prefs.db")
	if err := RunMigrations(path); err != nil {
		t.Fatalf("first RunMigrations() error = %v", err)
	}
	if err := RunMigrations(path); err != nil {
		t.Fatalf("second RunMigrations() error = %v", err)
	}
}
