// Package memory is an in-process record source seeded from JSON files. It
// backs local development and tests.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"sync"

	"ledgerstats/internal/core"
	"ledgerstats/internal/sources"
	"ledgerstats/internal/stats"
)

const (
	RecordsFile      = "records.json"
	CategoryMetaFile = "category_meta.json"
)

// Ensure interface conformance
var _ sources.Source = (*Store)(nil)

type Store struct {
	mu      sync.RWMutex
	records []core.Record
	meta    map[string]core.CategoryMeta
	// failWith makes every fetch fail; used to exercise fallback paths.
	failWith error
}

func New(records []core.Record, meta map[string]core.CategoryMeta) *Store {
	if meta == nil {
		meta = map[string]core.CategoryMeta{}
	}
	return &Store{records: slices.Clone(records), meta: meta}
}

// NewFromFiles loads records.json and category_meta.json from base. Missing
// files leave the store empty; malformed files are reported.
func NewFromFiles(base string) (*Store, error) {
	var records []core.Record
	if err := readJSON(filepath.Join(base, RecordsFile), &records); err != nil {
		return nil, err
	}
	meta := map[string]core.CategoryMeta{}
	if err := readJSON(filepath.Join(base, CategoryMetaFile), &meta); err != nil {
		return nil, err
	}
	return New(records, meta), nil
}

func readJSON(path string, dst any) error {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

// Replace swaps the whole record set.
func (s *Store) Replace(records []core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = slices.Clone(records)
}

// Append adds one record.
func (s *Store) Append(r core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, r)
}

// FailWith makes subsequent fetches return err. Pass nil to recover.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// FetchRecords returns every record in all_items plus one sorted page in
// items, honouring sort_by, sort_order, page and page_size like the backend.
func (s *Store) FetchRecords(ctx context.Context, params url.Values) (core.StatisticsResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.StatisticsResponse{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.StatisticsResponse{}, fmt.Errorf("%w: %w", sources.ErrFetchFailed, s.failWith)
	}

	all := slices.Clone(s.records)
	page := stats.TablePage(all, core.TableQuery{
		SortBy:    params.Get("sort_by"),
		SortOrder: params.Get("sort_order"),
		Page:      atoi(params.Get("page")),
		PageSize:  atoi(params.Get("page_size")),
	})
	if all == nil {
		all = []core.Record{}
	}
	return core.StatisticsResponse{
		Success:  true,
		Items:    page.Items,
		Total:    page.Total,
		AllItems: all,
	}, nil
}

// FetchCategoryMeta returns a copy of the configured metadata.
func (s *Store) FetchCategoryMeta(ctx context.Context) (core.CategoryMetaResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.CategoryMetaResponse{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.failWith != nil {
		return core.CategoryMetaResponse{}, fmt.Errorf("%w: %w", sources.ErrFetchFailed, s.failWith)
	}
	meta := make(map[string]core.CategoryMeta, len(s.meta))
	for k, v := range s.meta {
		meta[k] = v
	}
	return core.CategoryMetaResponse{Success: true, Meta: meta}, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
