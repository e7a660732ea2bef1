package backend

import (
	"context"
	"time"

	"ledgerstats/internal/cache"
	"ledgerstats/internal/sources"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the record source and optional cleanup function
type BackendResult struct {
	Source  sources.Source
	Cleanup CleanupFunc
	// Cache, when non-nil, should be registered with the cache manager.
	Cache cache.Cleaner
}

// Factory creates record sources based on configuration
type Factory interface {
	// CreateBackend creates a source instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for source creation
type Config struct {
	// Backend type
	Type BackendType

	// API specific
	StatsAPIURL     string
	CategoryMetaTTL time.Duration

	// Excel specific
	ExcelPath  string
	ExcelSheet string

	// Google Sheets specific
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCategoriesSheet string

	// Memory backend specific
	DataDirectory string
}

// BackendType represents the type of backend
type BackendType string

const (
	APIBackend    BackendType = "api"
	MemoryBackend BackendType = "memory"
	ExcelBackend  BackendType = "excel"
	SheetsBackend BackendType = "sheets"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case APIBackend, MemoryBackend, ExcelBackend, SheetsBackend:
		return true
	default:
		return false
	}
}
