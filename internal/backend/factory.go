// Package backend builds the record source selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"

	"ledgerstats/internal/log"
	"ledgerstats/internal/sources/api"
	"ledgerstats/internal/sources/excel"
	"ledgerstats/internal/sources/memory"
	"ledgerstats/internal/sources/sheets"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Discard()
	}
	return &DefaultFactory{
		logger: logger.WithComponent(log.ComponentBackend),
	}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	switch config.Type {
	case APIBackend:
		return f.createAPIBackend(config)
	case MemoryBackend:
		return f.createMemoryBackend(config)
	case ExcelBackend:
		return f.createExcelBackend(config)
	case SheetsBackend:
		return f.createSheetsBackend(ctx, config)
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) createAPIBackend(config Config) (*BackendResult, error) {
	client, err := api.New(config.StatsAPIURL,
		api.WithMetaTTL(config.CategoryMetaTTL),
		api.WithLogger(f.logger))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize stats API client: %w", err)
	}

	f.logger.Info("Initialized API backend",
		"base_url", config.StatsAPIURL,
		"meta_ttl", config.CategoryMetaTTL.String())

	result := &BackendResult{Source: client}
	if mc := client.MetaCache(); mc != nil {
		result.Cache = mc
	}
	return result, nil
}

func (f *DefaultFactory) createMemoryBackend(config Config) (*BackendResult, error) {
	dataDir := config.DataDirectory
	if dataDir == "" {
		dataDir = "data"
	}

	store, err := memory.NewFromFiles(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to load memory backend: %w", err)
	}

	f.logger.Info("Initialized memory backend", "data_directory", dataDir)

	return &BackendResult{Source: store}, nil
}

func (f *DefaultFactory) createExcelBackend(config Config) (*BackendResult, error) {
	reader := excel.New(config.ExcelPath, config.ExcelSheet)

	f.logger.Info("Initialized Excel backend",
		"path", config.ExcelPath,
		log.FieldSheet, config.ExcelSheet)

	return &BackendResult{Source: reader}, nil
}

func (f *DefaultFactory) createSheetsBackend(ctx context.Context, config Config) (*BackendResult, error) {
	client, err := sheets.New(ctx, sheets.Config{
		SpreadsheetID:   config.GoogleSpreadsheetID,
		LedgerSheet:     config.GoogleSheetName,
		CategoriesSheet: config.GoogleCategoriesSheet,
	}, f.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}

	f.logger.Info("Initialized Google Sheets backend", log.FieldSheet, config.GoogleSheetName)

	return &BackendResult{Source: client}, nil
}
