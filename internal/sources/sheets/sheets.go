// Package sheets reads the ledger from a Google Sheets spreadsheet using a
// service account.
package sheets

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"ledgerstats/internal/core"
	"ledgerstats/internal/log"
	"ledgerstats/internal/sources"
)

const (
	DefaultLedgerSheet     = "Ledger"
	DefaultCategoriesSheet = "Categories"
)

// Ensure interface conformance
var _ sources.Source = (*Client)(nil)

// valuesGetter is the slice of the Sheets API this package uses.
type valuesGetter interface {
	Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error)
}

type apiGetter struct{ svc *gsheet.Service }

func (g apiGetter) Get(ctx context.Context, spreadsheetID, rng string) ([][]interface{}, error) {
	resp, err := g.svc.Spreadsheets.Values.Get(spreadsheetID, rng).
		ValueRenderOption("FORMATTED_VALUE").
		DateTimeRenderOption("FORMATTED_STRING").
		Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}

type Client struct {
	values          valuesGetter
	spreadsheetID   string
	ledgerSheet     string
	categoriesSheet string
	logger          *log.Logger
}

// Config names the spreadsheet and its tabs.
type Config struct {
	SpreadsheetID   string
	LedgerSheet     string
	CategoriesSheet string
}

// New creates a Sheets client authenticated with service account
// credentials taken from the environment.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return newClient(apiGetter{svc: svc}, cfg, logger), nil
}

func newClient(values valuesGetter, cfg Config, logger *log.Logger) *Client {
	ledger := strings.TrimSpace(cfg.LedgerSheet)
	if ledger == "" {
		ledger = DefaultLedgerSheet
	}
	cats := strings.TrimSpace(cfg.CategoriesSheet)
	if cats == "" {
		cats = DefaultCategoriesSheet
	}
	return &Client{
		values:          values,
		spreadsheetID:   strings.TrimSpace(cfg.SpreadsheetID),
		ledgerSheet:     ledger,
		categoriesSheet: cats,
		logger:          logger,
	}
}

// newSheetsService initializes a read-only Sheets service using Service
// Account credentials from GOOGLE_SERVICE_ACCOUNT_JSON,
// GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_APPLICATION_CREDENTIALS.
func newSheetsService(ctx context.Context, logger *log.Logger) (*gsheet.Service, error) {
	serviceAccountJSON := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"))
	serviceAccountFile := strings.TrimSpace(os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"))
	if serviceAccountJSON == "" && serviceAccountFile == "" {
		serviceAccountFile = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	var credentialsJSON []byte
	switch {
	case serviceAccountJSON != "":
		credentialsJSON = []byte(serviceAccountJSON)
	case serviceAccountFile != "":
		b, err := os.ReadFile(serviceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}

	logger.InfoContext(ctx, "Creating Google Sheets service",
		"credentials_size", len(credentialsJSON),
		"scope", gsheet.SpreadsheetsReadonlyScope)

	service, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

// FetchRecords reads the whole ledger tab. The first row is the header.
func (c *Client) FetchRecords(ctx context.Context, _ url.Values) (core.StatisticsResponse, error) {
	rng := fmt.Sprintf("%s!A:Z", c.ledgerSheet)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		return core.StatisticsResponse{}, fmt.Errorf("%w: read %s: %w", sources.ErrFetchFailed, rng, err)
	}
	records := parseLedger(values)
	c.logger.DebugContext(ctx, "Read ledger sheet",
		log.FieldSheet, c.ledgerSheet,
		log.FieldRecords, len(records))
	return core.StatisticsResponse{Success: true, AllItems: records, Total: len(records)}, nil
}

// FetchCategoryMeta reads the categories tab (category, icon, color). A
// missing tab yields empty metadata.
func (c *Client) FetchCategoryMeta(ctx context.Context) (core.CategoryMetaResponse, error) {
	rng := fmt.Sprintf("%s!A:C", c.categoriesSheet)
	values, err := c.values.Get(ctx, c.spreadsheetID, rng)
	if err != nil {
		c.logger.WarnContext(ctx, "Categories sheet unavailable",
			log.FieldSheet, c.categoriesSheet,
			log.FieldError, err)
		return core.CategoryMetaResponse{Success: true, Meta: map[string]core.CategoryMeta{}}, nil
	}
	return core.CategoryMetaResponse{Success: true, Meta: parseCategoryMeta(values)}, nil
}
