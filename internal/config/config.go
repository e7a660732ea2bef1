package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"ledgerstats/internal/core"
)

// Backends selectable through DATA_BACKEND.
const (
	BackendAPI    = "api"
	BackendMemory = "memory"
	BackendExcel  = "excel"
	BackendSheets = "sheets"
)

var validBackends = []string{BackendAPI, BackendMemory, BackendExcel, BackendSheets}

type Config struct {
	// HTTP Server
	Port      string
	LogLevel  string
	LogFormat string

	// Record source
	DataBackend  string
	StatsAPIURL  string
	FetchTimeout time.Duration
	DataDir      string
	ExcelPath    string
	ExcelSheet   string

	// Google Sheets
	GoogleSpreadsheetID   string
	GoogleSheetName       string
	GoogleCategoriesSheet string

	// Preference store
	SQLiteDBPath string

	// AMQP (optional)
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dashboard
	ExcludedBook        string
	TimelinePageSize    int
	ReloadInterval      time.Duration
	CategoryMetaTTL     time.Duration
	ReloadRatePerMinute float64
}

func Load() *Config {
	cfg := &Config{
		Port:      getEnv("PORT", "8081"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "text"),

		DataBackend:  getEnv("DATA_BACKEND", BackendAPI),
		StatsAPIURL:  getEnv("STATS_API_URL", "http://localhost:5000"),
		FetchTimeout: getEnvDuration("FETCH_TIMEOUT", 15*time.Second),
		DataDir:      getEnv("DATA_DIR", "data"),
		ExcelPath:    getEnv("EXCEL_PATH", filepath.Join("data", "DB.xlsx")),
		ExcelSheet:   getEnv("EXCEL_SHEET", ""),

		GoogleSpreadsheetID:   getEnv("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:       getEnv("GOOGLE_SHEET_NAME", "Ledger"),
		GoogleCategoriesSheet: getEnv("GOOGLE_CATEGORIES_SHEET_NAME", "Categories"),

		SQLiteDBPath: getEnv("SQLITE_DB_PATH", "./data/ledgerstats.db"),

		AMQPURL:      getEnv("AMQP_URL", ""),
		AMQPExchange: getEnv("AMQP_EXCHANGE", "ledgerstats"),
		AMQPQueue:    getEnv("AMQP_QUEUE", "first_bill_date"),

		ExcludedBook:        getEnv("EXCLUDED_BOOK", core.DefaultExcludedBook),
		TimelinePageSize:    getEnvInt("TIMELINE_PAGE_SIZE", 3),
		ReloadInterval:      getEnvDuration("RELOAD_INTERVAL", 0),
		CategoryMetaTTL:     getEnvDuration("CATEGORY_META_TTL", 5*time.Minute),
		ReloadRatePerMinute: getEnvFloat("RELOAD_RATE_PER_MINUTE", 30),
	}

	return cfg
}

// Validate validates the configuration and returns an error if invalid
func (c *Config) Validate() error {
	var errors []string

	// Validate port
	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	switch strings.ToLower(strings.TrimSpace(c.LogLevel)) {
	case "", "debug", "info", "warn", "warning", "error":
	default:
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	switch strings.ToLower(c.LogFormat) {
	case "", "text", "json":
	default:
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be text or json", c.LogFormat))
	}

	if !slices.Contains(validBackends, c.DataBackend) {
		errors = append(errors, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	switch c.DataBackend {
	case BackendAPI:
		if parsedURL, err := url.Parse(c.StatsAPIURL); err != nil || c.StatsAPIURL == "" {
			errors = append(errors, fmt.Sprintf("invalid stats API URL '%s'", c.StatsAPIURL))
		} else if parsedURL.Scheme != "http" && parsedURL.Scheme != "https" {
			errors = append(errors, fmt.Sprintf("invalid stats API URL scheme '%s': must be 'http' or 'https'", parsedURL.Scheme))
		}
	case BackendExcel:
		if c.ExcelPath == "" {
			errors = append(errors, "Excel path cannot be empty when using excel backend")
		} else if _, err := os.Stat(c.ExcelPath); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Excel workbook does not exist: %s", c.ExcelPath))
		}
	case BackendSheets:
		if c.GoogleSpreadsheetID == "" {
			errors = append(errors, "Google Spreadsheet ID is required when using sheets backend")
		}
		if c.GoogleSheetName == "" {
			errors = append(errors, "Google Sheet name is required when using sheets backend")
		}
	}

	if c.FetchTimeout < time.Second {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at least 1 second", c.FetchTimeout))
	} else if c.FetchTimeout > 10*time.Minute {
		errors = append(errors, fmt.Sprintf("invalid fetch timeout %v: must be at most 10 minutes", c.FetchTimeout))
	}

	// Validate SQLite directory (empty path disables the preference store)
	if c.SQLiteDBPath != "" {
		dir := filepath.Dir(c.SQLiteDBPath)
		if dir != "." && dir != "" {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				if err := os.MkdirAll(dir, 0755); err != nil {
					errors = append(errors, fmt.Sprintf("cannot create SQLite database directory '%s': %v", dir, err))
				}
			}
		}
	}

	// Validate AMQP URL if provided
	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if strings.TrimSpace(c.ExcludedBook) == "" {
		errors = append(errors, "excluded book cannot be empty")
	}
	if c.TimelinePageSize < 1 || c.TimelinePageSize > 100 {
		errors = append(errors, fmt.Sprintf("invalid timeline page size %d: must be between 1 and 100", c.TimelinePageSize))
	}
	if c.ReloadInterval != 0 && c.ReloadInterval < 10*time.Second {
		errors = append(errors, fmt.Sprintf("invalid reload interval %v: must be 0 (off) or at least 10 seconds", c.ReloadInterval))
	} else if c.ReloadInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reload interval %v: must be at most 24 hours", c.ReloadInterval))
	}
	if c.CategoryMetaTTL < 0 {
		errors = append(errors, fmt.Sprintf("invalid category meta TTL %v: must not be negative", c.CategoryMetaTTL))
	}
	if c.ReloadRatePerMinute <= 0 {
		errors = append(errors, fmt.Sprintf("invalid reload rate %v: must be positive", c.ReloadRatePerMinute))
	}

	// Return combined errors
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
