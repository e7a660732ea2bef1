// Package sources defines where ledger records come from. Every backend
// (statistics API, JSON seed files, a local workbook, Google Sheets)
// implements the same two read ports.
package sources

import (
	"context"
	"errors"
	"net/url"

	"ledgerstats/internal/core"
)

var ErrFetchFailed = errors.New("fetch failed")

// Ports for inbound data.
type (
	// RecordSource returns the full record set. params are forwarded as query
	// parameters where the backend understands them.
	RecordSource interface {
		FetchRecords(ctx context.Context, params url.Values) (core.StatisticsResponse, error)
	}

	// CategoryMetaSource returns icon and color per category.
	CategoryMetaSource interface {
		FetchCategoryMeta(ctx context.Context) (core.CategoryMetaResponse, error)
	}

	// Source is a backend serving both ports.
	Source interface {
		RecordSource
		CategoryMetaSource
	}
)
