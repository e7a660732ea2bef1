// Package excel reads the ledger workbook kept by the bookkeeping app and
// writes filtered records back out as a workbook.
package excel

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"ledgerstats/internal/core"
	"ledgerstats/internal/sources"
)

// CategorySheet optionally holds category, icon and color columns.
const CategorySheet = "Categories"

const dateTimeLayout = "2006-01-02 15:04:05"

// Ensure interface conformance
var _ sources.Source = (*Reader)(nil)

// Reader opens the workbook on every fetch so edits made by the bookkeeping
// app show up on the next reload.
type Reader struct {
	path  string
	sheet string
}

// New reads records from sheet of the workbook at path. An empty sheet name
// selects the first sheet.
func New(path, sheet string) *Reader {
	return &Reader{path: path, sheet: sheet}
}

func (r *Reader) FetchRecords(ctx context.Context, _ url.Values) (core.StatisticsResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.StatisticsResponse{}, err
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return core.StatisticsResponse{}, fmt.Errorf("%w: open %s: %w", sources.ErrFetchFailed, r.path, err)
	}
	defer f.Close()

	sheet := r.sheet
	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return core.StatisticsResponse{}, fmt.Errorf("%w: read sheet %q: %w", sources.ErrFetchFailed, sheet, err)
	}

	records := []core.Record{}
	if len(rows) > 0 {
		records = sources.RecordsFromRows(rows[0], rows[1:], SerialToDate)
	}
	return core.StatisticsResponse{Success: true, AllItems: records, Total: len(records)}, nil
}

// FetchCategoryMeta reads the optional Categories sheet. A workbook without
// it has no metadata.
func (r *Reader) FetchCategoryMeta(ctx context.Context) (core.CategoryMetaResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.CategoryMetaResponse{}, err
	}
	f, err := excelize.OpenFile(r.path)
	if err != nil {
		return core.CategoryMetaResponse{}, fmt.Errorf("%w: open %s: %w", sources.ErrFetchFailed, r.path, err)
	}
	defer f.Close()

	meta := map[string]core.CategoryMeta{}
	idx, err := f.GetSheetIndex(CategorySheet)
	if err != nil || idx < 0 {
		return core.CategoryMetaResponse{Success: true, Meta: meta}, nil
	}
	rows, err := f.GetRows(CategorySheet)
	if err != nil {
		return core.CategoryMetaResponse{}, fmt.Errorf("%w: read sheet %q: %w", sources.ErrFetchFailed, CategorySheet, err)
	}
	for i, row := range rows {
		if i == 0 || len(row) == 0 || strings.TrimSpace(row[0]) == "" {
			continue
		}
		m := core.CategoryMeta{}
		if len(row) > 1 {
			m.Icon = strings.TrimSpace(row[1])
		}
		if len(row) > 2 {
			m.Color = strings.TrimSpace(row[2])
		}
		meta[strings.TrimSpace(row[0])] = m
	}
	return core.CategoryMetaResponse{Success: true, Meta: meta}, nil
}

// SerialToDate turns a spreadsheet date serial into "YYYY-MM-DD HH:MM:SS".
// Anything that is not a positive number is returned unchanged.
func SerialToDate(cell string) string {
	serial, err := strconv.ParseFloat(strings.TrimSpace(cell), 64)
	if err != nil || serial <= 0 {
		return cell
	}
	t, err := excelize.ExcelDateToTime(serial, false)
	if err != nil {
		return cell
	}
	return t.Round(time.Second).Format(dateTimeLayout)
}
