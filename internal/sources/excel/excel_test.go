package excel

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"ledgerstats/internal/core"
	"ledgerstats/internal/sources"
)

func writeWorkbook(t *testing.T, withCategories bool) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	rows := [][]any{
		{"日期", "金额", "类别", "标签", "交易对方", "账本"},
		{45366.5, -30.5, "餐饮", "午饭", "食堂", "日常"},
		{"2024-03-16 08:00:00", "-12", "交通", "", "地铁", "日常"},
		{"", -99, "餐饮", "", "", ""},
	}
	for i, row := range rows {
		cellRef, _ := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, f.SetSheetRow("Sheet1", cellRef, &row))
	}
	if withCategories {
		_, err := f.NewSheet(CategorySheet)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(CategorySheet, "A1", &[]any{"category", "icon", "color"}))
		require.NoError(t, f.SetSheetRow(CategorySheet, "A2", &[]any{"餐饮", "🍜", "#ff0000"}))
	}

	path := filepath.Join(t.TempDir(), "DB.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestReaderFetchRecords(t *testing.T) {
	r := New(writeWorkbook(t, false), "")

	resp, err := r.FetchRecords(context.Background(), nil)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	require.Len(t, resp.AllItems, 2, "row with empty date is dropped")

	first := resp.AllItems[0]
	assert.Equal(t, "2024-03-15 12:00:00", first.Date)
	assert.Equal(t, -30.5, first.Amount)
	assert.Equal(t, "餐饮", first.Category)
	assert.Equal(t, "午饭", first.Tag)
	assert.Equal(t, "食堂", first.CounterParty)
	assert.Equal(t, "", first.Remark)

	assert.Equal(t, "2024-03-16 08:00:00", resp.AllItems[1].Date)
	assert.Equal(t, -12.0, resp.AllItems[1].Amount)
}

func TestReaderCategoryMeta(t *testing.T) {
	meta, err := New(writeWorkbook(t, true), "").FetchCategoryMeta(context.Background())
	require.NoError(t, err)
	assert.Equal(t, core.CategoryMeta{Icon: "🍜", Color: "#ff0000"}, meta.Meta["餐饮"])

	meta, err = New(writeWorkbook(t, false), "").FetchCategoryMeta(context.Background())
	require.NoError(t, err)
	assert.True(t, meta.Success)
	assert.Empty(t, meta.Meta)
}

func TestReaderMissingFile(t *testing.T) {
	r := New(filepath.Join(t.TempDir(), "missing.xlsx"), "")
	_, err := r.FetchRecords(context.Background(), nil)
	assert.True(t, errors.Is(err, sources.ErrFetchFailed))

	_, err = New(writeWorkbook(t, false), "nope").FetchRecords(context.Background(), nil)
	assert.True(t, errors.Is(err, sources.ErrFetchFailed))
}

func TestSerialToDate(t *testing.T) {
	assert.Equal(t, "2024-03-15 00:00:00", SerialToDate("45366"))
	assert.Equal(t, "2024-03-15", SerialToDate("2024-03-15"))
	assert.Equal(t, "", SerialToDate(""))
	assert.Equal(t, "-3", SerialToDate("-3"))
}

func TestWriteRecords(t *testing.T) {
	var buf bytes.Buffer
	err := WriteRecords(&buf, []core.Record{
		{Date: "2024-03-15 12:00:00", Amount: -30.5, Category: "餐饮", Book: "日常"},
	})
	require.NoError(t, err)

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(ExportSheet)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, ExportColumns, rows[0])
	assert.Equal(t, "2024-03-15 12:00:00", rows[1][0])
	assert.Equal(t, "餐饮", rows[1][2])
	assert.Equal(t, "日常", rows[1][7])
}
