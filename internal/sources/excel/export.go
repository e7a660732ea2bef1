package excel

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"ledgerstats/internal/core"
)

// ExportSheet is the name of the single sheet in an exported workbook.
const ExportSheet = "账单"

// ExportColumns are the headers written by WriteRecords, in order.
var ExportColumns = []string{"交易时间", "金额", "类别", "标签", "交易对方", "商品说明", "备注", "账本"}

var exportWidths = []float64{20, 12, 14, 14, 22, 30, 24, 12}

// WriteRecords writes records as a single-sheet workbook to w.
func WriteRecords(w io.Writer, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", ExportSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}
	amountStyle, err := f.NewStyle(&excelize.Style{NumFmt: 4})
	if err != nil {
		return fmt.Errorf("amount style: %w", err)
	}

	for i, h := range ExportColumns {
		col, _ := excelize.ColumnNumberToName(i + 1)
		cellRef := fmt.Sprintf("%s1", col)
		if err := f.SetCellValue(ExportSheet, cellRef, h); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
		_ = f.SetColWidth(ExportSheet, col, col, exportWidths[i])
	}
	lastCol, _ := excelize.ColumnNumberToName(len(ExportColumns))
	_ = f.SetCellStyle(ExportSheet, "A1", lastCol+"1", headerStyle)

	for i, r := range records {
		row := i + 2
		values := []any{r.Date, r.Amount, r.Category, r.Tag, r.CounterParty, r.GoodsDesc, r.Remark, r.Book}
		for j, v := range values {
			col, _ := excelize.ColumnNumberToName(j + 1)
			if err := f.SetCellValue(ExportSheet, fmt.Sprintf("%s%d", col, row), v); err != nil {
				return fmt.Errorf("write row %d: %w", row, err)
			}
		}
		_ = f.SetCellStyle(ExportSheet, fmt.Sprintf("B%d", row), fmt.Sprintf("B%d", row), amountStyle)
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
