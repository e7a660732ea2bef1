package sources

import (
	"slices"
	"strings"

	"ledgerstats/internal/core"
)

// ColumnMapping maps ledger sheet headers to record fields. English field
// names are accepted as headers too.
var ColumnMapping = map[string]string{
	"日期":   "date",
	"金额":   "amount",
	"类别":   "category",
	"标签":   "tag",
	"交易对方": "counter_party",
	"商品说明": "goods_desc",
	"备注":   "remark",
	"账本":   "book",
}

// HeaderIndex resolves the column position of every known field. Unknown
// headers are ignored; the first occurrence of a field wins.
func HeaderIndex(header []string) map[string]int {
	idx := make(map[string]int)
	for i, h := range header {
		h = strings.TrimSpace(h)
		field, ok := ColumnMapping[h]
		if !ok {
			field = strings.ToLower(h)
			if field != "amount" && !slices.Contains(core.RecordFields, field) {
				continue
			}
		}
		if _, seen := idx[field]; !seen {
			idx[field] = i
		}
	}
	return idx
}

// RecordsFromRows converts a header plus data rows into records. Rows with an
// empty date are dropped, missing text cells become "" and a missing or
// non-numeric amount becomes 0. dateCell, when non-nil, normalises the raw
// date cell (for example a spreadsheet serial number).
func RecordsFromRows(header []string, rows [][]string, dateCell func(string) string) []core.Record {
	idx := HeaderIndex(header)
	out := make([]core.Record, 0, len(rows))
	for _, row := range rows {
		date := strings.TrimSpace(cell(row, idx, "date"))
		if dateCell != nil {
			date = dateCell(date)
		}
		if date == "" {
			continue
		}
		out = append(out, core.Record{
			Date:         date,
			Amount:       core.AmountValue(cell(row, idx, "amount")),
			Book:         cell(row, idx, "book"),
			Category:     cell(row, idx, "category"),
			Tag:          cell(row, idx, "tag"),
			CounterParty: cell(row, idx, "counter_party"),
			GoodsDesc:    cell(row, idx, "goods_desc"),
			Remark:       cell(row, idx, "remark"),
		})
	}
	return out
}

func cell(row []string, idx map[string]int, field string) string {
	i, ok := idx[field]
	if !ok || i >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[i])
}
