package sheets

import (
	"fmt"
	"strings"

	"ledgerstats/internal/core"
	"ledgerstats/internal/sources"
)

// parseLedger converts a values matrix (as returned by Sheets API) into
// records. Leading blank rows before the header are skipped.
func parseLedger(values [][]interface{}) []core.Record {
	for i, row := range values {
		header := toStrings(row)
		if isBlank(header) {
			continue
		}
		rows := make([][]string, 0, len(values)-i-1)
		for _, r := range values[i+1:] {
			rows = append(rows, toStrings(r))
		}
		return sources.RecordsFromRows(header, rows, nil)
	}
	return []core.Record{}
}

func parseCategoryMeta(values [][]interface{}) map[string]core.CategoryMeta {
	meta := map[string]core.CategoryMeta{}
	for i, raw := range values {
		row := toStrings(raw)
		name := safeGet(row, 0)
		if i == 0 || name == "" || strings.HasPrefix(name, "#") {
			continue
		}
		meta[name] = core.CategoryMeta{Icon: safeGet(row, 1), Color: safeGet(row, 2)}
	}
	return meta
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func isBlank(row []string) bool {
	for _, v := range row {
		if v != "" {
			return false
		}
	}
	return true
}
