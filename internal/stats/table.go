package stats

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"ledgerstats/internal/core"
)

const (
	DefaultTablePageSize = 20
	MaxTablePageSize     = 500
)

// TableSortFields are the columns the table can be sorted by.
var TableSortFields = []string{"date", "amount", "book", "category", "tag", "counter_party", "goods_desc", "remark"}

// NormalizeTableQuery fills defaults: date descending, page 1, 20 rows.
// Page is clamped to a range where its row offset cannot overflow.
func NormalizeTableQuery(q core.TableQuery) core.TableQuery {
	if !slices.Contains(TableSortFields, q.SortBy) {
		q.SortBy = "date"
		q.SortOrder = "desc"
	}
	if q.SortOrder != "asc" {
		q.SortOrder = "desc"
	}
	if q.PageSize < 1 {
		q.PageSize = DefaultTablePageSize
	}
	q.PageSize = min(q.PageSize, MaxTablePageSize)
	// keeps (Page-1)*PageSize from overflowing
	q.Page = min(max(q.Page, 1), math.MaxInt/MaxTablePageSize)
	if q.FreqSortField != "" && !slices.Contains(core.RecordFields, q.FreqSortField) {
		q.FreqSortField = ""
	}
	return q
}

// TablePage sorts records and returns one page. With a frequency field set,
// rows whose value of that field occurs more often come first and the column
// sort only breaks ties; FreqSortEmptyLast pushes empty values to the end.
func TablePage(records []core.Record, q core.TableQuery) core.TablePage {
	q = NormalizeTableQuery(q)

	rows := slices.Clone(records)
	var freq map[string]int
	if q.FreqSortField != "" {
		freq = make(map[string]int)
		for _, rec := range rows {
			v, _ := rec.Field(q.FreqSortField)
			freq[v]++
		}
	}

	slices.SortStableFunc(rows, func(a, b core.Record) int {
		if freq != nil {
			va, _ := a.Field(q.FreqSortField)
			vb, _ := b.Field(q.FreqSortField)
			if q.FreqSortEmptyLast && (va == "") != (vb == "") {
				if va == "" {
					return 1
				}
				return -1
			}
			if c := cmp.Compare(freq[vb], freq[va]); c != 0 {
				return c
			}
			if c := strings.Compare(va, vb); c != 0 {
				return c
			}
		}
		return compareColumn(a, b, q.SortBy, q.SortOrder == "desc")
	})

	page := core.TablePage{
		Items:    []core.Record{},
		Total:    len(rows),
		Page:     q.Page,
		PageSize: q.PageSize,
	}
	start := (q.Page - 1) * q.PageSize
	if start < len(rows) {
		page.Items = rows[start:min(start+q.PageSize, len(rows))]
	}
	return page
}

// compareColumn orders two records by one column. Unparseable dates sort
// last in either direction.
func compareColumn(a, b core.Record, column string, desc bool) int {
	var c int
	switch column {
	case "amount":
		c = cmp.Compare(a.Amount, b.Amount)
	case "date":
		ta, okA := a.Time()
		tb, okB := b.Time()
		switch {
		case okA && okB:
			c = ta.Compare(tb)
		case okA:
			return -1
		case okB:
			return 1
		default:
			return 0
		}
	default:
		va, _ := a.Field(column)
		vb, _ := b.Field(column)
		c = strings.Compare(va, vb)
	}
	if desc {
		return -c
	}
	return c
}
