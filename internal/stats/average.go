package stats

import (
	"math"
	"slices"
	"strconv"

	"ledgerstats/internal/core"
)

// GroupKey picks the dimension the averages table is split by: the first of
// tag, category, book, month and year with more than one selected value.
// An empty result means no grouping.
func GroupKey(spec core.FilterSpec) string {
	switch {
	case len(spec.Tag) > 1:
		return "tag"
	case len(spec.Category) > 1:
		return "category"
	case len(spec.Book) > 1:
		return "book"
	case len(spec.Month) > 1:
		return "month"
	case len(spec.Year) > 1:
		return "year"
	}
	return ""
}

// Averages builds the averages table: a total row first, followed by one row
// per group when the filter selects several values of a dimension. Groups are
// keyed by each record's own value, not by the selection.
func Averages(records []core.Record, spec core.FilterSpec) []core.AverageRow {
	rows := []core.AverageRow{}
	if len(records) == 0 {
		return rows
	}

	rows = append(rows, averageRow(records, core.TotalRowName, core.TotalRowName))

	groupBy := GroupKey(spec)
	if groupBy == "" {
		return rows
	}
	groups := newOrderedGroups()
	for _, rec := range records {
		key, ok := groupValue(rec, groupBy)
		if !ok {
			continue
		}
		groups.add(key, rec)
	}
	for _, key := range groups.keys() {
		rows = append(rows, averageRow(groups.members[key], key, groupBy))
	}
	return rows
}

func groupValue(rec core.Record, groupBy string) (string, bool) {
	switch groupBy {
	case "month", "year":
		t, ok := rec.Time()
		if !ok {
			return "", false
		}
		if groupBy == "month" {
			return strconv.Itoa(int(t.Month())), true
		}
		return strconv.Itoa(t.Year()), true
	}
	return rec.Field(groupBy)
}

func averageRow(records []core.Record, name, label string) core.AverageRow {
	total := math.Abs(NetExpense(records))
	r := TimeRange(records)
	return core.AverageRow{
		Name:       name,
		NameLabel:  label,
		TotalValue: total,
		DayValue:   total / Divisor(r, core.Day),
		WeekValue:  total / Divisor(r, core.Week),
		MonthValue: total / Divisor(r, core.Month),
		YearValue:  total / Divisor(r, core.Year),
	}
}

// orderedGroups keeps groups in the order a dashboard lists them: integer
// keys ascending, then the remaining keys by first appearance.
type orderedGroups struct {
	order   []string
	members map[string][]core.Record
}

func newOrderedGroups() *orderedGroups {
	return &orderedGroups{members: make(map[string][]core.Record)}
}

func (g *orderedGroups) add(key string, rec core.Record) {
	if _, ok := g.members[key]; !ok {
		g.order = append(g.order, key)
	}
	g.members[key] = append(g.members[key], rec)
}

func (g *orderedGroups) keys() []string {
	var ints, rest []string
	for _, k := range g.order {
		if isIndexKey(k) {
			ints = append(ints, k)
		} else {
			rest = append(rest, k)
		}
	}
	slices.SortFunc(ints, func(a, b string) int {
		x, _ := strconv.ParseUint(a, 10, 32)
		y, _ := strconv.ParseUint(b, 10, 32)
		switch {
		case x < y:
			return -1
		case x > y:
			return 1
		}
		return 0
	})
	return append(ints, rest...)
}

// isIndexKey reports whether k is a canonical non-negative integer.
func isIndexKey(k string) bool {
	if k == "" || (len(k) > 1 && k[0] == '0') {
		return false
	}
	_, err := strconv.ParseUint(k, 10, 32)
	return err == nil
}
