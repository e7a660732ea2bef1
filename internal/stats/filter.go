package stats

import (
	"slices"
	"strings"

	"ledgerstats/internal/core"
)

// Filter applies a FilterSpec. ExcludedBook names the book that is kept in
// the table but dropped from every chart.
type Filter struct {
	ExcludedBook string
}

// NewFilter returns a filter excluding the given book from charts, falling
// back to the default "not counted" book when empty.
func NewFilter(excludedBook string) Filter {
	if excludedBook == "" {
		excludedBook = core.DefaultExcludedBook
	}
	return Filter{ExcludedBook: excludedBook}
}

// Apply keeps the records matching every constraint of spec.
func (f Filter) Apply(records []core.Record, spec core.FilterSpec) core.FilteredSet {
	out := core.FilteredSet{
		ForTable:  make([]core.Record, 0, len(records)),
		ForCharts: make([]core.Record, 0, len(records)),
	}
	query := strings.ToLower(strings.TrimSpace(spec.SearchQuery))
	for _, rec := range records {
		if !Match(rec, spec, query) {
			continue
		}
		out.ForTable = append(out.ForTable, rec)
		if rec.Book != f.ExcludedBook {
			out.ForCharts = append(out.ForCharts, rec)
		}
	}
	return out
}

// Match reports whether rec passes spec. query is the trimmed, lowercased
// search string.
func Match(rec core.Record, spec core.FilterSpec, query string) bool {
	if len(spec.Year) > 0 || len(spec.Month) > 0 {
		t, ok := rec.Time()
		if !ok {
			return false
		}
		if len(spec.Year) > 0 && !slices.Contains(spec.Year, t.Year()) {
			return false
		}
		if len(spec.Month) > 0 && !slices.Contains(spec.Month, int(t.Month())) {
			return false
		}
	}
	if len(spec.Book) > 0 && !slices.Contains(spec.Book, rec.Book) {
		return false
	}
	if len(spec.Category) > 0 && !slices.Contains(spec.Category, rec.Category) {
		return false
	}
	if len(spec.Tag) > 0 && !slices.Contains(spec.Tag, rec.Tag) {
		return false
	}
	if spec.MinAmount != nil && rec.Amount < *spec.MinAmount {
		return false
	}
	if spec.MaxAmount != nil && rec.Amount > *spec.MaxAmount {
		return false
	}
	if query != "" {
		return matchSearch(rec, spec.SearchField, query)
	}
	return true
}

func matchSearch(rec core.Record, field, query string) bool {
	if field != "" {
		v, ok := rec.Field(field)
		return ok && strings.Contains(strings.ToLower(v), query)
	}
	for _, name := range core.SearchableFields {
		v, _ := rec.Field(name)
		if strings.Contains(strings.ToLower(v), query) {
			return true
		}
	}
	return false
}
