package stats

import (
	"cmp"
	"math"
	"slices"
	"strings"

	"ledgerstats/internal/core"
)

// Pie sums signed amounts per non-empty value of field (category or tag) and
// returns the absolute sums, largest first, ties by name.
func Pie(records []core.Record, field string) []core.PieSlice {
	sums := make(map[string]float64)
	for _, rec := range records {
		v, ok := rec.Field(field)
		if !ok || v == "" {
			continue
		}
		sums[v] += rec.Amount
	}

	out := make([]core.PieSlice, 0, len(sums))
	for name, v := range sums {
		out = append(out, core.PieSlice{Name: name, Value: math.Abs(v)})
	}
	slices.SortFunc(out, func(a, b core.PieSlice) int {
		if c := cmp.Compare(b.Value, a.Value); c != 0 {
			return c
		}
		return strings.Compare(a.Name, b.Name)
	})
	return out
}
