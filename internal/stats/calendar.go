package stats

import (
	"math"
	"slices"
	"strings"

	"ledgerstats/internal/core"
)

// Calendar sums absolute amounts per day and groups the days by year for
// the heatmap. Days are ascending within a year; records without a valid
// date are skipped.
func Calendar(records []core.Record) core.CalendarData {
	daily := make(map[string]float64)
	years := make(map[string]int)
	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		key := core.DayKey(t)
		daily[key] += math.Abs(rec.Amount)
		years[key] = t.Year()
	}

	out := make(core.CalendarData)
	for key, amount := range daily {
		y := years[key]
		out[y] = append(out[y], core.CalendarDay{Date: key, Amount: amount})
	}
	for y := range out {
		slices.SortFunc(out[y], func(a, b core.CalendarDay) int {
			return strings.Compare(a.Date, b.Date)
		})
	}
	return out
}

// CalendarMax returns the largest daily amount of a year, used to scale the
// heatmap. Zero for an unknown year.
func CalendarMax(c core.CalendarData, year int) float64 {
	var m float64
	for _, d := range c[year] {
		m = math.Max(m, d.Amount)
	}
	return m
}
