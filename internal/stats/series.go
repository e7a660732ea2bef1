package stats

import (
	"fmt"
	"math"
	"slices"
	"time"

	"ledgerstats/internal/core"
)

// MovingAverageWindow is the trailing window of the series chart.
const MovingAverageWindow = 3

// SeriesKey formats t as the bucket key of unit. Unknown units bucket by
// month.
func SeriesKey(t time.Time, unit core.TimeUnit) string {
	switch unit {
	case core.Day:
		return core.DayKey(t)
	case core.Week:
		return fmt.Sprintf("%d-W%02d", t.Year(), WeekNumber(t))
	case core.Year:
		return fmt.Sprintf("%d", t.Year())
	default:
		return fmt.Sprintf("%d-%02d", t.Year(), int(t.Month()))
	}
}

// WeekNumber counts weeks from the Sunday on or before January 1st. The
// elapsed days include the time of day, so a record after midnight on the
// first day of a week already belongs to it.
func WeekNumber(t time.Time) int {
	jan1 := time.Date(t.Year(), time.January, 1, 0, 0, 0, 0, t.Location())
	elapsed := float64(t.Sub(jan1)) / float64(day)
	return int(math.Ceil((elapsed + float64(jan1.Weekday()) + 1) / 7))
}

// Series buckets signed amounts by unit so the chart shows net flow, then
// derives the moving and full averages.
func Series(records []core.Record, unit core.TimeUnit) core.SeriesData {
	if !unit.IsValid() {
		unit = core.Month
	}
	sums := make(map[string]float64)
	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		sums[SeriesKey(t, unit)] += rec.Amount
	}

	keys := make([]string, 0, len(sums))
	for k := range sums {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	amounts := make([]float64, len(keys))
	for i, k := range keys {
		amounts[i] = sums[k]
	}

	full := FullAverage(records, unit)
	line := make([]float64, len(keys))
	for i := range line {
		line[i] = full
	}

	return core.SeriesData{
		Unit:            unit,
		Keys:            keys,
		Amounts:         amounts,
		MovingAverage:   MovingAverage(amounts, MovingAverageWindow),
		FullAverage:     full,
		FullAverageLine: line,
	}
}

// MovingAverage is a trailing mean over window points. The first points use
// every value available so far.
func MovingAverage(values []float64, window int) []float64 {
	if window < 1 {
		window = 1
	}
	out := make([]float64, len(values))
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		n := min(i+1, window)
		out[i] = sum / float64(n)
	}
	return out
}

// FullAverage is the net expense of the whole set per unit of its span.
func FullAverage(records []core.Record, unit core.TimeUnit) float64 {
	if len(records) == 0 {
		return 0
	}
	return math.Abs(NetExpense(records) / Divisor(TimeRange(records), unit))
}
