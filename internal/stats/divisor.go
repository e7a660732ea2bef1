// Package stats turns a flat list of ledger records into the datasets each
// dashboard view needs. Every function here is a pure transformation: no
// locking, no I/O, and empty input always yields an empty or neutral result.
package stats

import (
	"math"
	"time"

	"ledgerstats/internal/core"
)

const day = 24 * time.Hour

// Divisor returns how many units of the given size the range spans. It is
// used to turn a total into a per-day/week/month/year rate. An invalid range
// yields 1.
func Divisor(r core.DateRange, unit core.TimeUnit) float64 {
	if !r.Valid {
		return 1
	}
	switch unit {
	case core.Day:
		return DayCount(r.Start, r.End)
	case core.Week:
		return core.Round2(DayCount(r.Start, r.End) / 7)
	case core.Month:
		return math.Max(1, core.Round2(MonthSpan(r.Start, r.End)))
	case core.Year:
		return math.Max(1, core.Round2(YearSpan(r.Start, r.End)))
	}
	return 1
}

// DayCount is the inclusive number of calendar days touched, at least 1.
func DayCount(start, end time.Time) float64 {
	elapsed := float64(end.Sub(start)) / float64(day)
	return math.Max(1, math.Ceil(elapsed)+1)
}

// MonthSpan counts whole months between the calendar fields and adds the
// leftover days as a fraction of the end month. When the end day-of-month is
// before the start day-of-month one month is borrowed.
func MonthSpan(start, end time.Time) float64 {
	months := float64((end.Year()-start.Year())*12 + int(end.Month()-start.Month()))

	startDay, endDay := start.Day(), end.Day()
	daysInStart := core.DaysIn(start.Year(), start.Month())
	daysInEnd := core.DaysIn(end.Year(), end.Month())

	if endDay >= startDay {
		months += float64(endDay-startDay) / float64(daysInEnd)
	} else {
		months--
		months += float64(daysInStart-startDay+endDay) / float64(daysInEnd)
	}
	return months
}

// YearSpan weighs the elapsed days against the length of every calendar year
// touched, so leap years count as slightly longer.
func YearSpan(start, end time.Time) float64 {
	elapsed := float64(end.Sub(start)) / float64(day)
	yearCount := end.Year() - start.Year() + 1
	totalDays := 0
	for i := 0; i < yearCount; i++ {
		totalDays += core.DaysInYear(start.Year() + i)
	}
	return elapsed / float64(totalDays) * float64(yearCount)
}

// TimeRange returns the earliest and latest valid dates in records.
func TimeRange(records []core.Record) core.DateRange {
	var r core.DateRange
	for _, rec := range records {
		t, ok := rec.Time()
		if !ok {
			continue
		}
		if !r.Valid {
			r = core.DateRange{Start: t, End: t, Valid: true}
			continue
		}
		if t.Before(r.Start) {
			r.Start = t
		}
		if t.After(r.End) {
			r.End = t
		}
	}
	return r
}

// NetExpense sums records with expenses counted positive and income
// negative. Callers take the absolute value of the result.
func NetExpense(records []core.Record) float64 {
	var sum float64
	for _, rec := range records {
		if rec.Amount < 0 {
			sum += math.Abs(rec.Amount)
		} else {
			sum -= rec.Amount
		}
	}
	return sum
}
