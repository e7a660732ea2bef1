package stats

import (
	"math"

	"ledgerstats/internal/core"
)

// TimeSpan summarises the period a record set covers. A set without any
// valid date yields the zero value.
func TimeSpan(records []core.Record) core.TimeSpan {
	r := TimeRange(records)
	if len(records) == 0 || !r.Valid {
		return core.TimeSpan{}
	}
	return core.TimeSpan{
		FirstDate: core.DayKey(r.Start),
		LastDate:  core.DayKey(r.End),
		Count:     len(records),
		Days:      Divisor(r, core.Day),
		Weeks:     Divisor(r, core.Week),
		Months:    Divisor(r, core.Month),
		Years:     math.Max(Divisor(r, core.Year), 0),
	}
}

// FirstBillDate returns the smallest non-empty raw date string. Dates are
// compared as strings, which orders ISO dates chronologically.
func FirstBillDate(records []core.Record) (string, bool) {
	first := ""
	for _, rec := range records {
		if rec.Date == "" {
			continue
		}
		if first == "" || rec.Date < first {
			first = rec.Date
		}
	}
	return first, first != ""
}
