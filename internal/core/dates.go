package core

import (
	"strings"
	"time"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-1-2 15:04:05",
	"2006-1-2 15:04",
	"2006-1-2",
	"2006/1/2 15:04:05",
	"2006/1/2 15:04",
	"2006/1/2",
	time.RFC1123,
	time.RFC1123Z,
}

// ParseDate parses a record date. Calendar fields are taken from the wall
// clock written in the string and returned in UTC, so zone suffixes never
// move a record to another day and day arithmetic is free of DST jumps.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), time.UTC), true
	}
	return time.Time{}, false
}

// IsLeap reports whether year has 366 days.
func IsLeap(year int) bool {
	return (year%4 == 0 && year%100 != 0) || year%400 == 0
}

// DaysIn returns the number of days in the given month.
func DaysIn(year int, month time.Month) int {
	switch month {
	case time.February:
		if IsLeap(year) {
			return 29
		}
		return 28
	case time.April, time.June, time.September, time.November:
		return 30
	default:
		return 31
	}
}

// DaysInYear returns 365 or 366.
func DaysInYear(year int) int {
	if IsLeap(year) {
		return 366
	}
	return 365
}

// DayKey formats t as YYYY-MM-DD.
func DayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

// FormatDate renders a date string as YYYY-MM-DD. Unparseable input is
// returned unchanged.
func FormatDate(s string) string {
	if s == "" {
		return ""
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return DayKey(t)
}

// FormatTime renders the HH:MM:SS part of a date string. Unparseable input
// is returned unchanged.
func FormatTime(s string) string {
	if s == "" {
		return ""
	}
	t, ok := ParseDate(s)
	if !ok {
		return s
	}
	return t.Format("15:04:05")
}

var bookTagTypes = map[string]string{
	"日常开销":              "",
	"旅游基金":              "success",
	"私房钱":               "warning",
	"房租":                "danger",
	DefaultExcludedBook: "info",
	"大事资金":              "warning",
}

// BookTagType maps a book to the badge style the UI draws it with.
func BookTagType(book string) string {
	return bookTagTypes[book]
}
