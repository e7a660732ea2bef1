package stats

import (
	"math"
	"slices"
	"strings"

	"ledgerstats/internal/core"
)

// DefaultTimelinePageSize is the number of days revealed per page.
const DefaultTimelinePageSize = 3

// Timeline groups records by day, newest day first, with the items of a day
// newest first. A record whose date cannot be parsed is grouped under its
// raw date string; such groups sort after every real day. Records with no
// date at all are skipped.
func Timeline(records []core.Record) []core.TimelineEntry {
	index := make(map[string]int)
	var entries []core.TimelineEntry
	for _, rec := range records {
		if rec.Date == "" {
			continue
		}
		key := core.FormatDate(rec.Date)
		i, ok := index[key]
		if !ok {
			i = len(entries)
			index[key] = i
			entries = append(entries, core.TimelineEntry{DateStr: key})
		}
		entries[i].Items = append(entries[i].Items, rec)
		entries[i].Total += math.Abs(rec.Amount)
	}

	slices.SortStableFunc(entries, func(a, b core.TimelineEntry) int {
		return compareDesc(a.DateStr, b.DateStr)
	})
	for i := range entries {
		slices.SortStableFunc(entries[i].Items, func(a, b core.Record) int {
			return compareDesc(a.Date, b.Date)
		})
	}
	if entries == nil {
		entries = []core.TimelineEntry{}
	}
	return entries
}

// compareDesc orders date strings newest first with unparseable ones last.
func compareDesc(a, b string) int {
	ta, okA := core.ParseDate(a)
	tb, okB := core.ParseDate(b)
	switch {
	case okA && okB:
		return tb.Compare(ta)
	case okA:
		return -1
	case okB:
		return 1
	}
	return strings.Compare(a, b)
}

// TimelinePager reveals timeline days a page at a time. Page starts at 1.
type TimelinePager struct {
	entries  []core.TimelineEntry
	pageSize int
	page     int
}

// NewTimelinePager creates a pager positioned on the first page.
func NewTimelinePager(entries []core.TimelineEntry, pageSize int) *TimelinePager {
	if pageSize < 1 {
		pageSize = DefaultTimelinePageSize
	}
	return &TimelinePager{entries: entries, pageSize: pageSize, page: 1}
}

// Reset replaces the entries and goes back to the first page.
func (p *TimelinePager) Reset(entries []core.TimelineEntry) {
	p.entries = entries
	p.page = 1
}

// Visible returns the first page*pageSize entries.
func (p *TimelinePager) Visible() []core.TimelineEntry {
	end := min(p.page*p.pageSize, len(p.entries))
	return p.entries[:end]
}

// TotalPages is at least 1, even with no entries.
func (p *TimelinePager) TotalPages() int {
	n := (len(p.entries) + p.pageSize - 1) / p.pageSize
	return max(n, 1)
}

// AllLoaded reports whether every entry is visible.
func (p *TimelinePager) AllLoaded() bool {
	return p.page >= p.TotalPages()
}

// LoadMore reveals the next page. It returns false once everything is
// already visible.
func (p *TimelinePager) LoadMore() bool {
	if p.AllLoaded() {
		return false
	}
	p.page++
	return true
}

func (p *TimelinePager) Page() int     { return p.page }
func (p *TimelinePager) PageSize() int { return p.pageSize }
func (p *TimelinePager) Len() int      { return len(p.entries) }
