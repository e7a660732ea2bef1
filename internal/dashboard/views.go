package dashboard

import (
	"fmt"
	"maps"
	"slices"

	"ledgerstats/internal/core"
	"ledgerstats/internal/stats"
)

// Filter returns a copy of the active filter.
func (d *Dashboard) Filter() core.FilterSpec {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.spec.Clone()
}

// SetFilter validates and applies spec.
func (d *Dashboard) SetFilter(spec core.FilterSpec) error {
	if err := spec.Validate(); err != nil {
		return err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec = spec.Clone()
	d.applyLocked()
	return nil
}

// ResetFilter clears every constraint and restores the full tag list.
func (d *Dashboard) ResetFilter() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec = core.FilterSpec{}
	d.tagOptions = slices.Clone(d.options.Tags)
	d.applyLocked()
}

// RemoveFilterTag drops one chip. Removing a category also clears the tag
// selection and restores the full tag list.
func (d *Dashboard) RemoveFilterTag(tagType, value string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	spec, err := stats.RemoveFilterTag(d.spec, tagType, value)
	if err != nil {
		return err
	}
	if tagType == "category" {
		d.tagOptions = slices.Clone(d.options.Tags)
	}
	d.spec = spec
	d.applyLocked()
	return nil
}

// ChangeCategories selects categories, clears the tag selection and narrows
// the tag options to tags seen under the selected categories.
func (d *Dashboard) ChangeCategories(categories []string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.spec.Category = slices.Clone(categories)
	d.spec.Tag = nil
	d.tagOptions = stats.TagOptionsFor(categories, d.options)
	d.applyLocked()
}

// FilterTags lists the active constraints as removable chips.
func (d *Dashboard) FilterTags() []core.FilterTag {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return stats.FilterTags(d.spec)
}

// FilterOptions returns the dropdown options derived from the last load.
func (d *Dashboard) FilterOptions() core.FilterOptions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.options
}

// TagOptions returns the tags currently offered for selection.
func (d *Dashboard) TagOptions() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.tagOptions)
}

func (d *Dashboard) CategoryMeta() map[string]core.CategoryMeta {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return maps.Clone(d.meta)
}

// ViewOptions returns the selected series and pivot units.
func (d *Dashboard) ViewOptions() core.ViewOptions {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return core.ViewOptions{SeriesUnit: d.seriesUnit, PivotUnit: d.pivotUnit}
}

// SetViewOptions changes the units. Empty values leave a unit unchanged.
func (d *Dashboard) SetViewOptions(seriesUnit, pivotUnit string) (core.ViewOptions, error) {
	var su core.TimeUnit
	var pu core.PivotUnit
	var err error
	if seriesUnit != "" {
		if su, err = core.ParseTimeUnit(seriesUnit); err != nil {
			return core.ViewOptions{}, err
		}
	}
	if pivotUnit != "" {
		if pu, err = core.ParsePivotUnit(pivotUnit); err != nil {
			return core.ViewOptions{}, err
		}
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if su != "" {
		d.seriesUnit = su
	}
	if pu != "" {
		d.pivotUnit = pu
	}
	return core.ViewOptions{SeriesUnit: d.seriesUnit, PivotUnit: d.pivotUnit}, nil
}

// Averages is the averages table over the chart set.
func (d *Dashboard) Averages() []core.AverageRow {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return stats.Averages(d.filtered.ForCharts, d.spec)
}

func (d *Dashboard) Calendar() core.CalendarData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return stats.Calendar(d.filtered.ForCharts)
}

// Series uses the selected series unit unless unit is non-empty.
func (d *Dashboard) Series(unit core.TimeUnit) core.SeriesData {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if unit == "" {
		unit = d.seriesUnit
	}
	return stats.Series(d.filtered.ForCharts, unit)
}

// Pivot uses the selected pivot unit unless unit is non-empty. ranked
// returns the buckets by amount, largest first.
func (d *Dashboard) Pivot(unit core.PivotUnit, ranked bool) []core.PivotBucket {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if unit == "" {
		unit = d.pivotUnit
	}
	buckets := stats.Pivot(d.filtered.ForCharts, unit)
	if ranked {
		return stats.RankPivot(buckets)
	}
	return buckets
}

// Pie groups the chart set by category or tag.
func (d *Dashboard) Pie(field string) ([]core.PieSlice, error) {
	if field != "category" && field != "tag" {
		return nil, fmt.Errorf("%w: pie field %q", core.ErrUnknownField, field)
	}
	d.mu.RLock()
	defer d.mu.RUnlock()
	return stats.Pie(d.filtered.ForCharts, field), nil
}

func (d *Dashboard) TimeSpan() core.TimeSpan {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return stats.TimeSpan(d.filtered.ForCharts)
}

// Table pages the table set, which keeps the excluded book.
func (d *Dashboard) Table(q core.TableQuery) core.TablePage {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return stats.TablePage(d.filtered.ForTable, q)
}

// TableRecords returns the whole table set, for export.
func (d *Dashboard) TableRecords() []core.Record {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return slices.Clone(d.filtered.ForTable)
}

// Timeline returns the revealed timeline pages.
func (d *Dashboard) Timeline() core.TimelineView {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.timelineViewLocked()
}

// LoadMoreTimeline reveals the next timeline page.
func (d *Dashboard) LoadMoreTimeline() core.TimelineView {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pager.LoadMore()
	return d.timelineViewLocked()
}

func (d *Dashboard) timelineViewLocked() core.TimelineView {
	entries := slices.Clone(d.pager.Visible())
	if entries == nil {
		entries = []core.TimelineEntry{}
	}
	return core.TimelineView{
		Entries:      entries,
		Page:         d.pager.Page(),
		PageSize:     d.pager.PageSize(),
		TotalPages:   d.pager.TotalPages(),
		TotalEntries: d.pager.Len(),
		AllLoaded:    d.pager.AllLoaded(),
	}
}
