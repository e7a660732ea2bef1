package core

import (
	"cmp"
	"slices"
	"time"
)

// AverageRow is one line of the averages table.
type AverageRow struct {
	Name       string  `json:"name"`
	NameLabel  string  `json:"nameLabel"`
	TotalValue float64 `json:"totalValue"`
	DayValue   float64 `json:"dayValue"`
	WeekValue  float64 `json:"weekValue"`
	MonthValue float64 `json:"monthValue"`
	YearValue  float64 `json:"yearValue"`
}

// CalendarDay is the absolute amount spent on one day.
type CalendarDay struct {
	Date   string  `json:"date"`
	Amount float64 `json:"amount"`
}

// CalendarData groups calendar days by year.
type CalendarData map[int][]CalendarDay

// Years returns the years present, newest first.
func (c CalendarData) Years() []int {
	years := make([]int, 0, len(c))
	for y := range c {
		years = append(years, y)
	}
	slices.SortFunc(years, func(a, b int) int { return cmp.Compare(b, a) })
	return years
}

// SeriesData is a time-bucketed line of net flow.
type SeriesData struct {
	Unit            TimeUnit  `json:"unit"`
	Keys            []string  `json:"keys"`
	Amounts         []float64 `json:"amounts"`
	MovingAverage   []float64 `json:"movingAverage"`
	FullAverage     float64   `json:"fullAverage"`
	FullAverageLine []float64 `json:"fullAverageLine"`
}

// PivotBucket aggregates records sharing a cyclical time position.
type PivotBucket struct {
	Key    int     `json:"key"`
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
	Count  int     `json:"count"`
}

// TimelineEntry is one day of the timeline, newest items first.
type TimelineEntry struct {
	DateStr string   `json:"dateStr"`
	Total   float64  `json:"total"`
	Items   []Record `json:"items"`
}

// PieSlice is one named share of a pie chart.
type PieSlice struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

// TimeSpan describes how much time a record set covers.
type TimeSpan struct {
	FirstDate string  `json:"firstDate"`
	LastDate  string  `json:"lastDate"`
	Count     int     `json:"count"`
	Days      float64 `json:"days"`
	Weeks     float64 `json:"weeks"`
	Months    float64 `json:"months"`
	Years     float64 `json:"years"`
}

// TableQuery selects one sorted page of the record table.
type TableQuery struct {
	SortBy            string `json:"sortBy"`
	SortOrder         string `json:"sortOrder"`
	Page              int    `json:"page"`
	PageSize          int    `json:"pageSize"`
	FreqSortField     string `json:"freqSortField"`
	FreqSortEmptyLast bool   `json:"freqSortEmptyLast"`
}

// TablePage is a page of records plus the size of the whole table.
type TablePage struct {
	Items    []Record `json:"items"`
	Total    int      `json:"total"`
	Page     int      `json:"page"`
	PageSize int      `json:"pageSize"`
}

// FilterTag is one removable chip describing an active constraint.
type FilterTag struct {
	Type  string `json:"type"`
	Label string `json:"label"`
	Value string `json:"value"`
}

// Option is a selectable value with its display label.
type Option struct {
	Value any    `json:"value"`
	Label string `json:"label"`
}

// FilterOptions are the choices offered by the filter form.
type FilterOptions struct {
	Years          []Option            `json:"years"`
	Months         []Option            `json:"months"`
	Books          []Option            `json:"books"`
	Categories     []string            `json:"categories"`
	Tags           []string            `json:"tags"`
	CategoryTagMap map[string][]string `json:"categoryTagMap"`
}

// CategoryMeta is the icon and color configured for a category.
type CategoryMeta struct {
	Icon  string `json:"icon"`
	Color string `json:"color"`
}

// StatisticsResponse mirrors the statistics endpoint payload.
type StatisticsResponse struct {
	Success  bool     `json:"success"`
	Items    []Record `json:"items,omitempty"`
	Total    int      `json:"total,omitempty"`
	AllItems []Record `json:"all_items"`
	Error    string   `json:"error,omitempty"`
}

// CategoryMetaResponse mirrors the categories endpoint payload.
type CategoryMetaResponse struct {
	Success bool                    `json:"success"`
	Meta    map[string]CategoryMeta `json:"meta"`
}

// FirstBillDateKey is the preference key holding the earliest raw date seen.
const FirstBillDateKey = "firstBillDate"

// LoadEvent describes one completed dashboard load.
type LoadEvent struct {
	Generation uint64    `json:"generation"`
	Source     string    `json:"source"`
	Records    int       `json:"records"`
	Success    bool      `json:"success"`
	Error      string    `json:"error,omitempty"`
	DurationMs int64     `json:"durationMs"`
	At         time.Time `json:"at"`
}

// Notice is a user-visible, non-fatal message about the last load.
type Notice struct {
	Level   string    `json:"level"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// TimelineView is the revealed part of the timeline plus paging state.
type TimelineView struct {
	Entries      []TimelineEntry `json:"entries"`
	Page         int             `json:"page"`
	PageSize     int             `json:"pageSize"`
	TotalPages   int             `json:"totalPages"`
	TotalEntries int             `json:"totalEntries"`
	AllLoaded    bool            `json:"isAllLoaded"`
}

// DashboardStatus summarises the state of the loaded data.
type DashboardStatus struct {
	Loaded     bool      `json:"loaded"`
	Loading    bool      `json:"loading"`
	Generation uint64    `json:"generation"`
	Records    int       `json:"records"`
	ForTable   int       `json:"forTable"`
	ForCharts  int       `json:"forCharts"`
	LastLoad   time.Time `json:"lastLoad,omitempty"`
	Source     string    `json:"source"`
}

// ViewOptions are the per-view unit selections.
type ViewOptions struct {
	SeriesUnit TimeUnit  `json:"seriesUnit"`
	PivotUnit  PivotUnit `json:"pivotUnit"`
}
