package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"
)

const (
	Day   TimeUnit = "day"
	Week  TimeUnit = "week"
	Month TimeUnit = "month"
	Year  TimeUnit = "year"
)

const (
	Hour      PivotUnit = "hour"
	Weekday   PivotUnit = "weekday"
	Monthday  PivotUnit = "monthday"
	Yearmonth PivotUnit = "yearmonth"
)

// DefaultExcludedBook is the book whose records never reach the charts.
const DefaultExcludedBook = "不计入"

// TotalRowName names the synthetic row that covers every filtered record.
const TotalRowName = "总计"

type (
	TimeUnit  string
	PivotUnit string

	// Record is one ledger transaction as served by the statistics API.
	// Amount is negative for expenses and positive for income.
	Record struct {
		Date         string  `json:"date"`
		Amount       float64 `json:"amount"`
		Book         string  `json:"book"`
		Category     string  `json:"category"`
		Tag          string  `json:"tag"`
		CounterParty string  `json:"counter_party"`
		GoodsDesc    string  `json:"goods_desc"`
		Remark       string  `json:"remark"`
	}

	// FilterSpec selects records. Empty slices, nil bounds and an empty
	// query mean "no constraint" on that field.
	FilterSpec struct {
		Year        []int    `json:"year"`
		Month       []int    `json:"month"`
		Book        []string `json:"book"`
		Category    []string `json:"category"`
		Tag         []string `json:"tag"`
		MinAmount   *float64 `json:"minAmount"`
		MaxAmount   *float64 `json:"maxAmount"`
		SearchQuery string   `json:"searchQuery"`
		SearchField string   `json:"searchField"`
	}

	// DateRange is the span of valid dates in a record set.
	DateRange struct {
		Start time.Time
		End   time.Time
		Valid bool
	}

	// FilteredSet holds the two views of a filter pass.
	FilteredSet struct {
		ForTable  []Record `json:"forTable"`
		ForCharts []Record `json:"forCharts"`
	}
)

var (
	ErrInvalidUnit      = errors.New("invalid time unit")
	ErrInvalidPivotUnit = errors.New("invalid pivot unit")
	ErrInvalidFilter    = errors.New("invalid filter")
	ErrUnknownField     = errors.New("unknown record field")
)

// SearchableFields are matched when a search names no field.
var SearchableFields = []string{"counter_party", "goods_desc", "category", "tag", "remark"}

// RecordFields lists every text field a record exposes by name.
var RecordFields = []string{"date", "book", "category", "tag", "counter_party", "goods_desc", "remark"}

// ParseTimeUnit validates a series/divisor unit.
func ParseTimeUnit(s string) (TimeUnit, error) {
	u := TimeUnit(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidUnit, s)
	}
	return u, nil
}

func (u TimeUnit) IsValid() bool {
	switch u {
	case Day, Week, Month, Year:
		return true
	}
	return false
}

// ParsePivotUnit validates a pivot unit.
func ParsePivotUnit(s string) (PivotUnit, error) {
	u := PivotUnit(strings.ToLower(strings.TrimSpace(s)))
	if !u.IsValid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidPivotUnit, s)
	}
	return u, nil
}

func (u PivotUnit) IsValid() bool {
	switch u {
	case Hour, Weekday, Monthday, Yearmonth:
		return true
	}
	return false
}

// Time parses the record date. ok is false for empty or unparseable dates.
func (r Record) Time() (time.Time, bool) {
	return ParseDate(r.Date)
}

// Field returns a text field by its JSON name.
func (r Record) Field(name string) (string, bool) {
	switch name {
	case "date":
		return r.Date, true
	case "book":
		return r.Book, true
	case "category":
		return r.Category, true
	case "tag":
		return r.Tag, true
	case "counter_party":
		return r.CounterParty, true
	case "goods_desc":
		return r.GoodsDesc, true
	case "remark":
		return r.Remark, true
	}
	return "", false
}

// UnmarshalJSON accepts loosely typed rows: numbers where text is expected,
// numeric strings or garbage for the amount, nulls anywhere.
func (r *Record) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	*r = Record{
		Date:         stringValue(raw["date"]),
		Amount:       AmountValue(raw["amount"]),
		Book:         stringValue(raw["book"]),
		Category:     stringValue(raw["category"]),
		Tag:          stringValue(raw["tag"]),
		CounterParty: stringValue(raw["counter_party"]),
		GoodsDesc:    stringValue(raw["goods_desc"]),
		Remark:       stringValue(raw["remark"]),
	}
	return nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Validate rejects specs the filter engine cannot honour.
func (s FilterSpec) Validate() error {
	for _, m := range s.Month {
		if m < 1 || m > 12 {
			return fmt.Errorf("%w: month %d out of range", ErrInvalidFilter, m)
		}
	}
	if s.SearchField != "" && !slices.Contains(RecordFields, s.SearchField) {
		return fmt.Errorf("%w: %w %q", ErrInvalidFilter, ErrUnknownField, s.SearchField)
	}
	if s.MinAmount != nil && s.MaxAmount != nil && *s.MinAmount > *s.MaxAmount {
		return fmt.Errorf("%w: minAmount %v greater than maxAmount %v", ErrInvalidFilter, *s.MinAmount, *s.MaxAmount)
	}
	return nil
}

// IsZero reports whether the filter constrains nothing.
func (s FilterSpec) IsZero() bool {
	return len(s.Year) == 0 && len(s.Month) == 0 && len(s.Book) == 0 &&
		len(s.Category) == 0 && len(s.Tag) == 0 &&
		s.MinAmount == nil && s.MaxAmount == nil &&
		strings.TrimSpace(s.SearchQuery) == ""
}

// Clone returns a deep copy so callers can mutate without aliasing.
func (s FilterSpec) Clone() FilterSpec {
	c := FilterSpec{
		Year:        slices.Clone(s.Year),
		Month:       slices.Clone(s.Month),
		Book:        slices.Clone(s.Book),
		Category:    slices.Clone(s.Category),
		Tag:         slices.Clone(s.Tag),
		SearchQuery: s.SearchQuery,
		SearchField: s.SearchField,
	}
	if s.MinAmount != nil {
		v := *s.MinAmount
		c.MinAmount = &v
	}
	if s.MaxAmount != nil {
		v := *s.MaxAmount
		c.MaxAmount = &v
	}
	return c
}
