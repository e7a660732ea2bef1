package stats

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"ledgerstats/internal/core"
)

// YearOptionCount is how many years the year selector offers.
const YearOptionCount = 6

var searchFieldLabels = map[string]string{
	"":              "全部字段",
	"counter_party": "交易对方",
	"goods_desc":    "商品说明",
	"category":      "类别",
	"tag":           "标签",
	"remark":        "备注",
}

// Options builds the filter form choices from the loaded records: the
// current year and the five before it, the twelve months, and the books,
// categories and tags in order of first appearance.
func Options(records []core.Record, now time.Time) core.FilterOptions {
	opts := core.FilterOptions{
		Years:          make([]core.Option, 0, YearOptionCount),
		Months:         make([]core.Option, 0, 12),
		Books:          []core.Option{},
		Categories:     []string{},
		Tags:           []string{},
		CategoryTagMap: map[string][]string{},
	}
	for i := 0; i < YearOptionCount; i++ {
		y := now.Year() - i
		opts.Years = append(opts.Years, core.Option{Value: y, Label: strconv.Itoa(y)})
	}
	for m := 1; m <= 12; m++ {
		opts.Months = append(opts.Months, core.Option{Value: m, Label: MonthLabel(m)})
	}

	seenBook := make(map[string]bool)
	seenCategory := make(map[string]bool)
	seenTag := make(map[string]bool)
	seenPair := make(map[[2]string]bool)
	for _, rec := range records {
		if rec.Book != "" && !seenBook[rec.Book] {
			seenBook[rec.Book] = true
			opts.Books = append(opts.Books, core.Option{Value: rec.Book, Label: rec.Book})
		}
		if rec.Category != "" {
			if !seenCategory[rec.Category] {
				seenCategory[rec.Category] = true
				opts.Categories = append(opts.Categories, rec.Category)
			}
			pair := [2]string{rec.Category, rec.Tag}
			if rec.Tag != "" && !seenPair[pair] {
				seenPair[pair] = true
				opts.CategoryTagMap[rec.Category] = append(opts.CategoryTagMap[rec.Category], rec.Tag)
			}
		}
		if rec.Tag != "" && !seenTag[rec.Tag] {
			seenTag[rec.Tag] = true
			opts.Tags = append(opts.Tags, rec.Tag)
		}
	}
	return opts
}

// MonthLabel renders a month as "N月".
func MonthLabel(m int) string {
	return strconv.Itoa(m) + "月"
}

// TagOptionsFor returns the tags selectable for the chosen categories: the
// union of their tags, or every tag when no category is chosen.
func TagOptionsFor(categories []string, opts core.FilterOptions) []string {
	if len(categories) == 0 {
		return slices.Clone(opts.Tags)
	}
	out := []string{}
	seen := make(map[string]bool)
	for _, c := range categories {
		for _, t := range opts.CategoryTagMap[c] {
			if !seen[t] {
				seen[t] = true
				out = append(out, t)
			}
		}
	}
	return out
}

// FilterTags lists the active constraints of spec as removable chips.
func FilterTags(spec core.FilterSpec) []core.FilterTag {
	tags := []core.FilterTag{}
	for _, y := range spec.Year {
		tags = append(tags, core.FilterTag{Type: "year", Label: "年份", Value: strconv.Itoa(y)})
	}
	for _, m := range spec.Month {
		tags = append(tags, core.FilterTag{Type: "month", Label: "月份", Value: MonthLabel(m)})
	}
	for _, b := range spec.Book {
		tags = append(tags, core.FilterTag{Type: "book", Label: "账本", Value: b})
	}
	for _, c := range spec.Category {
		tags = append(tags, core.FilterTag{Type: "category", Label: "类别", Value: c})
	}
	for _, t := range spec.Tag {
		tags = append(tags, core.FilterTag{Type: "tag", Label: "标签", Value: t})
	}
	if spec.MinAmount != nil {
		tags = append(tags, core.FilterTag{Type: "minAmount", Label: "最小金额", Value: formatBound(*spec.MinAmount)})
	}
	if spec.MaxAmount != nil {
		tags = append(tags, core.FilterTag{Type: "maxAmount", Label: "最大金额", Value: formatBound(*spec.MaxAmount)})
	}
	if spec.SearchQuery != "" {
		label, ok := searchFieldLabels[spec.SearchField]
		if !ok {
			label = "未知字段"
		}
		tags = append(tags, core.FilterTag{Type: "search", Label: "搜索(" + label + ")", Value: spec.SearchQuery})
	}
	return tags
}

func formatBound(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// RemoveFilterTag drops one chip from spec. Removing a category also clears
// the tag selection, since the tags offered depend on the categories.
func RemoveFilterTag(spec core.FilterSpec, tagType, value string) (core.FilterSpec, error) {
	out := spec.Clone()
	switch tagType {
	case "year":
		y, err := strconv.Atoi(strings.TrimSpace(value))
		if err != nil {
			return spec, fmt.Errorf("%w: year %q", core.ErrInvalidFilter, value)
		}
		out.Year = slices.DeleteFunc(out.Year, func(v int) bool { return v == y })
	case "month":
		m, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(value), "月"))
		if err != nil {
			return spec, fmt.Errorf("%w: month %q", core.ErrInvalidFilter, value)
		}
		out.Month = slices.DeleteFunc(out.Month, func(v int) bool { return v == m })
	case "book":
		out.Book = slices.DeleteFunc(out.Book, func(v string) bool { return v == value })
	case "category":
		out.Category = slices.DeleteFunc(out.Category, func(v string) bool { return v == value })
		out.Tag = nil
	case "tag":
		out.Tag = slices.DeleteFunc(out.Tag, func(v string) bool { return v == value })
	case "minAmount":
		out.MinAmount = nil
	case "maxAmount":
		out.MaxAmount = nil
	case "search":
		out.SearchQuery = ""
	default:
		return spec, fmt.Errorf("%w: unknown tag type %q", core.ErrInvalidFilter, tagType)
	}
	return out, nil
}
