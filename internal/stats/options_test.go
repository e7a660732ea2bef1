package stats

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerstats/internal/core"
)

func TestOptions(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	opts := Options(ledger(), now)

	require.Len(t, opts.Years, YearOptionCount)
	assert.Equal(t, core.Option{Value: 2026, Label: "2026"}, opts.Years[0])
	assert.Equal(t, core.Option{Value: 2021, Label: "2021"}, opts.Years[5])

	require.Len(t, opts.Months, 12)
	assert.Equal(t, core.Option{Value: 3, Label: "3月"}, opts.Months[2])

	assert.Equal(t, []core.Option{
		{Value: "日常开销", Label: "日常开销"},
		{Value: "不计入", Label: "不计入"},
		{Value: "旅游基金", Label: "旅游基金"},
	}, opts.Books)
	assert.Equal(t, []string{"餐饮", "购物", "工资", "旅行"}, opts.Categories)
	assert.Equal(t, []string{"午餐", "日用", "机票", "零食"}, opts.Tags)
	assert.Equal(t, map[string][]string{
		"餐饮": {"午餐", "零食"},
		"购物": {"日用"},
		"旅行": {"机票"},
	}, opts.CategoryTagMap)
}

func TestTagOptionsFor(t *testing.T) {
	opts := Options(ledger(), time.Now())
	assert.Equal(t, opts.Tags, TagOptionsFor(nil, opts))
	assert.Equal(t, []string{"午餐", "零食", "机票"}, TagOptionsFor([]string{"餐饮", "旅行"}, opts))
	assert.Equal(t, []string{}, TagOptionsFor([]string{"工资"}, opts))
}

func TestFilterTags(t *testing.T) {
	spec := core.FilterSpec{
		Year:        []int{2024},
		Month:       []int{3},
		Book:        []string{"房租"},
		Category:    []string{"餐饮"},
		Tag:         []string{"午餐"},
		MinAmount:   ptr(-100.5),
		MaxAmount:   ptr(0),
		SearchQuery: "coffee",
		SearchField: "counter_party",
	}
	assert.Equal(t, []core.FilterTag{
		{Type: "year", Label: "年份", Value: "2024"},
		{Type: "month", Label: "月份", Value: "3月"},
		{Type: "book", Label: "账本", Value: "房租"},
		{Type: "category", Label: "类别", Value: "餐饮"},
		{Type: "tag", Label: "标签", Value: "午餐"},
		{Type: "minAmount", Label: "最小金额", Value: "-100.5"},
		{Type: "maxAmount", Label: "最大金额", Value: "0"},
		{Type: "search", Label: "搜索(交易对方)", Value: "coffee"},
	}, FilterTags(spec))

	assert.Equal(t, []core.FilterTag{{Type: "search", Label: "搜索(全部字段)", Value: "x"}}, FilterTags(core.FilterSpec{SearchQuery: "x"}))
	assert.Equal(t, "搜索(未知字段)", FilterTags(core.FilterSpec{SearchQuery: "x", SearchField: "date"})[0].Label)
	assert.Empty(t, FilterTags(core.FilterSpec{}))
}

func TestRemoveFilterTag(t *testing.T) {
	spec := core.FilterSpec{
		Year:        []int{2023, 2024},
		Month:       []int{3, 4},
		Book:        []string{"a", "b"},
		Category:    []string{"餐饮", "购物"},
		Tag:         []string{"午餐"},
		MinAmount:   ptr(-10),
		MaxAmount:   ptr(10),
		SearchQuery: "q",
	}

	got, err := RemoveFilterTag(spec, "year", "2023")
	require.NoError(t, err)
	assert.Equal(t, []int{2024}, got.Year)

	got, err = RemoveFilterTag(spec, "month", "4月")
	require.NoError(t, err)
	assert.Equal(t, []int{3}, got.Month)

	got, err = RemoveFilterTag(spec, "category", "购物")
	require.NoError(t, err)
	assert.Equal(t, []string{"餐饮"}, got.Category)
	assert.Empty(t, got.Tag)

	got, err = RemoveFilterTag(spec, "minAmount", "")
	require.NoError(t, err)
	assert.Nil(t, got.MinAmount)
	assert.NotNil(t, got.MaxAmount)

	got, err = RemoveFilterTag(spec, "search", "q")
	require.NoError(t, err)
	assert.Empty(t, got.SearchQuery)

	// the input spec is untouched
	assert.Equal(t, []int{2023, 2024}, spec.Year)
	assert.Equal(t, []string{"午餐"}, spec.Tag)

	_, err = RemoveFilterTag(spec, "colour", "red")
	assert.True(t, errors.Is(err, core.ErrInvalidFilter))
	_, err = RemoveFilterTag(spec, "year", "twenty")
	assert.True(t, errors.Is(err, core.ErrInvalidFilter))
}
