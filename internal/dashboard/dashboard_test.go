package dashboard

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerstats/internal/core"
	"ledgerstats/internal/sources/memory"
)

var fixedNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func ledger() []core.Record {
	return []core.Record{
		{Date: "2024-03-15 12:30:00", Amount: -30, Book: "日常", Category: "餐饮", Tag: "午饭"},
		{Date: "2024-03-15 19:00:00", Amount: -50, Book: "日常", Category: "餐饮", Tag: "晚饭"},
		{Date: "2024-03-16 08:00:00", Amount: -6, Book: "日常", Category: "交通", Tag: "地铁"},
		{Date: "2024-03-20 10:00:00", Amount: 1000, Book: "日常", Category: "工资"},
		{Date: "2024-02-01 09:00:00", Amount: -200, Book: "不计入", Category: "转账"},
	}
}

type sinkFunc func(ctx context.Context, date string) error

func (f sinkFunc) SaveFirstBillDate(ctx context.Context, date string) error { return f(ctx, date) }

type recorder struct {
	mu     sync.Mutex
	events []core.LoadEvent
}

func (r *recorder) RecordLoad(_ context.Context, ev core.LoadEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

func newLoaded(t *testing.T, opts Options) (*Dashboard, *memory.Store) {
	t.Helper()
	store := memory.New(ledger(), map[string]core.CategoryMeta{"餐饮": {Icon: "🍜", Color: "#f00"}})
	opts.Now = func() time.Time { return fixedNow }
	d := New(store, opts)
	require.NoError(t, d.Load(context.Background(), nil))
	return d, store
}

func TestLoad_PopulatesOptionsAndViews(t *testing.T) {
	var saved []string
	rec := &recorder{}
	d, _ := newLoaded(t, Options{
		SourceName: "memory",
		Recorder:   rec,
		Sinks: []FirstBillDateSink{
			sinkFunc(func(_ context.Context, date string) error { saved = append(saved, date); return nil }),
			sinkFunc(func(context.Context, string) error { return errors.New("broker down") }),
		},
	})

	assert.True(t, d.Ready())
	assert.Nil(t, d.Notice())
	assert.Equal(t, uint64(1), d.Generation())

	opts := d.FilterOptions()
	assert.Len(t, opts.Years, 6)
	assert.Equal(t, 2024, opts.Years[0].Value)
	assert.Equal(t, []string{"餐饮", "交通", "工资", "转账"}, opts.Categories)
	assert.Equal(t, []string{"午饭", "晚饭", "地铁"}, d.TagOptions())
	assert.Equal(t, "#f00", d.CategoryMeta()["餐饮"].Color)

	// The excluded book stays in the table but not in the charts.
	status := d.Status()
	assert.Equal(t, 5, status.ForTable)
	assert.Equal(t, 4, status.ForCharts)
	assert.Equal(t, "memory", status.Source)

	assert.Equal(t, []string{"2024-02-01 09:00:00"}, saved, "sink failures must not stop other sinks")
	require.Len(t, rec.events, 1)
	assert.True(t, rec.events[0].Success)
	assert.Equal(t, 5, rec.events[0].Records)
}

func TestLoad_FailureKeepsRecordsAndSetsNotice(t *testing.T) {
	rec := &recorder{}
	d, store := newLoaded(t, Options{Recorder: rec})

	store.FailWith(errors.New("connection refused"))
	err := d.Load(context.Background(), nil)
	require.Error(t, err)

	n := d.Notice()
	require.NotNil(t, n)
	assert.Equal(t, DefaultLoadFailedMessage, n.Message)
	assert.Equal(t, 5, d.Status().Records, "previous records are kept")
	assert.True(t, d.Ready())
	require.Len(t, rec.events, 2)
	assert.False(t, rec.events[1].Success)

	store.FailWith(nil)
	require.NoError(t, d.Load(context.Background(), nil))
	assert.Nil(t, d.Notice())
}

type unsuccessfulSource struct{ memory.Store }

func (*unsuccessfulSource) FetchRecords(context.Context, url.Values) (core.StatisticsResponse, error) {
	return core.StatisticsResponse{Success: false, Error: "数据库繁忙"}, nil
}

func TestLoad_UnsuccessfulResponseUsesBackendMessage(t *testing.T) {
	d := New(&unsuccessfulSource{}, Options{})
	err := d.Load(context.Background(), nil)
	require.Error(t, err)
	require.NotNil(t, d.Notice())
	assert.Equal(t, "数据库繁忙", d.Notice().Message)
	assert.False(t, d.Ready())
	assert.Empty(t, d.Averages())
}

type metaFailSource struct{ *memory.Store }

func (metaFailSource) FetchCategoryMeta(context.Context) (core.CategoryMetaResponse, error) {
	return core.CategoryMetaResponse{}, errors.New("categories endpoint down")
}

func TestLoad_MetaFailureFallsBackToEmpty(t *testing.T) {
	d := New(metaFailSource{memory.New(ledger(), nil)}, Options{})
	require.NoError(t, d.Load(context.Background(), nil))
	assert.Empty(t, d.CategoryMeta())
	assert.Nil(t, d.Notice())
	assert.Equal(t, 5, d.Status().Records)
}

// gatedSource blocks the first FetchRecords call until release is closed.
type gatedSource struct {
	*memory.Store
	mu      sync.Mutex
	calls   int
	started chan struct{}
	release chan struct{}
	first   []core.Record
}

func (g *gatedSource) FetchRecords(ctx context.Context, params url.Values) (core.StatisticsResponse, error) {
	g.mu.Lock()
	g.calls++
	call := g.calls
	g.mu.Unlock()
	if call == 1 {
		close(g.started)
		<-g.release
		return core.StatisticsResponse{Success: true, AllItems: g.first}, nil
	}
	return g.Store.FetchRecords(ctx, params)
}

func TestLoad_StaleResponseIsDropped(t *testing.T) {
	src := &gatedSource{
		Store:   memory.New(ledger(), nil),
		started: make(chan struct{}),
		release: make(chan struct{}),
		first:   []core.Record{{Date: "2020-01-01", Amount: -1}},
	}
	d := New(src, Options{})

	staleErr := make(chan error, 1)
	go func() { staleErr <- d.Load(context.Background(), nil) }()
	<-src.started

	require.NoError(t, d.Load(context.Background(), nil))
	close(src.release)

	assert.ErrorIs(t, <-staleErr, ErrStaleLoad)
	assert.Equal(t, 5, d.Status().Records, "the newer load wins")
	assert.Equal(t, uint64(2), d.Generation())
}

func TestFilterOperations(t *testing.T) {
	d, _ := newLoaded(t, Options{})

	require.NoError(t, d.SetFilter(core.FilterSpec{Category: []string{"餐饮"}, Tag: []string{"午饭"}}))
	assert.Equal(t, 1, d.Status().ForTable)
	assert.Len(t, d.FilterTags(), 2)

	require.NoError(t, d.RemoveFilterTag("tag", "午饭"))
	assert.Equal(t, 2, d.Status().ForTable)

	d.ChangeCategories([]string{"交通"})
	assert.Equal(t, []string{"地铁"}, d.TagOptions())
	assert.Empty(t, d.Filter().Tag)
	assert.Equal(t, 1, d.Status().ForTable)

	require.NoError(t, d.RemoveFilterTag("category", "交通"))
	assert.Equal(t, []string{"午饭", "晚饭", "地铁"}, d.TagOptions())
	assert.Equal(t, 5, d.Status().ForTable)

	bad := core.FilterSpec{Month: []int{13}}
	assert.ErrorIs(t, d.SetFilter(bad), core.ErrInvalidFilter)

	require.NoError(t, d.SetFilter(core.FilterSpec{Book: []string{"日常"}}))
	d.ResetFilter()
	assert.True(t, d.Filter().IsZero())
	assert.Equal(t, 5, d.Status().ForTable)
}

func TestFilterIsCopied(t *testing.T) {
	d, _ := newLoaded(t, Options{})
	spec := core.FilterSpec{Category: []string{"餐饮"}}
	require.NoError(t, d.SetFilter(spec))
	spec.Category[0] = "交通"
	assert.Equal(t, []string{"餐饮"}, d.Filter().Category)
}

func TestViews(t *testing.T) {
	d, _ := newLoaded(t, Options{TimelinePageSize: 2})

	rows := d.Averages()
	require.NotEmpty(t, rows)
	assert.Equal(t, core.TotalRowName, rows[0].Name)

	cal := d.Calendar()
	require.Contains(t, cal, 2024)
	assert.Equal(t, "2024-03-15", cal[2024][0].Date)
	assert.Equal(t, 80.0, cal[2024][0].Amount)

	assert.Equal(t, core.Month, d.Series("").Unit)
	assert.Equal(t, core.Day, d.Series(core.Day).Unit)

	vo, err := d.SetViewOptions("week", "hour")
	require.NoError(t, err)
	assert.Equal(t, core.ViewOptions{SeriesUnit: core.Week, PivotUnit: core.Hour}, vo)
	_, err = d.SetViewOptions("fortnight", "")
	assert.ErrorIs(t, err, core.ErrInvalidUnit)
	_, err = d.SetViewOptions("", "minute")
	assert.ErrorIs(t, err, core.ErrInvalidPivotUnit)
	assert.Equal(t, core.Week, d.ViewOptions().SeriesUnit, "failed update leaves units alone")

	buckets := d.Pivot("", true)
	require.NotEmpty(t, buckets)
	assert.Equal(t, 10, buckets[0].Key, "salary at 10h is the largest absolute amount")

	pie, err := d.Pie("category")
	require.NoError(t, err)
	assert.Equal(t, "工资", pie[0].Name)
	_, err = d.Pie("remark")
	assert.ErrorIs(t, err, core.ErrUnknownField)

	span := d.TimeSpan()
	assert.Equal(t, 4, span.Count)

	page := d.Table(core.TableQuery{PageSize: 2})
	assert.Equal(t, 5, page.Total)
	assert.Len(t, page.Items, 2)
	assert.Len(t, d.TableRecords(), 5)
}

func TestTimelinePaging(t *testing.T) {
	d, _ := newLoaded(t, Options{TimelinePageSize: 2})

	tl := d.Timeline()
	assert.Equal(t, 3, tl.TotalEntries)
	assert.Len(t, tl.Entries, 2)
	assert.Equal(t, 2, tl.TotalPages)
	assert.False(t, tl.AllLoaded)
	assert.Equal(t, "2024-03-20", tl.Entries[0].DateStr)

	tl = d.LoadMoreTimeline()
	assert.Len(t, tl.Entries, 3)
	assert.True(t, tl.AllLoaded)
	assert.Equal(t, 2, tl.Page)

	tl = d.LoadMoreTimeline()
	assert.Equal(t, 2, tl.Page, "no page past the end")

	// Filtering resets the pager.
	require.NoError(t, d.SetFilter(core.FilterSpec{Category: []string{"餐饮"}}))
	tl = d.Timeline()
	assert.Equal(t, 1, tl.Page)
	assert.Equal(t, 1, tl.TotalEntries)
	assert.True(t, tl.AllLoaded)
}

func TestEmptyDashboard(t *testing.T) {
	d := New(memory.New(nil, nil), Options{})
	assert.False(t, d.Ready())
	assert.Empty(t, d.Averages())
	tl := d.Timeline()
	assert.NotNil(t, tl.Entries)
	assert.Equal(t, 1, tl.TotalPages)
	assert.True(t, tl.AllLoaded)

	require.NoError(t, d.Load(context.Background(), nil))
	assert.True(t, d.Ready())
	assert.Equal(t, core.TimeSpan{}, d.TimeSpan())
	d.Close()
}
