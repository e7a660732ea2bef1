// Package dashboard owns the loaded ledger, the active filter and the
// per-view state, and derives every view from them on demand.
package dashboard

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerstats/internal/core"
	"ledgerstats/internal/log"
	"ledgerstats/internal/sources"
	"ledgerstats/internal/stats"
)

// ErrStaleLoad is returned by a load that was superseded by a newer one
// before it finished. Its result is discarded.
var ErrStaleLoad = errors.New("load superseded by a newer load")

// DefaultLoadFailedMessage is shown when the backend gives no reason.
const DefaultLoadFailedMessage = "加载数据失败"

// FirstBillDateSink receives the earliest raw date after each successful load.
type FirstBillDateSink interface {
	SaveFirstBillDate(ctx context.Context, date string) error
}

// LoadRecorder keeps a history of loads.
type LoadRecorder interface {
	RecordLoad(ctx context.Context, ev core.LoadEvent) error
}

// Options configures a Dashboard. Zero values pick the defaults.
type Options struct {
	ExcludedBook     string
	TimelinePageSize int
	FetchTimeout     time.Duration
	SourceName       string
	Sinks            []FirstBillDateSink
	Recorder         LoadRecorder
	Logger           *log.Logger
	Now              func() time.Time
}

type Dashboard struct {
	source   sources.Source
	filter   stats.Filter
	sinks    []FirstBillDateSink
	recorder LoadRecorder
	logger   *log.Logger
	slogger  *log.StructuredLogger
	now      func() time.Time
	timeout  time.Duration
	name     string

	generation atomic.Uint64
	loading    atomic.Int32

	mu         sync.RWMutex
	cancelLoad context.CancelFunc
	loaded     bool
	lastLoad   time.Time
	records    []core.Record
	meta       map[string]core.CategoryMeta
	options    core.FilterOptions
	tagOptions []string
	spec       core.FilterSpec
	filtered   core.FilteredSet
	seriesUnit core.TimeUnit
	pivotUnit  core.PivotUnit
	pager      *stats.TimelinePager
	notice     *core.Notice
}

func New(source sources.Source, opts Options) *Dashboard {
	logger := opts.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentDashboard)
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	name := opts.SourceName
	if name == "" {
		name = "unknown"
	}

	d := &Dashboard{
		source:     source,
		filter:     stats.NewFilter(opts.ExcludedBook),
		sinks:      slices.Clone(opts.Sinks),
		recorder:   opts.Recorder,
		logger:     logger,
		slogger:    log.NewStructuredLogger(logger),
		now:        now,
		timeout:    opts.FetchTimeout,
		name:       name,
		meta:       map[string]core.CategoryMeta{},
		records:    []core.Record{},
		seriesUnit: core.Month,
		pivotUnit:  core.Monthday,
		pager:      stats.NewTimelinePager(nil, opts.TimelinePageSize),
	}
	d.options = stats.Options(nil, now())
	d.applyLocked()
	return d
}

// Close cancels an in-flight load.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.cancelLoad != nil {
		d.cancelLoad()
		d.cancelLoad = nil
	}
}

type fetchResult struct {
	records  core.StatisticsResponse
	meta     map[string]core.CategoryMeta
	fetchErr error
}

// Load fetches records and category metadata concurrently and replaces the
// record set. A newer Load supersedes this one: its result is dropped and
// ErrStaleLoad returned. On failure the previous records stay in place and a
// notice is set.
func (d *Dashboard) Load(ctx context.Context, params url.Values) error {
	gen := d.generation.Add(1)
	d.loading.Add(1)
	defer d.loading.Add(-1)

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	d.mu.Lock()
	if d.cancelLoad != nil {
		d.cancelLoad()
	}
	d.cancelLoad = cancel
	d.mu.Unlock()

	start := time.Now()
	res := d.fetch(ctx, params)

	if d.generation.Load() != gen {
		d.logger.DebugContext(ctx, "Discarding superseded load", log.FieldGeneration, gen)
		return ErrStaleLoad
	}

	ev := core.LoadEvent{
		Generation: gen,
		Source:     d.name,
		DurationMs: time.Since(start).Milliseconds(),
		At:         d.now(),
	}

	var firstDate string
	var hasFirst bool

	d.mu.Lock()
	// Re-check under the lock: a newer load may have finished meanwhile.
	if d.generation.Load() != gen {
		d.mu.Unlock()
		return ErrStaleLoad
	}
	d.cancelLoad = nil
	d.meta = res.meta
	if res.fetchErr != nil {
		msg := DefaultLoadFailedMessage
		if res.records.Error != "" {
			msg = res.records.Error
		}
		d.notice = &core.Notice{Level: "error", Message: msg, At: ev.At}
		d.mu.Unlock()

		ev.Error = res.fetchErr.Error()
		d.logger.ErrorContext(ctx, "Failed to load dashboard data",
			log.FieldGeneration, gen,
			log.FieldError, res.fetchErr)
		d.record(ctx, ev)
		return res.fetchErr
	}

	d.records = res.records.AllItems
	d.options = stats.Options(d.records, d.now())
	d.tagOptions = slices.Clone(d.options.Tags)
	d.notice = nil
	d.loaded = true
	d.lastLoad = ev.At
	d.applyLocked()
	firstDate, hasFirst = stats.FirstBillDate(d.records)
	ev.Success = true
	ev.Records = len(d.records)
	d.mu.Unlock()

	d.slogger.LogDashboardLoaded(ctx, gen, ev.Records, d.name, ev.DurationMs)
	if hasFirst {
		d.publishFirstBillDate(ctx, firstDate)
	}
	d.record(ctx, ev)
	return nil
}

// fetch runs both requests together. A metadata failure never fails the
// load; it falls back to an empty mapping.
func (d *Dashboard) fetch(ctx context.Context, params url.Values) fetchResult {
	var res fetchResult
	res.meta = map[string]core.CategoryMeta{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		resp, err := d.source.FetchRecords(gctx, params)
		if err != nil {
			return err
		}
		res.records = resp
		if !resp.Success {
			return fmt.Errorf("%w: %s", sources.ErrFetchFailed, resp.Error)
		}
		return nil
	})
	var meta map[string]core.CategoryMeta
	g.Go(func() error {
		resp, err := d.source.FetchCategoryMeta(gctx)
		switch {
		case err != nil:
			d.logger.WarnContext(ctx, "Category metadata unavailable", log.FieldError, err)
		case !resp.Success || resp.Meta == nil:
			d.logger.WarnContext(ctx, "Category metadata response unusable")
		default:
			meta = resp.Meta
		}
		return nil
	})
	res.fetchErr = g.Wait()
	if meta != nil {
		res.meta = meta
	}
	return res
}

func (d *Dashboard) publishFirstBillDate(ctx context.Context, date string) {
	for _, sink := range d.sinks {
		if err := sink.SaveFirstBillDate(ctx, date); err != nil {
			d.logger.WarnContext(ctx, "Failed to save first bill date",
				log.FieldFirstBillDate, date,
				log.FieldError, err)
		}
	}
}

func (d *Dashboard) record(ctx context.Context, ev core.LoadEvent) {
	if d.recorder == nil {
		return
	}
	if err := d.recorder.RecordLoad(context.WithoutCancel(ctx), ev); err != nil {
		d.logger.WarnContext(ctx, "Failed to record load", log.FieldError, err)
	}
}

// applyLocked recomputes the filtered sets and resets the timeline to its
// first page. Caller holds d.mu.
func (d *Dashboard) applyLocked() {
	d.filtered = d.filter.Apply(d.records, d.spec)
	d.pager.Reset(stats.Timeline(d.filtered.ForCharts))
}

// Generation is the number of loads started so far.
func (d *Dashboard) Generation() uint64 {
	return d.generation.Load()
}

// Ready reports whether at least one load succeeded.
func (d *Dashboard) Ready() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.loaded
}

func (d *Dashboard) Status() core.DashboardStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return core.DashboardStatus{
		Loaded:     d.loaded,
		Loading:    d.loading.Load() > 0,
		Generation: d.generation.Load(),
		Records:    len(d.records),
		ForTable:   len(d.filtered.ForTable),
		ForCharts:  len(d.filtered.ForCharts),
		LastLoad:   d.lastLoad,
		Source:     d.name,
	}
}

// Notice returns the message left by the last failed load, if any.
func (d *Dashboard) Notice() *core.Notice {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.notice == nil {
		return nil
	}
	n := *d.notice
	return &n
}

func (d *Dashboard) ClearNotice() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.notice = nil
}
