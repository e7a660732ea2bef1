// Package worker holds the long-running background jobs: the periodic
// dashboard reload and the preference consumer.
package worker

import (
	"context"
	"errors"
	"net/url"
	"time"

	"ledgerstats/internal/dashboard"
	"ledgerstats/internal/log"
)

// Loader reloads the dashboard.
type Loader interface {
	Load(ctx context.Context, params url.Values) error
}

// ReloadWorker reloads the dashboard on a fixed interval.
type ReloadWorker struct {
	loader   Loader
	interval time.Duration
	params   url.Values
	logger   *log.Logger
}

func NewReloadWorker(loader Loader, interval time.Duration, logger *log.Logger) *ReloadWorker {
	if logger == nil {
		logger = log.Discard()
	}
	return &ReloadWorker{
		loader:   loader,
		interval: interval,
		logger:   logger.WithComponent(log.ComponentWorker),
	}
}

// WithParams sets the query forwarded to the source on every reload.
func (w *ReloadWorker) WithParams(params url.Values) *ReloadWorker {
	w.params = params
	return w
}

// RunOnce performs a single reload. A superseded load is not a failure.
func (w *ReloadWorker) RunOnce(ctx context.Context) error {
	start := time.Now()
	err := w.loader.Load(ctx, w.params)
	switch {
	case err == nil:
		w.logger.DebugContext(ctx, "Scheduled reload completed",
			log.FieldDuration, time.Since(start).Milliseconds())
		return nil
	case errors.Is(err, dashboard.ErrStaleLoad):
		w.logger.DebugContext(ctx, "Scheduled reload superseded")
		return nil
	case errors.Is(err, context.Canceled):
		return err
	default:
		w.logger.WarnContext(ctx, "Scheduled reload failed",
			log.FieldOperation, log.OpReload,
			log.FieldError, err)
		return err
	}
}

// Run reloads every interval until ctx is cancelled. A zero interval
// disables the worker and Run returns immediately.
func (w *ReloadWorker) Run(ctx context.Context) error {
	if w.interval <= 0 {
		w.logger.InfoContext(ctx, "Periodic reload disabled")
		return nil
	}

	w.logger.InfoContext(ctx, "Starting periodic reload", "interval", w.interval.String())
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.InfoContext(ctx, "Periodic reload stopped")
			return nil
		case <-ticker.C:
			// Failures are logged and retried on the next tick.
			_ = w.RunOnce(ctx)
		}
	}
}
