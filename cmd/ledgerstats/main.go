package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"ledgerstats/internal/amqp"
	"ledgerstats/internal/backend"
	"ledgerstats/internal/cache"
	"ledgerstats/internal/cli"
	"ledgerstats/internal/config"
	"ledgerstats/internal/dashboard"
	apphttp "ledgerstats/internal/http"
	"ledgerstats/internal/log"
	"ledgerstats/internal/middleware/ratelimit"
	"ledgerstats/internal/storage"
	"ledgerstats/internal/worker"
)

func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat)
	cfg = cli.LoadAndValidateConfig(logger)

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", log.FieldError, err)
		os.Exit(1)
	}
	result, err := backend.NewFactory(logger).CreateBackend(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to create record source", log.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	cacheManager := cache.NewManager(logger)
	cacheManager.Register(result.Cache)
	cacheManager.StartCleanup(time.Minute)

	var (
		sinks    []dashboard.FirstBillDateSink
		recorder dashboard.LoadRecorder
		history  apphttp.LoadHistory
		pinger   apphttp.Pinger
		store    *storage.PreferenceStore
	)
	if cfg.SQLiteDBPath != "" {
		store = cli.InitPreferenceStore(logger, cfg.SQLiteDBPath)
		sinks = append(sinks, store)
		recorder, history, pinger = store, store, store
	} else {
		logger.Info("Preference store disabled - no SQLITE_DB_PATH provided")
	}

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			// The dashboard works without the broker; only publishing is lost.
			logger.Warn("AMQP unavailable, first bill date will not be published", log.FieldError, err)
		} else {
			sinks = append(sinks, amqpClient)
		}
	}

	dash := dashboard.New(result.Source, dashboard.Options{
		ExcludedBook:     cfg.ExcludedBook,
		TimelinePageSize: cfg.TimelinePageSize,
		FetchTimeout:     cfg.FetchTimeout,
		SourceName:       cfg.DataBackend,
		Sinks:            sinks,
		Recorder:         recorder,
		Logger:           logger,
	})

	srv := apphttp.NewServer(":"+cfg.Port, dash, apphttp.Options{
		History: history,
		Pinger:  pinger,
		ReloadLimit: ratelimit.Config{
			RequestsPerMinute: cfg.ReloadRatePerMinute,
			CleanupInterval:   5 * time.Minute,
		},
		ReloadTimeout: cfg.FetchTimeout + 5*time.Second,
		Logger:        logger,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(shutdownCtx context.Context) {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
		dash.Close()
		cacheManager.Stop()
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Warn("AMQP close error", log.FieldError, err)
			}
		}
		if store != nil {
			if err := store.Close(); err != nil {
				logger.Warn("Preference store close error", log.FieldError, err)
			}
		}
		if result.Cleanup != nil {
			if err := result.Cleanup(); err != nil {
				logger.Warn("Backend cleanup error", log.FieldError, err)
			}
		}
	})

	reloader := worker.NewReloadWorker(dash, cfg.ReloadInterval, logger)
	go func() {
		// The first load runs even when periodic reload is off. Failures are
		// logged by the worker and surface as the dashboard notice.
		_ = reloader.RunOnce(ctx)
		if err := reloader.Run(ctx); err != nil {
			logger.Error("Reload worker stopped", log.FieldError, err)
		}
	}()

	logger.Info("Starting ledgerstats server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		log.FieldOperation, log.OpStartup)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
