package main

import (
	"context"
	"errors"
	"os"
	"time"

	"ledgerstats/internal/amqp"
	"ledgerstats/internal/cli"
	"ledgerstats/internal/config"
	"ledgerstats/internal/log"
	"ledgerstats/internal/worker"
)

// ledgerstats-worker consumes preference updates published by the server
// and persists them in the SQLite preference store.
func main() {
	cli.LoadEnvFile()

	cfg := config.Load()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat).WithComponent(log.ComponentWorker)
	cfg = cli.LoadAndValidateConfig(logger)

	logger.Info("Starting ledgerstats-worker", log.FieldOperation, log.OpStartup)

	if cfg.AMQPURL == "" {
		logger.Error("AMQP_URL is required for the worker")
		os.Exit(1)
	}
	if cfg.SQLiteDBPath == "" {
		logger.Error("SQLITE_DB_PATH is required for the worker")
		os.Exit(1)
	}

	store := cli.InitPreferenceStore(logger, cfg.SQLiteDBPath)
	defer store.Close()

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	prefWorker := worker.NewPreferenceWorker(store, logger)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, nil)

	logger.Info("Performing startup check...")
	if err := prefWorker.StartupCheck(ctx); err != nil {
		// Don't exit - the store may recover once messages arrive
		logger.Error("Startup check failed", log.FieldError, err)
	}

	consumeErr := make(chan error, 1)
	go func() {
		consumeErr <- amqpClient.ConsumePreferences(ctx, prefWorker.HandlePreferenceMessage)
	}()

	select {
	case err := <-consumeErr:
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Message consumption failed", log.FieldError, err)
			os.Exit(1)
		}
	case <-ctx.Done():
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker shutdown complete")
}
