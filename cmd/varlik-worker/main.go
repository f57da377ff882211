package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"varlik/internal/amqp"
	"varlik/internal/backend"
	"varlik/internal/config"
	applog "varlik/internal/log"
	"varlik/internal/rows"
	"varlik/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
	})
	applog.SetDefault(logger)

	logger.Info("Starting varlik-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Primary store: the authoritative rows the engine writes.
	primaryCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}
	factory := backend.NewFactory(logger.Logger)
	primary, err := factory.CreateStore(ctx, primaryCfg)
	if err != nil {
		logger.Error("Failed to initialize primary backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if primary.Cleanup != nil {
		defer func() {
			if err := primary.Cleanup(); err != nil {
				logger.Error("Primary backend cleanup failed", "error", err)
			}
		}()
	}

	// Mirror store: the Google Sheets copy this worker maintains.
	mirrorCfg, err := backend.MirrorFromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid mirror configuration", "error", err)
		os.Exit(1)
	}
	mirror, err := factory.CreateStore(ctx, mirrorCfg)
	if err != nil {
		logger.Error("Failed to initialize sheets mirror", "error", err)
		os.Exit(1)
	}

	mirrorStore := rows.NewReliable(mirror.Store, cfg.RetryAttempts, cfg.RetryBaseDelay)
	w := worker.NewMirrorWorker(primary.Store, mirrorStore, cfg.SnapshotTable, cfg.LedgerTable)

	// Repair the mirror once on startup before waiting for announcements.
	if err := w.ReconcileAll(ctx); err != nil {
		logger.Error("Startup reconciliation failed", "error", err)
	}

	group, ctx := errgroup.WithContext(ctx)

	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		group.Go(func() error {
			return amqpClient.ConsumeMirror(ctx, w.HandleMessage(ctx))
		})
		logger.Info("Consuming mirror announcements",
			"exchange", cfg.AMQPExchange,
			"queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - relying on periodic reconciliation only")
	}

	group.Go(func() error {
		return w.Run(ctx, cfg.MirrorInterval)
	})

	logger.Info("Worker running",
		"backend", cfg.DataBackend,
		"streams", []string{cfg.SnapshotTable, cfg.LedgerTable},
		"interval", cfg.MirrorInterval)

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker stopped gracefully")
}
