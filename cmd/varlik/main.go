package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"varlik/internal/amqp"
	"varlik/internal/backend"
	"varlik/internal/cache"
	"varlik/internal/config"
	"varlik/internal/core"
	apphttp "varlik/internal/http"
	applog "varlik/internal/log"
	"varlik/internal/pricefeed"
	"varlik/internal/rows"
	"varlik/internal/services"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	// Setup structured logging
	logger := applog.New(applog.DefaultConfig())
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	reg, err := core.NewRegistry(cfg.Categories...)
	if err != nil {
		logger.Error("Invalid category registry", "error", err, "categories", cfg.Categories)
		os.Exit(1)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		logger.Error("Invalid backend configuration", "error", err)
		os.Exit(1)
	}

	factory := backend.NewFactory(logger.Logger)
	result, err := factory.CreateStore(context.Background(), backendCfg)
	if err != nil {
		logger.Error("Failed to initialize backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	if result.Cleanup != nil {
		defer func() {
			if err := result.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}()
	}

	// Wrap the store with bounded retries and a short read cache.
	store := rows.NewCached(
		rows.NewReliable(result.Store, cfg.RetryAttempts, cfg.RetryBaseDelay),
		cache.NewTTL[rows.Table](cfg.CacheTTL),
	)

	snapshots := services.NewSnapshotStore(reg, store, cfg.SnapshotTable)
	ledger := services.NewBudgetLedger(store, cfg.LedgerTable)

	// Mirror announcements are optional; without AMQP the engine still works,
	// the spreadsheet mirror just lags until the worker's next periodic pass.
	var publisher services.MirrorPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without mirror announcements", "error", err)
		} else {
			defer amqpClient.Close()
			publisher = amqpClient
			logger.Info("Initialized AMQP client",
				"exchange", cfg.AMQPExchange,
				"queue", cfg.AMQPQueue)
		}
	}

	var feed pricefeed.Source
	if cfg.PriceFeedURL != "" {
		feed = pricefeed.NewClient(cfg.PriceFeedURL, cfg.PriceFeedTimeout)
		logger.Info("Initialized price feed", "url", cfg.PriceFeedURL)
	} else {
		logger.Info("Price feed disabled - unit-quantity reports will be rejected")
	}

	reports := services.NewReportService(snapshots, ledger, feed, cfg.PriceFeedTimeout, publisher)

	srv := apphttp.NewServer(":"+cfg.Port, reports)

	// Graceful shutdown handling
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting varlik server",
		"port", cfg.Port,
		"backend", cfg.DataBackend,
		"categories", reg.Keys())
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
