package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"gastos/internal/amqp"
	"gastos/internal/config"
	"gastos/internal/core"
	"gastos/internal/ledger"
	gsheet "gastos/internal/ledger/google"
	"gastos/internal/log"
	"gastos/internal/storage"
	"gastos/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{Component: log.ComponentWorker})
	log.SetDefault(logger)

	logger.Info("Starting gastos-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	// SQLite replica the worker writes into
	replica, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite replica", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer replica.Close()

	// Spreadsheet source for full resyncs (optional; without it the
	// replica only grows through record created events)
	var source ledger.RowReader
	if cfg.GoogleSpreadsheetID != "" {
		overrides := map[core.Table]string{}
		if cfg.SheetGastos != "" {
			overrides[core.Expenses] = cfg.SheetGastos
		}
		if cfg.SheetIngresos != "" {
			overrides[core.Income] = cfg.SheetIngresos
		}
		sheetsClient, err := gsheet.New(context.Background(), cfg.GoogleSpreadsheetID, overrides)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		source = sheetsClient
		logger.Info("Google Sheets source initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Resync disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	mirror := worker.NewMirrorWorker(replica, source)

	// Full resync at startup so the replica catches rows written while
	// the worker was down
	if source != nil {
		if err := mirror.Resync(ctx); err != nil {
			logger.Error("Startup resync failed", "error", err)
			// Don't exit - continue with event consumption
		}
	}

	go func() {
		err := amqpClient.ConsumeRecordCreated(ctx, func(msg *amqp.RecordCreatedMessage) error {
			return mirror.HandleRecordCreated(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
		cancel()
	}()

	if source != nil {
		ticker := time.NewTicker(cfg.ResyncInterval)
		defer ticker.Stop()

		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					if err := mirror.Resync(ctx); err != nil {
						logger.Error("Periodic resync failed", "error", err)
					}
				}
			}
		}()
	}

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-ctx.Done():
		logger.Info("Context cancelled")
	}

	logger.Info("Shutting down worker...")
	cancel()
	logger.Info("Worker shutdown complete")
}
