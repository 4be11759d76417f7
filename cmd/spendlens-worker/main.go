package main

import (
	"context"
	"errors"
	"os"
	"time"

	"spendlens/internal/amqp"
	"spendlens/internal/cli"
	applog "spendlens/internal/log"
	gsheet "spendlens/internal/sheets/google"
	"spendlens/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateWorkerConfig()
	logger := cli.SetupLogger(cfg.LogLevel, cfg.LogFormat, applog.ComponentWorker)

	logger.Info("Starting spendlens-worker")

	repo := cli.InitSQLite(logger, cfg.SQLiteDBPath)

	mirror, err := gsheet.New(context.Background(), gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}
	logger.Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID,
		"sheet", cfg.GoogleSheetName)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(repo, mirror, cfg.SyncBatchSize)
	poller := worker.NewPoller("pending-sync", cfg.SyncInterval, syncWorker.ProcessPending)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := poller.Stop(ctx); err != nil {
			logger.Warn("Poller stop error", "error", err)
		}
		if err := amqpClient.Close(); err != nil {
			logger.Warn("AMQP close error", "error", err)
		}
		if err := repo.Close(); err != nil {
			logger.Warn("SQLite close error", "error", err)
		}
	})

	logger.Info("Performing startup sync check")
	if err := syncWorker.StartupSyncCheck(ctx); err != nil {
		logger.Error("Startup sync check failed", "error", err)
	}

	if err := poller.Start(ctx); err != nil {
		logger.Error("Failed to start poller", "error", err)
		os.Exit(1)
	}

	go func() {
		err := amqpClient.ConsumeExpenseEvents(ctx, syncWorker.HandleEvent)
		if err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("Event consumption stopped", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Worker stopped")
}
