package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/analysis"
	"finsight/internal/config"
	"finsight/internal/export"
	"finsight/internal/log"
	"finsight/internal/storage"
	"finsight/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting finsight-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	// Sheets export is optional; without it reports stay in SQLite only.
	var exporter worker.ReportExporter
	if cfg.ExportEnabled() {
		sheets, err := export.NewSheetsExporter(context.Background(), cfg.GoogleSpreadsheetID, cfg.GoogleSheetName)
		if err != nil {
			logger.Error("Failed to initialize Sheets exporter", log.FieldError, err.Error())
			os.Exit(1)
		}
		exporter = sheets
		logger.Info("Sheets exporter initialized", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		logger.Info("Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", log.FieldError, err.Error())
		os.Exit(1)
	}
	defer amqpClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	analyzer := analysis.NewAnalyzer(cfg.ForecastPeriods)
	analysisWorker := worker.NewAnalysisWorker(repo, analyzer, exporter, cfg.WorkerBatchSize)

	// On startup, drain any batches left over from missed messages or downtime.
	if err := analysisWorker.StartupScan(ctx); err != nil {
		logger.Error("Startup scan failed", log.FieldError, err.Error())
		// Don't exit - continue with normal operation
	}

	go func() {
		handler := func(msg *amqp.AnalysisJobMessage) error {
			return analysisWorker.HandleJobMessage(ctx, msg)
		}
		if err := amqpClient.ConsumeAnalysisJobs(ctx, handler); err != nil {
			if err != context.Canceled {
				logger.Error("Message consumption failed", log.FieldError, err.Error())
			}
			cancel()
		}
	}()

	// Periodic backlog and export pass for anything the queue missed.
	ticker := time.NewTicker(cfg.WorkerInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := analysisWorker.ProcessPendingBatches(ctx); err != nil {
					logger.Error("Periodic batch processing failed", log.FieldError, err.Error())
				}
				if err := analysisWorker.ExportReports(ctx); err != nil {
					logger.Error("Periodic report export failed", log.FieldError, err.Error())
				}
			}
		}
	}()

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

	// Give in-flight handlers a moment to finish before the process exits.
	time.Sleep(2 * time.Second)
	logger.Info("Worker shutdown complete")
}
