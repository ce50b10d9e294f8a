package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"finsight/internal/amqp"
	"finsight/internal/analysis"
	"finsight/internal/cache"
	"finsight/internal/config"
	apphttp "finsight/internal/http"
	"finsight/internal/log"
	"finsight/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.ParseLevel(os.Getenv("LOG_LEVEL")),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err.Error())
		os.Exit(1)
	}

	// Storage and AMQP are optional for the API: without them the server
	// answers synchronous requests only and rejects mode=async.
	opts := apphttp.Options{
		ReportCache: cache.NewLRUCache[*analysis.Report](cfg.CacheSize, cfg.CacheTTL),
		Logger:      logger,
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Warn("SQLite unavailable, async batches disabled",
			log.FieldError, err.Error(), "path", cfg.SQLiteDBPath)
	} else {
		defer repo.Close()
		opts.Store = repo
	}

	var amqpClient *amqp.Client
	if repo != nil && cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP unavailable, async batches rely on the worker backlog scan",
				log.FieldError, err.Error())
		} else {
			defer amqpClient.Close()
			opts.Publisher = amqpClient
		}
	}

	cacheManager := cache.NewManager()
	cacheManager.Register(opts.ReportCache)
	cacheManager.StartCleanup(10 * time.Minute)
	defer cacheManager.Stop()

	analyzer := analysis.NewAnalyzer(cfg.ForecastPeriods)
	srv := apphttp.NewServer(":"+cfg.Port, analyzer, opts)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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
			logger.Error("Server shutdown error", log.FieldError, err.Error())
		}
		cancel()
	}()

	logger.Info("Starting finsight server",
		"port", cfg.Port,
		"async_enabled", opts.Store != nil && opts.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err.Error(), "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
