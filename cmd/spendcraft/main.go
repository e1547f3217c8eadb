package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"spendcraft/internal/categorize"
	"spendcraft/internal/config"
	apphttp "spendcraft/internal/http"
	"spendcraft/internal/insight"
	applog "spendcraft/internal/log"
	"spendcraft/internal/services"
	"spendcraft/internal/storage"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentApp,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize SQLite repository", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	categorizer := buildCategorizer(cfg, logger)
	anomaly := insight.AnomalyConfig{Threshold: cfg.AnomalyThreshold}

	ledger := services.NewLedgerService(repo, categorizer, anomaly)
	reports := services.NewReportService(repo, anomaly, cfg.ForecastHorizon)

	// Train the classifier from whatever history exists. A cold store is
	// fine: the categorizer falls back to keyword rules until retrained.
	if cfg.CategorizerStrategy == "bayes" {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := ledger.Retrain(ctx); err != nil {
			logger.Warn("Initial classifier training skipped", "error", err)
		}
		cancel()
	}

	srv := apphttp.NewServer(":"+cfg.Port, ledger, reports, cfg.RateLimitPerMinute)

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

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

	logger.Info("Starting spendcraft server",
		"port", cfg.Port,
		"db_path", cfg.SQLiteDBPath,
		"categorizer", cfg.CategorizerStrategy)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}

func buildCategorizer(cfg *config.Config, logger *applog.Logger) categorize.Strategy {
	rules := categorize.NewRules()
	if cfg.CategorizerStrategy == "bayes" {
		logger.Info("Using Bayes categorizer", "min_training_records", cfg.MinTrainingRecords)
		return categorize.NewBayes(cfg.MinTrainingRecords, rules)
	}
	logger.Info("Using keyword rules categorizer")
	return rules
}
