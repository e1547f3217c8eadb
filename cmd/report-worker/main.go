package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"spendcraft/internal/amqp"
	"spendcraft/internal/config"
	"spendcraft/internal/delivery"
	"spendcraft/internal/insight"
	applog "spendcraft/internal/log"
	"spendcraft/internal/services"
	"spendcraft/internal/storage"
	"spendcraft/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentWorker,
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

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	mailer := delivery.NewMailer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUsername, cfg.SMTPPassword, cfg.SMTPFrom)
	reports := services.NewReportService(repo, insight.AnomalyConfig{Threshold: cfg.AnomalyThreshold}, cfg.ForecastHorizon)
	reportWorker := worker.NewReportWorker(reports, mailer)

	color.Green("report-worker ready")
	color.Cyan("  queue:    %s @ %s", cfg.AMQPQueue, cfg.AMQPExchange)
	color.Cyan("  database: %s", cfg.SQLiteDBPath)
	color.Cyan("  smtp:     %s:%d (from %s)", cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPFrom)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return amqpClient.ConsumeReportDispatch(gctx, reportWorker.HandleDispatch)
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			logger.Info("Shutdown signal received", "signal", sig.String())
			cancel()
		case <-gctx.Done():
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("Worker stopped with error", "error", err)
		os.Exit(1)
	}

	// Give in-flight dispatches a moment to settle before closing AMQP.
	time.Sleep(time.Second)
	logger.Info("Worker shutdown complete")
}
