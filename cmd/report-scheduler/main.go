package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"

	"spendcraft/internal/amqp"
	"spendcraft/internal/config"
	"spendcraft/internal/core"
	applog "spendcraft/internal/log"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: applog.ComponentScheduler,
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if cfg.ReportDestination == "" {
		logger.Error("REPORT_DESTINATION must be set for the scheduler")
		os.Exit(1)
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}
	defer amqpClient.Close()

	color.Green("report-scheduler ready")
	color.Cyan("  interval:    %s", cfg.ReportInterval)
	color.Cyan("  destination: %s", cfg.ReportDestination)
	color.Cyan("  format:      %s", cfg.ReportFormat)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())
		cancel()
	}()

	ticker := time.NewTicker(cfg.ReportInterval)
	defer ticker.Stop()

	logger.Info("Scheduler started", "interval", cfg.ReportInterval)
	for {
		select {
		case <-ctx.Done():
			logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			if err := publishDispatch(ctx, amqpClient, cfg); err != nil {
				logger.Error("Failed to publish report dispatch", "error", err)
			}
		}
	}
}

// publishDispatch queues one report covering the period since the last tick.
func publishDispatch(ctx context.Context, client *amqp.Client, cfg *config.Config) error {
	now := time.Now()
	from := core.DateOf(now.Add(-cfg.ReportInterval))
	to := core.DateOf(now)

	msg := amqp.NewReportDispatchMessage(cfg.ReportDestination, cfg.ReportFormat, from.String(), to.String())
	return client.PublishReportDispatch(ctx, msg)
}
