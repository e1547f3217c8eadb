package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"spendcraft/internal/amqp"
	"spendcraft/internal/core"
	applog "spendcraft/internal/log"
	"spendcraft/internal/report"
	"spendcraft/internal/services"
)

// ReportSender delivers a rendered report to a destination address.
type ReportSender interface {
	SendReport(ctx context.Context, destination, subject, body, filename string, attachment []byte) error
}

// ReportWorker builds reports on dispatch messages and mails them out.
type ReportWorker struct {
	reports *services.ReportService
	sender  ReportSender
}

func NewReportWorker(reports *services.ReportService, sender ReportSender) *ReportWorker {
	return &ReportWorker{
		reports: reports,
		sender:  sender,
	}
}

// HandleDispatch processes a single report dispatch message from AMQP.
// Any error is returned to the consumer loop so the message gets requeued.
func (w *ReportWorker) HandleDispatch(ctx context.Context, msg *amqp.ReportDispatchMessage) error {
	slog.InfoContext(ctx, "Processing report dispatch",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldOperation, applog.OpDispatch,
		applog.FieldDispatchID, msg.ID,
		applog.FieldDestination, msg.Destination,
		applog.FieldFormat, msg.Format,
		"period_from", msg.PeriodFrom,
		"period_to", msg.PeriodTo)

	format, err := report.ParseFormat(msg.Format)
	if err != nil {
		return fmt.Errorf("parse format: %w", err)
	}

	from, to, err := parsePeriod(msg.PeriodFrom, msg.PeriodTo)
	if err != nil {
		return fmt.Errorf("parse period: %w", err)
	}

	started := time.Now()
	document, err := w.reports.BuildReport(ctx, from, to, format)
	if err != nil {
		return fmt.Errorf("build report: %w", err)
	}

	subject, body := dispatchMail(msg)
	filename := fmt.Sprintf("spending-report-%s.%s", time.Now().Format("2006-01-02"), format)

	if err := w.sender.SendReport(ctx, msg.Destination, subject, body, filename, document); err != nil {
		return fmt.Errorf("deliver report: %w", err)
	}

	slog.InfoContext(ctx, "Report delivered",
		applog.FieldComponent, applog.ComponentWorker,
		applog.FieldDispatchID, msg.ID,
		applog.FieldDestination, msg.Destination,
		applog.FieldFormat, format,
		"bytes", len(document),
		"duration", time.Since(started).Round(time.Millisecond))

	return nil
}

// parsePeriod turns the message's optional date strings into range bounds.
// Empty strings leave the corresponding bound open.
func parsePeriod(fromStr, toStr string) (core.Date, core.Date, error) {
	var from, to core.Date
	var err error

	if fromStr != "" {
		from, err = core.ParseDate(fromStr)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("period_from %q: %w", fromStr, err)
		}
	}
	if toStr != "" {
		to, err = core.ParseDate(toStr)
		if err != nil {
			return core.Date{}, core.Date{}, fmt.Errorf("period_to %q: %w", toStr, err)
		}
	}

	return from, to, nil
}

func dispatchMail(msg *amqp.ReportDispatchMessage) (subject, body string) {
	period := "all recorded spending"
	switch {
	case msg.PeriodFrom != "" && msg.PeriodTo != "":
		period = fmt.Sprintf("%s to %s", msg.PeriodFrom, msg.PeriodTo)
	case msg.PeriodFrom != "":
		period = fmt.Sprintf("%s onwards", msg.PeriodFrom)
	case msg.PeriodTo != "":
		period = fmt.Sprintf("up to %s", msg.PeriodTo)
	}

	subject = fmt.Sprintf("Spending report (%s)", period)
	body = fmt.Sprintf("Your spending report covering %s is attached.\n", period)
	return subject, body
}
