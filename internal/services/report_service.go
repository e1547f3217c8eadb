package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"spendcraft/internal/aggregate"
	"spendcraft/internal/core"
	"spendcraft/internal/insight"
	applog "spendcraft/internal/log"
	"spendcraft/internal/report"
	"spendcraft/internal/storage"
)

// ReportService assembles the full reporting pipeline: query, aggregate,
// derive insights, render. Every insight is independently optional — one
// failing only blanks its own section.
type ReportService struct {
	storage *storage.SQLiteRepository
	anomaly insight.AnomalyConfig
	horizon int
}

func NewReportService(st *storage.SQLiteRepository, anomaly insight.AnomalyConfig, horizon int) *ReportService {
	if horizon <= 0 {
		horizon = insight.DefaultHorizon
	}
	return &ReportService{storage: st, anomaly: anomaly, horizon: horizon}
}

// BuildReport renders the document for the given period. Zero dates widen
// the period to all recorded history.
func (s *ReportService) BuildReport(ctx context.Context, from, to core.Date, format report.Format) ([]byte, error) {
	data, err := s.CollectData(ctx, from, to)
	if err != nil {
		return nil, err
	}
	return report.Build(ctx, data, format)
}

// CollectData gathers everything a report presents without rendering it.
func (s *ReportService) CollectData(ctx context.Context, from, to core.Date) (report.Data, error) {
	inRange, err := s.storage.Query(ctx, storage.Filter{From: from, To: to})
	if err != nil {
		return report.Data{}, fmt.Errorf("query records: %w", err)
	}

	data := report.Data{From: from, To: to, RecordCount: len(inRange)}

	total := decimal.Zero
	for _, r := range inRange {
		total = total.Add(r.Amount)
	}
	data.Total = total
	data.Split = aggregate.SplitByPriority(inRange)

	if data.CategoryBuckets, err = aggregate.Summarize(inRange, from, to, aggregate.ByCategory); err != nil {
		return report.Data{}, fmt.Errorf("category summary: %w", err)
	}
	if data.TimeBuckets, err = aggregate.Summarize(inRange, from, to, aggregate.ByMonth); err != nil {
		return report.Data{}, fmt.Errorf("time summary: %w", err)
	}

	// Insights run over full history, not just the report window, so a
	// one-month report still gets a meaningful trend. Each failure is
	// logged and its section left empty.
	history, err := s.storage.Query(ctx, storage.Filter{})
	if err != nil {
		slog.WarnContext(ctx, "Insight input unavailable, sections skipped",
			applog.FieldComponent, applog.ComponentInsight,
			applog.FieldError, err)
		return data, nil
	}

	if points, err := insight.Forecast(history, s.horizon); err != nil {
		slog.InfoContext(ctx, "Forecast unavailable",
			applog.FieldComponent, applog.ComponentInsight, "reason", err)
	} else {
		data.Forecast = points
	}

	if budgets, err := insight.SuggestBudgets(history); err != nil {
		slog.InfoContext(ctx, "Budget suggestions unavailable",
			applog.FieldComponent, applog.ComponentInsight, "reason", err)
	} else {
		data.Budgets = budgets
	}

	data.Anomalies = s.anomaliesIn(inRange, history)
	return data, nil
}

// Forecast exposes the trend extrapolation for direct API use.
func (s *ReportService) Forecast(ctx context.Context, horizon int) ([]core.ForecastPoint, error) {
	history, err := s.storage.Query(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	if horizon <= 0 {
		horizon = s.horizon
	}
	return insight.Forecast(history, horizon)
}

// SuggestBudgets exposes cluster-derived limits for direct API use.
func (s *ReportService) SuggestBudgets(ctx context.Context) ([]core.BudgetSuggestion, error) {
	history, err := s.storage.Query(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return insight.SuggestBudgets(history)
}

// CompareMonths contrasts the two most recent months of spending.
func (s *ReportService) CompareMonths(ctx context.Context) (core.MonthComparison, error) {
	history, err := s.storage.Query(ctx, storage.Filter{})
	if err != nil {
		return core.MonthComparison{}, fmt.Errorf("query history: %w", err)
	}
	return aggregate.CompareMonths(history)
}

// Trend returns the running spending balance across the window.
func (s *ReportService) Trend(ctx context.Context, from, to core.Date) ([]core.Bucket, error) {
	records, err := s.storage.Query(ctx, storage.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return aggregate.CumulativeTrend(records), nil
}

// Anomalies scores each record in the window against full category history.
func (s *ReportService) Anomalies(ctx context.Context, from, to core.Date) ([]core.AnomalyFlag, error) {
	inRange, err := s.storage.Query(ctx, storage.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	history, err := s.storage.Query(ctx, storage.Filter{})
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	return s.anomaliesIn(inRange, history), nil
}

func (s *ReportService) anomaliesIn(candidates, history []core.Record) []core.AnomalyFlag {
	var flags []core.AnomalyFlag
	for _, rec := range candidates {
		if flag := insight.DetectAnomaly(history, rec, s.anomaly); flag != nil {
			flags = append(flags, *flag)
		}
	}
	return flags
}

// Summarize is the raw aggregation endpoint behind charts and dashboards.
func (s *ReportService) Summarize(ctx context.Context, from, to core.Date, groupBy aggregate.GroupBy) ([]core.Bucket, error) {
	records, err := s.storage.Query(ctx, storage.Filter{From: from, To: to})
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	return aggregate.Summarize(records, from, to, groupBy)
}
