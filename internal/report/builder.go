// Package report renders aggregate buckets and insights into paginated
// PDF or HTML documents. The section order is fixed: summary totals,
// category breakdown chart, time trend chart, insight highlights. A section
// that cannot render degrades to a placeholder — a partial report beats no
// report.
package report

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
	applog "spendcraft/internal/log"
)

type Format string

const (
	FormatPDF  Format = "pdf"
	FormatHTML Format = "html"
)

func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatPDF, FormatHTML:
		return Format(s), nil
	case "":
		return FormatPDF, nil
	}
	return "", fmt.Errorf("unknown report format %q", s)
}

// Data carries everything a report presents. Insight slices may be nil;
// the corresponding highlight degrades to a "not enough data yet" line.
type Data struct {
	From core.Date
	To   core.Date

	Total       decimal.Decimal
	RecordCount int
	Split       core.PrioritySplit

	CategoryBuckets []core.Bucket
	TimeBuckets     []core.Bucket

	Forecast  []core.ForecastPoint
	Budgets   []core.BudgetSuggestion
	Anomalies []core.AnomalyFlag
}

// sections is the assembled intermediate form both renderers consume.
type sections struct {
	data Data

	// nil chart bytes mean the section degraded; the matching RenderError
	// explains why.
	pieChart []byte
	barChart []byte
	failures []*core.RenderError
}

// Build renders the document. The context is honored between discrete
// stages (after each chart render), never mid-stage.
func Build(ctx context.Context, d Data, format Format) ([]byte, error) {
	s := sections{data: d}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pie, err := categoryPieChart(d.CategoryBuckets)
	if err != nil {
		rerr := &core.RenderError{Section: "category breakdown", Err: err}
		slog.WarnContext(ctx, "Report section degraded to placeholder",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldOperation, applog.OpRender,
			"section", rerr.Section,
			applog.FieldError, err)
		s.failures = append(s.failures, rerr)
	} else {
		s.pieChart = pie
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	bar, err := timeTrendChart(d.TimeBuckets)
	if err != nil {
		rerr := &core.RenderError{Section: "time trend", Err: err}
		slog.WarnContext(ctx, "Report section degraded to placeholder",
			applog.FieldComponent, applog.ComponentReport,
			applog.FieldOperation, applog.OpRender,
			"section", rerr.Section,
			applog.FieldError, err)
		s.failures = append(s.failures, rerr)
	} else {
		s.barChart = bar
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	switch format {
	case FormatPDF:
		return renderPDF(s)
	case FormatHTML:
		return renderHTML(s)
	}
	return nil, fmt.Errorf("unknown report format %q", format)
}

const placeholderText = "Chart unavailable for this period."

func (s sections) rangeLabel() string {
	if s.data.From.IsZero() && s.data.To.IsZero() {
		return "all recorded history"
	}
	return fmt.Sprintf("%s to %s", s.data.From, s.data.To)
}
