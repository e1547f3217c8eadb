// Package insight derives forecasts, budget suggestions and anomaly flags
// from expense history. Every function is stateless: the record set goes in,
// the insight comes out, nothing is retained between calls. Each insight is
// independently optional to callers — a failed one never blocks the others.
package insight

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gonum.org/v1/gonum/stat"

	"spendcraft/internal/aggregate"
	"spendcraft/internal/core"
)

const (
	// DefaultHorizon is how many future months a forecast predicts.
	DefaultHorizon = 3
	// MinForecastPeriods is the least history a trend line needs. One point
	// has no direction and two barely have one.
	MinForecastPeriods = 3
)

// Forecast fits a least-squares trend line to monthly totals and
// extrapolates horizon future months. Under MinForecastPeriods of history,
// or on a flat zero-variance series, it returns ErrInsufficientData —
// callers surface "not enough data yet" instead of a fabricated trend.
// Negative extrapolations clamp to zero, spending cannot go below nothing.
func Forecast(history []core.Record, horizon int) ([]core.ForecastPoint, error) {
	if horizon <= 0 {
		horizon = DefaultHorizon
	}

	monthly, err := aggregate.Summarize(history, core.Date{}, core.Date{}, aggregate.ByMonth)
	if err != nil {
		return nil, fmt.Errorf("aggregate monthly totals: %w", err)
	}
	if len(monthly) < MinForecastPeriods {
		return nil, fmt.Errorf("forecast needs %d periods, have %d: %w",
			MinForecastPeriods, len(monthly), core.ErrInsufficientData)
	}

	xs := make([]float64, len(monthly))
	ys := make([]float64, len(monthly))
	flat := true
	for i, b := range monthly {
		xs[i] = float64(i)
		ys[i] = b.Total.InexactFloat64()
		if i > 0 && ys[i] != ys[0] {
			flat = false
		}
	}
	if flat {
		return nil, fmt.Errorf("zero-variance series: %w", core.ErrInsufficientData)
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)

	last := monthly[len(monthly)-1].Start
	points := make([]core.ForecastPoint, 0, horizon)
	for i := 1; i <= horizon; i++ {
		predicted := alpha + beta*float64(len(monthly)-1+i)
		if predicted < 0 {
			predicted = 0
		}
		points = append(points, core.ForecastPoint{
			Date:      core.DateOf(last.AddDate(0, i, 0)),
			Predicted: decimal.NewFromFloat(predicted).Round(2),
		})
	}
	return points, nil
}
