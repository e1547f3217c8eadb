package report

import (
	"bytes"
	"errors"
	"fmt"

	chart "github.com/wcharczuk/go-chart/v2"

	"spendcraft/internal/core"
)

var errNoChartData = errors.New("no positive values to plot")

// categoryPieChart renders the category breakdown as a PNG pie chart.
func categoryPieChart(buckets []core.Bucket) ([]byte, error) {
	var values []chart.Value
	for _, b := range buckets {
		if !b.Total.IsPositive() {
			continue
		}
		values = append(values, chart.Value{
			Label: fmt.Sprintf("%s (%s)", b.Label, core.FormatAmount(b.Total)),
			Value: b.Total.InexactFloat64(),
		})
	}
	if len(values) == 0 {
		return nil, errNoChartData
	}

	pie := chart.PieChart{
		Width:  512,
		Height: 512,
		Values: values,
	}

	var buf bytes.Buffer
	if err := pie.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render pie chart: %w", err)
	}
	return buf.Bytes(), nil
}

// timeTrendChart renders per-period totals as a PNG bar chart.
func timeTrendChart(buckets []core.Bucket) ([]byte, error) {
	var (
		bars     []chart.Value
		anyValue bool
	)
	for _, b := range buckets {
		v := b.Total.InexactFloat64()
		if v > 0 {
			anyValue = true
		}
		bars = append(bars, chart.Value{Label: b.Label, Value: v})
	}
	if !anyValue {
		return nil, errNoChartData
	}

	bar := chart.BarChart{
		Width:    1024,
		Height:   400,
		BarWidth: 40,
		Bars:     bars,
	}

	var buf bytes.Buffer
	if err := bar.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("render bar chart: %w", err)
	}
	return buf.Bytes(), nil
}
