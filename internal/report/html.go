package report

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"

	"spendcraft/internal/core"
)

var htmlTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Expense Report</title>
<style>
body { font-family: sans-serif; margin: 2em auto; max-width: 900px; color: #2c3e50; }
h1 { text-align: center; }
h2 { border-bottom: 1px solid #bdc3c7; padding-bottom: 4px; }
table { border-collapse: collapse; }
td, th { padding: 4px 12px; text-align: left; }
.placeholder { color: #7f8c8d; font-style: italic; }
.chart { text-align: center; }
</style>
</head>
<body>
<h1>Expense Report</h1>
<p style="text-align:center">{{.Range}}</p>

<h2>Summary</h2>
<table>
<tr><td>Total spent</td><td>{{.Total}}</td></tr>
<tr><td>Records</td><td>{{.RecordCount}}</td></tr>
<tr><td>Must / Need / Want</td><td>{{.Must}} / {{.Need}} / {{.Want}}</td></tr>
</table>

<h2>Spending by Category</h2>
{{if .PieChart}}<div class="chart"><img src="{{.PieChart}}" width="400" alt="category breakdown"></div>
{{else}}<p class="placeholder">{{.Placeholder}}</p>{{end}}

<h2>Spending Over Time</h2>
{{if .BarChart}}<div class="chart"><img src="{{.BarChart}}" width="800" alt="time trend"></div>
{{else}}<p class="placeholder">{{.Placeholder}}</p>{{end}}

<h2>Insights</h2>
<h3>Forecast</h3>
{{if .Forecast}}<table>{{range .Forecast}}<tr><td>{{.Period}}</td><td>{{.Amount}}</td></tr>{{end}}</table>
{{else}}<p class="placeholder">Not enough data yet.</p>{{end}}
<h3>Suggested budgets</h3>
{{if .Budgets}}<table>{{range .Budgets}}<tr><td>{{.Category}}</td><td>{{.Limit}}</td></tr>{{end}}</table>
{{else}}<p class="placeholder">Not enough data yet.</p>{{end}}
<h3>Anomalous records</h3>
{{if .Anomalies}}<table>{{range .Anomalies}}<tr><td>record #{{.RecordID}}</td><td>deviation {{printf "%.2f" .Score}}</td></tr>{{end}}</table>
{{else}}<p>None flagged.</p>{{end}}
</body>
</html>
`))

type htmlForecastRow struct {
	Period string
	Amount string
}

type htmlBudgetRow struct {
	Category string
	Limit    string
}

type htmlData struct {
	Range       string
	Total       string
	RecordCount int
	Must, Need  string
	Want        string
	PieChart    template.URL
	BarChart    template.URL
	Placeholder string
	Forecast    []htmlForecastRow
	Budgets     []htmlBudgetRow
	Anomalies   []core.AnomalyFlag
}

func renderHTML(s sections) ([]byte, error) {
	d := htmlData{
		Range:       s.rangeLabel(),
		Total:       core.FormatAmount(s.data.Total),
		RecordCount: s.data.RecordCount,
		Must:        core.FormatAmount(s.data.Split.Must),
		Need:        core.FormatAmount(s.data.Split.Need),
		Want:        core.FormatAmount(s.data.Split.Want),
		Placeholder: placeholderText,
		Anomalies:   s.data.Anomalies,
	}
	if s.pieChart != nil {
		d.PieChart = inlinePNG(s.pieChart)
	}
	if s.barChart != nil {
		d.BarChart = inlinePNG(s.barChart)
	}
	for _, p := range s.data.Forecast {
		d.Forecast = append(d.Forecast, htmlForecastRow{
			Period: p.Date.Format("2006-01"),
			Amount: core.FormatAmount(p.Predicted),
		})
	}
	for _, b := range s.data.Budgets {
		d.Budgets = append(d.Budgets, htmlBudgetRow{
			Category: b.Category,
			Limit:    core.FormatAmount(b.Limit),
		})
	}

	var buf bytes.Buffer
	if err := htmlTemplate.Execute(&buf, d); err != nil {
		return nil, fmt.Errorf("execute report template: %w", err)
	}
	return buf.Bytes(), nil
}

// inlinePNG embeds chart bytes as a data URI so the document stays a single
// self-contained file.
func inlinePNG(png []byte) template.URL {
	return template.URL("data:image/png;base64," + base64.StdEncoding.EncodeToString(png))
}
