package report

import (
	"bytes"
	"fmt"

	"github.com/go-pdf/fpdf"

	"spendcraft/internal/core"
)

func renderPDF(s sections) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Expense Report", false)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 18)
	pdf.CellFormat(0, 12, "Expense Report", "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.CellFormat(0, 6, s.rangeLabel(), "", 1, "C", false, 0, "")
	pdf.Ln(4)

	// Section 1: summary totals.
	pdfHeading(pdf, "Summary")
	pdf.SetFont("Helvetica", "", 11)
	pdfKeyValue(pdf, "Total spent", core.FormatAmount(s.data.Total))
	pdfKeyValue(pdf, "Records", fmt.Sprintf("%d", s.data.RecordCount))
	pdfKeyValue(pdf, "Must / Need / Want", fmt.Sprintf("%s / %s / %s",
		core.FormatAmount(s.data.Split.Must),
		core.FormatAmount(s.data.Split.Need),
		core.FormatAmount(s.data.Split.Want)))
	pdf.Ln(4)

	// Section 2: category breakdown chart.
	pdfHeading(pdf, "Spending by Category")
	pdfChart(pdf, "pie", s.pieChart, 110)

	// Section 3: time trend chart.
	pdf.AddPage()
	pdfHeading(pdf, "Spending Over Time")
	pdfChart(pdf, "bar", s.barChart, 180)
	pdf.Ln(4)

	// Section 4: insight highlights.
	pdfHeading(pdf, "Insights")
	pdf.SetFont("Helvetica", "", 11)

	if len(s.data.Forecast) > 0 {
		pdfKeyValue(pdf, "Forecast", "")
		for _, p := range s.data.Forecast {
			pdfKeyValue(pdf, "  "+p.Date.Format("2006-01"), core.FormatAmount(p.Predicted))
		}
	} else {
		pdfKeyValue(pdf, "Forecast", "not enough data yet")
	}

	if len(s.data.Budgets) > 0 {
		pdfKeyValue(pdf, "Suggested budgets", "")
		for _, b := range s.data.Budgets {
			pdfKeyValue(pdf, "  "+b.Category, core.FormatAmount(b.Limit))
		}
	} else {
		pdfKeyValue(pdf, "Suggested budgets", "not enough data yet")
	}

	if len(s.data.Anomalies) > 0 {
		pdfKeyValue(pdf, "Anomalous records", "")
		for _, a := range s.data.Anomalies {
			pdfKeyValue(pdf, fmt.Sprintf("  record #%d", a.RecordID), fmt.Sprintf("deviation %.2f", a.Score))
		}
	} else {
		pdfKeyValue(pdf, "Anomalous records", "none flagged")
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("write pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func pdfHeading(pdf *fpdf.Fpdf, text string) {
	pdf.SetFont("Helvetica", "B", 14)
	pdf.CellFormat(0, 10, text, "", 1, "L", false, 0, "")
}

func pdfKeyValue(pdf *fpdf.Fpdf, key, value string) {
	pdf.CellFormat(70, 7, key, "", 0, "L", false, 0, "")
	pdf.CellFormat(0, 7, value, "", 1, "L", false, 0, "")
}

// pdfChart embeds a rendered PNG, or the placeholder line when the chart
// failed to render.
func pdfChart(pdf *fpdf.Fpdf, name string, png []byte, width float64) {
	if png == nil {
		pdf.SetFont("Helvetica", "I", 11)
		pdf.CellFormat(0, 8, placeholderText, "", 1, "L", false, 0, "")
		return
	}
	opts := fpdf.ImageOptions{ImageType: "PNG"}
	pdf.RegisterImageOptionsReader(name, opts, bytes.NewReader(png))
	pdf.ImageOptions(name, (210-width)/2, pdf.GetY(), width, 0, true, opts, 0, "")
}
