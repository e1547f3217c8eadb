package export

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"spendcraft/internal/aggregate"
	"spendcraft/internal/core"
)

const expensesSheet = "Expenses"

// WriteXLSX produces a workbook with the full record sheet plus monthly,
// weekly and yearly summary sheets. Numeric content matches the CSV export
// column-for-column.
func WriteXLSX(w io.Writer, records []core.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", expensesSheet); err != nil {
		return fmt.Errorf("name expenses sheet: %w", err)
	}

	for i, name := range csvHeader {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return fmt.Errorf("header cell: %w", err)
		}
		if err := f.SetCellValue(expensesSheet, cell, name); err != nil {
			return fmt.Errorf("write header: %w", err)
		}
	}

	for ri, r := range records {
		row := []any{
			r.ID,
			r.Date.String(),
			core.FormatAmount(r.Amount),
			r.Category,
			r.Description,
			string(r.Priority),
		}
		for ci, v := range row {
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return fmt.Errorf("record cell: %w", err)
			}
			if err := f.SetCellValue(expensesSheet, cell, v); err != nil {
				return fmt.Errorf("write record row %d: %w", ri+1, err)
			}
		}
	}

	summaries := []struct {
		sheet   string
		groupBy aggregate.GroupBy
	}{
		{"Monthly Summary", aggregate.ByMonth},
		{"Weekly Summary", aggregate.ByWeek},
		{"Yearly Summary", aggregate.ByMonth}, // rolled up below
	}
	for _, s := range summaries {
		if err := addSummarySheet(f, s.sheet, s.groupBy, records); err != nil {
			return err
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func addSummarySheet(f *excelize.File, sheet string, groupBy aggregate.GroupBy, records []core.Record) error {
	buckets, err := aggregate.Summarize(records, core.Date{}, core.Date{}, groupBy)
	if err != nil {
		return fmt.Errorf("summarize for %s: %w", sheet, err)
	}
	if sheet == "Yearly Summary" {
		buckets = rollUpYears(buckets)
	}

	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("create sheet %s: %w", sheet, err)
	}
	if err := f.SetCellValue(sheet, "A1", "period"); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	if err := f.SetCellValue(sheet, "B1", "total"); err != nil {
		return fmt.Errorf("write %s header: %w", sheet, err)
	}
	for i, b := range buckets {
		row := strconv.Itoa(i + 2)
		if err := f.SetCellValue(sheet, "A"+row, b.Label); err != nil {
			return fmt.Errorf("write %s row: %w", sheet, err)
		}
		if err := f.SetCellValue(sheet, "B"+row, core.FormatAmount(b.Total)); err != nil {
			return fmt.Errorf("write %s row: %w", sheet, err)
		}
	}
	return nil
}

// rollUpYears folds monthly buckets into per-year totals.
func rollUpYears(monthly []core.Bucket) []core.Bucket {
	var out []core.Bucket
	for _, b := range monthly {
		year := b.Label[:4]
		if n := len(out); n > 0 && out[n-1].Label == year {
			out[n-1].Total = out[n-1].Total.Add(b.Total)
			out[n-1].Count += b.Count
			continue
		}
		out = append(out, core.Bucket{Label: year, Start: b.Start, Total: b.Total, Count: b.Count})
	}
	return out
}
