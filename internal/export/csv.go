// Package export moves expense records in and out of interchange formats.
// CSV mirrors the record schema column-for-column; XLSX adds the summary
// sheets the reporting side wants.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"spendcraft/internal/core"
)

// csvHeader mirrors the persisted record schema column-for-column.
var csvHeader = []string{"id", "date", "amount", "category", "description", "priority"}

// WriteCSV streams records as CSV: header row first, one row per record,
// amounts at fixed two-decimal precision.
func WriteCSV(w io.Writer, records []core.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, r := range records {
		row := []string{
			strconv.FormatInt(r.ID, 10),
			r.Date.String(),
			core.FormatAmount(r.Amount),
			r.Category,
			r.Description,
			string(r.Priority),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv: %w", err)
	}
	return nil
}

// ReadCSV parses an exported file back into records. IDs are dropped — the
// store reassigns them on insert — and every row is validated, so a bad row
// rejects the whole import before anything is persisted.
func ReadCSV(r io.Reader) ([]core.Record, error) {
	cr := csv.NewReader(r)
	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("read csv header: %w", err)
	}
	cols, err := headerIndex(header)
	if err != nil {
		return nil, err
	}

	var out []core.Record
	line := 1
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read csv line %d: %w", line+1, err)
		}
		line++

		rec, err := recordFromRow(row, cols)
		if err != nil {
			return nil, fmt.Errorf("csv line %d: %w", line, err)
		}
		out = append(out, rec)
	}
	return out, nil
}

func headerIndex(header []string) (map[string]int, error) {
	cols := map[string]int{}
	for i, name := range header {
		cols[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"date", "amount", "category"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("csv missing required column %q", required)
		}
	}
	return cols, nil
}

func recordFromRow(row []string, cols map[string]int) (core.Record, error) {
	field := func(name string) string {
		i, ok := cols[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	date, err := core.ParseDate(field("date"))
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "date", Err: err}
	}
	amount, err := core.ParseAmount(field("amount"))
	if err != nil {
		return core.Record{}, &core.ValidationError{Field: "amount", Err: err}
	}

	rec := core.Record{
		Date:        date,
		Amount:      amount,
		Category:    field("category"),
		Description: field("description"),
		Priority:    core.Priority(field("priority")),
	}.Normalize()

	if err := rec.Validate(); err != nil {
		return core.Record{}, err
	}
	return rec, nil
}
