// Package aggregate computes time- and category-bucketed summaries from raw
// expense records. Buckets are transient views owned by the caller: nothing
// here caches, so output always reflects the records passed in.
package aggregate

import (
	"errors"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
)

type GroupBy string

const (
	ByDay      GroupBy = "day"
	ByWeek     GroupBy = "week"
	ByMonth    GroupBy = "month"
	ByCategory GroupBy = "category"
)

var ErrInvalidRange = errors.New("invalid date range")

func (g GroupBy) Valid() bool {
	switch g {
	case ByDay, ByWeek, ByMonth, ByCategory:
		return true
	}
	return false
}

// Summarize buckets records between from and to inclusive.
//
// Time groupings return a contiguous chronological sequence covering every
// period in range, zero totals included, so chart axes have no gaps.
// Category grouping returns only categories with records, ordered by
// descending total with name-ascending tie-break. Sums are exact decimal
// additions.
//
// Zero from/to bounds are derived from the records themselves.
func Summarize(records []core.Record, from, to core.Date, groupBy GroupBy) ([]core.Bucket, error) {
	if !groupBy.Valid() {
		return nil, fmt.Errorf("unknown group_by %q", groupBy)
	}

	if from.IsZero() || to.IsZero() {
		lo, hi, ok := dateBounds(records)
		if !ok {
			return nil, nil
		}
		if from.IsZero() {
			from = lo
		}
		if to.IsZero() {
			to = hi
		}
	}
	if to.Before(from.Time) {
		return nil, fmt.Errorf("%w: %s after %s", ErrInvalidRange, from, to)
	}

	in := func(r core.Record) bool {
		return !r.Date.Before(from.Time) && !r.Date.After(to.Time)
	}

	if groupBy == ByCategory {
		return byCategory(records, in), nil
	}
	return byPeriod(records, in, from, to, groupBy), nil
}

func dateBounds(records []core.Record) (lo, hi core.Date, ok bool) {
	for _, r := range records {
		if !ok || r.Date.Before(lo.Time) {
			lo = r.Date
		}
		if !ok || r.Date.After(hi.Time) {
			hi = r.Date
		}
		ok = true
	}
	return lo, hi, ok
}

func byCategory(records []core.Record, in func(core.Record) bool) []core.Bucket {
	sums := map[string]*core.Bucket{}
	for _, r := range records {
		if !in(r) {
			continue
		}
		b, exists := sums[r.Category]
		if !exists {
			b = &core.Bucket{Label: r.Category, Total: decimal.Zero}
			sums[r.Category] = b
		}
		b.Total = b.Total.Add(r.Amount)
		b.Count++
	}

	out := make([]core.Bucket, 0, len(sums))
	for _, b := range sums {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].Total.Cmp(out[j].Total); c != 0 {
			return c > 0
		}
		return out[i].Label < out[j].Label
	})
	return out
}

func byPeriod(records []core.Record, in func(core.Record) bool, from, to core.Date, groupBy GroupBy) []core.Bucket {
	var out []core.Bucket
	index := map[string]int{}

	for start := periodStart(from, groupBy); !start.After(to.Time); start = nextPeriod(start, groupBy) {
		label := periodLabel(start, groupBy)
		index[label] = len(out)
		out = append(out, core.Bucket{Label: label, Start: start, Total: decimal.Zero})
	}

	for _, r := range records {
		if !in(r) {
			continue
		}
		label := periodLabel(periodStart(r.Date, groupBy), groupBy)
		if i, exists := index[label]; exists {
			out[i].Total = out[i].Total.Add(r.Amount)
			out[i].Count++
		}
	}
	return out
}

// periodStart truncates a date to the first day of its period. Weeks start
// on Monday.
func periodStart(d core.Date, groupBy GroupBy) core.Date {
	switch groupBy {
	case ByWeek:
		offset := (int(d.Weekday()) + 6) % 7 // Monday=0
		return core.DateOf(d.AddDate(0, 0, -offset))
	case ByMonth:
		return core.NewDate(d.Year(), int(d.Month()), 1)
	default:
		return d
	}
}

func nextPeriod(d core.Date, groupBy GroupBy) core.Date {
	switch groupBy {
	case ByWeek:
		return core.DateOf(d.AddDate(0, 0, 7))
	case ByMonth:
		return core.DateOf(d.AddDate(0, 1, 0))
	default:
		return core.DateOf(d.AddDate(0, 0, 1))
	}
}

func periodLabel(start core.Date, groupBy GroupBy) string {
	switch groupBy {
	case ByWeek:
		year, week := start.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	case ByMonth:
		return start.Format("2006-01")
	default:
		return start.String()
	}
}

// SplitByPriority sums record amounts into Must/Need/Want pools.
func SplitByPriority(records []core.Record) core.PrioritySplit {
	split := core.PrioritySplit{Must: decimal.Zero, Need: decimal.Zero, Want: decimal.Zero}
	for _, r := range records {
		p := r.Priority
		if p == "" {
			p = core.DefaultPriority(r.Category)
		}
		switch p {
		case core.Must:
			split.Must = split.Must.Add(r.Amount)
		case core.Need:
			split.Need = split.Need.Add(r.Amount)
		default:
			split.Want = split.Want.Add(r.Amount)
		}
	}
	return split
}

// CompareMonths contrasts the two most recent calendar months in the record
// set. Needs at least two months of history.
func CompareMonths(records []core.Record) (core.MonthComparison, error) {
	buckets, err := Summarize(records, core.Date{}, core.Date{}, ByMonth)
	if err != nil {
		return core.MonthComparison{}, err
	}
	if len(buckets) < 2 {
		return core.MonthComparison{}, fmt.Errorf("compare months: %w", core.ErrInsufficientData)
	}

	current := buckets[len(buckets)-1].Total
	previous := buckets[len(buckets)-2].Total
	cmp := core.MonthComparison{Current: current, Previous: previous}
	if !previous.IsZero() {
		cmp.ChangePercent = current.Sub(previous).
			Div(previous).
			Mul(decimal.NewFromInt(100)).
			InexactFloat64()
	}
	return cmp, nil
}

// CumulativeTrend returns the running balance over time, one point per
// distinct record date in chronological order.
func CumulativeTrend(records []core.Record) []core.Bucket {
	sorted := make([]core.Record, len(records))
	copy(sorted, records)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date.Time) })

	var out []core.Bucket
	running := decimal.Zero
	for _, r := range sorted {
		running = running.Add(r.Amount)
		if n := len(out); n > 0 && out[n-1].Label == r.Date.String() {
			out[n-1].Total = running
			out[n-1].Count++
			continue
		}
		out = append(out, core.Bucket{Label: r.Date.String(), Start: r.Date, Total: running, Count: 1})
	}
	return out
}
