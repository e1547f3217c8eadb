package core

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Must Priority = "must"
	Need Priority = "need"
	Want Priority = "want"
)

type (
	// Priority classifies how discretionary a spend is.
	Priority string

	// Record is a single logged expense transaction.
	Record struct {
		ID          int64
		Date        Date
		Amount      decimal.Decimal
		Category    string
		Description string
		Priority    Priority
	}

	Date struct {
		time.Time
	}
)

var (
	ErrNotFound         = errors.New("record not found")
	ErrInsufficientData = errors.New("insufficient historical data")

	ErrInvalidAmount   = errors.New("invalid amount")
	ErrInvalidDate     = errors.New("invalid date")
	ErrEmptyCategory   = errors.New("empty category")
	ErrInvalidPriority = errors.New("invalid priority")
)

// ValidationError marks a record rejected before it reaches storage.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// RenderError marks a report section that could not be produced.
type RenderError struct {
	Section string
	Err     error
}

func (e *RenderError) Error() string {
	return fmt.Sprintf("render section %q: %v", e.Section, e.Err)
}

func (e *RenderError) Unwrap() error { return e.Err }

// Categories is the default label set. Records may carry labels outside this
// set; summaries treat any label as its own bucket.
var Categories = []string{
	"Food", "Transport", "Housing", "Utilities", "Entertainment",
	"Healthcare", "Education", "Shopping", "Insurance", "Other",
}

// defaultPriorities maps each default category to its priority tag.
var defaultPriorities = map[string]Priority{
	"Housing":       Must,
	"Utilities":     Must,
	"Food":          Must,
	"Transport":     Must,
	"Healthcare":    Need,
	"Insurance":     Need,
	"Education":     Need,
	"Entertainment": Want,
	"Shopping":      Want,
	"Other":         Want,
}

// DefaultPriority returns the priority tag carried by a category label.
// Unknown categories default to Want.
func DefaultPriority(category string) Priority {
	if p, ok := defaultPriorities[category]; ok {
		return p
	}
	return Want
}

func (p Priority) Valid() bool {
	switch p {
	case Must, Need, Want:
		return true
	}
	return false
}

// NewDate builds a calendar date pinned to UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates a timestamp to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	return d.Format("2006-01-02")
}

// ParseDate parses the canonical YYYY-MM-DD form.
func ParseDate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// Validate rejects malformed records. A zero amount is legal (comped or
// refunded spends); a negative one is not. Back-dated entries are allowed.
func (r Record) Validate() error {
	if err := r.Date.Validate(); err != nil {
		return &ValidationError{Field: "date", Err: err}
	}
	if r.Amount.IsNegative() {
		return &ValidationError{Field: "amount", Err: ErrInvalidAmount}
	}
	if strings.TrimSpace(r.Category) == "" {
		return &ValidationError{Field: "category", Err: ErrEmptyCategory}
	}
	if len(r.Description) > 200 {
		return &ValidationError{Field: "description", Err: errors.New("description too long (max 200 characters)")}
	}
	if r.Priority != "" && !r.Priority.Valid() {
		return &ValidationError{Field: "priority", Err: ErrInvalidPriority}
	}
	return nil
}

// Normalize fills derivable fields: a missing priority comes from the
// category's default tag.
func (r Record) Normalize() Record {
	if r.Priority == "" {
		r.Priority = DefaultPriority(r.Category)
	}
	r.Category = strings.TrimSpace(r.Category)
	r.Description = strings.TrimSpace(r.Description)
	return r
}
