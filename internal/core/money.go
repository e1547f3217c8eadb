// Package core provides money parsing and handling utilities.
//
// Amounts are held as exact decimals in a single normalized currency.
// Floating point never enters summation paths, only chart rendering.
package core

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount converts a user-entered amount to an exact decimal rounded
// half-up to two places. Both dot (12.34) and comma (12,34) separators are
// accepted. Negative amounts are rejected.
//
// Examples:
//
//	ParseAmount("12.34")  -> 12.34
//	ParseAmount("12,34")  -> 12.34
//	ParseAmount("12.345") -> 12.35  (half-up)
//	ParseAmount("-1")     -> error
func ParseAmount(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return decimal.Zero, ErrInvalidAmount
	}
	// Normalize decimal comma to dot
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, ErrInvalidAmount
	}
	if d.IsNegative() {
		return decimal.Zero, ErrInvalidAmount
	}
	return d.Round(2), nil
}

// FormatAmount renders an amount with the fixed two-decimal precision used
// by exports and reports.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}
