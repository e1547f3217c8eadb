package core

import "github.com/shopspring/decimal"

// Bucket is a derived (window, category) aggregate. It is rebuilt from the
// record store on every query and never persisted.
type Bucket struct {
	// Label is the period key (2024-01-05, 2024-W03, 2024-01) for time
	// groupings, or the category name for category grouping.
	Label string
	// Start is the first day of the window; zero for category buckets.
	Start Date
	Total decimal.Decimal
	Count int
}

// ForecastPoint is one predicted future period total.
type ForecastPoint struct {
	Date      Date
	Predicted decimal.Decimal
}

// BudgetSuggestion proposes a monthly limit for a category.
type BudgetSuggestion struct {
	Category string
	Limit    decimal.Decimal
}

// AnomalyFlag marks a record whose amount deviates from its category history.
type AnomalyFlag struct {
	RecordID int64
	Score    float64
}

// PrioritySplit sums spending by Must/Need/Want tags.
type PrioritySplit struct {
	Must decimal.Decimal
	Need decimal.Decimal
	Want decimal.Decimal
}

// MonthComparison contrasts the two most recent months with history.
type MonthComparison struct {
	Current       decimal.Decimal
	Previous      decimal.Decimal
	ChangePercent float64
}
