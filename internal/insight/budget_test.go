package insight

import (
	"errors"
	"testing"

	"spendcraft/internal/core"
)

func TestSuggestBudgetsEmptyHistory(t *testing.T) {
	_, err := SuggestBudgets(nil)
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData, got %v", err)
	}
}

func TestSuggestBudgetsSingleCategory(t *testing.T) {
	history := []core.Record{
		rec(core.NewDate(2024, 1, 5), "100.00", "Food"),
		rec(core.NewDate(2024, 2, 5), "200.00", "Food"),
	}
	suggestions, err := SuggestBudgets(history)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 1 {
		t.Fatalf("expected 1 suggestion, got %d", len(suggestions))
	}
	// Mean monthly 150.00, limit 90% of that.
	if suggestions[0].Limit.StringFixed(2) != "135.00" {
		t.Fatalf("expected 135.00, got %s", suggestions[0].Limit.StringFixed(2))
	}
}

func TestSuggestBudgetsCoversEveryCategory(t *testing.T) {
	history := []core.Record{
		rec(core.NewDate(2024, 1, 1), "800.00", "Housing"),
		rec(core.NewDate(2024, 2, 1), "820.00", "Housing"),
		rec(core.NewDate(2024, 1, 3), "120.00", "Food"),
		rec(core.NewDate(2024, 2, 3), "140.00", "Food"),
		rec(core.NewDate(2024, 1, 9), "30.00", "Entertainment"),
		rec(core.NewDate(2024, 2, 9), "40.00", "Entertainment"),
		rec(core.NewDate(2024, 1, 15), "25.00", "Transport"),
	}
	suggestions, err := SuggestBudgets(history)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if len(suggestions) != 4 {
		t.Fatalf("expected 4 suggestions, got %d", len(suggestions))
	}
	seen := map[string]core.BudgetSuggestion{}
	for _, s := range suggestions {
		if !s.Limit.IsPositive() {
			t.Fatalf("%s limit should be positive, got %s", s.Category, s.Limit)
		}
		seen[s.Category] = s
	}
	for _, c := range []string{"Housing", "Food", "Entertainment", "Transport"} {
		if _, ok := seen[c]; !ok {
			t.Fatalf("missing suggestion for %s", c)
		}
	}
	// Suggestions are sorted by category name.
	if suggestions[0].Category != "Entertainment" {
		t.Fatalf("expected name-sorted output, first was %s", suggestions[0].Category)
	}
}

func TestCategoryMonthlyMeans(t *testing.T) {
	history := []core.Record{
		rec(core.NewDate(2024, 1, 1), "10.00", "Food"),
		rec(core.NewDate(2024, 1, 20), "20.00", "Food"),
		rec(core.NewDate(2024, 3, 1), "60.00", "Food"),
	}
	means := categoryMonthlyMeans(history)
	// Two active months: (30 + 60) / 2.
	if got := means["Food"]; got < 44.9 || got > 45.1 {
		t.Fatalf("expected mean ~45, got %f", got)
	}
}
