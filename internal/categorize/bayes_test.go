package categorize

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
)

func labeled(desc, category string) core.Record {
	return core.Record{
		Date:        core.NewDate(2024, 1, 1),
		Amount:      decimal.NewFromInt(10),
		Category:    category,
		Description: desc,
	}
}

func trainingHistory() []core.Record {
	return []core.Record{
		labeled("lunch at pasta place", "Food"),
		labeled("dinner sushi takeout", "Food"),
		labeled("weekly grocery run", "Food"),
		labeled("metro card top up", "Transport"),
		labeled("taxi from airport", "Transport"),
		labeled("monthly train pass", "Transport"),
	}
}

func TestBayesColdStartFallsBack(t *testing.T) {
	b := NewBayes(25, NewRules())
	err := b.Retrain(context.Background(), trainingHistory())
	if !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("expected ErrInsufficientData below minimum, got %v", err)
	}
	if b.Trained() {
		t.Fatal("classifier should not be trained")
	}
	// Fallback rules still answer.
	if got := b.Categorize("uber ride downtown", decimal.Zero); got != "Transport" {
		t.Fatalf("fallback expected Transport, got %s", got)
	}
}

func TestBayesRetrainAndClassify(t *testing.T) {
	b := NewBayes(4, NewRules())
	if err := b.Retrain(context.Background(), trainingHistory()); err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if !b.Trained() {
		t.Fatal("classifier should be trained")
	}

	cases := []struct {
		desc string
		want string
	}{
		{"sushi dinner with friends", "Food"},
		{"taxi to the station", "Transport"},
	}
	for _, tc := range cases {
		if got := b.Categorize(tc.desc, decimal.Zero); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.desc, tc.want, got)
		}
	}
}

func TestBayesSingleCategoryFallsBack(t *testing.T) {
	b := NewBayes(2, NewRules())
	history := []core.Record{
		labeled("lunch one", "Food"),
		labeled("lunch two", "Food"),
		labeled("lunch three", "Food"),
	}
	if err := b.Retrain(context.Background(), history); !errors.Is(err, core.ErrInsufficientData) {
		t.Fatalf("one class cannot train, got %v", err)
	}
}

func TestBayesEmptyDescriptionUsesFallback(t *testing.T) {
	b := NewBayes(4, NewRules())
	if err := b.Retrain(context.Background(), trainingHistory()); err != nil {
		t.Fatalf("retrain: %v", err)
	}
	if got := b.Categorize("   ", decimal.Zero); got != Fallback {
		t.Fatalf("expected fallback label, got %s", got)
	}
}
