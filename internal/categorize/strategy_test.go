package categorize

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestRulesCategorize(t *testing.T) {
	r := NewRules()
	cases := []struct {
		desc string
		want string
	}{
		{"Lunch at the cafe", "Food"},
		{"Uber ride to the airport", "Transport"},
		{"Monthly rent for apartment", "Housing"},
		{"Electricity bill payment", "Utilities"},
		{"Visit to the doctor for a checkup", "Healthcare"},
		{"Shopping at the mall", "Shopping"},
		{"Car insurance premium", "Insurance"},
		{"something entirely unrelated", Fallback},
		{"", Fallback},
	}
	for _, tc := range cases {
		if got := r.Categorize(tc.desc, decimal.Zero); got != tc.want {
			t.Fatalf("%q expected %s, got %s", tc.desc, tc.want, got)
		}
	}
}

func TestRulesLongestKeywordWins(t *testing.T) {
	r := NewRulesWithTable(map[string][]string{
		"Utilities": {"gas"},
		"Transport": {"gas station"},
	})
	if got := r.Categorize("gas station fill-up", decimal.Zero); got != "Transport" {
		t.Fatalf("longer keyword should win, got %s", got)
	}
	if got := r.Categorize("gas bill", decimal.Zero); got != "Utilities" {
		t.Fatalf("expected Utilities, got %s", got)
	}
}

func TestRulesDeterministicTieBreak(t *testing.T) {
	r := NewRulesWithTable(map[string][]string{
		"Bravo": {"abc"},
		"Alpha": {"xyz"},
	})
	// Same-length keywords both present: first category in name order wins.
	for i := 0; i < 10; i++ {
		if got := r.Categorize("abc xyz", decimal.Zero); got != "Alpha" {
			t.Fatalf("tie-break should pick Alpha, got %s", got)
		}
	}
}
