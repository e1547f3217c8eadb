// Package categorize assigns category labels to expense descriptions.
//
// Two interchangeable strategies exist: a deterministic keyword table and a
// naive Bayes classifier trained on the ledger's own history. Callers hold a
// Strategy and never branch on which one is behind it.
package categorize

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"
)

// Fallback is returned when no strategy can produce a label.
const Fallback = "Other"

type Strategy interface {
	Categorize(description string, amount decimal.Decimal) string
}

// Rules matches descriptions against a static keyword table. It always
// succeeds: unmatched descriptions get the Fallback label.
type Rules struct {
	keywords map[string][]string
}

// defaultKeywords associates each category with trigger words.
var defaultKeywords = map[string][]string{
	"Food":          {"restaurant", "dinner", "lunch", "cafe", "meal", "snack", "food", "breakfast", "grocery"},
	"Transport":     {"uber", "taxi", "bus", "train", "ride", "metro", "travel", "commute", "fuel"},
	"Housing":       {"rent", "apartment", "housing", "mortgage", "lease", "property"},
	"Utilities":     {"electricity", "water", "utility", "bill", "internet", "gas"},
	"Entertainment": {"movie", "theater", "concert", "event", "show", "entertainment"},
	"Healthcare":    {"health", "clinic", "doctor", "hospital", "pharmacy", "medicine"},
	"Education":     {"education", "tuition", "school", "books", "courses"},
	"Shopping":      {"shopping", "clothes", "electronics", "store", "mall", "purchase"},
	"Insurance":     {"insurance", "premium", "policy"},
}

func NewRules() *Rules {
	return &Rules{keywords: defaultKeywords}
}

// NewRulesWithTable builds a rule strategy over a caller-supplied table,
// mainly for tests and user-extended category sets.
func NewRulesWithTable(table map[string][]string) *Rules {
	return &Rules{keywords: table}
}

// Categorize picks the category owning the longest keyword found in the
// description. Ties break on category name so the result is stable.
func (r *Rules) Categorize(description string, _ decimal.Decimal) string {
	desc := strings.ToLower(description)
	if strings.TrimSpace(desc) == "" {
		return Fallback
	}

	best := Fallback
	bestLen := 0
	cats := make([]string, 0, len(r.keywords))
	for c := range r.keywords {
		cats = append(cats, c)
	}
	sort.Strings(cats)

	for _, cat := range cats {
		for _, kw := range r.keywords[cat] {
			if len(kw) > bestLen && strings.Contains(desc, kw) {
				best = cat
				bestLen = len(kw)
			}
		}
	}
	return best
}
