package insight

import (
	"fmt"
	"sort"

	"github.com/muesli/clusters"
	"github.com/muesli/kmeans"
	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
)

const (
	// maxBudgetClusters caps the spending-behavior groups k-means forms.
	maxBudgetClusters = 3
	// budgetHeadroom shaves the centroid to a limit slightly under observed
	// behavior, nudging spending down instead of ratifying it.
	budgetHeadroom = 0.9
)

// SuggestBudgets clusters per-category mean monthly totals into spending
// groups and proposes a limit per category from its assigned centroid.
//
// The underlying k-means uses random initialization, so cluster assignment
// can vary run to run; callers needing reproducibility must pin the global
// math/rand seed before calling.
func SuggestBudgets(history []core.Record) ([]core.BudgetSuggestion, error) {
	means := categoryMonthlyMeans(history)
	if len(means) == 0 {
		return nil, fmt.Errorf("suggest budgets: %w", core.ErrInsufficientData)
	}

	categories := make([]string, 0, len(means))
	for c := range means {
		categories = append(categories, c)
	}
	sort.Strings(categories)

	// Too few categories to form groups: suggest straight off the mean.
	if len(categories) < 2 {
		out := make([]core.BudgetSuggestion, 0, len(categories))
		for _, c := range categories {
			out = append(out, core.BudgetSuggestion{
				Category: c,
				Limit:    limitFrom(means[c]),
			})
		}
		return out, nil
	}

	k := maxBudgetClusters
	if len(categories) < k {
		k = len(categories)
	}

	obs := make(clusters.Observations, len(categories))
	for i, c := range categories {
		obs[i] = clusters.Coordinates{means[c]}
	}

	km := kmeans.New()
	cl, err := km.Partition(obs, k)
	if err != nil {
		return nil, fmt.Errorf("cluster category spending: %w", err)
	}

	out := make([]core.BudgetSuggestion, 0, len(categories))
	for i, c := range categories {
		centroid := cl[cl.Nearest(obs[i])].Center
		out = append(out, core.BudgetSuggestion{
			Category: c,
			Limit:    limitFrom(centroid[0]),
		})
	}
	return out, nil
}

// categoryMonthlyMeans averages each category's total over the months it
// actually appears in.
func categoryMonthlyMeans(history []core.Record) map[string]float64 {
	type monthKey struct {
		category string
		month    string
	}
	sums := map[monthKey]decimal.Decimal{}
	for _, r := range history {
		k := monthKey{category: r.Category, month: r.Date.Format("2006-01")}
		sums[k] = sums[k].Add(r.Amount)
	}

	totals := map[string]decimal.Decimal{}
	months := map[string]int{}
	for k, total := range sums {
		totals[k.category] = totals[k.category].Add(total)
		months[k.category]++
	}

	means := make(map[string]float64, len(totals))
	for c, total := range totals {
		means[c] = total.Div(decimal.NewFromInt(int64(months[c]))).InexactFloat64()
	}
	return means
}

func limitFrom(mean float64) decimal.Decimal {
	return decimal.NewFromFloat(mean * budgetHeadroom).Round(2)
}
