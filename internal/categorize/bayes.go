package categorize

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/jbrukh/bayesian"
	"github.com/shopspring/decimal"

	"spendcraft/internal/core"
	applog "spendcraft/internal/log"
)

// DefaultMinTrainingRecords is the cold-start cutoff: below it the learned
// strategy defers to its fallback instead of guessing from a thin corpus.
const DefaultMinTrainingRecords = 25

// Bayes is a TF-IDF naive Bayes classifier over description terms. Training
// is explicit: inserts stay O(1) and the model only moves when Retrain is
// called.
type Bayes struct {
	mu       sync.RWMutex
	clf      *bayesian.Classifier
	classes  []bayesian.Class
	fallback Strategy
	minDocs  int
}

func NewBayes(minDocs int, fallback Strategy) *Bayes {
	if minDocs <= 0 {
		minDocs = DefaultMinTrainingRecords
	}
	if fallback == nil {
		fallback = NewRules()
	}
	return &Bayes{fallback: fallback, minDocs: minDocs}
}

// Retrain rebuilds the classifier from labeled history. With fewer than
// minDocs labeled records, or fewer than two distinct categories, the old
// model is dropped and Categorize falls back to rules until enough history
// accumulates.
func (b *Bayes) Retrain(ctx context.Context, history []core.Record) error {
	type doc struct {
		terms []string
		class bayesian.Class
	}

	var docs []doc
	seen := map[string]bool{}
	for _, rec := range history {
		terms := tokenize(rec.Description)
		if len(terms) == 0 || rec.Category == "" {
			continue
		}
		docs = append(docs, doc{terms: terms, class: bayesian.Class(rec.Category)})
		seen[rec.Category] = true
	}

	if len(docs) < b.minDocs || len(seen) < 2 {
		b.mu.Lock()
		b.clf = nil
		b.classes = nil
		b.mu.Unlock()
		slog.InfoContext(ctx, "Classifier not trained, falling back to rules",
			applog.FieldComponent, applog.ComponentCategorizer,
			"labeled_records", len(docs),
			"categories", len(seen),
			"min_required", b.minDocs)
		return fmt.Errorf("train classifier: %w", core.ErrInsufficientData)
	}

	classes := make([]bayesian.Class, 0, len(seen))
	for c := range seen {
		classes = append(classes, bayesian.Class(c))
	}

	clf := bayesian.NewClassifierTfIdf(classes...)
	for _, d := range docs {
		clf.Learn(d.terms, d.class)
	}
	clf.ConvertTermsFreqToTfIdf()

	b.mu.Lock()
	b.clf = clf
	b.classes = classes
	b.mu.Unlock()

	slog.InfoContext(ctx, "Classifier retrained",
		applog.FieldComponent, applog.ComponentCategorizer,
		applog.FieldOperation, applog.OpRetrain,
		"labeled_records", len(docs),
		"categories", len(classes))
	return nil
}

// Trained reports whether a usable model is loaded.
func (b *Bayes) Trained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.clf != nil
}

// Categorize returns the highest-posterior category, or defers to the
// fallback strategy when untrained or when the description carries no terms.
func (b *Bayes) Categorize(description string, amount decimal.Decimal) string {
	b.mu.RLock()
	clf, classes := b.clf, b.classes
	b.mu.RUnlock()

	terms := tokenize(description)
	if clf == nil || len(terms) == 0 {
		return b.fallback.Categorize(description, amount)
	}

	_, inx, _ := clf.LogScores(terms)
	if inx < 0 || inx >= len(classes) {
		return b.fallback.Categorize(description, amount)
	}
	return string(classes[inx])
}

func tokenize(s string) []string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Fields(b.String())
}
