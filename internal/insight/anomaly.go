package insight

import (
	"gonum.org/v1/gonum/stat"

	"spendcraft/internal/core"
)

const (
	// DefaultAnomalyThreshold is the z-score past which an amount is
	// flagged, matching the classic mean + 2 sigma rule.
	DefaultAnomalyThreshold = 2.0
	// minAnomalySamples is the least history needed to judge at all.
	minAnomalySamples = 2
)

// AnomalyConfig tunes detection. The zero value means defaults.
type AnomalyConfig struct {
	Threshold float64
}

// DetectAnomaly scores a candidate record against the amount distribution
// of its own category. It fails open: with no history, too little history,
// or zero variance, it returns nil rather than an error — absence of history
// is "cannot judge yet", not a failure.
func DetectAnomaly(history []core.Record, candidate core.Record, cfg AnomalyConfig) *core.AnomalyFlag {
	threshold := cfg.Threshold
	if threshold <= 0 {
		threshold = DefaultAnomalyThreshold
	}

	var amounts []float64
	for _, r := range history {
		if r.Category != candidate.Category || r.ID == candidate.ID {
			continue
		}
		amounts = append(amounts, r.Amount.InexactFloat64())
	}
	if len(amounts) < minAnomalySamples {
		return nil
	}

	mean, std := stat.MeanStdDev(amounts, nil)
	if std == 0 {
		return nil
	}

	score := (candidate.Amount.InexactFloat64() - mean) / std
	if score <= threshold {
		return nil
	}
	return &core.AnomalyFlag{RecordID: candidate.ID, Score: score}
}
