package models

import (
	"github.com/shopspring/decimal"

	"fjacquet/case-categorizer/internal/logging"
)

// RunStats summarizes one categorization run.
type RunStats struct {
	Total       int
	Succeeded   int
	Failed      int
	Skipped     int
	ByCertainty map[Certainty]int
}

// NewRunStats computes statistics over the predictions of a run. skipped is
// the number of input rows the normalizer dropped.
func NewRunStats(predictions []PredictionResult, skipped int) RunStats {
	stats := RunStats{
		Total:       len(predictions),
		Skipped:     skipped,
		ByCertainty: make(map[Certainty]int),
	}
	for _, p := range predictions {
		if p.Failed() {
			stats.Failed++
			continue
		}
		stats.Succeeded++
		stats.ByCertainty[p.Certainty]++
	}
	return stats
}

// SuccessRate returns the share of successful predictions as a percentage
// rounded to two decimal places.
func (s RunStats) SuccessRate() decimal.Decimal {
	if s.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Succeeded)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Total))).
		Round(2)
}

// AllFailed reports whether there was at least one case and none succeeded.
func (s RunStats) AllFailed() bool {
	return s.Total > 0 && s.Succeeded == 0
}

// LogSummary logs the run statistics.
func (s RunStats) LogSummary(logger logging.Logger, backend string) {
	if logger == nil {
		return
	}
	logger.Info("Categorization summary",
		logging.Field{Key: logging.FieldBackend, Value: backend},
		logging.Field{Key: "total_cases", Value: s.Total},
		logging.Field{Key: "succeeded", Value: s.Succeeded},
		logging.Field{Key: "failed", Value: s.Failed},
		logging.Field{Key: logging.FieldSkipped, Value: s.Skipped},
		logging.Field{Key: "high", Value: s.ByCertainty[CertaintyHigh]},
		logging.Field{Key: "medium", Value: s.ByCertainty[CertaintyMedium]},
		logging.Field{Key: "low", Value: s.ByCertainty[CertaintyLow]},
		logging.Field{Key: "success_rate", Value: s.SuccessRate().StringFixed(2)},
	)
}
