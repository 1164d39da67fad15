package signal

import (
	"github.com/wonny/spds/internal/contracts"
)

// Rank bands below the exit threshold
const (
	StrongSellRank = 90.0
	SellRank       = 80.0
)

// Input is everything the classifier looks at
type Input struct {
	PercentileRank float64
	RankDefined    bool
	SelfReferenced bool // trivial baseline, diagnostic only
	DualLayerScore float64
	Convergence    contracts.Convergence
}

// Thresholds are the exit criteria of one run
type Thresholds struct {
	Percentile float64 // 0-100
	DualLayer  float64 // 0-1
}

// Classify maps (rank, score) to an exit signal. Comparisons are strict, no rounding.
// A rank at or above the percentile threshold without a converged score
// falls back to the rank bands, so it ends up STRONG_SELL. LAYER2_ONLY and
// DIVERGENT scores are capped below the threshold and never exit.
func Classify(in Input, th Thresholds) contracts.ExitSignal {
	if !in.RankDefined || in.SelfReferenced {
		return contracts.SignalHold
	}

	rank := in.PercentileRank
	switch {
	case rank >= th.Percentile && in.DualLayerScore >= th.DualLayer && !capped(in.Convergence):
		return contracts.SignalExitImmediately
	case rank >= StrongSellRank:
		return contracts.SignalStrongSell
	case rank >= SellRank:
		return contracts.SignalSell
	default:
		return contracts.SignalHold
	}
}

func capped(c contracts.Convergence) bool {
	return c == contracts.ConvergenceLayer2Only || c == contracts.ConvergenceDivergent
}

// EffectiveConfidence applies caveat caps to the sample-size confidence.
// Confidence never changes the signal category.
func EffectiveConfidence(level contracts.ConfidenceLevel, referenceTooSmall, layer1Missing bool) contracts.ConfidenceLevel {
	if referenceTooSmall && level.Rank() > contracts.ConfidenceLow.Rank() {
		level = contracts.ConfidenceLow
	}
	if layer1Missing && level.Rank() > contracts.ConfidenceMedium.Rank() {
		level = contracts.ConfidenceMedium
	}
	return level
}

// ConfidencePct is the interval level backing a confidence label
func ConfidencePct(level contracts.ConfidenceLevel) float64 {
	switch level {
	case contracts.ConfidenceHigh:
		return 95
	case contracts.ConfidenceMedium:
		return 90
	case contracts.ConfidenceLow:
		return 80
	default:
		return 0
	}
}

// MeetsFilter reports whether level is at or above floor.
// The result is informational; signals are never suppressed.
func MeetsFilter(level, floor contracts.ConfidenceLevel) bool {
	return level.Rank() >= floor.Rank()
}
