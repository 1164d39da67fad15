package duallayer

import (
	"math"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/stats"
)

// Result reconciles the two layers of one strategy
type Result struct {
	Layer1      *contracts.SampleSummary // nil when the reference population is missing
	Layer2      contracts.SampleSummary
	Score       float64 // 0..1
	RawAverage  float64 // mean of both ranks / 100, recorded even when dampened
	Convergence contracts.Convergence
}

// Layer1Missing reports whether only Layer 2 was available
func (r Result) Layer1Missing() bool {
	return r.Layer1 == nil
}

// Analyze computes both layers for observations.
//   - Layer 1: central statistic vs the ticker distribution (reference may be nil)
//   - Layer 2: recent-window average vs the strategy's own observations
func Analyze(observations []float64, reference *contracts.ReturnDistribution, cfg analysisconfig.Config) Result {
	layer2 := stats.Compute(observations, contracts.NewReturnDistribution("", observations), stats.Options{
		CentralStatistic: stats.CentralRecent,
		RecentWindow:     cfg.RecentWindow,
		Resamples:        cfg.BootstrapResamples,
		Seed:             cfg.BootstrapSeed,
	})

	var layer1 *contracts.SampleSummary
	if reference.Size() > 0 {
		s := stats.Compute(observations, reference, stats.Options{
			CentralStatistic: cfg.CentralStatistic,
			RecentWindow:     cfg.RecentWindow,
			Resamples:        cfg.BootstrapResamples,
			Seed:             cfg.BootstrapSeed,
		})
		layer1 = &s
	}

	return Combine(layer1, layer2, cfg.DualLayerThreshold)
}

// Combine scores two already-computed layers.
// A score at or above threshold requires both layers at or above threshold*100.
func Combine(layer1 *contracts.SampleSummary, layer2 contracts.SampleSummary, threshold float64) Result {
	res := Result{Layer1: layer1, Layer2: layer2}

	if !layer2.RankDefined || (layer1 != nil && !layer1.RankDefined) {
		res.Convergence = contracts.ConvergenceUndefined
		return res
	}

	l2 := layer2.PercentileRank
	if layer1 == nil {
		res.Convergence = contracts.ConvergenceLayer2Only
		res.RawAverage = l2 / 100
		res.Score = math.Min(l2/100, belowThreshold(threshold))
		return res
	}

	l1 := layer1.PercentileRank
	cut := threshold * 100
	avg := (l1 + l2) / 2 / 100
	low := math.Min(l1, l2) / 100
	res.RawAverage = avg

	switch {
	case l1 >= cut && l2 >= cut:
		res.Convergence = contracts.ConvergenceConverged
		res.Score = low
	case l1 >= cut || l2 >= cut:
		// dampened: one layer alone never carries the score over the threshold
		res.Convergence = contracts.ConvergenceDivergent
		res.Score = math.Min(avg, low)
	default:
		res.Convergence = contracts.ConvergenceAlignedLow
		res.Score = avg
	}

	return res
}

// belowThreshold is the largest score under threshold, floored at 0.
// With a zero threshold the floor reaches the threshold; Classify still refuses
// to exit on LAYER2_ONLY and DIVERGENT results.
func belowThreshold(threshold float64) float64 {
	return math.Max(0, math.Nextafter(threshold, math.Inf(-1)))
}
