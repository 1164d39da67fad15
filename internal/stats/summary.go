package stats

import (
	"math"

	"github.com/wonny/spds/internal/contracts"
)

// Central statistic names
const (
	CentralMean   = "mean"
	CentralRecent = "recent"
)

// Sample size boundaries for confidence levels
const (
	HighMinSample   = 30
	MediumMinSample = 15
	LowMinSample    = 5
)

// Options drive one Compute call
type Options struct {
	CentralStatistic string // mean | recent
	RecentWindow     int
	Resamples        int
	Seed             int64
}

// Confidence maps a sample size to level, method and interval level.
// Sizes below LowMinSample are INSUFFICIENT with no method.
func Confidence(n int) (contracts.ConfidenceLevel, contracts.ConfidenceMethod, float64) {
	switch {
	case n >= HighMinSample:
		return contracts.ConfidenceHigh, contracts.MethodAnalytic, 0.95
	case n >= MediumMinSample:
		return contracts.ConfidenceMedium, contracts.MethodAnalytic, 0.90
	case n >= LowMinSample:
		return contracts.ConfidenceLow, contracts.MethodBootstrap, 0.80
	default:
		return contracts.ConfidenceInsufficient, "", 0
	}
}

// Compute summarizes sample against reference.
// A nil or empty reference yields the self-referenced baseline (rank 100, no interval).
// An empty sample leaves the rank undefined.
func Compute(sample []float64, reference *contracts.ReturnDistribution, opts Options) contracts.SampleSummary {
	n := len(sample)
	level, method, ciLevel := Confidence(n)

	summary := contracts.SampleSummary{
		SampleSize:       n,
		ConfidenceLevel:  level,
		ConfidenceMethod: method,
		ReferenceSize:    reference.Size(),
	}
	if n == 0 {
		return summary
	}

	basis := centralBasis(sample, opts)
	central := Mean(basis)
	summary.CentralValue = central
	summary.StdDev = StdDev(sample)
	summary.RankDefined = true

	if reference.Size() == 0 {
		summary.PercentileRank = 100
		summary.SelfReferenced = true
		return summary
	}

	summary.PercentileRank = reference.PercentileRank(central)
	summary.ReferenceTooSmall = reference.Size() < n

	switch method {
	case contracts.MethodAnalytic:
		z := NormInv(1 - (1-ciLevel)/2)
		se := summary.StdDev / math.Sqrt(float64(len(basis)))
		summary.Interval = &contracts.Interval{
			Lower: reference.PercentileRank(central - z*se),
			Upper: reference.PercentileRank(central + z*se),
			Level: ciLevel,
		}
	case contracts.MethodBootstrap:
		interval := Bootstrapper{Resamples: opts.Resamples, Seed: opts.Seed}.Interval(basis, reference, ciLevel)
		summary.Interval = &interval
	}

	return summary
}

// centralBasis returns the observations the central statistic averages
func centralBasis(sample []float64, opts Options) []float64 {
	if opts.CentralStatistic == CentralRecent {
		return RecentWindow(sample, opts.RecentWindow)
	}
	return sample
}
