package stats

import (
	"math/rand"
	"sort"

	"github.com/wonny/spds/internal/contracts"
)

// Bootstrapper resamples a sample with replacement.
// It holds no RNG: every Interval call seeds its own, so concurrent use is safe
// and identical inputs give identical intervals.
type Bootstrapper struct {
	Resamples int
	Seed      int64
}

// Interval returns the central level-interval (e.g. 0.80) of the percentile
// ranks of resampled means of basis, ranked against reference.
func (b Bootstrapper) Interval(basis []float64, reference *contracts.ReturnDistribution, level float64) contracts.Interval {
	if len(basis) == 0 || b.Resamples <= 0 {
		return contracts.Interval{Level: level}
	}

	rng := rand.New(rand.NewSource(b.Seed))
	ranks := make([]float64, b.Resamples)
	n := len(basis)

	for i := 0; i < b.Resamples; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			sum += basis[rng.Intn(n)]
		}
		ranks[i] = reference.PercentileRank(sum / float64(n))
	}

	sort.Float64s(ranks)
	tail := (1 - level) / 2 * 100

	return contracts.Interval{
		Lower: quantileSorted(ranks, tail),
		Upper: quantileSorted(ranks, 100-tail),
		Level: level,
	}
}
