package stats

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spds/internal/contracts"
)

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func defaultOptions() Options {
	return Options{CentralStatistic: CentralMean, RecentWindow: 5, Resamples: 1000, Seed: 42}
}

func TestMeanStdDev(t *testing.T) {
	assert.Equal(t, 0.0, Mean(nil))
	assert.InDelta(t, 2.5, Mean([]float64{1, 2, 3, 4}), 1e-12)
	assert.Equal(t, 0.0, StdDev([]float64{1}))
	assert.InDelta(t, math.Sqrt(5.0/3.0), StdDev([]float64{1, 2, 3, 4}), 1e-12)
}

func TestQuantile(t *testing.T) {
	values := []float64{40, 10, 30, 20, 0}

	assert.Equal(t, 0.0, Quantile(values, 0))
	assert.Equal(t, 40.0, Quantile(values, 100))
	assert.InDelta(t, 20.0, Quantile(values, 50), 1e-12)
	assert.InDelta(t, 5.0, Quantile(values, 12.5), 1e-12)
	// input untouched
	assert.Equal(t, []float64{40, 10, 30, 20, 0}, values)
	assert.Equal(t, 0.0, Quantile(nil, 50))
}

func TestRecentWindow(t *testing.T) {
	values := []float64{1, 2, 3, 4, 5, 6}
	assert.Equal(t, []float64{4, 5, 6}, RecentWindow(values, 3))
	assert.Equal(t, values, RecentWindow(values, 10))
	assert.Equal(t, values, RecentWindow(values, 0))
}

func TestNormInv(t *testing.T) {
	assert.Equal(t, 1.96, NormInv(0.975))
	assert.Equal(t, 1.645, NormInv(0.95))
	assert.InDelta(t, 0.0, NormInv(0.5), 1e-9)
	assert.InDelta(t, 2.326, NormInv(0.99), 1e-3)
	assert.InDelta(t, -2.326, NormInv(0.01), 1e-3)
	assert.Equal(t, 0.0, NormInv(0))
	assert.Equal(t, 0.0, NormInv(1))
}

func TestConfidence(t *testing.T) {
	tests := []struct {
		n      int
		level  contracts.ConfidenceLevel
		method contracts.ConfidenceMethod
		ci     float64
	}{
		{100, contracts.ConfidenceHigh, contracts.MethodAnalytic, 0.95},
		{30, contracts.ConfidenceHigh, contracts.MethodAnalytic, 0.95},
		{29, contracts.ConfidenceMedium, contracts.MethodAnalytic, 0.90},
		{15, contracts.ConfidenceMedium, contracts.MethodAnalytic, 0.90},
		{14, contracts.ConfidenceLow, contracts.MethodBootstrap, 0.80},
		{5, contracts.ConfidenceLow, contracts.MethodBootstrap, 0.80},
		{4, contracts.ConfidenceInsufficient, "", 0},
		{0, contracts.ConfidenceInsufficient, "", 0},
	}

	for _, tt := range tests {
		level, method, ci := Confidence(tt.n)
		assert.Equal(t, tt.level, level, "n=%d", tt.n)
		assert.Equal(t, tt.method, method, "n=%d", tt.n)
		assert.Equal(t, tt.ci, ci, "n=%d", tt.n)
	}
}

func TestCompute_HighAnalytic(t *testing.T) {
	reference := contracts.NewReturnDistribution("SPY", linear(200, -0.05, 0.0005))
	sample := linear(30, 0.01, 0.001)

	s := Compute(sample, reference, defaultOptions())

	assert.Equal(t, 30, s.SampleSize)
	assert.Equal(t, contracts.ConfidenceHigh, s.ConfidenceLevel)
	assert.Equal(t, contracts.MethodAnalytic, s.ConfidenceMethod)
	assert.True(t, s.RankDefined)
	assert.False(t, s.ReferenceTooSmall)
	require.NotNil(t, s.Interval)
	assert.Equal(t, 0.95, s.Interval.Level)
	assert.LessOrEqual(t, s.Interval.Lower, s.PercentileRank)
	assert.GreaterOrEqual(t, s.Interval.Upper, s.PercentileRank)
	assert.Equal(t, reference.PercentileRank(Mean(sample)), s.PercentileRank)
}

func TestCompute_MediumAnalytic(t *testing.T) {
	reference := contracts.NewReturnDistribution("SPY", linear(100, -0.05, 0.001))
	s := Compute(linear(20, 0, 0.001), reference, defaultOptions())

	assert.Equal(t, contracts.ConfidenceMedium, s.ConfidenceLevel)
	require.NotNil(t, s.Interval)
	assert.Equal(t, 0.90, s.Interval.Level)
}

func TestCompute_BootstrapDeterministic(t *testing.T) {
	reference := contracts.NewReturnDistribution("QQQ", linear(100, -0.05, 0.001))
	sample := []float64{0.01, -0.02, 0.03, 0.015, 0.005, -0.01, 0.02, 0.04, -0.005, 0.012}

	first := Compute(sample, reference, defaultOptions())
	second := Compute(sample, reference, defaultOptions())

	assert.Equal(t, contracts.ConfidenceLow, first.ConfidenceLevel)
	assert.Equal(t, contracts.MethodBootstrap, first.ConfidenceMethod)
	require.NotNil(t, first.Interval)
	require.NotNil(t, second.Interval)
	assert.Equal(t, 0.80, first.Interval.Level)
	assert.InDelta(t, first.PercentileRank, second.PercentileRank, 1e-9)
	assert.InDelta(t, first.Interval.Lower, second.Interval.Lower, 1e-9)
	assert.InDelta(t, first.Interval.Upper, second.Interval.Upper, 1e-9)
	assert.LessOrEqual(t, first.Interval.Lower, first.Interval.Upper)
}

func TestCompute_BootstrapConcurrent(t *testing.T) {
	reference := contracts.NewReturnDistribution("QQQ", linear(100, -0.05, 0.001))
	sample := linear(8, -0.01, 0.004)
	want := Compute(sample, reference, defaultOptions())

	var wg sync.WaitGroup
	results := make([]contracts.SampleSummary, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = Compute(sample, reference, defaultOptions())
		}(i)
	}
	wg.Wait()

	for _, got := range results {
		require.NotNil(t, got.Interval)
		assert.InDelta(t, want.Interval.Lower, got.Interval.Lower, 1e-9)
		assert.InDelta(t, want.Interval.Upper, got.Interval.Upper, 1e-9)
	}
}

func TestCompute_Insufficient(t *testing.T) {
	reference := contracts.NewReturnDistribution("SPY", linear(50, -0.05, 0.002))
	s := Compute([]float64{0.01, 0.02, 0.03}, reference, defaultOptions())

	assert.Equal(t, contracts.ConfidenceInsufficient, s.ConfidenceLevel)
	assert.True(t, s.RankDefined, "rank is still computed")
	assert.Nil(t, s.Interval)
}

func TestCompute_EmptySample(t *testing.T) {
	reference := contracts.NewReturnDistribution("SPY", linear(50, -0.05, 0.002))
	s := Compute(nil, reference, defaultOptions())

	assert.Equal(t, 0, s.SampleSize)
	assert.False(t, s.RankDefined)
	assert.Equal(t, contracts.ConfidenceInsufficient, s.ConfidenceLevel)
	assert.Equal(t, 50, s.ReferenceSize)
}

func TestCompute_SelfReferenced(t *testing.T) {
	s := Compute(linear(20, 0, 0.01), nil, defaultOptions())

	assert.True(t, s.SelfReferenced)
	assert.True(t, s.RankDefined)
	assert.Equal(t, 100.0, s.PercentileRank)
	assert.Nil(t, s.Interval)
}

func TestCompute_ReferenceTooSmall(t *testing.T) {
	reference := contracts.NewReturnDistribution("SPY", []float64{-0.01, 0, 0.01})
	s := Compute(linear(10, 0, 0.001), reference, defaultOptions())

	assert.True(t, s.ReferenceTooSmall)
	assert.True(t, s.RankDefined)
}

func TestCompute_RecentStatistic(t *testing.T) {
	// flat history followed by a hot streak
	sample := append(linear(25, 0, 0), 0.05, 0.05, 0.05, 0.05, 0.05)
	reference := contracts.NewReturnDistribution("", sample)

	opts := defaultOptions()
	opts.CentralStatistic = CentralRecent

	s := Compute(sample, reference, opts)

	assert.InDelta(t, 0.05, s.CentralValue, 1e-12)
	// 25 below, 5 equal → (25 + 2.5) / 30
	assert.InDelta(t, 91.6666666667, s.PercentileRank, 1e-6)
	assert.Equal(t, contracts.ConfidenceHigh, s.ConfidenceLevel)
}

func TestBootstrapper_Empty(t *testing.T) {
	iv := Bootstrapper{Resamples: 1000, Seed: 1}.Interval(nil, nil, 0.8)
	assert.Equal(t, contracts.Interval{Level: 0.8}, iv)
}
