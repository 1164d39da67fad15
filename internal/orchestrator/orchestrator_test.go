package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/storage/memory"
	"github.com/wonny/spds/pkg/logger"
)

var (
	stratA = contracts.Strategy{Name: "SMA_20_50", Ticker: "AAA", Timeframe: "D"}
	stratB = contracts.Strategy{Name: "RSI_14", Ticker: "BBB", Timeframe: "D"}
	stratC = contracts.Strategy{Name: "MACD_12_26", Ticker: "CCC", Timeframe: "D"}
	stratD = contracts.Strategy{Name: "Breakout", Ticker: "DDD", Timeframe: "D"}
)

func newFromStore(store *memory.Store) *Orchestrator {
	return New(Sources{
		Portfolios:    store,
		Trades:        store,
		Curves:        store,
		Distributions: store,
	}, logger.NewNop())
}

func TestAnalyze_ThreeStrategyScenario(t *testing.T) {
	o := newFromStore(memory.Demo())
	portfolio := contracts.Portfolio{Name: "scenario", Strategies: []contracts.Strategy{stratA, stratB, stratC}}

	results, summary, err := o.Analyze(context.Background(), portfolio, analysisconfig.Default())
	require.NoError(t, err)
	require.Len(t, results, 3)

	a := results[stratA.ID()]
	assert.Equal(t, contracts.SignalExitImmediately, a.ExitSignal)
	assert.Equal(t, contracts.ConfidenceHigh, a.ConfidenceLevel)
	assert.Equal(t, 95.0, a.ConfidencePct)
	assert.Equal(t, contracts.SourceTradeHistory, a.DataSourceUsed)
	assert.Equal(t, contracts.ConvergenceConverged, a.Convergence)
	assert.InDelta(t, 97.5, a.PercentileRank, 1e-9)
	assert.Equal(t, contracts.StatusOK, a.Status)
	require.NotNil(t, a.Layer1Summary)
	assert.Equal(t, 40, a.Layer2Summary.SampleSize)

	b := results[stratB.ID()]
	assert.Equal(t, contracts.SignalSell, b.ExitSignal)
	assert.Equal(t, contracts.ConfidenceLow, b.ConfidenceLevel)
	assert.Equal(t, contracts.MethodBootstrap, b.Layer2Summary.ConfidenceMethod)
	assert.Contains(t, b.Degradations, contracts.DegradeBelowMinSample)

	c := results[stratC.ID()]
	assert.Equal(t, contracts.SignalHold, c.ExitSignal)
	assert.Equal(t, contracts.ConfidenceInsufficient, c.ConfidenceLevel)
	assert.Equal(t, contracts.SourceNone, c.DataSourceUsed)
	assert.Equal(t, contracts.StatusUnanalyzable, c.Status)

	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 1, summary.ImmediateExits)
	assert.Equal(t, 0, summary.StrongSells)
	assert.Equal(t, 1, summary.Sells)
	assert.Equal(t, 1, summary.Holds)
	assert.InDelta(t, 1.0/3.0, summary.ConfidenceRate, 1e-12)
	assert.Equal(t, 2, summary.Succeeded)
	assert.Equal(t, 1, summary.Unanalyzable)
	assert.Equal(t, 0, summary.Failures)
	assert.Equal(t, 1, summary.Actionable)
	assert.Equal(t, []string{stratA.ID(), stratB.ID(), stratC.ID()}, summary.StrategyOrder)
	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.ConfigHash, 64)
}

func TestAnalyze_Layer1Missing(t *testing.T) {
	o := newFromStore(memory.Demo())
	portfolio := contracts.Portfolio{Name: "d", Strategies: []contracts.Strategy{stratD}}

	results, _, err := o.Analyze(context.Background(), portfolio, analysisconfig.Default())
	require.NoError(t, err)

	d := results[stratD.ID()]
	assert.Equal(t, contracts.SourceEquityCurve, d.DataSourceUsed)
	assert.Equal(t, contracts.ConvergenceLayer2Only, d.Convergence)
	assert.Nil(t, d.Layer1Summary)
	assert.Contains(t, d.Degradations, contracts.DegradeLayer1Missing)
	assert.Equal(t, contracts.StatusDegraded, d.Status)
	assert.Less(t, d.DualLayerScore, 0.85)
	assert.Equal(t, contracts.SignalStrongSell, d.ExitSignal)
	assert.Equal(t, contracts.ConfidenceMedium, d.ConfidenceLevel)
}

func TestAnalyze_MalformedRecordsSkipped(t *testing.T) {
	returns := make([]float64, 20)
	for i := range returns {
		returns[i] = 0.001 * float64(i)
	}
	for _, i := range []int{1, 4, 7, 10, 13} {
		returns[i] = math.NaN()
	}
	returns[16] = math.Inf(1)

	reference := make([]float64, 100)
	for i := range reference {
		reference[i] = -0.05 + 0.001*float64(i)
	}

	strategy := contracts.Strategy{Name: "Momentum", Ticker: "EEE", Timeframe: "D"}
	store := memory.New()
	store.PutTradeHistory("EEE", contracts.TradeHistory{Name: "EEE_Momentum", Trades: tradesOf(returns)})
	store.PutDistribution("EEE", reference)

	results, summary, err := newFromStore(store).Analyze(context.Background(),
		contracts.Portfolio{Name: "malformed", Strategies: []contracts.Strategy{strategy}}, analysisconfig.Default())
	require.NoError(t, err)

	r := results[strategy.ID()]
	assert.Equal(t, contracts.SourceTradeHistory, r.DataSourceUsed)
	assert.Equal(t, 14, r.Layer2Summary.SampleSize)
	assert.Equal(t, 6, r.SkippedRecords)
	assert.Equal(t, contracts.ConfidenceLow, r.Layer2Summary.ConfidenceLevel)
	assert.Equal(t, contracts.MethodBootstrap, r.Layer2Summary.ConfidenceMethod)
	assert.Equal(t, contracts.ConfidenceLow, r.ConfidenceLevel)
	assert.Equal(t, contracts.StatusDegraded, r.Status)
	assert.Contains(t, r.Degradations, contracts.DegradeMalformedRecords)
	assert.Contains(t, r.Degradations, contracts.DegradeBelowMinSample)
	assert.Contains(t, r.Error, contracts.ErrMalformedRecord.Error())

	assert.Equal(t, 0, summary.Failures)
	assert.Equal(t, 1, summary.Succeeded)
	assert.Equal(t, 1, summary.Degraded)
}

func TestAnalyze_Idempotent(t *testing.T) {
	o := newFromStore(memory.Demo())
	cfg := analysisconfig.Default()

	first, s1, err := o.AnalyzeNamed(context.Background(), memory.DemoPortfolio, cfg)
	require.NoError(t, err)
	second, s2, err := o.AnalyzeNamed(context.Background(), memory.DemoPortfolio, cfg)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, s1.StrategyOrder, s2.StrategyOrder)
	assert.Equal(t, s1.ConfigHash, s2.ConfigHash)
	assert.NotEqual(t, s1.RunID, s2.RunID)
}

func TestAnalyze_OrderIsPortfolioOrder(t *testing.T) {
	store := memory.New()
	var strategies []contracts.Strategy
	for i := 0; i < 25; i++ {
		s := contracts.Strategy{Name: fmt.Sprintf("S%02d", i), Ticker: fmt.Sprintf("T%d", i%3)}
		strategies = append(strategies, s)
		store.PutTradeHistory(s.Ticker, contracts.TradeHistory{
			Name:   s.Ticker + "_" + s.Name,
			Trades: []contracts.Trade{{ReturnPct: 0.01}, {ReturnPct: 0.02}, {ReturnPct: float64(i) / 100}},
		})
	}
	// reversed listing must come back reversed
	for i, j := 0, len(strategies)-1; i < j; i, j = i+1, j-1 {
		strategies[i], strategies[j] = strategies[j], strategies[i]
	}

	cfg := analysisconfig.Default()
	cfg.Workers = 8

	results, summary, err := newFromStore(store).Analyze(context.Background(), contracts.Portfolio{Strategies: strategies}, cfg)
	require.NoError(t, err)
	require.Len(t, results, 25)

	for i, s := range strategies {
		assert.Equal(t, s.ID(), summary.StrategyOrder[i])
		assert.Equal(t, contracts.SourceTradeHistory, results[s.ID()].DataSourceUsed)
	}
}

func TestAnalyze_DuplicateStrategies(t *testing.T) {
	o := newFromStore(memory.Demo())
	portfolio := contracts.Portfolio{Strategies: []contracts.Strategy{stratA, stratA, stratC}}

	results, summary, err := o.Analyze(context.Background(), portfolio, analysisconfig.Default())
	require.NoError(t, err)
	assert.Len(t, results, 2)
	assert.Equal(t, 2, summary.Total)
}

type countingSource struct {
	*memory.Store
	mu    sync.Mutex
	calls int
}

func (c *countingSource) LoadDistribution(ctx context.Context, ticker string) ([]float64, error) {
	c.mu.Lock()
	c.calls++
	c.mu.Unlock()
	return c.Store.LoadDistribution(ctx, ticker)
}

func TestAnalyze_InvalidConfigFailsFast(t *testing.T) {
	src := &countingSource{Store: memory.Demo()}
	o := New(Sources{Distributions: src, Trades: src, Curves: src, Portfolios: src}, logger.NewNop())

	cfg := analysisconfig.Default()
	cfg.PercentileThreshold = 150

	results, summary, err := o.Analyze(context.Background(), contracts.Portfolio{Strategies: []contracts.Strategy{stratA}}, cfg)
	assert.ErrorIs(t, err, contracts.ErrConfigurationInvalid)
	assert.Nil(t, results)
	assert.Nil(t, summary)
	assert.Equal(t, 0, src.calls)

	_, _, err = o.AnalyzeNamed(context.Background(), memory.DemoPortfolio, cfg)
	assert.ErrorIs(t, err, contracts.ErrConfigurationInvalid)
}

func TestAnalyze_NaNThresholdRejected(t *testing.T) {
	o := newFromStore(memory.Demo())

	for _, mutate := range []func(*analysisconfig.Config){
		func(c *analysisconfig.Config) { c.PercentileThreshold = math.NaN() },
		func(c *analysisconfig.Config) { c.DualLayerThreshold = math.NaN() },
	} {
		cfg := analysisconfig.Default()
		mutate(&cfg)

		results, summary, err := o.AnalyzeNamed(context.Background(), memory.DemoPortfolio, cfg)
		assert.ErrorIs(t, err, contracts.ErrConfigurationInvalid)
		assert.Nil(t, results)
		assert.Nil(t, summary)
	}
}

func TestAnalyze_DistributionsLoadedOncePerTicker(t *testing.T) {
	src := &countingSource{Store: memory.Demo()}
	o := New(Sources{Distributions: src, Trades: src, Curves: src}, logger.NewNop())

	other := contracts.Strategy{Name: "EMA_5", Ticker: "aaa"}
	_, _, err := o.Analyze(context.Background(), contracts.Portfolio{Strategies: []contracts.Strategy{stratA, other, stratB}}, analysisconfig.Default())
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}

func TestAnalyze_CancelledBeforeStart(t *testing.T) {
	o := newFromStore(memory.Demo())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, summary, err := o.AnalyzeNamed(ctx, memory.DemoPortfolio, analysisconfig.Default())
	assert.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.Cancelled)
	for _, r := range results {
		assert.Equal(t, contracts.StatusCancelled, r.Status)
		assert.Equal(t, contracts.SignalHold, r.ExitSignal)
	}
}

type cancellingTrades struct {
	*memory.Store
	cancel context.CancelFunc
	once   sync.Once
}

func (c *cancellingTrades) LoadTradeHistory(ctx context.Context, name string) (*contracts.TradeHistory, error) {
	c.once.Do(c.cancel)
	return c.Store.LoadTradeHistory(ctx, name)
}

func TestAnalyze_CancelledMidRun(t *testing.T) {
	store := memory.New()
	var strategies []contracts.Strategy
	for i := 0; i < 5; i++ {
		s := contracts.Strategy{Name: fmt.Sprintf("S%d", i), Ticker: "XYZ"}
		strategies = append(strategies, s)
		store.PutTradeHistory("XYZ", contracts.TradeHistory{Name: "XYZ_" + s.Name, Trades: tradesOf(memory.ExhaustedReturns())})
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	trades := &cancellingTrades{Store: store, cancel: cancel}

	o := New(Sources{Trades: trades, Curves: store, Distributions: store}, logger.NewNop())
	cfg := analysisconfig.Default()
	cfg.Workers = 1

	results, summary, err := o.Analyze(ctx, contracts.Portfolio{Strategies: strategies}, cfg)
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 5)

	// the in-flight strategy completes, nothing after it is scheduled
	assert.NotEqual(t, contracts.StatusCancelled, results[strategies[0].ID()].Status)
	assert.Equal(t, 4, summary.Cancelled)
	assert.Equal(t, 5, summary.Total)
}

type faultyTrades struct {
	*memory.Store
}

func (f faultyTrades) ListTradeHistories(ctx context.Context, ticker string) ([]string, error) {
	switch ticker {
	case "BAD":
		return nil, errors.New("permission denied")
	case "BOOM":
		panic("corrupt index")
	}
	return f.Store.ListTradeHistories(ctx, ticker)
}

func TestAnalyze_FailureIsolation(t *testing.T) {
	store := memory.Demo()
	o := New(Sources{Trades: faultyTrades{store}, Curves: store, Distributions: store}, logger.NewNop())

	bad := contracts.Strategy{Name: "X", Ticker: "BAD"}
	boom := contracts.Strategy{Name: "Y", Ticker: "BOOM"}
	portfolio := contracts.Portfolio{Strategies: []contracts.Strategy{bad, stratA, boom, stratB}}

	results, summary, err := o.Analyze(context.Background(), portfolio, analysisconfig.Default())
	require.NoError(t, err)

	assert.Equal(t, contracts.StatusFailed, results[bad.ID()].Status)
	assert.Contains(t, results[bad.ID()].Error, "permission denied")
	assert.Equal(t, contracts.StatusFailed, results[boom.ID()].Status)
	assert.Contains(t, results[boom.ID()].Error, "panic")

	assert.Equal(t, contracts.SignalExitImmediately, results[stratA.ID()].ExitSignal)
	assert.Equal(t, contracts.SignalSell, results[stratB.ID()].ExitSignal)
	assert.Equal(t, 2, summary.Failures)
	assert.Equal(t, 2, summary.Succeeded)
}

func TestAnalyzeNamed_UnknownPortfolio(t *testing.T) {
	o := newFromStore(memory.Demo())

	_, _, err := o.AnalyzeNamed(context.Background(), "nope", analysisconfig.Default())
	assert.ErrorIs(t, err, contracts.ErrNotFound)

	_, _, err = New(Sources{}, logger.NewNop()).AnalyzeNamed(context.Background(), "demo", analysisconfig.Default())
	assert.ErrorIs(t, err, contracts.ErrDataUnavailable)
}

func TestAnalyze_EmptyPortfolio(t *testing.T) {
	results, summary, err := newFromStore(memory.New()).Analyze(context.Background(), contracts.Portfolio{}, analysisconfig.Default())
	require.NoError(t, err)
	assert.Empty(t, results)
	assert.Equal(t, 0, summary.Total)
	assert.Equal(t, 0.0, summary.ConfidenceRate)
}

func TestSummarize(t *testing.T) {
	results := []contracts.AnalysisResult{
		{StrategyID: "A", ExitSignal: contracts.SignalStrongSell, ConfidenceLevel: contracts.ConfidenceMedium, Status: contracts.StatusDegraded, MeetsConfidenceFilter: true},
		{StrategyID: "B", ExitSignal: contracts.SignalHold, ConfidenceLevel: contracts.ConfidenceInsufficient, Status: contracts.StatusFailed},
		{StrategyID: "C", ExitSignal: contracts.SignalHold, ConfidenceLevel: contracts.ConfidenceInsufficient, Status: contracts.StatusCancelled},
		{StrategyID: "D", ExitSignal: contracts.SignalSell, ConfidenceLevel: contracts.ConfidenceHigh, Status: contracts.StatusOK, MeetsConfidenceFilter: true},
	}

	s := Summarize(results)
	assert.Equal(t, 4, s.Total)
	assert.Equal(t, 1, s.StrongSells)
	assert.Equal(t, 1, s.Sells)
	assert.Equal(t, 2, s.Holds)
	assert.Equal(t, 2, s.Succeeded)
	assert.Equal(t, 1, s.Degraded)
	assert.Equal(t, 1, s.Failures)
	assert.Equal(t, 1, s.Cancelled)
	assert.Equal(t, 2, s.Actionable)
	assert.InDelta(t, 0.5, s.ConfidenceRate, 1e-12)
	assert.Equal(t, []string{"A", "B", "C", "D"}, s.StrategyOrder)
}

func tradesOf(returns []float64) []contracts.Trade {
	trades := make([]contracts.Trade, len(returns))
	for i, r := range returns {
		trades[i] = contracts.Trade{ReturnPct: r}
	}
	return trades
}
