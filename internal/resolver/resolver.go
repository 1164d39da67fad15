package resolver

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/pkg/logger"
)

// Policy selects between trade history and equity curve
type Policy struct {
	PreferTradeHistory bool
	SampleSizeMin      int
}

// Resolution is the observation source chosen for one strategy
type Resolution struct {
	Source       contracts.DataSource
	Observations []float64 // trade returns or period returns, malformed records removed
	HistoryName  string
	TradeCount   int // valid trades
	PeriodCount  int // valid equity periods
	Skipped      int // malformed records of the chosen source
	// BelowMinSample: the chosen sample is smaller than SampleSizeMin
	BelowMinSample bool
}

// Resolver picks trade history or equity curve per strategy.
// It only reads from its collaborators.
type Resolver struct {
	trades  contracts.TradeHistorySource
	curves  contracts.EquityCurveSource
	matcher NameMatcher
	log     *logger.Logger
}

// New creates a resolver; a nil matcher defaults to HeuristicMatcher
func New(trades contracts.TradeHistorySource, curves contracts.EquityCurveSource, matcher NameMatcher, log *logger.Logger) *Resolver {
	if matcher == nil {
		matcher = HeuristicMatcher{}
	}
	return &Resolver{
		trades:  trades,
		curves:  curves,
		matcher: matcher,
		log:     log.WithComponent("resolver"),
	}
}

type loaded struct {
	observations []float64
	skipped      int
	name         string
}

// Resolve returns exactly one of TRADE_HISTORY, EQUITY_CURVE or NONE.
// Collaborator errors other than contracts.ErrNotFound are returned.
func (r *Resolver) Resolve(ctx context.Context, strategy contracts.Strategy, policy Policy) (Resolution, error) {
	first, second := r.loadTrades, r.loadCurve
	firstSrc, secondSrc := contracts.SourceTradeHistory, contracts.SourceEquityCurve
	if !policy.PreferTradeHistory {
		first, second = second, first
		firstSrc, secondSrc = secondSrc, firstSrc
	}

	primary, err := first(ctx, strategy)
	if err != nil {
		return Resolution{}, err
	}
	if primary != nil && len(primary.observations) >= policy.SampleSizeMin {
		return r.build(firstSrc, primary, policy), nil
	}

	fallback, err := second(ctx, strategy)
	if err != nil {
		return Resolution{}, err
	}

	var res Resolution
	switch {
	case isEmpty(primary) && isEmpty(fallback):
		res = Resolution{Source: contracts.SourceNone}
		if primary != nil {
			res.Skipped += primary.skipped
		}
		if fallback != nil {
			res.Skipped += fallback.skipped
		}
	case isEmpty(fallback):
		res = r.build(firstSrc, primary, policy)
	case isEmpty(primary):
		res = r.build(secondSrc, fallback, policy)
	case len(fallback.observations) > len(primary.observations):
		res = r.build(secondSrc, fallback, policy)
	default:
		res = r.build(firstSrc, primary, policy)
	}

	r.log.WithFields(map[string]interface{}{
		"strategy": strategy.ID(),
		"source":   string(res.Source),
		"sample":   len(res.Observations),
		"skipped":  res.Skipped,
	}).Debug("Fallback policy applied")

	return res, nil
}

func isEmpty(l *loaded) bool {
	return l == nil || len(l.observations) == 0
}

func (r *Resolver) build(src contracts.DataSource, l *loaded, policy Policy) Resolution {
	res := Resolution{
		Source:         src,
		Observations:   l.observations,
		Skipped:        l.skipped,
		BelowMinSample: len(l.observations) < policy.SampleSizeMin,
	}
	switch src {
	case contracts.SourceTradeHistory:
		res.HistoryName = l.name
		res.TradeCount = len(l.observations)
	case contracts.SourceEquityCurve:
		res.PeriodCount = len(l.observations)
	}
	return res
}

// loadTrades returns nil when no history matches or the history is gone
func (r *Resolver) loadTrades(ctx context.Context, strategy contracts.Strategy) (*loaded, error) {
	if r.trades == nil {
		return nil, nil
	}

	names, err := r.trades.ListTradeHistories(ctx, strategy.Ticker)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("list trade histories: %w", err)
	}

	name, ok := r.matcher.Match(strategy, names)
	if !ok {
		return nil, nil
	}

	history, err := r.trades.LoadTradeHistory(ctx, name)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load trade history %s: %w", name, err)
	}

	returns, skipped := ValidTradeReturns(history)
	if skipped > 0 {
		r.log.WithFields(map[string]interface{}{
			"history": name,
			"skipped": skipped,
		}).Warn("Skipped malformed trades")
	}

	return &loaded{observations: returns, skipped: skipped, name: name}, nil
}

// loadCurve returns nil when the strategy has no equity curve
func (r *Resolver) loadCurve(ctx context.Context, strategy contracts.Strategy) (*loaded, error) {
	if r.curves == nil {
		return nil, nil
	}

	curve, err := r.curves.LoadEquityCurve(ctx, strategy)
	if err != nil {
		if errors.Is(err, contracts.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("load equity curve %s: %w", strategy.ID(), err)
	}

	valid, skipped := ValidEquityCurve(curve)
	if skipped > 0 {
		r.log.WithFields(map[string]interface{}{
			"strategy": strategy.ID(),
			"skipped":  skipped,
		}).Warn("Skipped malformed equity points")
	}

	return &loaded{observations: valid.PeriodReturns(), skipped: skipped}, nil
}

// ValidTradeReturns drops trades whose return is NaN or infinite
func ValidTradeReturns(history *contracts.TradeHistory) ([]float64, int) {
	if history == nil {
		return nil, 0
	}
	returns := make([]float64, 0, len(history.Trades))
	for _, t := range history.Trades {
		if math.IsNaN(t.ReturnPct) || math.IsInf(t.ReturnPct, 0) {
			continue
		}
		returns = append(returns, t.ReturnPct)
	}
	return returns, len(history.Trades) - len(returns)
}

// ValidEquityCurve keeps points with a finite positive value and a date strictly
// after the previous kept point
func ValidEquityCurve(curve *contracts.EquityCurve) (*contracts.EquityCurve, int) {
	if curve == nil {
		return &contracts.EquityCurve{}, 0
	}
	valid := make([]contracts.EquityPoint, 0, len(curve.Points))
	for _, p := range curve.Points {
		if math.IsNaN(p.Equity) || math.IsInf(p.Equity, 0) || p.Equity <= 0 {
			continue
		}
		if n := len(valid); n > 0 && !p.Date.After(valid[n-1].Date) {
			continue
		}
		valid = append(valid, p)
	}
	return &contracts.EquityCurve{Points: valid}, len(curve.Points) - len(valid)
}
