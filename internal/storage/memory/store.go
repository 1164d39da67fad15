package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wonny/spds/internal/contracts"
)

// Store is an in-memory implementation of every analysis collaborator.
// Returned records are copies; callers may not mutate the store through them.
type Store struct {
	mu             sync.RWMutex
	portfolios     map[string]*contracts.Portfolio
	histories      map[string]*contracts.TradeHistory // keyed by history name
	historyTickers map[string]string                  // history name → ticker
	curves         map[string]curveEntry              // keyed by strategy ID
	distributions  map[string][]float64               // keyed by ticker
}

type curveEntry struct {
	strategy contracts.Strategy
	curve    *contracts.EquityCurve
}

// New creates an empty store.
func New() *Store {
	return &Store{
		portfolios:     make(map[string]*contracts.Portfolio),
		histories:      make(map[string]*contracts.TradeHistory),
		historyTickers: make(map[string]string),
		curves:         make(map[string]curveEntry),
		distributions:  make(map[string][]float64),
	}
}

// PutPortfolio adds or replaces a portfolio.
func (s *Store) PutPortfolio(p contracts.Portfolio) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := p
	cp.Strategies = append([]contracts.Strategy(nil), p.Strategies...)
	s.portfolios[p.Name] = &cp
}

// PutTradeHistory stores a history under its name for ticker.
func (s *Store) PutTradeHistory(ticker string, h contracts.TradeHistory) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := h
	cp.Trades = append([]contracts.Trade(nil), h.Trades...)
	s.histories[h.Name] = &cp
	s.historyTickers[h.Name] = strings.ToUpper(ticker)
}

// PutEquityCurve stores the curve of a strategy.
func (s *Store) PutEquityCurve(strategy contracts.Strategy, c contracts.EquityCurve) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := c
	cp.Points = append([]contracts.EquityPoint(nil), c.Points...)
	s.curves[strategy.ID()] = curveEntry{strategy: strategy, curve: &cp}
}

// PutDistribution stores the reference returns of a ticker.
func (s *Store) PutDistribution(ticker string, observations []float64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.distributions[strings.ToUpper(ticker)] = append([]float64(nil), observations...)
}

// LoadPortfolio implements contracts.PortfolioSource.
func (s *Store) LoadPortfolio(_ context.Context, name string) (*contracts.Portfolio, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.portfolios[name]
	if !ok {
		return nil, fmt.Errorf("portfolio %q: %w", name, contracts.ErrNotFound)
	}
	cp := *p
	cp.Strategies = append([]contracts.Strategy(nil), p.Strategies...)
	return &cp, nil
}

// ListPortfolios returns every portfolio name, sorted.
func (s *Store) ListPortfolios() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.portfolios))
	for name := range s.portfolios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ListTradeHistories implements contracts.TradeHistorySource.
// An empty ticker lists every history.
func (s *Store) ListTradeHistories(_ context.Context, ticker string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ticker = strings.ToUpper(ticker)
	names := make([]string, 0, len(s.histories))
	for name, t := range s.historyTickers {
		if ticker == "" || t == ticker {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names, nil
}

// LoadTradeHistory implements contracts.TradeHistorySource.
func (s *Store) LoadTradeHistory(_ context.Context, name string) (*contracts.TradeHistory, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	h, ok := s.histories[name]
	if !ok {
		return nil, fmt.Errorf("trade history %q: %w", name, contracts.ErrNotFound)
	}
	cp := *h
	cp.Trades = append([]contracts.Trade(nil), h.Trades...)
	return &cp, nil
}

// LoadEquityCurve implements contracts.EquityCurveSource.
func (s *Store) LoadEquityCurve(_ context.Context, strategy contracts.Strategy) (*contracts.EquityCurve, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.curves[strategy.ID()]
	if !ok {
		return nil, fmt.Errorf("equity curve %s: %w", strategy.ID(), contracts.ErrNotFound)
	}
	cp := *entry.curve
	cp.Points = append([]contracts.EquityPoint(nil), entry.curve.Points...)
	return &cp, nil
}

// LoadDistribution implements contracts.DistributionSource.
func (s *Store) LoadDistribution(_ context.Context, ticker string) ([]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obs, ok := s.distributions[strings.ToUpper(ticker)]
	if !ok {
		return nil, fmt.Errorf("distribution %s: %w", ticker, contracts.ErrNotFound)
	}
	return append([]float64(nil), obs...), nil
}
