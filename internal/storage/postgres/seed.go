package postgres

import (
	"context"
	"fmt"
	"sort"

	"github.com/wonny/spds/internal/storage/memory"
)

// Import writes every record of ds, replacing existing rows with the same keys
func (s *Store) Import(ctx context.Context, ds memory.Dataset) error {
	for _, p := range ds.Portfolios {
		if err := s.SavePortfolio(ctx, p); err != nil {
			return fmt.Errorf("save portfolio %s: %w", p.Name, err)
		}
	}
	for _, h := range ds.Histories {
		if err := s.SaveTradeHistory(ctx, h.Ticker, h.History); err != nil {
			return fmt.Errorf("save trade history %s: %w", h.History.Name, err)
		}
	}
	for _, c := range ds.Curves {
		if err := s.SaveEquityCurve(ctx, c.Strategy, c.Curve); err != nil {
			return fmt.Errorf("save equity curve %s: %w", c.Strategy.ID(), err)
		}
	}

	tickers := make([]string, 0, len(ds.Distributions))
	for t := range ds.Distributions {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	for _, t := range tickers {
		if err := s.SaveDistribution(ctx, t, ds.Distributions[t]); err != nil {
			return fmt.Errorf("save distribution %s: %w", t, err)
		}
	}
	return nil
}
