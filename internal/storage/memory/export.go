package memory

import (
	"sort"

	"github.com/wonny/spds/internal/contracts"
)

// HistoryRecord is a trade history with the ticker it was filed under
type HistoryRecord struct {
	Ticker  string
	History contracts.TradeHistory
}

// CurveRecord is the equity curve of one strategy
type CurveRecord struct {
	Strategy contracts.Strategy
	Curve    contracts.EquityCurve
}

// Dataset is a full copy of a store, used to seed other backends
type Dataset struct {
	Portfolios    []contracts.Portfolio
	Histories     []HistoryRecord
	Curves        []CurveRecord
	Distributions map[string][]float64
}

// Export copies every record, sorted by key
func (s *Store) Export() Dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds := Dataset{Distributions: make(map[string][]float64, len(s.distributions))}

	for _, p := range s.portfolios {
		cp := *p
		cp.Strategies = append([]contracts.Strategy(nil), p.Strategies...)
		ds.Portfolios = append(ds.Portfolios, cp)
	}
	sort.Slice(ds.Portfolios, func(i, j int) bool { return ds.Portfolios[i].Name < ds.Portfolios[j].Name })

	for name, h := range s.histories {
		cp := *h
		cp.Trades = append([]contracts.Trade(nil), h.Trades...)
		ds.Histories = append(ds.Histories, HistoryRecord{Ticker: s.historyTickers[name], History: cp})
	}
	sort.Slice(ds.Histories, func(i, j int) bool { return ds.Histories[i].History.Name < ds.Histories[j].History.Name })

	for _, entry := range s.curves {
		cp := *entry.curve
		cp.Points = append([]contracts.EquityPoint(nil), entry.curve.Points...)
		ds.Curves = append(ds.Curves, CurveRecord{Strategy: entry.strategy, Curve: cp})
	}
	sort.Slice(ds.Curves, func(i, j int) bool { return ds.Curves[i].Strategy.ID() < ds.Curves[j].Strategy.ID() })

	for ticker, obs := range s.distributions {
		ds.Distributions[ticker] = append([]float64(nil), obs...)
	}

	return ds
}
