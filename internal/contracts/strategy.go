package contracts

import (
	"fmt"
	"sort"
	"strings"
	"time"
)

// =============================================================================
// Strategy & Records
// ⭐ SSOT: 전략/거래/자산곡선 데이터 타입은 여기서만
// =============================================================================

// Strategy is one portfolio entry, identified by (Name, Ticker).
// Timeframe is optional and only used for trade-history name matching.
type Strategy struct {
	Name      string `json:"strategy_name" yaml:"strategy_name"`
	Ticker    string `json:"ticker" yaml:"ticker"`
	Timeframe string `json:"timeframe,omitempty" yaml:"timeframe,omitempty"`
}

// ID returns the stable strategy identifier used as the result key
func (s Strategy) ID() string {
	return fmt.Sprintf("%s/%s", strings.ToUpper(s.Ticker), s.Name)
}

// Portfolio is an ordered strategy listing
type Portfolio struct {
	Name       string     `json:"name"`
	Strategies []Strategy `json:"strategies"`
}

// Trade is one closed position
type Trade struct {
	ReturnPct    float64    `json:"return_pct"`
	MFE          float64    `json:"mfe"` // max favorable excursion
	MAE          float64    `json:"mae"` // max adverse excursion
	DurationDays int        `json:"duration_days"`
	EntryDate    *time.Time `json:"entry_date,omitempty"`
	ExitDate     *time.Time `json:"exit_date,omitempty"`
}

// TradeHistory is the trade log of one strategy, chronological but order-insensitive for statistics
type TradeHistory struct {
	Name   string  `json:"name"`
	Trades []Trade `json:"trades"`
}

// EquityPoint is one (date, equity) observation
type EquityPoint struct {
	Date   time.Time `json:"date"`
	Equity float64   `json:"equity"`
}

// EquityCurve is a strategy's equity over time; only used when no trade history is available
type EquityCurve struct {
	Points []EquityPoint `json:"points"`
}

// PeriodReturns derives value[i]/value[i-1]-1 over consecutive points
func (c *EquityCurve) PeriodReturns() []float64 {
	if c == nil || len(c.Points) < 2 {
		return nil
	}
	returns := make([]float64, 0, len(c.Points)-1)
	for i := 1; i < len(c.Points); i++ {
		prev := c.Points[i-1].Equity
		if prev == 0 {
			continue
		}
		returns = append(returns, c.Points[i].Equity/prev-1)
	}
	return returns
}

// =============================================================================
// Return Distribution (Layer 1 reference population)
// =============================================================================

// ReturnDistribution is the historical return sample of one ticker.
// Observations are sorted ascending and must not be mutated after construction.
type ReturnDistribution struct {
	Ticker       string    `json:"ticker"`
	Observations []float64 `json:"observations"`
}

// NewReturnDistribution copies and sorts the observations
func NewReturnDistribution(ticker string, observations []float64) *ReturnDistribution {
	sorted := make([]float64, len(observations))
	copy(sorted, observations)
	sort.Float64s(sorted)
	return &ReturnDistribution{
		Ticker:       strings.ToUpper(ticker),
		Observations: sorted,
	}
}

// Size returns the number of reference observations
func (d *ReturnDistribution) Size() int {
	if d == nil {
		return 0
	}
	return len(d.Observations)
}

// PercentileRank returns (below + 0.5*equal) / n * 100 for v
func (d *ReturnDistribution) PercentileRank(v float64) float64 {
	n := d.Size()
	if n == 0 {
		return 0
	}
	below := sort.SearchFloat64s(d.Observations, v)
	upper := sort.Search(n, func(i int) bool { return d.Observations[i] > v })
	equal := upper - below
	return (float64(below) + 0.5*float64(equal)) / float64(n) * 100
}
