package memory

import (
	"time"

	"github.com/wonny/spds/internal/contracts"
)

// DemoPortfolio is the name of the portfolio seeded by Demo
const DemoPortfolio = "demo"

// Demo returns a store seeded with a small deterministic portfolio:
//   - AAA/SMA_20_50: 40 trades, recent streak far above both references
//   - BBB/RSI_14: 10 trades, recent average in the SELL band
//   - CCC/MACD_12_26: no data at all
//   - DDD/Breakout: equity curve only, no ticker distribution
func Demo() *Store {
	s := New()

	aaa := contracts.Strategy{Name: "SMA_20_50", Ticker: "AAA", Timeframe: "D"}
	bbb := contracts.Strategy{Name: "RSI_14", Ticker: "BBB", Timeframe: "D"}
	ccc := contracts.Strategy{Name: "MACD_12_26", Ticker: "CCC", Timeframe: "D"}
	ddd := contracts.Strategy{Name: "Breakout", Ticker: "DDD", Timeframe: "D"}

	s.PutPortfolio(contracts.Portfolio{
		Name:       DemoPortfolio,
		Strategies: []contracts.Strategy{aaa, bbb, ccc, ddd},
	})

	s.PutTradeHistory("AAA", contracts.TradeHistory{
		Name:   "AAA_D_SMA_20_50_20240630.csv",
		Trades: tradesFrom(ExhaustedReturns()),
	})
	s.PutDistribution("AAA", linear(100, -0.05, 0.0005))

	s.PutTradeHistory("BBB", contracts.TradeHistory{
		Name:   "BBB-RSI-14",
		Trades: tradesFrom(SellBandReturns()),
	})
	s.PutDistribution("BBB", linear(50, -0.02, 0.001))

	s.PutEquityCurve(ddd, contracts.EquityCurve{Points: curveFrom(BreakoutPeriodReturns())})

	return s
}

// ExhaustedReturns is 35 small trades followed by a hot five-trade streak.
// Its recent average ranks 97.5 against itself.
func ExhaustedReturns() []float64 {
	returns := linear(35, 0, 0.001)
	return append(returns, 0.10, 0.10, 0.10, 0.10, 0.50)
}

// SellBandReturns is ten trades whose recent average ranks exactly 80 against itself.
func SellBandReturns() []float64 {
	return []float64{0.01, 0.02, 0.03, 0.04, 0.20, 0.05, 0.06, 0.07, 0.08, 0.19}
}

// BreakoutPeriodReturns is 25 daily returns with a late spike; the recent average ranks 96 against itself.
func BreakoutPeriodReturns() []float64 {
	returns := linear(20, 0.001, 0.0001)
	return append(returns, 0.004, 0.004, 0.004, 0.004, 0.009)
}

func linear(n int, start, step float64) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + float64(i)*step
	}
	return out
}

func tradesFrom(returns []float64) []contracts.Trade {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	trades := make([]contracts.Trade, len(returns))
	for i, r := range returns {
		entry := start.AddDate(0, 0, i*3)
		exit := entry.AddDate(0, 0, 2)
		trades[i] = contracts.Trade{
			ReturnPct:    r,
			DurationDays: 2,
			EntryDate:    &entry,
			ExitDate:     &exit,
		}
	}
	return trades
}

func curveFrom(periodReturns []float64) []contracts.EquityPoint {
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	points := []contracts.EquityPoint{{Date: start, Equity: 10000}}
	equity := 10000.0
	for i, r := range periodReturns {
		equity *= 1 + r
		points = append(points, contracts.EquityPoint{Date: start.AddDate(0, 0, i+1), Equity: equity})
	}
	return points
}
