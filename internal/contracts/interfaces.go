package contracts

import "context"

// External collaborators consumed by the analysis core.
// Implementations live in internal/storage; the core never parses files or caches.

// PortfolioSource lists the strategies of a named portfolio, in order
type PortfolioSource interface {
	LoadPortfolio(ctx context.Context, name string) (*Portfolio, error)
}

// TradeHistorySource exposes trade logs under their own (file-style) names
type TradeHistorySource interface {
	// ListTradeHistories returns candidate history names for a ticker.
	// Implementations may return extra names; the resolver's matcher decides.
	ListTradeHistories(ctx context.Context, ticker string) ([]string, error)
	// LoadTradeHistory returns ErrNotFound for unknown names
	LoadTradeHistory(ctx context.Context, name string) (*TradeHistory, error)
}

// EquityCurveSource returns ErrNotFound when a strategy has no curve
type EquityCurveSource interface {
	LoadEquityCurve(ctx context.Context, strategy Strategy) (*EquityCurve, error)
}

// DistributionSource returns ErrNotFound when a ticker has no distribution
type DistributionSource interface {
	LoadDistribution(ctx context.Context, ticker string) ([]float64, error)
}
