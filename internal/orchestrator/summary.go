package orchestrator

import (
	"github.com/wonny/spds/internal/contracts"
)

// Summarize aggregates results in portfolio order.
// Run metadata (ID, timing, config hash) is filled in by the caller.
func Summarize(results []contracts.AnalysisResult) *contracts.PortfolioSummary {
	summary := &contracts.PortfolioSummary{
		Total:         len(results),
		StrategyOrder: make([]string, 0, len(results)),
	}

	confident := 0
	for _, r := range results {
		summary.StrategyOrder = append(summary.StrategyOrder, r.StrategyID)

		switch r.ExitSignal {
		case contracts.SignalExitImmediately:
			summary.ImmediateExits++
		case contracts.SignalStrongSell:
			summary.StrongSells++
		case contracts.SignalSell:
			summary.Sells++
		default:
			summary.Holds++
		}

		switch r.Status {
		case contracts.StatusOK:
			summary.Succeeded++
		case contracts.StatusDegraded:
			summary.Succeeded++
			summary.Degraded++
		case contracts.StatusUnanalyzable:
			summary.Unanalyzable++
		case contracts.StatusFailed:
			summary.Failures++
		case contracts.StatusCancelled:
			summary.Cancelled++
		}

		if r.ConfidenceLevel == contracts.ConfidenceHigh || r.ConfidenceLevel == contracts.ConfidenceMedium {
			confident++
		}
		if r.MeetsConfidenceFilter {
			summary.Actionable++
		}
	}

	if summary.Total > 0 {
		summary.ConfidenceRate = float64(confident) / float64(summary.Total)
	}

	return summary
}
