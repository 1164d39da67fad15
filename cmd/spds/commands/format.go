package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// report is the JSON shape of `spds analyze --output json`
type report struct {
	Summary *contracts.PortfolioSummary `json:"summary"`
	Results []contracts.AnalysisResult  `json:"results"`
}

// orderedResults returns results in summary.StrategyOrder
func orderedResults(results map[string]contracts.AnalysisResult, summary *contracts.PortfolioSummary) []contracts.AnalysisResult {
	out := make([]contracts.AnalysisResult, 0, len(results))
	for _, id := range summary.StrategyOrder {
		if r, ok := results[id]; ok {
			out = append(out, r)
		}
	}
	return out
}

// writeJSON prints the report as indented JSON
func writeJSON(w io.Writer, results map[string]contracts.AnalysisResult, summary *contracts.PortfolioSummary) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report{Summary: summary, Results: orderedResults(results, summary)})
}

// writeText prints a plain per-strategy dump followed by the summary
func writeText(w io.Writer, results map[string]contracts.AnalysisResult, summary *contracts.PortfolioSummary) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  📊 Portfolio: %s\n", summary.Portfolio)
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  Run ID    : %s\n", summary.RunID)
	fmt.Fprintf(w, "  Config    : %s\n", shortHash(summary.ConfigHash))
	fmt.Fprintf(w, "  Started   : %s\n", summary.StartedAt.Format("2006-01-02 15:04:05"))
	fmt.Fprintln(w, doubleLine)

	for _, r := range orderedResults(results, summary) {
		fmt.Fprintf(w, "%s %-28s %-17s %s\n", signalIcon(r.ExitSignal), r.StrategyID, r.ExitSignal, r.Status)
		fmt.Fprintf(w, "    rank=%.1f score=%.3f convergence=%s\n", r.PercentileRank, r.DualLayerScore, r.Convergence)
		fmt.Fprintf(w, "    confidence=%s (%.0f%%) source=%s n=%d\n",
			r.ConfidenceLevel, r.ConfidencePct, r.DataSourceUsed, r.Layer2Summary.SampleSize)
		if iv := r.Layer2Summary.Interval; iv != nil {
			fmt.Fprintf(w, "    interval=[%.1f, %.1f] @ %.0f%% %s\n", iv.Lower, iv.Upper, iv.Level*100, r.Layer2Summary.ConfidenceMethod)
		}
		if len(r.Degradations) > 0 {
			fmt.Fprintf(w, "    degraded: %s\n", strings.Join(r.Degradations, ", "))
		}
		if r.Error != "" {
			fmt.Fprintf(w, "    error: %s\n", r.Error)
		}
	}

	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  Total %d | Exit %d | Strong Sell %d | Sell %d | Hold %d\n",
		summary.Total, summary.ImmediateExits, summary.StrongSells, summary.Sells, summary.Holds)
	fmt.Fprintf(w, "  Confidence rate %.1f%% | Actionable %d | Degraded %d | Unanalyzable %d | Failed %d | Cancelled %d\n",
		summary.ConfidenceRate*100, summary.Actionable, summary.Degraded, summary.Unanalyzable, summary.Failures, summary.Cancelled)
	fmt.Fprintf(w, "  Duration %s\n", summary.Duration)
	fmt.Fprintln(w, doubleLine)
}

// writeConfig prints the effective analysis config, its hash and warnings
func writeConfig(w io.Writer, cfg *analysisconfig.Config, hash string, warnings []analysisconfig.Warning) {
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintln(w, "  ⚙️  Analysis Config")
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  percentile_threshold    : %g\n", cfg.PercentileThreshold)
	fmt.Fprintf(w, "  dual_layer_threshold    : %g\n", cfg.DualLayerThreshold)
	fmt.Fprintf(w, "  sample_size_min         : %d\n", cfg.SampleSizeMin)
	fmt.Fprintf(w, "  confidence_level_filter : %s\n", cfg.ConfidenceLevelFilter)
	fmt.Fprintf(w, "  prefer_trade_history    : %t\n", cfg.PreferTradeHistory)
	fmt.Fprintf(w, "  central_statistic       : %s\n", cfg.CentralStatistic)
	fmt.Fprintf(w, "  recent_window           : %d\n", cfg.RecentWindow)
	fmt.Fprintf(w, "  bootstrap_resamples     : %d\n", cfg.BootstrapResamples)
	fmt.Fprintf(w, "  bootstrap_seed          : %d\n", cfg.BootstrapSeed)
	fmt.Fprintf(w, "  workers                 : %d\n", cfg.Workers)
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  hash                    : %s\n", hash)
	for _, warn := range warnings {
		fmt.Fprintf(w, "  ⚠️  %s: %s\n", warn.Code, warn.Message)
	}
	fmt.Fprintln(w, doubleLine)
}

func signalIcon(s contracts.ExitSignal) string {
	switch s {
	case contracts.SignalExitImmediately:
		return "🔴"
	case contracts.SignalStrongSell:
		return "🟠"
	case contracts.SignalSell:
		return "🟡"
	default:
		return "🟢"
	}
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
