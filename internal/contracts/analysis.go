package contracts

import "time"

// =============================================================================
// Enums
// =============================================================================

// ConfidenceLevel is a reliability label derived from sample size only
type ConfidenceLevel string

const (
	ConfidenceHigh         ConfidenceLevel = "HIGH"         // n >= 30
	ConfidenceMedium       ConfidenceLevel = "MEDIUM"       // 15 <= n < 30
	ConfidenceLow          ConfidenceLevel = "LOW"          // 5 <= n < 15
	ConfidenceInsufficient ConfidenceLevel = "INSUFFICIENT" // n < 5
)

// Rank orders levels so that caps and filters can compare them
func (c ConfidenceLevel) Rank() int {
	switch c {
	case ConfidenceHigh:
		return 3
	case ConfidenceMedium:
		return 2
	case ConfidenceLow:
		return 1
	default:
		return 0
	}
}

// ConfidenceMethod is how the confidence interval was obtained
type ConfidenceMethod string

const (
	MethodAnalytic  ConfidenceMethod = "ANALYTIC"
	MethodBootstrap ConfidenceMethod = "BOOTSTRAP"
)

// ExitSignal is the recommendation for one strategy in one run
type ExitSignal string

const (
	SignalExitImmediately ExitSignal = "EXIT_IMMEDIATELY"
	SignalStrongSell      ExitSignal = "STRONG_SELL"
	SignalSell            ExitSignal = "SELL"
	SignalHold            ExitSignal = "HOLD"
)

// DataSource is the observation source picked by the resolver
type DataSource string

const (
	SourceTradeHistory DataSource = "TRADE_HISTORY"
	SourceEquityCurve  DataSource = "EQUITY_CURVE"
	SourceNone         DataSource = "NONE"
)

// Convergence describes how the two layers relate
type Convergence string

const (
	ConvergenceConverged  Convergence = "CONVERGED"   // both at or above threshold
	ConvergenceDivergent  Convergence = "DIVERGENT"   // exactly one at or above threshold
	ConvergenceAlignedLow Convergence = "ALIGNED_LOW" // both below threshold
	ConvergenceLayer2Only Convergence = "LAYER2_ONLY" // reference population missing
	ConvergenceUndefined  Convergence = "UNDEFINED"   // no usable percentile rank
)

// ResultStatus summarizes how far the analysis of one strategy got
type ResultStatus string

const (
	StatusOK           ResultStatus = "OK"
	StatusDegraded     ResultStatus = "DEGRADED"
	StatusUnanalyzable ResultStatus = "UNANALYZABLE"
	StatusFailed       ResultStatus = "FAILED"
	StatusCancelled    ResultStatus = "CANCELLED"
)

// Degradation codes recorded on AnalysisResult.Degradations
const (
	DegradeLayer1Missing     = "LAYER1_MISSING"
	DegradeReferenceTooSmall = "REFERENCE_TOO_SMALL"
	DegradeMalformedRecords  = "MALFORMED_RECORDS"
	DegradeBelowMinSample    = "BELOW_MIN_SAMPLE"
	DegradeInsufficient      = "INSUFFICIENT_SAMPLE"
)

// =============================================================================
// Sample Summary
// =============================================================================

// Interval is a confidence interval in percentile-rank units
type Interval struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Level float64 `json:"level"` // 0.95, 0.90, 0.80
}

// SampleSummary is derived per layer and never persisted
type SampleSummary struct {
	SampleSize        int              `json:"sample_size"`
	PercentileRank    float64          `json:"percentile_rank"`
	RankDefined       bool             `json:"rank_defined"`
	ConfidenceLevel   ConfidenceLevel  `json:"confidence_level"`
	ConfidenceMethod  ConfidenceMethod `json:"confidence_method"`
	Interval          *Interval        `json:"interval,omitempty"`
	CentralValue      float64          `json:"central_value"`
	StdDev            float64          `json:"std_dev"`
	ReferenceSize     int              `json:"reference_size"`
	ReferenceTooSmall bool             `json:"reference_too_small"`
	SelfReferenced    bool             `json:"self_referenced"`
}

// =============================================================================
// Analysis Result & Portfolio Summary
// ⭐ SSOT: 분석 결과 필드명은 여기서만 정의 (렌더링은 외부 책임)
// =============================================================================

// AnalysisResult is produced once per strategy per run
type AnalysisResult struct {
	StrategyID            string          `json:"strategy_id"`
	Strategy              Strategy        `json:"strategy"`
	ExitSignal            ExitSignal      `json:"exit_signal"`
	ConfidenceLevel       ConfidenceLevel `json:"confidence_level"`
	ConfidencePct         float64         `json:"confidence_pct"`
	PercentileRank        float64         `json:"percentile_rank"`
	DualLayerScore        float64         `json:"dual_layer_score"`
	Convergence           Convergence     `json:"convergence"`
	Layer1Summary         *SampleSummary  `json:"layer1_summary"`
	Layer2Summary         SampleSummary   `json:"layer2_summary"`
	DataSourceUsed        DataSource      `json:"data_source_used"`
	SkippedRecords        int             `json:"skipped_records"`
	Status                ResultStatus    `json:"status"`
	Degradations          []string        `json:"degradations,omitempty"`
	MeetsConfidenceFilter bool            `json:"meets_confidence_filter"`
	Error                 string          `json:"error,omitempty"` // failure cause, or the skipped-record note of a DEGRADED result
}

// IsDegraded reports whether the result carries any degradation
func (r *AnalysisResult) IsDegraded() bool {
	return len(r.Degradations) > 0
}

// PortfolioSummary aggregates all results of one run
type PortfolioSummary struct {
	RunID          string        `json:"run_id"`
	Portfolio      string        `json:"portfolio"`
	ConfigHash     string        `json:"config_hash"`
	Total          int           `json:"total"`
	ImmediateExits int           `json:"immediate_exits"`
	StrongSells    int           `json:"strong_sells"`
	Sells          int           `json:"sells"`
	Holds          int           `json:"holds"`
	ConfidenceRate float64       `json:"confidence_rate"` // fraction HIGH or MEDIUM
	Succeeded      int           `json:"succeeded"`
	Degraded       int           `json:"degraded"`
	Unanalyzable   int           `json:"unanalyzable"`
	Failures       int           `json:"failures"`
	Cancelled      int           `json:"cancelled"`
	Actionable     int           `json:"actionable"` // meets confidence_level_filter
	StrategyOrder  []string      `json:"strategy_order"`
	StartedAt      time.Time     `json:"started_at"`
	Duration       time.Duration `json:"duration"`
}
