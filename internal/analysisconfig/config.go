package analysisconfig

import (
	"strings"

	"github.com/wonny/spds/internal/contracts"
)

// Central statistic options
const (
	CentralMean   = "mean"   // mean of every observation
	CentralRecent = "recent" // mean of the last RecentWindow observations
)

// Confidence filter options
const (
	FilterLow    = "low"
	FilterMedium = "medium"
	FilterHigh   = "high"
)

// MinBootstrapResamples is the floor for LOW-confidence bootstrap intervals
const MinBootstrapResamples = 1000

// Config is the exhaustive set of recognized analysis options.
// Unknown YAML keys are rejected on load.
type Config struct {
	// PercentileThreshold (0-100): rank needed for EXIT_IMMEDIATELY
	PercentileThreshold float64 `yaml:"percentile_threshold" json:"percentile_threshold"`
	// DualLayerThreshold (0-1): both layers must clear threshold*100 to converge
	DualLayerThreshold float64 `yaml:"dual_layer_threshold" json:"dual_layer_threshold"`
	// SampleSizeMin: below this a trade history yields to a larger equity curve
	SampleSizeMin int `yaml:"sample_size_min" json:"sample_size_min"`
	// ConfidenceLevelFilter is reported per result, never used to suppress a signal
	ConfidenceLevelFilter string `yaml:"confidence_level_filter" json:"confidence_level_filter"`
	PreferTradeHistory    bool   `yaml:"prefer_trade_history" json:"prefer_trade_history"`

	CentralStatistic   string `yaml:"central_statistic" json:"central_statistic"`
	RecentWindow       int    `yaml:"recent_window" json:"recent_window"`
	BootstrapResamples int    `yaml:"bootstrap_resamples" json:"bootstrap_resamples"`
	BootstrapSeed      int64  `yaml:"bootstrap_seed" json:"bootstrap_seed"`
	Workers            int    `yaml:"workers" json:"workers"`
}

// Default returns the documented defaults
func Default() Config {
	return Config{
		PercentileThreshold:   95,
		DualLayerThreshold:    0.85,
		SampleSizeMin:         15,
		ConfidenceLevelFilter: FilterMedium,
		PreferTradeHistory:    true,
		CentralStatistic:      CentralMean,
		RecentWindow:          5,
		BootstrapResamples:    MinBootstrapResamples,
		BootstrapSeed:         42,
		Workers:               4,
	}
}

// ConfidenceFloor maps the filter option to the lowest accepted level
func (c Config) ConfidenceFloor() contracts.ConfidenceLevel {
	switch strings.ToLower(c.ConfidenceLevelFilter) {
	case FilterHigh:
		return contracts.ConfidenceHigh
	case FilterLow:
		return contracts.ConfidenceLow
	default:
		return contracts.ConfidenceMedium
	}
}
