package analysisconfig

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/spds/internal/contracts"
)

// ValidationError aborts a run before any strategy work
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Unwrap lets callers match contracts.ErrConfigurationInvalid
func (e ValidationError) Unwrap() error {
	return contracts.ErrConfigurationInvalid
}

// Warning is a non-fatal recommendation
type Warning struct {
	Code    string
	Message string
}

// Validate checks every range constraint
func Validate(cfg *Config) error {
	if !inRange(cfg.PercentileThreshold, 0, 100) {
		return ValidationError{"percentile_threshold", fmt.Sprintf("must be in [0, 100], got %v", cfg.PercentileThreshold)}
	}
	if !inRange(cfg.DualLayerThreshold, 0, 1) {
		return ValidationError{"dual_layer_threshold", fmt.Sprintf("must be in [0, 1], got %v", cfg.DualLayerThreshold)}
	}
	if cfg.SampleSizeMin < 1 {
		return ValidationError{"sample_size_min", "must be >= 1"}
	}

	switch strings.ToLower(cfg.ConfidenceLevelFilter) {
	case FilterLow, FilterMedium, FilterHigh:
	default:
		return ValidationError{"confidence_level_filter", "must be low, medium or high"}
	}

	switch cfg.CentralStatistic {
	case CentralMean, CentralRecent:
	default:
		return ValidationError{"central_statistic", "must be mean or recent"}
	}
	if cfg.RecentWindow < 1 {
		return ValidationError{"recent_window", "must be >= 1"}
	}
	if cfg.BootstrapResamples < MinBootstrapResamples {
		return ValidationError{"bootstrap_resamples", fmt.Sprintf("must be >= %d", MinBootstrapResamples)}
	}
	if cfg.Workers < 1 {
		return ValidationError{"workers", "must be >= 1"}
	}

	return nil
}

// inRange is false for NaN
func inRange(v, lo, hi float64) bool {
	return !math.IsNaN(v) && v >= lo && v <= hi
}

// Warn checks recommended constraints (non-fatal)
func Warn(cfg *Config) []Warning {
	var warnings []Warning

	if cfg.PercentileThreshold < 90 {
		warnings = append(warnings, Warning{
			Code:    "LOW_PERCENTILE_THRESHOLD",
			Message: "percentile_threshold < 90 overlaps the STRONG_SELL band",
		})
	}
	if cfg.DualLayerThreshold < 0.5 {
		warnings = append(warnings, Warning{
			Code:    "LOW_DUAL_LAYER_THRESHOLD",
			Message: "dual_layer_threshold < 0.5 treats median performance as convergent",
		})
	}
	if cfg.SampleSizeMin < 5 {
		warnings = append(warnings, Warning{
			Code:    "SMALL_SAMPLE_MIN",
			Message: "sample_size_min < 5 keeps trade histories that can only reach INSUFFICIENT confidence",
		})
	}

	return warnings
}
