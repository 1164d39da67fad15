package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/distribution"
	"github.com/wonny/spds/internal/duallayer"
	"github.com/wonny/spds/internal/resolver"
	"github.com/wonny/spds/internal/signal"
)

// analyzeStrategy never panics; a panic becomes a FAILED result
func (o *Orchestrator) analyzeStrategy(ctx context.Context, workerID int, store *distribution.Store, s contracts.Strategy, cfg analysisconfig.Config) (result contracts.AnalysisResult) {
	defer func() {
		if r := recover(); r != nil {
			result = failed(s, fmt.Errorf("panic: %v", r))
			o.logger.WithFields(map[string]interface{}{
				"worker":   workerID,
				"strategy": s.ID(),
				"panic":    fmt.Sprint(r),
			}).Error("Strategy analysis panicked")
		}
	}()

	res, err := o.resolver.Resolve(ctx, s, resolver.Policy{
		PreferTradeHistory: cfg.PreferTradeHistory,
		SampleSizeMin:      cfg.SampleSizeMin,
	})
	if err != nil {
		if ctx.Err() != nil {
			return cancelled(s)
		}
		o.logger.WithError(err).WithFields(map[string]interface{}{
			"worker":   workerID,
			"strategy": s.ID(),
		}).Error("Failed to resolve data source")
		return failed(s, err)
	}

	if res.Source == contracts.SourceNone {
		result = unanalyzable(s)
		result.SkippedRecords = res.Skipped
		return result
	}

	reference, err := store.Get(s.Ticker)
	if err != nil && !errors.Is(err, contracts.ErrReferencePopulationMissing) {
		return failed(s, err)
	}

	dl := duallayer.Analyze(res.Observations, reference, cfg)
	result = build(s, res, dl, cfg)

	o.logger.WithFields(map[string]interface{}{
		"worker":      workerID,
		"strategy":    s.ID(),
		"source":      string(res.Source),
		"signal":      string(result.ExitSignal),
		"rank":        result.PercentileRank,
		"score":       result.DualLayerScore,
		"convergence": string(result.Convergence),
	}).Debug("Strategy analyzed")

	return result
}

// build assembles the result of an analyzed strategy
func build(s contracts.Strategy, res resolver.Resolution, dl duallayer.Result, cfg analysisconfig.Config) contracts.AnalysisResult {
	referenceTooSmall := dl.Layer1 != nil && dl.Layer1.ReferenceTooSmall
	confidence := signal.EffectiveConfidence(dl.Layer2.ConfidenceLevel, referenceTooSmall, dl.Layer1Missing())

	exit := signal.Classify(signal.Input{
		PercentileRank: dl.Layer2.PercentileRank,
		RankDefined:    dl.Layer2.RankDefined,
		SelfReferenced: dl.Layer2.SelfReferenced,
		DualLayerScore: dl.Score,
		Convergence:    dl.Convergence,
	}, signal.Thresholds{
		Percentile: cfg.PercentileThreshold,
		DualLayer:  cfg.DualLayerThreshold,
	})

	var degradations []string
	if dl.Layer1Missing() {
		degradations = append(degradations, contracts.DegradeLayer1Missing)
	}
	if referenceTooSmall {
		degradations = append(degradations, contracts.DegradeReferenceTooSmall)
	}
	if res.Skipped > 0 {
		degradations = append(degradations, contracts.DegradeMalformedRecords)
	}
	if res.BelowMinSample {
		degradations = append(degradations, contracts.DegradeBelowMinSample)
	}
	if dl.Layer2.ConfidenceLevel == contracts.ConfidenceInsufficient {
		degradations = append(degradations, contracts.DegradeInsufficient)
	}

	status := contracts.StatusOK
	if len(degradations) > 0 {
		status = contracts.StatusDegraded
	}

	var errText string
	if res.Skipped > 0 {
		errText = fmt.Errorf("%d records skipped: %w", res.Skipped, contracts.ErrMalformedRecord).Error()
	}

	return contracts.AnalysisResult{
		StrategyID:            s.ID(),
		Strategy:              s,
		ExitSignal:            exit,
		ConfidenceLevel:       confidence,
		ConfidencePct:         signal.ConfidencePct(confidence),
		PercentileRank:        dl.Layer2.PercentileRank,
		DualLayerScore:        dl.Score,
		Convergence:           dl.Convergence,
		Layer1Summary:         dl.Layer1,
		Layer2Summary:         dl.Layer2,
		DataSourceUsed:        res.Source,
		SkippedRecords:        res.Skipped,
		Status:                status,
		Degradations:          degradations,
		MeetsConfidenceFilter: signal.MeetsFilter(confidence, cfg.ConfidenceFloor()),
		Error:                 errText,
	}
}

func baseResult(s contracts.Strategy, status contracts.ResultStatus) contracts.AnalysisResult {
	return contracts.AnalysisResult{
		StrategyID:      s.ID(),
		Strategy:        s,
		ExitSignal:      contracts.SignalHold,
		ConfidenceLevel: contracts.ConfidenceInsufficient,
		Layer2Summary:   contracts.SampleSummary{ConfidenceLevel: contracts.ConfidenceInsufficient},
		DataSourceUsed:  contracts.SourceNone,
		Convergence:     contracts.ConvergenceUndefined,
		Status:          status,
	}
}

func unanalyzable(s contracts.Strategy) contracts.AnalysisResult {
	r := baseResult(s, contracts.StatusUnanalyzable)
	r.Error = fmt.Errorf("%s: %w", s.ID(), contracts.ErrDataUnavailable).Error()
	return r
}

func failed(s contracts.Strategy, err error) contracts.AnalysisResult {
	r := baseResult(s, contracts.StatusFailed)
	r.Error = err.Error()
	return r
}

func cancelled(s contracts.Strategy) contracts.AnalysisResult {
	r := baseResult(s, contracts.StatusCancelled)
	r.Error = context.Canceled.Error()
	return r
}
