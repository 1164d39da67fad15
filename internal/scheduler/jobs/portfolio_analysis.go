package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/pkg/logger"
)

// Analyzer is the orchestrator surface the job needs
type Analyzer interface {
	AnalyzeNamed(ctx context.Context, name string, cfg analysisconfig.Config) (map[string]contracts.AnalysisResult, *contracts.PortfolioSummary, error)
}

// PortfolioAnalysisJob re-analyzes one portfolio on a schedule
// ⭐ SSOT: 정기 포트폴리오 분석은 이 Job에서만
type PortfolioAnalysisJob struct {
	analyzer  Analyzer
	portfolio string
	schedule  string
	config    analysisconfig.Config
	logger    *logger.Logger

	mu          sync.RWMutex
	lastSummary *contracts.PortfolioSummary
	lastResults map[string]contracts.AnalysisResult
}

// NewPortfolioAnalysisJob creates a job for portfolio on schedule
func NewPortfolioAnalysisJob(analyzer Analyzer, portfolio, schedule string, cfg analysisconfig.Config, log *logger.Logger) *PortfolioAnalysisJob {
	return &PortfolioAnalysisJob{
		analyzer:  analyzer,
		portfolio: portfolio,
		schedule:  schedule,
		config:    cfg,
		logger:    log.WithField("job", "portfolio_analysis"),
	}
}

// Name returns the job name
func (j *PortfolioAnalysisJob) Name() string {
	return "portfolio_analysis:" + j.portfolio
}

// Schedule returns the cron schedule (with seconds)
func (j *PortfolioAnalysisJob) Schedule() string {
	return j.schedule
}

// Run executes one analysis. Per-strategy failures do not fail the job.
func (j *PortfolioAnalysisJob) Run(ctx context.Context) error {
	results, summary, err := j.analyzer.AnalyzeNamed(ctx, j.portfolio, j.config)
	if err != nil {
		return fmt.Errorf("analyze portfolio %s: %w", j.portfolio, err)
	}

	j.mu.Lock()
	j.lastSummary = summary
	j.lastResults = results
	j.mu.Unlock()

	j.logger.WithFields(map[string]interface{}{
		"run_id":          summary.RunID,
		"total":           summary.Total,
		"immediate_exits": summary.ImmediateExits,
		"strong_sells":    summary.StrongSells,
		"sells":           summary.Sells,
		"failures":        summary.Failures,
	}).Info("Scheduled portfolio analysis completed")

	for _, id := range summary.StrategyOrder {
		r := results[id]
		if r.ExitSignal != contracts.SignalExitImmediately {
			continue
		}
		j.logger.WithFields(map[string]interface{}{
			"strategy":   id,
			"rank":       r.PercentileRank,
			"score":      r.DualLayerScore,
			"confidence": string(r.ConfidenceLevel),
		}).Warn("Exit signal")
	}

	return nil
}

// LastSummary returns the summary of the latest successful run, nil before the first
func (j *PortfolioAnalysisJob) LastSummary() *contracts.PortfolioSummary {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.lastSummary
}

// LastResult returns one strategy result of the latest successful run
func (j *PortfolioAnalysisJob) LastResult(strategyID string) (contracts.AnalysisResult, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	r, ok := j.lastResults[strategyID]
	return r, ok
}
