package orchestrator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/distribution"
	"github.com/wonny/spds/internal/resolver"
	"github.com/wonny/spds/pkg/logger"
)

// Sources bundles the collaborators of an analysis run
type Sources struct {
	Portfolios    contracts.PortfolioSource
	Trades        contracts.TradeHistorySource
	Curves        contracts.EquityCurveSource
	Distributions contracts.DistributionSource
	Matcher       resolver.NameMatcher // nil = resolver.HeuristicMatcher
}

// Orchestrator runs resolve → analyze → classify for every strategy of a portfolio
// ⭐ SSOT: 포트폴리오 분석 조율은 여기서만
type Orchestrator struct {
	portfolios    contracts.PortfolioSource
	distributions contracts.DistributionSource
	resolver      *resolver.Resolver
	logger        *logger.Logger
}

// New creates an orchestrator
func New(src Sources, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		portfolios:    src.Portfolios,
		distributions: src.Distributions,
		resolver:      resolver.New(src.Trades, src.Curves, src.Matcher, log),
		logger:        log.WithComponent("orchestrator"),
	}
}

// AnalyzeNamed loads the portfolio listing by name, then runs Analyze
func (o *Orchestrator) AnalyzeNamed(ctx context.Context, name string, cfg analysisconfig.Config) (map[string]contracts.AnalysisResult, *contracts.PortfolioSummary, error) {
	if err := analysisconfig.Validate(&cfg); err != nil {
		return nil, nil, err
	}
	if o.portfolios == nil {
		return nil, nil, fmt.Errorf("no portfolio source configured: %w", contracts.ErrDataUnavailable)
	}

	portfolio, err := o.portfolios.LoadPortfolio(ctx, name)
	if err != nil {
		return nil, nil, fmt.Errorf("load portfolio %s: %w", name, err)
	}

	return o.Analyze(ctx, *portfolio, cfg)
}

// Analyze classifies every strategy of portfolio.
// Per-strategy failures are recorded on their result; only an invalid config
// or a cancelled context is returned as an error. On cancellation the results
// of unscheduled strategies are CANCELLED and ctx.Err() is returned with them.
func (o *Orchestrator) Analyze(ctx context.Context, portfolio contracts.Portfolio, cfg analysisconfig.Config) (map[string]contracts.AnalysisResult, *contracts.PortfolioSummary, error) {
	if err := analysisconfig.Validate(&cfg); err != nil {
		return nil, nil, err
	}

	started := time.Now()
	runID := uuid.New().String()
	configHash, err := analysisconfig.Hash(&cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("hash config: %w", err)
	}

	strategies := o.uniqueStrategies(portfolio.Strategies)
	log := o.logger.WithFields(map[string]interface{}{
		"run_id":    runID,
		"portfolio": portfolio.Name,
	})
	log.WithFields(map[string]interface{}{
		"strategies": len(strategies),
		"workers":    cfg.Workers,
	}).Info("Starting portfolio analysis")

	results := make([]contracts.AnalysisResult, len(strategies))
	for i, s := range strategies {
		results[i] = cancelled(s)
	}

	tickers := make([]string, len(strategies))
	for i, s := range strategies {
		tickers[i] = s.Ticker
	}

	store := distribution.NewStore()
	if o.distributions != nil {
		store, err = distribution.Load(ctx, o.distributions, tickers, log)
	}
	if err == nil {
		o.runPool(ctx, store, strategies, results, cfg)
	}

	summary := Summarize(results)
	summary.RunID = runID
	summary.Portfolio = portfolio.Name
	summary.ConfigHash = configHash
	summary.StartedAt = started
	summary.Duration = time.Since(started)

	byID := make(map[string]contracts.AnalysisResult, len(results))
	for _, r := range results {
		byID[r.StrategyID] = r
	}

	log.WithFields(map[string]interface{}{
		"exits":        summary.ImmediateExits,
		"strong_sells": summary.StrongSells,
		"sells":        summary.Sells,
		"holds":        summary.Holds,
		"failures":     summary.Failures,
		"cancelled":    summary.Cancelled,
		"duration_ms":  summary.Duration.Milliseconds(),
	}).Info("Portfolio analysis completed")

	if ctxErr := ctx.Err(); ctxErr != nil {
		return byID, summary, ctxErr
	}
	return byID, summary, nil
}

// runPool feeds strategy indexes to cfg.Workers goroutines.
// Each worker writes only its own index of results.
func (o *Orchestrator) runPool(ctx context.Context, store *distribution.Store, strategies []contracts.Strategy, results []contracts.AnalysisResult, cfg analysisconfig.Config) {
	workers := cfg.Workers
	if workers > len(strategies) {
		workers = len(strategies)
	}

	jobCh := make(chan int)
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func(workerID int) {
			defer wg.Done()
			for i := range jobCh {
				select {
				case <-ctx.Done():
					continue
				default:
				}
				results[i] = o.analyzeStrategy(ctx, workerID, store, strategies[i], cfg)
			}
		}(w)
	}

feed:
	for i := range strategies {
		select {
		case <-ctx.Done():
			break feed
		case jobCh <- i:
		}
	}
	close(jobCh)

	wg.Wait()
}

// uniqueStrategies drops repeated strategy IDs, keeping the first occurrence
func (o *Orchestrator) uniqueStrategies(strategies []contracts.Strategy) []contracts.Strategy {
	seen := make(map[string]bool, len(strategies))
	unique := make([]contracts.Strategy, 0, len(strategies))
	for _, s := range strategies {
		if seen[s.ID()] {
			o.logger.WithField("strategy", s.ID()).Warn("Duplicate strategy in portfolio, skipped")
			continue
		}
		seen[s.ID()] = true
		unique = append(unique, s)
	}
	return unique
}
