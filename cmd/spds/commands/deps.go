package commands

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/orchestrator"
	"github.com/wonny/spds/internal/resolver"
	"github.com/wonny/spds/internal/storage/memory"
	"github.com/wonny/spds/internal/storage/postgres"
	"github.com/wonny/spds/internal/storage/rediscache"
	"github.com/wonny/spds/pkg/config"
	"github.com/wonny/spds/pkg/database"
	"github.com/wonny/spds/pkg/logger"
	"github.com/wonny/spds/pkg/redis"
)

// runtime holds everything a command needs; close releases connections
type runtime struct {
	cfg          *config.Config
	log          *logger.Logger
	orchestrator *orchestrator.Orchestrator
	closers      []func()
}

func (r *runtime) close() {
	for i := len(r.closers) - 1; i >= 0; i-- {
		r.closers[i]()
	}
}

// loadProcessConfig loads env config and builds the logger
func loadProcessConfig() (*config.Config, *logger.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	return cfg, logger.New(cfg), nil
}

// loadAnalysisConfig prefers --config, then SPDS_ANALYSIS_CONFIG
func loadAnalysisConfig(cfg *config.Config) (*analysisconfig.Config, error) {
	path := analysisConfigFile
	if path == "" && cfg != nil {
		path = cfg.Analysis.ConfigPath
	}
	return analysisconfig.Load(path)
}

// buildRuntime wires the orchestrator onto the demo dataset or PostgreSQL (+ Redis cache)
func buildRuntime(ctx context.Context, demo bool, historyMap string) (*runtime, error) {
	cfg, log, err := loadProcessConfig()
	if err != nil {
		return nil, err
	}
	rt := &runtime{cfg: cfg, log: log}

	matcher, err := loadMatcher(historyMap)
	if err != nil {
		return nil, err
	}

	if demo {
		store := memory.Demo()
		rt.orchestrator = orchestrator.New(orchestrator.Sources{
			Portfolios:    store,
			Trades:        store,
			Curves:        store,
			Distributions: store,
			Matcher:       matcher,
		}, log)
		return rt, nil
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	rt.closers = append(rt.closers, db.Close)

	store := postgres.NewStore(db.Pool)
	var distributions contracts.DistributionSource = store

	if cfg.Redis.Enabled {
		client, err := redis.New(ctx, cfg)
		if err != nil {
			rt.close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		rt.closers = append(rt.closers, func() { _ = client.Close() })
		cache := redis.NewCache(client, "spds")
		distributions = rediscache.NewDistributionSource(store, cache, cfg.Redis.DistributionTTL, log)
	}

	rt.orchestrator = orchestrator.New(orchestrator.Sources{
		Portfolios:    store,
		Trades:        store,
		Curves:        store,
		Distributions: distributions,
		Matcher:       matcher,
	}, log)

	return rt, nil
}

// loadMatcher reads a strategy ID → history name YAML map; empty path = heuristic only
func loadMatcher(path string) (resolver.NameMatcher, error) {
	if path == "" {
		return resolver.HeuristicMatcher{}, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read history map: %w", err)
	}

	mapping := make(map[string]string)
	if err := yaml.Unmarshal(data, &mapping); err != nil {
		return nil, fmt.Errorf("parse history map: %w", err)
	}

	return resolver.MappingMatcher{Mapping: mapping, Fallback: resolver.HeuristicMatcher{}}, nil
}
