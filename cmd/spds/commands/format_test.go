package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/orchestrator"
	"github.com/wonny/spds/internal/resolver"
	"github.com/wonny/spds/internal/storage/memory"
	"github.com/wonny/spds/pkg/logger"
)

func runDemoAnalysis(t *testing.T) (map[string]contracts.AnalysisResult, *contracts.PortfolioSummary) {
	t.Helper()

	store := memory.Demo()
	o := orchestrator.New(orchestrator.Sources{
		Portfolios:    store,
		Trades:        store,
		Curves:        store,
		Distributions: store,
	}, logger.NewNop())

	results, summary, err := o.AnalyzeNamed(context.Background(), memory.DemoPortfolio, analysisconfig.Default())
	require.NoError(t, err)
	return results, summary
}

func TestWriteJSON(t *testing.T) {
	results, summary := runDemoAnalysis(t)

	var buf bytes.Buffer
	require.NoError(t, writeJSON(&buf, results, summary))

	var decoded report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	require.Len(t, decoded.Results, len(summary.StrategyOrder))

	for i, id := range summary.StrategyOrder {
		assert.Equal(t, id, decoded.Results[i].StrategyID)
	}
	assert.Equal(t, summary.Total, decoded.Summary.Total)
	assert.Equal(t, summary.RunID, decoded.Summary.RunID)
}

func TestWriteText(t *testing.T) {
	results, summary := runDemoAnalysis(t)

	var buf bytes.Buffer
	writeText(&buf, results, summary)
	out := buf.String()

	assert.Contains(t, out, "Portfolio: demo")
	assert.Contains(t, out, "AAA/SMA_20_50")
	assert.Contains(t, out, string(contracts.SignalExitImmediately))
	assert.Contains(t, out, contracts.DegradeLayer1Missing)
	assert.Contains(t, out, shortHash(summary.ConfigHash))
}

func TestWriteConfig(t *testing.T) {
	cfg := analysisconfig.Default()
	cfg.PercentileThreshold = 85

	var buf bytes.Buffer
	writeConfig(&buf, &cfg, "abc", analysisconfig.Warn(&cfg))
	out := buf.String()

	assert.Contains(t, out, "percentile_threshold    : 85")
	assert.Contains(t, out, "hash                    : abc")
	assert.Contains(t, out, "⚠️")
}

func TestOrderedResults_SkipsMissing(t *testing.T) {
	summary := &contracts.PortfolioSummary{StrategyOrder: []string{"A/x", "B/y"}}
	results := map[string]contracts.AnalysisResult{"B/y": {StrategyID: "B/y"}}

	out := orderedResults(results, summary)
	require.Len(t, out, 1)
	assert.Equal(t, "B/y", out[0].StrategyID)
}

func TestShortHash(t *testing.T) {
	assert.Equal(t, "abc", shortHash("abc"))
	assert.Equal(t, "0123456789ab", shortHash("0123456789abcdef"))
}

func TestResolvePortfolio(t *testing.T) {
	tests := []struct {
		name string
		flag string
		env  string
		demo bool
		want string
	}{
		{"flag wins", "core", "env", true, "core"},
		{"demo over env", "", "env", true, "demo"},
		{"env fallback", "", "env", false, "env"},
		{"nothing", "", "", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, resolvePortfolio(tt.flag, tt.env, tt.demo))
		})
	}
}

func TestLoadMatcher(t *testing.T) {
	m, err := loadMatcher("")
	require.NoError(t, err)
	assert.IsType(t, resolver.HeuristicMatcher{}, m)

	path := filepath.Join(t.TempDir(), "history.yaml")
	require.NoError(t, os.WriteFile(path, []byte("AAA/SMA_20_50: custom_name\n"), 0o600))

	m, err = loadMatcher(path)
	require.NoError(t, err)

	name, ok := m.Match(contracts.Strategy{Name: "SMA_20_50", Ticker: "AAA"}, []string{"other", "custom_name"})
	assert.True(t, ok)
	assert.Equal(t, "custom_name", name)

	_, err = loadMatcher(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
