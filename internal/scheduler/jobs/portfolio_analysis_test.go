package jobs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/internal/contracts"
	"github.com/wonny/spds/internal/orchestrator"
	"github.com/wonny/spds/internal/storage/memory"
	"github.com/wonny/spds/pkg/logger"
)

func TestPortfolioAnalysisJob(t *testing.T) {
	store := memory.Demo()
	o := orchestrator.New(orchestrator.Sources{
		Portfolios:    store,
		Trades:        store,
		Curves:        store,
		Distributions: store,
	}, logger.NewNop())

	job := NewPortfolioAnalysisJob(o, memory.DemoPortfolio, "0 0 18 * * 1-5", analysisconfig.Default(), logger.NewNop())

	assert.Equal(t, "portfolio_analysis:demo", job.Name())
	assert.Equal(t, "0 0 18 * * 1-5", job.Schedule())
	assert.Nil(t, job.LastSummary())

	require.NoError(t, job.Run(context.Background()))

	summary := job.LastSummary()
	require.NotNil(t, summary)
	assert.Equal(t, 4, summary.Total)
	assert.Equal(t, 1, summary.ImmediateExits)

	r, ok := job.LastResult("AAA/SMA_20_50")
	require.True(t, ok)
	assert.Equal(t, contracts.SignalExitImmediately, r.ExitSignal)
}

func TestPortfolioAnalysisJob_UnknownPortfolio(t *testing.T) {
	o := orchestrator.New(orchestrator.Sources{Portfolios: memory.New()}, logger.NewNop())
	job := NewPortfolioAnalysisJob(o, "missing", "@daily", analysisconfig.Default(), logger.NewNop())

	err := job.Run(context.Background())
	assert.ErrorIs(t, err, contracts.ErrNotFound)
	assert.Nil(t, job.LastSummary())
}
