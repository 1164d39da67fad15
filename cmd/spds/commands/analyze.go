package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/spds/internal/storage/memory"
)

var (
	analyzePortfolio  string
	analyzeDemo       bool
	analyzeOutput     string
	analyzeWorkers    int
	analyzeHistoryMap string
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a portfolio and print exit signals",
	Long: `Analyze every strategy of a portfolio.

각 전략의 최근 수익률이 종목 수익률 분포(Layer 1)와 전략 자체 이력(Layer 2)에서
어느 백분위에 있는지 계산하고, 두 레이어를 결합해 청산 시그널을 산출합니다.

Examples:
  go run ./cmd/spds analyze --demo
  go run ./cmd/spds analyze --portfolio core
  go run ./cmd/spds analyze --portfolio core --output json --workers 8
  go run ./cmd/spds analyze --portfolio core --history-map history.yaml`,
	RunE: runAnalyze,
}

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVarP(&analyzePortfolio, "portfolio", "p", "", "portfolio name (default: SPDS_PORTFOLIO, or \"demo\" with --demo)")
	analyzeCmd.Flags().BoolVar(&analyzeDemo, "demo", false, "use the built-in in-memory demo dataset")
	analyzeCmd.Flags().StringVarP(&analyzeOutput, "output", "o", "text", "output format: text|json")
	analyzeCmd.Flags().IntVarP(&analyzeWorkers, "workers", "w", 0, "worker count override")
	analyzeCmd.Flags().StringVar(&analyzeHistoryMap, "history-map", "", "YAML map of strategy ID → trade history name")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	if analyzeOutput != "text" && analyzeOutput != "json" {
		return fmt.Errorf("unknown output format %q (text|json)", analyzeOutput)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rt, err := buildRuntime(ctx, analyzeDemo, analyzeHistoryMap)
	if err != nil {
		return err
	}
	defer rt.close()

	analysisCfg, err := loadAnalysisConfig(rt.cfg)
	if err != nil {
		return err
	}
	if analyzeWorkers > 0 {
		analysisCfg.Workers = analyzeWorkers
	}

	portfolio := resolvePortfolio(analyzePortfolio, rt.cfg.Analysis.Portfolio, analyzeDemo)
	if portfolio == "" {
		return fmt.Errorf("--portfolio is required")
	}

	results, summary, err := rt.orchestrator.AnalyzeNamed(ctx, portfolio, *analysisCfg)
	if summary == nil {
		return err
	}

	// Cancelled runs still print what finished
	if analyzeOutput == "json" {
		if encErr := writeJSON(os.Stdout, results, summary); encErr != nil {
			return encErr
		}
	} else {
		writeText(os.Stdout, results, summary)
	}

	return err
}

// resolvePortfolio picks the flag, then the demo portfolio for --demo, then the env default
func resolvePortfolio(flag, env string, demo bool) string {
	switch {
	case flag != "":
		return flag
	case demo:
		return memory.DemoPortfolio
	case env != "":
		return env
	default:
		return ""
	}
}
