package commands

import (
	"github.com/spf13/cobra"
)

var (
	// Global flags
	analysisConfigFile string
	verbose            bool
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "spds",
	Short: "SPDS - Statistical Performance Divergence System",
	Long: `SPDS Unified CLI

포트폴리오의 전략별 최근 성과가 통계적으로 소진되었는지 판단하여
EXIT_IMMEDIATELY / STRONG_SELL / SELL / HOLD 시그널을 산출합니다.

Usage:
  go run ./cmd/spds [command]

Examples:
  go run ./cmd/spds analyze --demo
  go run ./cmd/spds analyze --portfolio core --output json
  go run ./cmd/spds schedule --portfolio core
  go run ./cmd/spds config show --config analysis.yaml
  go run ./cmd/spds db-check`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&analysisConfigFile, "config", "", "analysis config YAML (default: SPDS_ANALYSIS_CONFIG or built-in defaults)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
}
