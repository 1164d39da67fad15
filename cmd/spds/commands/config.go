package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/wonny/spds/internal/analysisconfig"
	"github.com/wonny/spds/pkg/config"
)

// configCmd inspects the analysis config
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "분석 설정 검증/조회",
	Long: `분석 설정(YAML)을 검증하거나 적용될 값을 출력합니다.

Subcommands:
  validate - 설정 검증 (범위 오류 시 실패, 경고는 출력만)
  show     - 실제 적용되는 설정과 해시 출력

Example:
  go run ./cmd/spds config validate --config analysis.yaml
  go run ./cmd/spds config show`,
}

var (
	configValidateCmd = &cobra.Command{
		Use:   "validate",
		Short: "설정 검증",
		RunE:  runConfigValidate,
	}

	configShowCmd = &cobra.Command{
		Use:   "show",
		Short: "적용 설정 출력",
		RunE:  runConfigShow,
	}
)

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configShowCmd)
}

// effectiveAnalysisConfig loads the analysis config without requiring the database
func effectiveAnalysisConfig() (*analysisconfig.Config, string, error) {
	// Env config is optional here; a broken .env only loses SPDS_ANALYSIS_CONFIG
	cfg, _ := config.Load()

	analysisCfg, err := loadAnalysisConfig(cfg)
	if err != nil {
		return nil, "", err
	}

	hash, err := analysisconfig.Hash(analysisCfg)
	if err != nil {
		return nil, "", fmt.Errorf("hash config: %w", err)
	}
	return analysisCfg, hash, nil
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	analysisCfg, hash, err := effectiveAnalysisConfig()
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return err
	}

	for _, w := range analysisconfig.Warn(analysisCfg) {
		fmt.Printf("⚠️  %s: %s\n", w.Code, w.Message)
	}
	fmt.Printf("✅ Config valid (hash %s)\n", shortHash(hash))
	return nil
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	analysisCfg, hash, err := effectiveAnalysisConfig()
	if err != nil {
		return err
	}

	writeConfig(os.Stdout, analysisCfg, hash, analysisconfig.Warn(analysisCfg))
	return nil
}
