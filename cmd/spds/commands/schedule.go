package commands

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/wonny/spds/internal/scheduler"
	"github.com/wonny/spds/internal/scheduler/jobs"
)

var (
	schedulePortfolio  string
	scheduleCron       string
	scheduleDemo       bool
	scheduleRunNow     bool
	scheduleHistoryMap string
)

// scheduleCmd runs the portfolio analysis on a cron schedule
var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "정기 포트폴리오 분석 스케줄러",
	Long: `포트폴리오 분석을 cron 스케줄로 반복 실행합니다.

cron 표현식은 초 필드를 포함합니다 (기본값: 평일 18:00:00).
스케줄러는 Ctrl+C로 종료할 수 있으며, 진행 중인 분석은 취소됩니다.

Example:
  go run ./cmd/spds schedule --portfolio core
  go run ./cmd/spds schedule --portfolio core --cron "0 */30 * * * *"
  go run ./cmd/spds schedule --demo --run-now`,
	RunE: runSchedule,
}

func init() {
	rootCmd.AddCommand(scheduleCmd)

	scheduleCmd.Flags().StringVarP(&schedulePortfolio, "portfolio", "p", "", "portfolio name (default: SPDS_PORTFOLIO)")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "cron expression with seconds (default: SPDS_SCHEDULE)")
	scheduleCmd.Flags().BoolVar(&scheduleDemo, "demo", false, "use the built-in in-memory demo dataset")
	scheduleCmd.Flags().BoolVar(&scheduleRunNow, "run-now", false, "run once immediately after start")
	scheduleCmd.Flags().StringVar(&scheduleHistoryMap, "history-map", "", "YAML map of strategy ID → trade history name")
}

func runSchedule(cmd *cobra.Command, args []string) error {
	fmt.Println("=== SPDS Scheduler ===")

	rt, err := buildRuntime(context.Background(), scheduleDemo, scheduleHistoryMap)
	if err != nil {
		return fmt.Errorf("init runtime: %w", err)
	}
	defer rt.close()

	analysisCfg, err := loadAnalysisConfig(rt.cfg)
	if err != nil {
		return err
	}

	portfolio := resolvePortfolio(schedulePortfolio, rt.cfg.Analysis.Portfolio, scheduleDemo)
	if portfolio == "" {
		return fmt.Errorf("--portfolio is required")
	}

	cronExpr := scheduleCron
	if cronExpr == "" {
		cronExpr = rt.cfg.Analysis.Schedule
	}

	sched := scheduler.New(rt.log)
	job := jobs.NewPortfolioAnalysisJob(rt.orchestrator, portfolio, cronExpr, *analysisCfg, rt.log)
	if err := sched.AddJob(job); err != nil {
		return fmt.Errorf("register job: %w", err)
	}

	sched.Start()

	fmt.Println("\n✅ Scheduler started successfully")
	fmt.Println("\nRegistered jobs:")
	for _, name := range sched.GetAllJobs() {
		if next, err := sched.NextRun(name); err == nil {
			fmt.Printf("  - %s (next: %s)\n", name, next.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Printf("  - %s\n", name)
		}
	}

	if scheduleRunNow {
		go func() {
			result, err := sched.RunNow(job.Name())
			if err != nil {
				rt.log.WithError(err).Error("Immediate run failed")
				return
			}
			if summary := job.LastSummary(); summary != nil && result.Success {
				fmt.Printf("\n[%s] exits=%d strong_sells=%d sells=%d holds=%d\n",
					job.Name(), summary.ImmediateExits, summary.StrongSells, summary.Sells, summary.Holds)
			}
		}()
	}

	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down scheduler...")
	sched.Stop()

	for name, stats := range sched.GetJobStats() {
		fmt.Printf("  %s: runs=%d success=%d failure=%d\n", name, stats.TotalRuns, stats.SuccessCount, stats.FailureCount)
	}
	fmt.Println("Scheduler stopped")

	return nil
}
