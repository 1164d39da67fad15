package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/wonny/spds/internal/storage/memory"
	"github.com/wonny/spds/internal/storage/postgres"
	"github.com/wonny/spds/pkg/database"
)

var dbCheckCmd = &cobra.Command{
	Use:   "db-check",
	Short: "Check database connectivity",
	Long: `Ping the PostgreSQL pool and print pool statistics.

Example:
  go run ./cmd/spds db-check`,
	RunE: runDBCheck,
}

var dbSeedCmd = &cobra.Command{
	Use:   "db-seed",
	Short: "Create the spds schema and load the demo dataset",
	Long: `Apply the embedded schema and import the in-memory demo dataset,
so that "analyze --portfolio demo" works against PostgreSQL.

Example:
  go run ./cmd/spds db-seed`,
	RunE: runDBSeed,
}

func init() {
	rootCmd.AddCommand(dbCheckCmd)
	rootCmd.AddCommand(dbSeedCmd)
}

func connectDB(ctx context.Context) (*database.DB, error) {
	cfg, _, err := loadProcessConfig()
	if err != nil {
		return nil, err
	}

	db, err := database.New(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	return db, nil
}

func runDBCheck(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := connectDB(ctx)
	if err != nil {
		fmt.Printf("❌ %v\n", err)
		return err
	}
	defer db.Close()

	status, err := db.HealthCheck(ctx)
	if err != nil {
		fmt.Printf("❌ Health check failed: %v\n", err)
		return err
	}

	fmt.Println(doubleLine)
	fmt.Println("  🗄️  Database")
	fmt.Println(singleLine)
	fmt.Printf("  Healthy        : %t\n", status.Healthy)
	fmt.Printf("  Response time  : %s\n", status.ResponseTime)
	fmt.Printf("  Total conns    : %d / %d\n", status.Stats.TotalConns, status.Stats.MaxConns)
	fmt.Printf("  Acquired/Idle  : %d / %d\n", status.Stats.AcquiredConns, status.Stats.IdleConns)
	fmt.Printf("  Acquire count  : %d\n", status.Stats.AcquireCount)
	fmt.Println(doubleLine)
	return nil
}

func runDBSeed(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	db, err := connectDB(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	store := postgres.NewStore(db.Pool)
	if err := store.Migrate(ctx); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}

	ds := memory.Demo().Export()
	if err := store.Import(ctx, ds); err != nil {
		return fmt.Errorf("import demo dataset: %w", err)
	}

	fmt.Printf("✅ Seeded %d portfolio(s), %d trade histories, %d equity curves, %d distributions\n",
		len(ds.Portfolios), len(ds.Histories), len(ds.Curves), len(ds.Distributions))
	return nil
}
