package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/spds/internal/contracts"
)

//go:embed schema.sql
var schemaSQL string

// Store implements the analysis collaborators on PostgreSQL (schema spds)
// ⭐ SSOT: 분석 입력 데이터 저장소는 여기서만
type Store struct {
	pool *pgxpool.Pool
}

// NewStore creates a new store
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

// Migrate creates the spds schema and tables if missing
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// =============================================================================
// Read side (contracts.*Source)
// =============================================================================

// LoadPortfolio returns the strategies of a portfolio in position order
func (s *Store) LoadPortfolio(ctx context.Context, name string) (*contracts.Portfolio, error) {
	var exists bool
	err := s.pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM spds.portfolios WHERE name = $1)`, name).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("query portfolio: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("portfolio %q: %w", name, contracts.ErrNotFound)
	}

	query := `
		SELECT strategy_name, ticker, timeframe
		FROM spds.portfolio_strategies
		WHERE portfolio_name = $1
		ORDER BY position ASC
	`

	rows, err := s.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query portfolio strategies: %w", err)
	}
	defer rows.Close()

	portfolio := &contracts.Portfolio{Name: name}
	for rows.Next() {
		var st contracts.Strategy
		if err := rows.Scan(&st.Name, &st.Ticker, &st.Timeframe); err != nil {
			return nil, fmt.Errorf("scan strategy: %w", err)
		}
		portfolio.Strategies = append(portfolio.Strategies, st)
	}
	return portfolio, rows.Err()
}

// ListTradeHistories returns history names for ticker; empty ticker lists all
func (s *Store) ListTradeHistories(ctx context.Context, ticker string) ([]string, error) {
	query := `
		SELECT name
		FROM spds.trade_histories
		WHERE $1 = '' OR ticker = $1
		ORDER BY name ASC
	`

	rows, err := s.pool.Query(ctx, query, strings.ToUpper(ticker))
	if err != nil {
		return nil, fmt.Errorf("query trade histories: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan history name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}

// LoadTradeHistory returns the trades of a history in sequence order
func (s *Store) LoadTradeHistory(ctx context.Context, name string) (*contracts.TradeHistory, error) {
	var ticker string
	err := s.pool.QueryRow(ctx, `SELECT ticker FROM spds.trade_histories WHERE name = $1`, name).Scan(&ticker)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("trade history %q: %w", name, contracts.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query trade history: %w", err)
	}

	query := `
		SELECT return_pct, mfe, mae, duration_days, entry_date, exit_date
		FROM spds.trades
		WHERE history_name = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, name)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	history := &contracts.TradeHistory{Name: name}
	for rows.Next() {
		var t contracts.Trade
		if err := rows.Scan(&t.ReturnPct, &t.MFE, &t.MAE, &t.DurationDays, &t.EntryDate, &t.ExitDate); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		history.Trades = append(history.Trades, t)
	}
	return history, rows.Err()
}

// LoadEquityCurve returns contracts.ErrNotFound when the strategy has no points
func (s *Store) LoadEquityCurve(ctx context.Context, strategy contracts.Strategy) (*contracts.EquityCurve, error) {
	query := `
		SELECT point_date, equity
		FROM spds.equity_points
		WHERE ticker = $1 AND strategy_name = $2
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, strings.ToUpper(strategy.Ticker), strategy.Name)
	if err != nil {
		return nil, fmt.Errorf("query equity points: %w", err)
	}
	defer rows.Close()

	curve := &contracts.EquityCurve{}
	for rows.Next() {
		var p contracts.EquityPoint
		if err := rows.Scan(&p.Date, &p.Equity); err != nil {
			return nil, fmt.Errorf("scan equity point: %w", err)
		}
		curve.Points = append(curve.Points, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(curve.Points) == 0 {
		return nil, fmt.Errorf("equity curve %s: %w", strategy.ID(), contracts.ErrNotFound)
	}
	return curve, nil
}

// LoadDistribution returns contracts.ErrNotFound when the ticker has no observations
func (s *Store) LoadDistribution(ctx context.Context, ticker string) ([]float64, error) {
	query := `
		SELECT return_pct
		FROM spds.return_distributions
		WHERE ticker = $1
		ORDER BY seq ASC
	`

	rows, err := s.pool.Query(ctx, query, strings.ToUpper(ticker))
	if err != nil {
		return nil, fmt.Errorf("query distribution: %w", err)
	}
	defer rows.Close()

	var observations []float64
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("scan observation: %w", err)
		}
		observations = append(observations, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(observations) == 0 {
		return nil, fmt.Errorf("distribution %s: %w", ticker, contracts.ErrNotFound)
	}
	return observations, nil
}

// =============================================================================
// Write side (seeding / ingestion)
// =============================================================================

// SavePortfolio replaces a portfolio and its strategy listing
func (s *Store) SavePortfolio(ctx context.Context, p contracts.Portfolio) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO spds.portfolios (name) VALUES ($1)
			ON CONFLICT (name) DO NOTHING
		`, p.Name); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM spds.portfolio_strategies WHERE portfolio_name = $1`, p.Name); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, st := range p.Strategies {
			batch.Queue(`
				INSERT INTO spds.portfolio_strategies (portfolio_name, position, strategy_name, ticker, timeframe)
				VALUES ($1, $2, $3, $4, $5)
			`, p.Name, i, st.Name, strings.ToUpper(st.Ticker), st.Timeframe)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// SaveTradeHistory replaces a trade history
func (s *Store) SaveTradeHistory(ctx context.Context, ticker string, h contracts.TradeHistory) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			INSERT INTO spds.trade_histories (name, ticker) VALUES ($1, $2)
			ON CONFLICT (name) DO UPDATE SET ticker = EXCLUDED.ticker
		`, h.Name, strings.ToUpper(ticker)); err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM spds.trades WHERE history_name = $1`, h.Name); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, t := range h.Trades {
			batch.Queue(`
				INSERT INTO spds.trades (history_name, seq, return_pct, mfe, mae, duration_days, entry_date, exit_date)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			`, h.Name, i, t.ReturnPct, t.MFE, t.MAE, t.DurationDays, dateOrNil(t.EntryDate), dateOrNil(t.ExitDate))
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// SaveEquityCurve replaces the equity curve of a strategy
func (s *Store) SaveEquityCurve(ctx context.Context, strategy contracts.Strategy, c contracts.EquityCurve) error {
	ticker := strings.ToUpper(strategy.Ticker)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `
			DELETE FROM spds.equity_points WHERE ticker = $1 AND strategy_name = $2
		`, ticker, strategy.Name); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, p := range c.Points {
			batch.Queue(`
				INSERT INTO spds.equity_points (ticker, strategy_name, seq, point_date, equity)
				VALUES ($1, $2, $3, $4, $5)
			`, ticker, strategy.Name, i, p.Date, p.Equity)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

// SaveDistribution replaces the reference returns of a ticker
func (s *Store) SaveDistribution(ctx context.Context, ticker string, observations []float64) error {
	ticker = strings.ToUpper(ticker)
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM spds.return_distributions WHERE ticker = $1`, ticker); err != nil {
			return err
		}

		batch := &pgx.Batch{}
		for i, v := range observations {
			batch.Queue(`
				INSERT INTO spds.return_distributions (ticker, seq, return_pct) VALUES ($1, $2, $3)
			`, ticker, i, v)
		}
		return tx.SendBatch(ctx, batch).Close()
	})
}

func (s *Store) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

func dateOrNil(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return *t
}
