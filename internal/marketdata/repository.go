package marketdata

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/apexquant/topoarb/internal/backtest"
)

// Repository is the Postgres-backed store for daily closes and run
// summaries. Price persistence lives only here.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a repository over a shared pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SaveBars upserts daily closes.
func (r *Repository) SaveBars(ctx context.Context, bars []Bar) error {
	query := `
		INSERT INTO marketdata.daily_closes (symbol, trade_date, close_price)
		VALUES ($1, $2, $3)
		ON CONFLICT (symbol, trade_date) DO UPDATE SET
			close_price = EXCLUDED.close_price
	`
	for _, b := range bars {
		if b.Close != b.Close { // NaN gap, never persisted as a price
			continue
		}
		if _, err := r.pool.Exec(ctx, query, b.Symbol, b.Date, b.Close); err != nil {
			return err
		}
	}
	return nil
}

// GetCloses retrieves a symbol's closes within a date range, ascending.
func (r *Repository) GetCloses(ctx context.Context, symbol string, from, to time.Time) ([]Bar, error) {
	query := `
		SELECT symbol, trade_date, close_price
		FROM marketdata.daily_closes
		WHERE symbol = $1 AND trade_date BETWEEN $2 AND $3
		ORDER BY trade_date ASC
	`

	rows, err := r.pool.Query(ctx, query, symbol, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bars []Bar
	for rows.Next() {
		var b Bar
		if err := rows.Scan(&b.Symbol, &b.Date, &b.Close); err != nil {
			return nil, err
		}
		bars = append(bars, b)
	}
	return bars, rows.Err()
}

// LatestDate returns the most recent stored date for a symbol.
func (r *Repository) LatestDate(ctx context.Context, symbol string) (time.Time, error) {
	query := `
		SELECT trade_date
		FROM marketdata.daily_closes
		WHERE symbol = $1
		ORDER BY trade_date DESC
		LIMIT 1
	`

	var date time.Time
	err := r.pool.QueryRow(ctx, query, symbol).Scan(&date)
	return date, err
}

// Symbols lists every symbol with stored data.
func (r *Repository) Symbols(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT symbol FROM marketdata.daily_closes ORDER BY symbol`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var symbols []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		symbols = append(symbols, s)
	}
	return symbols, rows.Err()
}

// SaveBacktestRun persists a backtest summary for later comparison.
func (r *Repository) SaveBacktestRun(ctx context.Context, res *backtest.Result) error {
	query := `
		INSERT INTO marketdata.backtest_runs (
			run_id, strategy_id, config_hash, steps, rebalances,
			initial_equity, final_equity, total_return, cagr,
			sharpe, sortino, max_drawdown, win_rate, turnover, cost_paid,
			created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		res.RunID, res.StrategyID, res.ConfigHash, res.Steps, res.Rebalances,
		res.InitialEquity, res.FinalEquity, res.TotalReturn, res.CAGR,
		res.Sharpe, res.Sortino, res.MaxDrawdown, res.WinRate, res.Turnover, res.CostPaid,
		time.Now(),
	)
	return err
}
