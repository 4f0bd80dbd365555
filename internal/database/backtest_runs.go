package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// SaveBacktestRun stores a run and its trades in one transaction
func (db *DB) SaveBacktestRun(ctx context.Context, run *models.BacktestRun) error {
	strategyJSON, err := json.Marshal(run.Strategy)
	if err != nil {
		return fmt.Errorf("failed to encode strategy: %w", err)
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now()
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	m := run.Metrics
	_, err = tx.ExecContext(ctx, `
		INSERT INTO backtest_runs (
			id, strategy_name, position_sizing, max_positions, symbol,
			start_date, end_date, initial_capital, strategy,
			total_return, annual_return, sharpe_ratio, max_drawdown, win_rate,
			profit_factor, total_trades, avg_trade, final_equity, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
	`,
		run.ID, run.Strategy.Name, run.Strategy.PositionSizing, run.Strategy.MaxPositions, run.Symbol,
		run.StartDate, run.EndDate, run.InitialCapital, string(strategyJSON),
		m.TotalReturn, m.AnnualReturn, m.SharpeRatio, m.MaxDrawdown, m.WinRate,
		m.ProfitFactor, m.TotalTrades, m.AvgTrade, m.FinalEquity, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert backtest run: %w", err)
	}

	if len(run.Trades) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO backtest_trades (
				run_id, seq, entry_date, exit_date, entry_price, exit_price,
				shares, pnl, return_pct, exit_reason
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`)
		if err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
		defer stmt.Close()

		for i, t := range run.Trades {
			_, err := stmt.ExecContext(ctx, run.ID, i, t.EntryDate, t.ExitDate, t.EntryPrice, t.ExitPrice,
				t.Shares, t.PnL, t.ReturnPct, nullString(t.ExitReason))
			if err != nil {
				return fmt.Errorf("failed to insert trade %d: %w", i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetBacktestRun retrieves a run with its trades in execution order
func (db *DB) GetBacktestRun(ctx context.Context, id string) (*models.BacktestRun, error) {
	var (
		run          models.BacktestRun
		strategyJSON []byte
		m            = &run.Metrics
	)
	err := db.conn.QueryRowContext(ctx, `
		SELECT id, symbol, start_date, end_date, initial_capital, strategy,
			total_return, annual_return, sharpe_ratio, max_drawdown, win_rate,
			profit_factor, total_trades, avg_trade, final_equity, created_at
		FROM backtest_runs
		WHERE id = $1
	`, id).Scan(
		&run.ID, &run.Symbol, &run.StartDate, &run.EndDate, &run.InitialCapital, &strategyJSON,
		&m.TotalReturn, &m.AnnualReturn, &m.SharpeRatio, &m.MaxDrawdown, &m.WinRate,
		&m.ProfitFactor, &m.TotalTrades, &m.AvgTrade, &m.FinalEquity, &run.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("backtest run %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest run: %w", err)
	}
	if err := json.Unmarshal(strategyJSON, &run.Strategy); err != nil {
		return nil, fmt.Errorf("failed to decode strategy: %w", err)
	}

	rows, err := db.conn.QueryContext(ctx, `
		SELECT entry_date, exit_date, entry_price, exit_price, shares, pnl, return_pct, exit_reason
		FROM backtest_trades
		WHERE run_id = $1
		ORDER BY seq ASC
	`, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get backtest trades: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t           models.Trade
			entry, exit time.Time
			reason      sql.NullString
		)
		if err := rows.Scan(&entry, &exit, &t.EntryPrice, &t.ExitPrice, &t.Shares, &t.PnL, &t.ReturnPct, &reason); err != nil {
			return nil, fmt.Errorf("failed to scan trade: %w", err)
		}
		t.EntryDate = entry.Format(models.DateLayout)
		t.ExitDate = exit.Format(models.DateLayout)
		t.ExitReason = reason.String
		run.Trades = append(run.Trades, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trades: %w", err)
	}

	return &run, nil
}

// GetTopStrategies ranks stored runs by a whitelisted metric, best first
func (db *DB) GetTopStrategies(ctx context.Context, limit int, orderBy string) ([]models.TopStrategy, error) {
	limit, orderBy = models.NormalizeTopQuery(limit, orderBy)

	// orderBy is one of models.TopOrderColumns at this point
	query := fmt.Sprintf(`
		SELECT id, strategy_name, symbol, position_sizing, max_positions,
			sharpe_ratio, total_return, annual_return, max_drawdown, win_rate,
			profit_factor, total_trades
		FROM backtest_runs
		ORDER BY %s DESC NULLS LAST, created_at DESC
		LIMIT $1
	`, orderBy)

	rows, err := db.conn.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get top strategies: %w", err)
	}
	defer rows.Close()

	top := []models.TopStrategy{}
	for rows.Next() {
		var (
			s                                            models.TopStrategy
			maxPositions, totalTrades                    sql.NullInt64
			sharpe, total, annual, drawdown, win, profit sql.NullFloat64
		)
		err := rows.Scan(&s.RunID, &s.Name, &s.Symbol, &s.PositionSizing, &maxPositions,
			&sharpe, &total, &annual, &drawdown, &win, &profit, &totalTrades)
		if err != nil {
			return nil, fmt.Errorf("failed to scan top strategy: %w", err)
		}
		s.MaxPositions = intPtr(maxPositions)
		s.TotalTrades = intPtr(totalTrades)
		s.SharpeRatio = floatPtr(sharpe)
		s.TotalReturn = floatPtr(total)
		s.AnnualReturn = floatPtr(annual)
		s.MaxDrawdown = floatPtr(drawdown)
		s.WinRate = floatPtr(win)
		s.ProfitFactor = floatPtr(profit)
		top = append(top, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate top strategies: %w", err)
	}
	return top, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func intPtr(n sql.NullInt64) *int {
	if !n.Valid {
		return nil
	}
	v := int(n.Int64)
	return &v
}

func floatPtr(f sql.NullFloat64) *float64 {
	if !f.Valid {
		return nil
	}
	return &f.Float64
}
