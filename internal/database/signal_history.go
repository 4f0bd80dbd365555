package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// CreateSignalHistory records one signal check outcome
func (db *DB) CreateSignalHistory(ctx context.Context, h *models.SignalHistory) error {
	if h.CheckedAt.IsZero() {
		h.CheckedAt = time.Now()
	}
	h.Symbol = strings.ToUpper(h.Symbol)

	query := `
		INSERT INTO signal_history (symbol, strategy_name, entry_matched, exit_matched,
			entry_email_sent, exit_email_sent, checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	err := db.conn.QueryRowContext(ctx, query,
		h.Symbol, h.StrategyName, h.EntryMatched, h.ExitMatched,
		h.EntryEmailSent, h.ExitEmailSent, h.CheckedAt,
	).Scan(&h.ID)
	if err != nil {
		return fmt.Errorf("failed to create signal history: %w", err)
	}
	return nil
}

// GetSignalHistory retrieves the latest checks for a symbol, newest first
func (db *DB) GetSignalHistory(ctx context.Context, symbol string, limit int) ([]*models.SignalHistory, error) {
	query := `
		SELECT id, symbol, strategy_name, entry_matched, exit_matched,
			entry_email_sent, exit_email_sent, checked_at
		FROM signal_history
		WHERE symbol = $1
		ORDER BY checked_at DESC, id DESC
		LIMIT $2
	`
	rows, err := db.conn.QueryContext(ctx, query, strings.ToUpper(symbol), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to get signal history: %w", err)
	}
	defer rows.Close()

	var history []*models.SignalHistory
	for rows.Next() {
		var h models.SignalHistory
		err := rows.Scan(&h.ID, &h.Symbol, &h.StrategyName, &h.EntryMatched, &h.ExitMatched,
			&h.EntryEmailSent, &h.ExitEmailSent, &h.CheckedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan signal history: %w", err)
		}
		history = append(history, &h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate signal history: %w", err)
	}
	return history, nil
}
