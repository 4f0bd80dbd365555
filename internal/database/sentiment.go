package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// CreateSentiment upserts a daily sentiment score keyed by (symbol, date)
func (db *DB) CreateSentiment(ctx context.Context, s *models.SentimentDaily) error {
	query := `
		INSERT INTO sentiment_daily (symbol, date, score, created_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (symbol, date) DO UPDATE SET score = EXCLUDED.score
		RETURNING id
	`
	s.Symbol = strings.ToUpper(s.Symbol)
	err := db.conn.QueryRowContext(ctx, query, s.Symbol, s.Date, s.Score, time.Now()).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to create sentiment: %w", err)
	}
	return nil
}

// GetSentimentRange retrieves sentiment scores for a symbol within [start, end], oldest first
func (db *DB) GetSentimentRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.SentimentDaily, error) {
	query := `
		SELECT id, symbol, date, score, created_at
		FROM sentiment_daily
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, strings.ToUpper(symbol), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get sentiment range: %w", err)
	}
	defer rows.Close()

	var scores []*models.SentimentDaily
	for rows.Next() {
		var s models.SentimentDaily
		if err := rows.Scan(&s.ID, &s.Symbol, &s.Date, &s.Score, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan sentiment: %w", err)
		}
		scores = append(scores, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate sentiment: %w", err)
	}
	return scores, nil
}
