package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/trogers1052/strategy-forge/internal/models"
)

const upsertPriceData = `
	INSERT INTO price_data_daily (symbol, date, open, high, low, close, volume, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	ON CONFLICT (symbol, date) DO UPDATE SET
		open = EXCLUDED.open,
		high = EXCLUDED.high,
		low = EXCLUDED.low,
		close = EXCLUDED.close,
		volume = EXCLUDED.volume
	RETURNING id
`

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("not found")

// CreatePriceData upserts one daily bar keyed by (symbol, date)
func (db *DB) CreatePriceData(ctx context.Context, p *models.PriceDataDaily) error {
	p.Symbol = strings.ToUpper(p.Symbol)
	err := db.conn.QueryRowContext(ctx, upsertPriceData,
		p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, time.Now(),
	).Scan(&p.ID)

	if err != nil {
		return fmt.Errorf("failed to create price data: %w", err)
	}
	return nil
}

// CreatePriceDataBatch upserts many bars in a single transaction
func (db *DB) CreatePriceDataBatch(ctx context.Context, prices []*models.PriceDataDaily) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, upsertPriceData)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	now := time.Now()
	for _, p := range prices {
		p.Symbol = strings.ToUpper(p.Symbol)
		err := stmt.QueryRowContext(ctx, p.Symbol, p.Date, p.Open, p.High, p.Low, p.Close, p.Volume, now).Scan(&p.ID)
		if err != nil {
			return fmt.Errorf("failed to insert price data for %s: %w", p.Symbol, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// GetPriceDataRange retrieves bars for a symbol within [start, end], oldest first
func (db *DB) GetPriceDataRange(ctx context.Context, symbol string, start, end time.Time) ([]*models.PriceDataDaily, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, volume, created_at
		FROM price_data_daily
		WHERE symbol = $1 AND date >= $2 AND date <= $3
		ORDER BY date ASC
	`
	rows, err := db.conn.QueryContext(ctx, query, strings.ToUpper(symbol), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to get price data range: %w", err)
	}
	defer rows.Close()

	var prices []*models.PriceDataDaily
	for rows.Next() {
		p, err := scanPriceData(rows)
		if err != nil {
			return nil, err
		}
		prices = append(prices, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate price data: %w", err)
	}

	return prices, nil
}

// GetLatestPriceData retrieves the most recent bar for a symbol
func (db *DB) GetLatestPriceData(ctx context.Context, symbol string) (*models.PriceDataDaily, error) {
	query := `
		SELECT id, symbol, date, open, high, low, close, volume, created_at
		FROM price_data_daily
		WHERE symbol = $1
		ORDER BY date DESC
		LIMIT 1
	`
	p, err := scanPriceData(db.conn.QueryRowContext(ctx, query, strings.ToUpper(symbol)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("price data for %s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanPriceData(row rowScanner) (*models.PriceDataDaily, error) {
	var p models.PriceDataDaily
	err := row.Scan(&p.ID, &p.Symbol, &p.Date, &p.Open, &p.High, &p.Low, &p.Close, &p.Volume, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan price data: %w", err)
	}
	return &p, nil
}
