package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/trogers1052/strategy-forge/internal/models"
)

// readCSV parses date,open,high,low,close,volume[,sentiment] rows. A header
// row is skipped when its first field is not a date.
func readCSV(r io.Reader, symbol string) ([]*models.PriceDataDaily, []*models.SentimentDaily, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var (
		prices    []*models.PriceDataDaily
		sentiment []*models.SentimentDaily
	)
	for line := 1; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: %w", line, err)
		}
		if len(rec) == 0 || (len(rec) == 1 && strings.TrimSpace(rec[0]) == "") {
			continue
		}

		date, err := time.Parse(models.DateLayout, strings.TrimSpace(rec[0]))
		if err != nil {
			if line == 1 {
				continue
			}
			return nil, nil, fmt.Errorf("line %d: invalid date %q", line, rec[0])
		}
		if len(rec) < 6 {
			return nil, nil, fmt.Errorf("line %d: expected at least 6 fields, got %d", line, len(rec))
		}

		var ohlc [4]decimal.Decimal
		for i := range ohlc {
			ohlc[i], err = decimal.NewFromString(strings.TrimSpace(rec[i+1]))
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: invalid price %q", line, rec[i+1])
			}
		}
		volume, err := strconv.ParseFloat(strings.TrimSpace(rec[5]), 64)
		if err != nil {
			return nil, nil, fmt.Errorf("line %d: invalid volume %q", line, rec[5])
		}

		prices = append(prices, &models.PriceDataDaily{
			Symbol: symbol,
			Date:   date,
			Open:   ohlc[0],
			High:   ohlc[1],
			Low:    ohlc[2],
			Close:  ohlc[3],
			Volume: int64(volume),
		})

		if len(rec) > 6 && strings.TrimSpace(rec[6]) != "" {
			score, err := decimal.NewFromString(strings.TrimSpace(rec[6]))
			if err != nil {
				return nil, nil, fmt.Errorf("line %d: invalid sentiment %q", line, rec[6])
			}
			sentiment = append(sentiment, &models.SentimentDaily{Symbol: symbol, Date: date, Score: score})
		}
	}

	if len(prices) == 0 {
		return nil, nil, fmt.Errorf("no price rows found")
	}
	return prices, sentiment, nil
}
