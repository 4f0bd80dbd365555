package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/strategy-forge/internal/models"
)

const sampleCSV = `date,open,high,low,close,volume,sentiment
2024-01-02,99,101,98,100,1000,0.6
2024-01-03,100,111,99,110,1200,
2024-01-04,110,112,104,105,900,0.4
2024-01-05,105,121,104,120,1500,0.7
2024-01-08,120,122,114,115,1100,0.5
`

func TestReadCSV(t *testing.T) {
	prices, sentiment, err := readCSV(strings.NewReader(sampleCSV), "AAPL")
	require.NoError(t, err)
	require.Len(t, prices, 5)
	assert.Equal(t, "AAPL", prices[0].Symbol)
	assert.Equal(t, "2024-01-02", prices[0].Date.Format(models.DateLayout))
	assert.True(t, decimal.NewFromInt(100).Equal(prices[0].Close))
	assert.Equal(t, int64(1500), prices[3].Volume)

	require.Len(t, sentiment, 4)
	assert.Equal(t, "2024-01-04", sentiment[1].Date.Format(models.DateLayout))
}

func TestReadCSVWithoutHeader(t *testing.T) {
	prices, sentiment, err := readCSV(strings.NewReader("2024-01-02,1,2,0.5,1.5,10\n"), "X")
	require.NoError(t, err)
	assert.Len(t, prices, 1)
	assert.Empty(t, sentiment)
}

func TestReadCSVErrors(t *testing.T) {
	tests := map[string]string{
		"empty":         "date,open,high,low,close,volume\n",
		"bad date":      "2024-01-02,1,2,0.5,1.5,10\n01/03/2024,1,2,0.5,1.5,10\n",
		"short row":     "2024-01-02,1,2,0.5\n",
		"bad price":     "2024-01-02,1,two,0.5,1.5,10\n",
		"bad volume":    "2024-01-02,1,2,0.5,1.5,lots\n",
		"bad sentiment": "2024-01-02,1,2,0.5,1.5,10,meh\n",
	}
	for name, input := range tests {
		t.Run(name, func(t *testing.T) {
			_, _, err := readCSV(strings.NewReader(input), "X")
			assert.Error(t, err)
		})
	}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestRunPrintsBacktestJSON(t *testing.T) {
	dir := t.TempDir()
	pricesPath := writeFile(t, dir, "prices.csv", sampleCSV)
	strategyPath := writeFile(t, dir, "strategy.yaml", `
name: always long
entry_rules:
  - close > 0
exit_rules:
  - close < 0
position_sizing: equal_weight
max_positions: 1
asset_allocation:
  max_position_size: 1.0
  max_total_exposure: 1.0
`)

	var out bytes.Buffer
	err := run([]string{"-prices", pricesPath, "-strategy", strategyPath, "-capital", "1000", "-symbol", "AAPL"}, &out)
	require.NoError(t, err)

	var resp models.BacktestResponse
	require.NoError(t, json.Unmarshal(out.Bytes(), &resp))
	assert.NotEmpty(t, resp.BacktestID)
	assert.Equal(t, []float64{1000, 1100, 1050, 1200, 1150}, resp.EquityCurve)
	require.Len(t, resp.Trades, 1)
	assert.Equal(t, models.ExitReasonEndOfData, resp.Trades[0].ExitReason)
	assert.Equal(t, int64(10), resp.Trades[0].Shares)
	assert.Equal(t, 1, resp.Metrics.TotalTrades)
	assert.InDelta(t, 1150.0, resp.Metrics.FinalEquity, 1e-9)
	assert.InDelta(t, 0.15, resp.Metrics.TotalReturn, 1e-9)
}

func TestRunFlagErrors(t *testing.T) {
	var out bytes.Buffer
	assert.ErrorContains(t, run([]string{}, &out), "-prices is required")
	assert.ErrorContains(t, run([]string{"-prices", "x.csv", "-capital", "0"}, &out), "-capital must be positive")
	assert.ErrorContains(t, run([]string{"-prices", filepath.Join(t.TempDir(), "missing.csv")}, &out), "failed to open price file")
}

func TestRunRejectsInvalidStrategy(t *testing.T) {
	dir := t.TempDir()
	pricesPath := writeFile(t, dir, "prices.csv", sampleCSV)
	strategyPath := writeFile(t, dir, "bad.json", `{"name":"bad","entry_rules":["close >"],"exit_rules":["close < 1"]}`)

	var out bytes.Buffer
	err := run([]string{"-prices", pricesPath, "-strategy", strategyPath}, &out)
	assert.Error(t, err)
	assert.Empty(t, out.String())
}
