// Command backtest runs a strategy over a CSV price file and prints the
// result as JSON.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/trogers1052/strategy-forge/internal/engine"
	"github.com/trogers1052/strategy-forge/internal/logging"
	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/strategy"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "backtest:", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	pricesPath := fs.String("prices", "", "CSV file with date,open,high,low,close,volume[,sentiment]")
	strategyPath := fs.String("strategy", "", "YAML or JSON strategy file (default: built-in template)")
	capital := fs.Float64("capital", engine.DefaultConfig().DefaultInitialCapital, "initial capital")
	symbol := fs.String("symbol", "CSV", "symbol label for the price file")
	logLevel := fs.String("log-level", "warn", "log level")
	if err := fs.Parse(args); err != nil {
		return err
	}
	logger := logging.New(*logLevel, "text")

	if *pricesPath == "" {
		return fmt.Errorf("-prices is required")
	}
	if *capital <= 0 {
		return fmt.Errorf("-capital must be positive")
	}

	strat, err := loadStrategy(*strategyPath)
	if err != nil {
		return err
	}

	f, err := os.Open(*pricesPath)
	if err != nil {
		return fmt.Errorf("failed to open price file: %w", err)
	}
	defer f.Close()

	prices, sentiment, err := readCSV(f, *symbol)
	if err != nil {
		return err
	}
	logger.Info("loaded prices", "bars", len(prices), "sentiment", len(sentiment), "strategy", strat.Name)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	resp, err := engine.SimulateBars(ctx, *symbol, strat, prices, sentiment, *capital)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(resp)
}

func loadStrategy(path string) (models.Strategy, error) {
	if path == "" {
		return strategy.Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return models.Strategy{}, fmt.Errorf("failed to read strategy file: %w", err)
	}
	return strategy.Parse(data)
}
