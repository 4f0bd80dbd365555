// Package strategy provides strategy templates and generation.
package strategy

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/trogers1052/strategy-forge/internal/models"
)

//go:embed default_strategy.yaml
var defaultStrategyYAML []byte

// Risk tolerance levels accepted by generation requests
const (
	RiskLow    = "low"
	RiskMedium = "medium"
	RiskHigh   = "high"
)

// Input is the market context handed to a Generator
type Input struct {
	Symbol        string
	Bars          []models.Bar
	RiskTolerance string
}

// Generator produces a strategy for a symbol and its recent market data
type Generator interface {
	Generate(ctx context.Context, in Input) (models.Strategy, error)
}

// Default returns the built-in strategy template
func Default() (models.Strategy, error) {
	return Parse(defaultStrategyYAML)
}

// Parse decodes a strategy from YAML or JSON
func Parse(data []byte) (models.Strategy, error) {
	var s models.Strategy
	if err := yaml.Unmarshal(data, &s); err != nil {
		return models.Strategy{}, fmt.Errorf("failed to parse strategy: %w", err)
	}
	return s, nil
}

// NormalizeRiskTolerance lowercases the level, defaulting to medium
func NormalizeRiskTolerance(level string) (string, error) {
	level = strings.ToLower(strings.TrimSpace(level))
	switch level {
	case "":
		return RiskMedium, nil
	case RiskLow, RiskMedium, RiskHigh:
		return level, nil
	}
	return "", models.NewValidationError("risk_tolerance", "must be one of low, medium, high, got %q", level)
}

// TemplateGenerator returns the default template named after the detected
// market regime and scaled to the requested risk tolerance.
type TemplateGenerator struct{}

// NewTemplateGenerator creates a TemplateGenerator
func NewTemplateGenerator() *TemplateGenerator {
	return &TemplateGenerator{}
}

// Generate implements Generator
func (g *TemplateGenerator) Generate(ctx context.Context, in Input) (models.Strategy, error) {
	if err := ctx.Err(); err != nil {
		return models.Strategy{}, err
	}
	risk, err := NormalizeRiskTolerance(in.RiskTolerance)
	if err != nil {
		return models.Strategy{}, err
	}
	s, err := Default()
	if err != nil {
		return models.Strategy{}, err
	}

	regime := DetectRegime(in.Bars)
	s.Name = fmt.Sprintf("%s (%s)", s.Name, regime)
	s.MarketRegime = regime

	switch risk {
	case RiskLow:
		s.AssetAllocation.MaxPositionSize = round2(s.AssetAllocation.MaxPositionSize / 2)
		s.StopLoss = round4(s.StopLoss * 0.75)
	case RiskHigh:
		s.AssetAllocation.MaxPositionSize = round2(math.Min(s.AssetAllocation.MaxPositionSize*1.5, 1))
		s.StopLoss = round4(s.StopLoss * 1.5)
		s.TakeProfit = round4(s.TakeProfit * 1.5)
	}
	return s, nil
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func round4(v float64) float64 { return math.Round(v*1e4) / 1e4 }
