// Package sizing converts a position sizing policy and risk caps into a
// share quantity for a new position.
package sizing

import (
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/trogers1052/strategy-forge/internal/models"
)

// DefaultKellyFraction is used before the run has any closed trades
const DefaultKellyFraction = 0.1

// Caps are the asset allocation limits applied to every policy
type Caps struct {
	MaxPositionSize  float64
	MaxTotalExposure float64
}

// CapsFrom reads the caps from a strategy
func CapsFrom(s models.Strategy) Caps {
	return Caps{
		MaxPositionSize:  s.AssetAllocation.MaxPositionSize,
		MaxTotalExposure: s.AssetAllocation.MaxTotalExposure,
	}
}

// Input describes one sizing decision
type Input struct {
	Equity       float64 // current portfolio value
	Price        float64 // entry price
	Deployed     float64 // notional already held in open positions
	MaxPositions int
	History      []models.Trade // closed trades of this run so far
	Caps         Caps
}

// Policy proposes the fraction of equity to put into a new position
type Policy func(in Input) float64

var (
	mu       sync.RWMutex
	policies = map[string]Policy{
		models.SizingFixedFractional: FixedFractional,
		models.SizingEqualWeight:     EqualWeight,
		models.SizingKellyCriterion:  Kelly,
	}
)

// Register adds or replaces a named policy. Registered names are accepted
// by backtest.New like the built-in ones.
func Register(name string, p Policy) {
	mu.Lock()
	defer mu.Unlock()
	policies[name] = p
}

// Policies returns the registered policy names
func Policies() []string {
	mu.RLock()
	defer mu.RUnlock()
	names := make([]string, 0, len(policies))
	for name := range policies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Lookup returns the named policy
func Lookup(name string) (Policy, bool) {
	mu.RLock()
	defer mu.RUnlock()
	p, ok := policies[name]
	return p, ok
}

// Size returns the whole number of shares to buy. Zero means no entry.
func Size(policy string, in Input) (int64, error) {
	p, ok := Lookup(policy)
	if !ok {
		return 0, fmt.Errorf("unknown position sizing policy %q", policy)
	}
	if in.Equity <= 0 || in.Price <= 0 {
		return 0, nil
	}

	fraction := p(in)
	if fraction > in.Caps.MaxPositionSize {
		fraction = in.Caps.MaxPositionSize
	}
	if fraction <= 0 || math.IsNaN(fraction) {
		return 0, nil
	}

	shares := int64(math.Floor(fraction * in.Equity / in.Price))
	if shares <= 0 {
		return 0, nil
	}

	notional := float64(shares) * in.Price
	if (in.Deployed+notional)/in.Equity > in.Caps.MaxTotalExposure+1e-12 {
		return 0, nil
	}
	return shares, nil
}

// FixedFractional invests the per-position cap
func FixedFractional(in Input) float64 {
	return in.Caps.MaxPositionSize
}

// EqualWeight splits equity evenly across max positions
func EqualWeight(in Input) float64 {
	if in.MaxPositions <= 0 {
		return 0
	}
	return 1 / float64(in.MaxPositions)
}

// Kelly computes f = W - (1-W)/R from the run's closed trades, where W is
// the win rate and R the average win over the average loss.
func Kelly(in Input) float64 {
	if len(in.History) == 0 {
		return DefaultKellyFraction
	}
	var wins, losses int
	var winSum, lossSum float64
	for _, t := range in.History {
		switch {
		case t.PnL > 0:
			wins++
			winSum += t.PnL
		case t.PnL < 0:
			losses++
			lossSum += -t.PnL
		}
	}
	if wins == 0 {
		return 0
	}
	w := float64(wins) / float64(len(in.History))
	if losses == 0 {
		return w
	}
	r := (winSum / float64(wins)) / (lossSum / float64(losses))
	f := w - (1-w)/r
	if f < 0 {
		return 0
	}
	return f
}
