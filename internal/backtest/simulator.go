// Package backtest replays a strategy over a bar series, one bar at a time,
// and reduces the result to performance metrics.
//
// A run holds at most one position. max_positions gates entry against the
// open count and feeds the equal_weight fraction; it never scales into
// additional lots of the same symbol. Costs and slippage are zero.
package backtest

import (
	"context"
	"fmt"
	"strings"

	"github.com/trogers1052/strategy-forge/internal/models"
	"github.com/trogers1052/strategy-forge/internal/rules"
	"github.com/trogers1052/strategy-forge/internal/sizing"
)

// State is the position state of a run
type State int

const (
	Flat State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "flat"
}

// Result is the output of one run
type Result struct {
	Trades      []models.Trade
	EquityCurve []float64
	Metrics     models.Metrics
}

// Simulator holds a validated strategy with compiled rules. It is immutable
// and may be shared by concurrent runs.
type Simulator struct {
	strategy models.Strategy
	entry    rules.Set
	exit     rules.Set
	required rules.Set
}

// New applies strategy defaults, validates, resolves the sizing policy and
// compiles the rules
func New(strategy models.Strategy) (*Simulator, error) {
	strategy = strategy.WithDefaults()
	if err := strategy.Validate(); err != nil {
		return nil, err
	}
	if _, ok := sizing.Lookup(strategy.PositionSizing); !ok {
		return nil, models.NewValidationError("position_sizing", "unknown policy %q, expected one of %s",
			strategy.PositionSizing, strings.Join(sizing.Policies(), ", "))
	}
	entry, err := rules.CompileAll(strategy.EntryRules)
	if err != nil {
		return nil, fmt.Errorf("entry rules: %w", err)
	}
	exit, err := rules.CompileAll(strategy.ExitRules)
	if err != nil {
		return nil, fmt.Errorf("exit rules: %w", err)
	}
	required := append(append(rules.Set{}, entry...), exit...)
	return &Simulator{strategy: strategy, entry: entry, exit: exit, required: required}, nil
}

// Run validates, compiles and simulates in one call
func Run(ctx context.Context, strategy models.Strategy, bars []models.Bar, initialCapital float64) (*Result, error) {
	sim, err := New(strategy)
	if err != nil {
		return nil, err
	}
	return sim.Run(ctx, bars, initialCapital)
}

// run is the mutable state of one simulation
type run struct {
	sim      *Simulator
	state    State
	cash     float64
	position *models.Position
	openedAt int
	trades   []models.Trade
	equity   []float64
}

// Run processes bars in order. Rule evaluation starts at the first bar that
// defines every indicator the rules reference; a later bar missing one
// aborts the run. Cancellation discards all partial results.
func (s *Simulator) Run(ctx context.Context, bars []models.Bar, initialCapital float64) (*Result, error) {
	if initialCapital <= 0 {
		return nil, models.NewValidationError("initial_capital", "must be positive, got %g", initialCapital)
	}

	r := &run{
		sim:    s,
		state:  Flat,
		cash:   initialCapital,
		equity: make([]float64, 0, len(bars)),
	}
	warm := false
	for i, bar := range bars {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !warm {
			warm = s.required.Ready(bar)
		}
		if warm {
			var err error
			if r.state == Flat {
				err = r.flat(i, bar)
			} else {
				err = r.open(i, bar)
			}
			if err != nil {
				return nil, err
			}
		}
		r.equity = append(r.equity, r.value(bar.Close))
	}

	if r.state == Open {
		last := bars[len(bars)-1]
		r.close(last, last.Close, models.ExitReasonEndOfData)
	}

	return &Result{
		Trades:      r.trades,
		EquityCurve: r.equity,
		Metrics:     CalculateMetrics(r.trades, r.equity, initialCapital),
	}, nil
}

// flat handles the Flat state: enter when any entry rule matches and the
// sizer allocates shares.
func (r *run) flat(i int, bar models.Bar) error {
	matched, err := r.sim.entry.AnyMatch(bar)
	if err != nil {
		return err
	}
	if !matched || r.openCount() >= r.sim.strategy.MaxPositions {
		return nil
	}

	st := r.sim.strategy
	shares, err := sizing.Size(st.PositionSizing, sizing.Input{
		Equity:       r.value(bar.Close),
		Price:        bar.Close,
		Deployed:     r.deployed(bar.Close),
		MaxPositions: st.MaxPositions,
		History:      r.trades,
		Caps:         sizing.CapsFrom(st),
	})
	if err != nil {
		return err
	}
	if shares <= 0 {
		return nil
	}

	p := &models.Position{
		EntryDate:  bar.Date,
		EntryPrice: bar.Close,
		Shares:     shares,
	}
	if st.StopLoss > 0 {
		p.StopLossPrice = bar.Close * (1 - st.StopLoss)
	}
	if st.TakeProfit > 0 {
		p.TakeProfitPrice = bar.Close * (1 + st.TakeProfit)
	}
	r.cash -= p.Cost()
	r.position = p
	r.openedAt = i
	r.state = Open
	return nil
}

// open handles the Open state. Stop and target are inactive on the entry
// bar, and the stop wins when one bar's range covers both.
func (r *run) open(i int, bar models.Bar) error {
	if i == r.openedAt {
		return nil
	}
	p := r.position
	switch {
	case p.StopLossPrice > 0 && bar.Low <= p.StopLossPrice:
		r.close(bar, p.StopLossPrice, models.ExitReasonStopLoss)
		return nil
	case p.TakeProfitPrice > 0 && bar.High >= p.TakeProfitPrice:
		r.close(bar, p.TakeProfitPrice, models.ExitReasonTakeProfit)
		return nil
	}

	matched, err := r.sim.exit.AnyMatch(bar)
	if err != nil {
		return err
	}
	if matched {
		r.close(bar, bar.Close, models.ExitReasonRule)
	}
	return nil
}

func (r *run) close(bar models.Bar, price float64, reason string) {
	trade := models.NewTrade(r.position, bar.Date.Format(models.DateLayout), price, reason)
	r.cash += r.position.MarketValue(price)
	r.trades = append(r.trades, trade)
	r.position = nil
	r.state = Flat
}

func (r *run) openCount() int {
	if r.position == nil {
		return 0
	}
	return 1
}

func (r *run) deployed(price float64) float64 {
	if r.position == nil {
		return 0
	}
	return r.position.MarketValue(price)
}

// value is cash plus the open position marked at price
func (r *run) value(price float64) float64 {
	return r.cash + r.deployed(price)
}
