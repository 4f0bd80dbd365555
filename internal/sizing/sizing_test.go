package sizing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/strategy-forge/internal/models"
)

var fullCaps = Caps{MaxPositionSize: 1, MaxTotalExposure: 1}

func TestSize(t *testing.T) {
	tests := []struct {
		name   string
		policy string
		in     Input
		want   int64
	}{
		{
			name:   "equal weight single slot buys all",
			policy: models.SizingEqualWeight,
			in:     Input{Equity: 1000, Price: 100, MaxPositions: 1, Caps: fullCaps},
			want:   10,
		},
		{
			name:   "equal weight clamped by position cap",
			policy: models.SizingEqualWeight,
			in:     Input{Equity: 1000, Price: 100, MaxPositions: 1, Caps: Caps{MaxPositionSize: 0.2, MaxTotalExposure: 1}},
			want:   2,
		},
		{
			name:   "fixed fractional floors",
			policy: models.SizingFixedFractional,
			in:     Input{Equity: 1000, Price: 30, Caps: Caps{MaxPositionSize: 0.5, MaxTotalExposure: 1}},
			want:   16,
		},
		{
			name:   "price above allocation is no entry",
			policy: models.SizingFixedFractional,
			in:     Input{Equity: 1000, Price: 500, Caps: Caps{MaxPositionSize: 0.2, MaxTotalExposure: 1}},
			want:   0,
		},
		{
			name:   "exposure cap rejects",
			policy: models.SizingFixedFractional,
			in:     Input{Equity: 1000, Price: 10, Deployed: 900, Caps: Caps{MaxPositionSize: 0.2, MaxTotalExposure: 1}},
			want:   0,
		},
		{
			name:   "exposure at cap accepted",
			policy: models.SizingFixedFractional,
			in:     Input{Equity: 1000, Price: 10, Deployed: 800, Caps: Caps{MaxPositionSize: 0.2, MaxTotalExposure: 1}},
			want:   20,
		},
		{
			name:   "kelly default before trades",
			policy: models.SizingKellyCriterion,
			in:     Input{Equity: 1000, Price: 10, Caps: fullCaps},
			want:   10,
		},
		{
			name:   "zero equity",
			policy: models.SizingEqualWeight,
			in:     Input{Equity: 0, Price: 10, MaxPositions: 1, Caps: fullCaps},
			want:   0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Size(tt.policy, tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSizeUnknownPolicy(t *testing.T) {
	_, err := Size("martingale", Input{Equity: 1000, Price: 10, Caps: fullCaps})
	assert.Error(t, err)
}

func TestKelly(t *testing.T) {
	t.Run("wins and losses", func(t *testing.T) {
		// W = 0.5, R = 20/10 = 2, f = 0.5 - 0.5/2
		history := []models.Trade{{PnL: 20}, {PnL: -10}}
		assert.InDelta(t, 0.25, Kelly(Input{History: history}), 1e-9)
	})

	t.Run("no losses uses win rate", func(t *testing.T) {
		history := []models.Trade{{PnL: 5}, {PnL: 5}, {PnL: 0}}
		assert.InDelta(t, 2.0/3.0, Kelly(Input{History: history}), 1e-9)
	})

	t.Run("no wins", func(t *testing.T) {
		assert.Equal(t, 0.0, Kelly(Input{History: []models.Trade{{PnL: -5}}}))
	})

	t.Run("negative edge floors at zero", func(t *testing.T) {
		history := []models.Trade{{PnL: 1}, {PnL: -10}, {PnL: -10}}
		assert.Equal(t, 0.0, Kelly(Input{History: history}))
	})
}

func TestRegister(t *testing.T) {
	Register("half", func(Input) float64 { return 0.5 })
	defer func() {
		mu.Lock()
		delete(policies, "half")
		mu.Unlock()
	}()

	assert.Contains(t, Policies(), "half")
	_, ok := Lookup("half")
	assert.True(t, ok)
	_, ok = Lookup("martingale")
	assert.False(t, ok)
	got, err := Size("half", Input{Equity: 1000, Price: 10, Caps: fullCaps})
	require.NoError(t, err)
	assert.Equal(t, int64(50), got)
}
