package rules

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trogers1052/strategy-forge/internal/models"
)

func barWith(values map[string]float64) models.Bar {
	return models.Bar{
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Indicators: values,
	}
}

func mustCompile(t *testing.T, text string) *Rule {
	t.Helper()
	r, err := Compile(text)
	require.NoError(t, err)
	return r
}

func TestEvaluateComparisons(t *testing.T) {
	bar := barWith(map[string]float64{"rsi": 28, "close": 100, "sma_20": 95, "macd_diff": -0.5})

	tests := []struct {
		rule string
		want bool
	}{
		{"rsi < 35", true},
		{"rsi <= 28", true},
		{"rsi > 28", false},
		{"rsi >= 28", true},
		{"rsi == 28", true},
		{"rsi != 28", false},
		{"macd_diff < -0.25", true},
		{"macd_diff > -.25", false},
		{"close > sma_20", true},
		{"RSI < 35 AND Close > 50", true},
		{"rsi<35", true},
		{"rsi < 3.5e1", true},
	}
	for _, tt := range tests {
		t.Run(tt.rule, func(t *testing.T) {
			got, err := Evaluate(tt.rule, bar)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrecedence(t *testing.T) {
	rule := "rsi < 35 or macd_diff > 0 and volume_ratio > 1.0"
	bar := barWith(map[string]float64{"rsi": 30, "macd_diff": -1, "volume_ratio": 0.5})

	got, err := Evaluate(rule, bar)
	require.NoError(t, err)
	assert.True(t, got, "and must bind tighter than or")

	grouped, err := Evaluate("(rsi < 35 or macd_diff > 0) and volume_ratio > 1.0", bar)
	require.NoError(t, err)
	assert.False(t, grouped)

	r := mustCompile(t, rule)
	assert.Equal(t, "(rsi < 35 or (macd_diff > 0 and volume_ratio > 1))", r.String())
}

func TestLeftAssociative(t *testing.T) {
	r := mustCompile(t, "rsi > 1 and rsi > 2 and rsi > 3")
	assert.Equal(t, "((rsi > 1 and rsi > 2) and rsi > 3)", r.String())
}

func TestParseErrors(t *testing.T) {
	for _, rule := range []string{
		"rsi <",
		"",
		"rsi < 30 and",
		"(rsi < 30",
		"rsi < 30)",
		"rsi = 30",
		"rsi < 30 xor close > 1",
		"rsi 30",
		"rsi < 30; import os",
		"__import__('os')",
	} {
		t.Run(rule, func(t *testing.T) {
			_, err := Compile(rule)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, rule, pe.Rule)
			assert.Contains(t, err.Error(), rule)
		})
	}
}

func TestNonASCIIWhitespaceRejected(t *testing.T) {
	tests := []struct {
		name string
		rule string
		pos  int
	}{
		{"stray latin-1 bytes", "rsi\x85<\xa030", 3},
		{"no-break space", "rsi\u00a0< 30", 3},
		{"vertical tab", "rsi <\v30", 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile(tt.rule)
			var pe *ParseError
			require.True(t, errors.As(err, &pe), "got %v", err)
			assert.Equal(t, tt.pos, pe.Pos)
			assert.Contains(t, pe.Reason, "unexpected character")
		})
	}

	_, err := Compile("rsi\t<\r\n30")
	assert.NoError(t, err)
}

func TestUnknownIndicator(t *testing.T) {
	t.Run("outside namespace", func(t *testing.T) {
		_, err := Evaluate("foo > 1", barWith(map[string]float64{"foo": 2}))
		var ue *UnknownIndicatorError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "foo", ue.Indicator)
		assert.True(t, ue.Date.IsZero())
	})

	t.Run("missing on bar", func(t *testing.T) {
		bar := barWith(map[string]float64{"close": 10})
		_, err := Evaluate("sma_50 > 1", bar)
		var ue *UnknownIndicatorError
		require.True(t, errors.As(err, &ue))
		assert.Equal(t, "sma_50", ue.Indicator)
		assert.Equal(t, bar.Date, ue.Date)
	})

	t.Run("not masked by or", func(t *testing.T) {
		_, err := Evaluate("close > 1 or rsi < 30", barWith(map[string]float64{"close": 10}))
		var ue *UnknownIndicatorError
		assert.True(t, errors.As(err, &ue))
	})
}

func TestDeterministic(t *testing.T) {
	bar := barWith(map[string]float64{"rsi": 40, "sentiment_score": 0.7})
	r := mustCompile(t, "rsi < 30 and sentiment_score > 0.6 or sentiment_score > 0.65")
	first, err := r.Evaluate(bar)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		got, err := r.Evaluate(bar)
		require.NoError(t, err)
		assert.Equal(t, first, got)
	}
}

func TestSet(t *testing.T) {
	set, err := CompileAll([]string{"rsi < 30", "macd_diff > 0 and volume_ratio > 1"})
	require.NoError(t, err)

	assert.False(t, set.Ready(barWith(map[string]float64{"rsi": 45, "macd_diff": 0.2})), "volume_ratio is referenced")

	bar := barWith(map[string]float64{"rsi": 45, "macd_diff": 0.2, "volume_ratio": 1.5})
	ok, err := set.AnyMatch(bar)
	require.NoError(t, err)
	assert.True(t, ok)

	matching, err := set.Matching(bar)
	require.NoError(t, err)
	assert.Equal(t, []string{"macd_diff > 0 and volume_ratio > 1"}, matching)

	assert.True(t, set.Ready(bar))
	assert.False(t, set.Ready(barWith(map[string]float64{"rsi": 45})))

	_, err = set.AnyMatch(barWith(map[string]float64{"rsi": 10}))
	assert.Error(t, err, "a match in the first rule must not hide a missing indicator later")

	_, err = CompileAll([]string{"rsi < 30", "rsi <"})
	var pe *ParseError
	assert.True(t, errors.As(err, &pe))
}
