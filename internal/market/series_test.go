package market_test

import (
	"errors"
	"math"
	"testing"
	"time"

	"tradescope/internal/market"
	"tradescope/internal/market/markettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSeriesRejectsNonMonotonicTimestamps(t *testing.T) {
	bars := markettest.Flat(5, 100)
	bars[3].OpenTime = bars[2].OpenTime

	_, err := market.NewSeries(markettest.Symbol, markettest.Timeframe, bars)
	require.Error(t, err)

	var ce *market.CandleError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 3, ce.Index)
	assert.Equal(t, market.InputError, ce.Kind)
	assert.ErrorIs(t, err, market.ErrNonMonotonic)
}

func TestNewSeriesRejectsBrokenBars(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*market.Candle)
	}{
		{"high below low", func(c *market.Candle) { c.High, c.Low = 90, 110 }},
		{"zero open", func(c *market.Candle) { c.Open = 0 }},
		{"nan close", func(c *market.Candle) { c.Close = math.NaN() }},
		{"low above body", func(c *market.Candle) { c.Low = 101 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			bars := markettest.Flat(4, 100)
			tc.mutate(&bars[2])
			_, err := market.NewSeries(markettest.Symbol, markettest.Timeframe, bars)
			var ce *market.CandleError
			require.True(t, errors.As(err, &ce))
			assert.Equal(t, 2, ce.Index)
			assert.Equal(t, market.InvariantViolation, ce.Kind)
			assert.ErrorIs(t, err, market.ErrInvariant)
		})
	}
}

func TestFrozenSeriesRejectsAppend(t *testing.T) {
	s := markettest.Series(t, markettest.Flat(3, 10))
	s.Freeze()
	err := s.Append(markettest.Bar(3, 10, 10, 10, 10))
	assert.ErrorIs(t, err, market.ErrFrozen)
	assert.Equal(t, 3, s.Len())

	clone := s.Clone()
	assert.False(t, clone.Frozen())
	require.NoError(t, clone.Append(markettest.Bar(3, 10, 10, 10, 10)))
	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 4, clone.Len())
}

func TestWindowAndColumns(t *testing.T) {
	s := markettest.Series(t, markettest.Uptrend(10, 100, 1))

	w := s.Window(4, 3)
	require.Len(t, w, 3)
	assert.Equal(t, s.At(2), w[0])
	assert.Equal(t, s.At(4), w[2])

	assert.Len(t, s.Window(1, 5), 2)
	assert.Nil(t, s.Window(10, 2))

	closes := s.Closes(3)
	assert.Equal(t, []float64{100, 101, 102, 103}, closes)
	assert.Len(t, s.Highs(100), 10)

	n := 0
	for i, c := range s.All() {
		assert.Equal(t, s.At(i), c)
		n++
	}
	assert.Equal(t, 10, n)
}

func TestTimeframeLookbackRange(t *testing.T) {
	tf, err := market.ParseTimeframe(" 1H ")
	require.NoError(t, err)

	_, err = market.ParseTimeframe("2m")
	assert.Error(t, err)

	now := markettest.Bar(48, 1, 1, 1, 1).Time().Add(17 * time.Minute)
	start, end := tf.LookbackRange(now, 1)
	assert.Equal(t, int64(0), end%markettest.Step)
	assert.Equal(t, int64(25), tf.ExpectedCandles(start, end))
}
