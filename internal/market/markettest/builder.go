// Package markettest builds synthetic candle series for tests.
package markettest

import (
	"testing"

	"tradescope/internal/market"
)

const (
	Symbol    = "BTC/USDT"
	Timeframe = "1h"
	Step      = int64(3_600_000)
	Start     = int64(1_699_999_200_000)
)

// Bar builds a candle at position i of an hourly grid.
func Bar(i int, open, high, low, close float64) market.Candle {
	ts := Start + int64(i)*Step
	return market.Candle{
		OpenTime:  ts,
		CloseTime: ts + Step - 1,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     close,
		Volume:    100,
	}
}

// Flat returns n identical bars at price.
func Flat(n int, price float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		out[i] = Bar(i, price, price, price, price)
	}
	return out
}

// Uptrend returns n bars rising by step per bar from base. Each bar opens one
// step below its close and has half-step wicks.
func Uptrend(n int, base, step float64) []market.Candle {
	out := make([]market.Candle, n)
	for i := range out {
		c := base + float64(i)*step
		o := c - step
		out[i] = Bar(i, o, c+step/2, o-step/2, c)
	}
	return out
}

// Closes builds bars whose open is the previous close and whose wicks extend
// by pad around the body.
func Closes(closes []float64, pad float64) []market.Candle {
	out := make([]market.Candle, len(closes))
	for i, c := range closes {
		o := c
		if i > 0 {
			o = closes[i-1]
		}
		hi, lo := max(o, c)+pad, min(o, c)-pad
		out[i] = Bar(i, o, hi, lo, c)
	}
	return out
}

// Series wraps candles into a validated series, failing the test on error.
func Series(t testing.TB, candles []market.Candle) *market.Series {
	t.Helper()
	s, err := market.NewSeries(Symbol, Timeframe, candles)
	if err != nil {
		t.Fatalf("build series: %v", err)
	}
	return s
}
