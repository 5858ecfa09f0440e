package market

import (
	"fmt"
	"math"
	"time"
)

// Candle is one OHLCV bar. OpenTime is the exchange-native monotonic
// timestamp (Unix milliseconds for Binance).
type Candle struct {
	OpenTime  int64   `json:"open_time" yaml:"open_time"`
	CloseTime int64   `json:"close_time,omitempty" yaml:"close_time,omitempty"`
	Open      float64 `json:"open" yaml:"open"`
	High      float64 `json:"high" yaml:"high"`
	Low       float64 `json:"low" yaml:"low"`
	Close     float64 `json:"close" yaml:"close"`
	Volume    float64 `json:"volume" yaml:"volume"`
	Trades    int64   `json:"trades,omitempty" yaml:"trades,omitempty"`
}

// Validate checks the price invariants of a single bar.
func (c Candle) Validate() error {
	for _, v := range [...]float64{c.Open, c.High, c.Low, c.Close, c.Volume} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("non-finite value")
		}
		if v < 0 {
			return fmt.Errorf("negative value %v", v)
		}
	}
	if c.Open <= 0 || c.Close <= 0 {
		return fmt.Errorf("open/close must be > 0 (open=%v close=%v)", c.Open, c.Close)
	}
	if c.High < c.Low {
		return fmt.Errorf("high %v < low %v", c.High, c.Low)
	}
	if c.Low > math.Min(c.Open, c.Close) {
		return fmt.Errorf("low %v above body", c.Low)
	}
	if c.High < math.Max(c.Open, c.Close) {
		return fmt.Errorf("high %v below body", c.High)
	}
	return nil
}

func (c Candle) Range() float64 { return c.High - c.Low }

func (c Candle) Body() float64 { return math.Abs(c.Close - c.Open) }

func (c Candle) UpperWick() float64 { return c.High - math.Max(c.Open, c.Close) }

func (c Candle) LowerWick() float64 { return math.Min(c.Open, c.Close) - c.Low }

func (c Candle) Bullish() bool { return c.Close > c.Open }

func (c Candle) Bearish() bool { return c.Close < c.Open }

// Time renders OpenTime as UTC, assuming milliseconds.
func (c Candle) Time() time.Time {
	return time.UnixMilli(c.OpenTime).UTC()
}
