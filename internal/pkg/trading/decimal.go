// Package trading holds decimal helpers shared by sizing and fills.
package trading

import (
	"math"

	"github.com/shopspring/decimal"
)

// Dec converts a float, mapping NaN and Inf to zero.
func Dec(val float64) decimal.Decimal {
	if math.IsNaN(val) || math.IsInf(val, 0) {
		return decimal.Zero
	}
	return decimal.NewFromFloat(val)
}

func Float(val decimal.Decimal) float64 {
	f, _ := val.Float64()
	return f
}

// FloorToStep rounds qty down to a multiple of step. A non-positive step
// leaves qty unchanged.
func FloorToStep(qty, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return qty
	}
	return qty.Div(step).Floor().Mul(step)
}

// AtOrBelow reports price <= level, compared in decimal.
func AtOrBelow(price, level float64) bool {
	return Dec(price).Cmp(Dec(level)) <= 0
}

// AtOrAbove reports price >= level, compared in decimal.
func AtOrAbove(price, level float64) bool {
	return Dec(price).Cmp(Dec(level)) >= 0
}

// PnL is the signed profit of size units moved from entry to exit. sign is +1
// for long and -1 for short.
func PnL(sign, entry, exit, size float64) decimal.Decimal {
	return Dec(exit).Sub(Dec(entry)).Mul(Dec(size)).Mul(Dec(sign))
}

// Fee is the fee on one fill's notional.
func Fee(price, size, rate float64) decimal.Decimal {
	if rate <= 0 {
		return decimal.Zero
	}
	return Dec(price).Mul(Dec(size)).Mul(Dec(rate))
}
