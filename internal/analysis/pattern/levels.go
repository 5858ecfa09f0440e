package pattern

import (
	"math"

	"tradescope/internal/market"
)

// rangeBefore returns the bars of the breakout lookback preceding the current bar.
func rangeBefore(v view) ([]market.Candle, bool) {
	n := v.cfg.BreakoutLookback
	if n < 1 || v.last() < n {
		return nil, false
	}
	return v.bars[v.last()-n : v.last()], true
}

func volumeScore(prior []market.Candle, cur market.Candle) float64 {
	var sum float64
	for _, c := range prior {
		sum += c.Volume
	}
	if len(prior) == 0 || sum <= 0 {
		return 0
	}
	avg := sum / float64(len(prior))
	return clamp01((cur.Volume/avg - 1) / 2)
}

func matchBreakout(v view) (Pattern, bool) {
	prior, ok := rangeBefore(v)
	if !ok {
		return Pattern{}, false
	}
	res, sup := maxHigh(prior), minLow(prior)
	cur := v.bars[v.last()]
	if res <= sup || cur.Close <= res {
		return Pattern{}, false
	}
	margin := (cur.Close - res) / (res - sup)
	return v.emit(Breakout, v.last()-len(prior), 0.5+0.3*clamp01(margin*5)+0.2*volumeScore(prior, cur))
}

func matchBreakdown(v view) (Pattern, bool) {
	prior, ok := rangeBefore(v)
	if !ok {
		return Pattern{}, false
	}
	res, sup := maxHigh(prior), minLow(prior)
	cur := v.bars[v.last()]
	if res <= sup || cur.Close >= sup {
		return Pattern{}, false
	}
	margin := (sup - cur.Close) / (res - sup)
	return v.emit(Breakdown, v.last()-len(prior), 0.5+0.3*clamp01(margin*5)+0.2*volumeScore(prior, cur))
}

// matchSupportBounce needs the current low to probe the prior range low within
// LevelTolerance and the bar to close bullish above it.
func matchSupportBounce(v view) (Pattern, bool) {
	prior, ok := rangeBefore(v)
	if !ok || v.cfg.LevelTolerance <= 0 {
		return Pattern{}, false
	}
	res, sup := maxHigh(prior), minLow(prior)
	cur := v.bars[v.last()]
	if res <= sup || cur.Range() <= 0 || !cur.Bullish() || cur.Close <= sup {
		return Pattern{}, false
	}
	dist := math.Abs(cur.Low-sup) / sup
	if dist > v.cfg.LevelTolerance {
		return Pattern{}, false
	}
	wick := cur.LowerWick() / cur.Range()
	return v.emit(SupportBounce, v.last()-len(prior), 0.5*(1-dist/v.cfg.LevelTolerance)+0.5*wick)
}

func matchResistanceRejection(v view) (Pattern, bool) {
	prior, ok := rangeBefore(v)
	if !ok || v.cfg.LevelTolerance <= 0 {
		return Pattern{}, false
	}
	res, sup := maxHigh(prior), minLow(prior)
	cur := v.bars[v.last()]
	if res <= sup || cur.Range() <= 0 || !cur.Bearish() || cur.Close >= res {
		return Pattern{}, false
	}
	dist := math.Abs(cur.High-res) / res
	if dist > v.cfg.LevelTolerance {
		return Pattern{}, false
	}
	wick := cur.UpperWick() / cur.Range()
	return v.emit(ResistanceRejection, v.last()-len(prior), 0.5*(1-dist/v.cfg.LevelTolerance)+0.5*wick)
}
