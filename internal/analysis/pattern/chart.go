package pattern

import (
	"math"

	"tradescope/internal/market"
)

// Swing pivots are searched in bars before the current one; the current bar
// is the confirmation bar that closes through the neckline.

func pivotHighs(bars []market.Candle, k int) []int {
	return pivots(bars, k, func(c market.Candle) float64 { return c.High }, 1)
}

func pivotLows(bars []market.Candle, k int) []int {
	return pivots(bars, k, func(c market.Candle) float64 { return c.Low }, -1)
}

// pivots returns indices whose value beats the k bars to the left strictly and
// is not beaten by the k bars to the right. dir is +1 for highs, -1 for lows.
func pivots(bars []market.Candle, k int, pick func(market.Candle) float64, dir float64) []int {
	if k < 1 {
		k = 1
	}
	var out []int
	for j := k; j+k < len(bars); j++ {
		v := pick(bars[j]) * dir
		ok := true
		for m := 1; m <= k && ok; m++ {
			if v <= pick(bars[j-m])*dir || v < pick(bars[j+m])*dir {
				ok = false
			}
		}
		if ok {
			out = append(out, j)
		}
	}
	return out
}

func minLow(bars []market.Candle) float64 {
	m := math.MaxFloat64
	for _, c := range bars {
		m = math.Min(m, c.Low)
	}
	return m
}

func maxHigh(bars []market.Candle) float64 {
	m := -math.MaxFloat64
	for _, c := range bars {
		m = math.Max(m, c.High)
	}
	return m
}

// crossedBelow reports whether the current bar is the first to close below level.
func crossedBelow(v view, level float64) bool {
	cur, prev := v.bars[v.last()], v.bars[v.last()-1]
	return cur.Close < level && prev.Close >= level
}

func crossedAbove(v view, level float64) bool {
	cur, prev := v.bars[v.last()], v.bars[v.last()-1]
	return cur.Close > level && prev.Close <= level
}

func matchDoubleTop(v view) (Pattern, bool) {
	prior := v.bars[:v.last()]
	peaks := pivotHighs(prior, v.cfg.PivotStrength)
	if len(peaks) < 2 {
		return Pattern{}, false
	}
	p1, p2 := peaks[len(peaks)-2], peaks[len(peaks)-1]
	h1, h2 := prior[p1].High, prior[p2].High
	top := math.Max(h1, h2)
	if maxHigh(prior[p2+1:]) > top {
		return Pattern{}, false
	}
	fit, depth, neckline, ok := twinFit(h1, h2, minLow(prior[p1+1:p2]), v.cfg)
	if !ok || !crossedBelow(v, neckline) {
		return Pattern{}, false
	}
	return v.emit(DoubleTop, p1, 0.6*fit+0.4*depthScore(depth, v.cfg))
}

func matchDoubleBottom(v view) (Pattern, bool) {
	prior := v.bars[:v.last()]
	troughs := pivotLows(prior, v.cfg.PivotStrength)
	if len(troughs) < 2 {
		return Pattern{}, false
	}
	p1, p2 := troughs[len(troughs)-2], troughs[len(troughs)-1]
	l1, l2 := prior[p1].Low, prior[p2].Low
	bottom := math.Min(l1, l2)
	if minLow(prior[p2+1:]) < bottom {
		return Pattern{}, false
	}
	// mirror the prices so the twin-peak measure applies unchanged
	fit, depth, negNeck, ok := twinFit(-l1, -l2, -maxHigh(prior[p1+1:p2]), v.cfg)
	if !ok || !crossedAbove(v, -negNeck) {
		return Pattern{}, false
	}
	return v.emit(DoubleBottom, p1, 0.6*fit+0.4*depthScore(depth, v.cfg))
}

// twinFit measures two extremes a, b against the opposite extreme between
// them. Prices may be negated for troughs; ratios use absolute magnitudes.
func twinFit(a, b, between float64, cfg Settings) (fit, depth, neckline float64, ok bool) {
	avg := (a + b) / 2
	if avg == 0 || cfg.PeakTolerance <= 0 {
		return 0, 0, 0, false
	}
	diff := math.Abs(a-b) / math.Abs(avg)
	if diff > cfg.PeakTolerance {
		return 0, 0, 0, false
	}
	depth = (avg - between) / math.Abs(avg)
	if depth < cfg.MinDepth || depth <= 0 {
		return 0, 0, 0, false
	}
	return 1 - diff/cfg.PeakTolerance, depth, between, true
}

func depthScore(depth float64, cfg Settings) float64 {
	if cfg.MinDepth <= 0 {
		return 1
	}
	return math.Min(1, depth/(3*cfg.MinDepth))
}

func matchHeadShoulders(v view) (Pattern, bool) {
	prior := v.bars[:v.last()]
	peaks := pivotHighs(prior, v.cfg.PivotStrength)
	if len(peaks) < 3 {
		return Pattern{}, false
	}
	a, b, c := peaks[len(peaks)-3], peaks[len(peaks)-2], peaks[len(peaks)-1]
	ha, hb, hc := prior[a].High, prior[b].High, prior[c].High
	if maxHigh(prior[c+1:]) > hc {
		return Pattern{}, false
	}
	neckline := (minLow(prior[a+1:b]) + minLow(prior[b+1:c])) / 2
	conf, ok := headFit(ha, hb, hc, v.cfg)
	if !ok || !crossedBelow(v, neckline) {
		return Pattern{}, false
	}
	return v.emit(HeadShoulders, a, conf)
}

func matchInverseHeadShoulders(v view) (Pattern, bool) {
	prior := v.bars[:v.last()]
	troughs := pivotLows(prior, v.cfg.PivotStrength)
	if len(troughs) < 3 {
		return Pattern{}, false
	}
	a, b, c := troughs[len(troughs)-3], troughs[len(troughs)-2], troughs[len(troughs)-1]
	la, lb, lc := prior[a].Low, prior[b].Low, prior[c].Low
	if minLow(prior[c+1:]) < lc {
		return Pattern{}, false
	}
	neckline := (maxHigh(prior[a+1:b]) + maxHigh(prior[b+1:c])) / 2
	conf, ok := headFit(-la, -lb, -lc, v.cfg)
	if !ok || !crossedAbove(v, neckline) {
		return Pattern{}, false
	}
	return v.emit(InverseHeadShoulders, a, conf)
}

// headFit scores shoulder symmetry and head prominence. Shoulders may differ by
// twice the peak tolerance; the head must clear both by MinDepth/2.
func headFit(left, head, right float64, cfg Settings) (float64, bool) {
	if head <= left || head <= right || cfg.PeakTolerance <= 0 {
		return 0, false
	}
	shoulders := (left + right) / 2
	if shoulders == 0 {
		return 0, false
	}
	tol := 2 * cfg.PeakTolerance
	diff := math.Abs(left-right) / math.Abs(shoulders)
	if diff > tol {
		return 0, false
	}
	prominence := (head - math.Max(left, right)) / math.Abs(head)
	if prominence < cfg.MinDepth/2 {
		return 0, false
	}
	return 0.5*(1-diff/tol) + 0.5*depthScore(prominence, cfg), true
}
