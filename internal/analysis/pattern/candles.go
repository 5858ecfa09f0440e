package pattern

import "tradescope/internal/market"

const (
	wickMin    = 0.6
	oppWickMax = 0.15
	bodyMax    = 0.35

	// longBodyMin is the body share of range that makes a bar "long".
	longBodyMin   = 0.5
	starBodyMax   = 0.3
	haramiBodyMax = 0.5
)

func long(c market.Candle) bool {
	r := c.Range()
	return r > 0 && c.Body()/r >= longBodyMin
}

func matchBullishEngulfing(v view) (Pattern, bool) {
	prev, cur := v.bars[v.last()-1], v.bars[v.last()]
	if !prev.Bearish() || !cur.Bullish() {
		return Pattern{}, false
	}
	if cur.Open > prev.Close || cur.Close < prev.Open || cur.Body() <= prev.Body() {
		return Pattern{}, false
	}
	ratio := cur.Body() / prev.Body()
	return v.emit(BullishEngulfing, v.last()-1, 0.5+0.25*(ratio-1))
}

func matchBearishEngulfing(v view) (Pattern, bool) {
	prev, cur := v.bars[v.last()-1], v.bars[v.last()]
	if !prev.Bullish() || !cur.Bearish() {
		return Pattern{}, false
	}
	if cur.Open < prev.Close || cur.Close > prev.Open || cur.Body() <= prev.Body() {
		return Pattern{}, false
	}
	ratio := cur.Body() / prev.Body()
	return v.emit(BearishEngulfing, v.last()-1, 0.5+0.25*(ratio-1))
}

func matchHammer(v view) (Pattern, bool) {
	cur := v.bars[v.last()]
	r := cur.Range()
	if r <= 0 {
		return Pattern{}, false
	}
	lower, upper, body := cur.LowerWick()/r, cur.UpperWick()/r, cur.Body()/r
	if lower < wickMin || upper > oppWickMax || body > bodyMax {
		return Pattern{}, false
	}
	return v.emit(Hammer, v.last(), 0.5+1.25*(lower-wickMin))
}

func matchShootingStar(v view) (Pattern, bool) {
	cur := v.bars[v.last()]
	r := cur.Range()
	if r <= 0 {
		return Pattern{}, false
	}
	lower, upper, body := cur.LowerWick()/r, cur.UpperWick()/r, cur.Body()/r
	if upper < wickMin || lower > oppWickMax || body > bodyMax {
		return Pattern{}, false
	}
	return v.emit(ShootingStar, v.last(), 0.5+1.25*(upper-wickMin))
}

// Star and penetration patterns report how far the reversal bar closed into
// the reference body as their confidence.

func matchMorningStar(v view) (Pattern, bool) {
	first, star, cur := v.bars[v.last()-2], v.bars[v.last()-1], v.bars[v.last()]
	if !first.Bearish() || !long(first) || !cur.Bullish() {
		return Pattern{}, false
	}
	if star.Body() > starBodyMax*first.Body() || max(star.Open, star.Close) > first.Close {
		return Pattern{}, false
	}
	pen := (cur.Close - first.Close) / first.Body()
	if pen <= 0.5 {
		return Pattern{}, false
	}
	return v.emit(MorningStar, v.last()-2, pen)
}

func matchEveningStar(v view) (Pattern, bool) {
	first, star, cur := v.bars[v.last()-2], v.bars[v.last()-1], v.bars[v.last()]
	if !first.Bullish() || !long(first) || !cur.Bearish() {
		return Pattern{}, false
	}
	if star.Body() > starBodyMax*first.Body() || min(star.Open, star.Close) < first.Close {
		return Pattern{}, false
	}
	pen := (first.Close - cur.Close) / first.Body()
	if pen <= 0.5 {
		return Pattern{}, false
	}
	return v.emit(EveningStar, v.last()-2, pen)
}

func matchPiercing(v view) (Pattern, bool) {
	prev, cur := v.bars[v.last()-1], v.bars[v.last()]
	if !prev.Bearish() || !long(prev) || !cur.Bullish() {
		return Pattern{}, false
	}
	// a close at or above the prior open is an engulfing bar instead
	if cur.Open > prev.Close || cur.Close >= prev.Open {
		return Pattern{}, false
	}
	pen := (cur.Close - prev.Close) / prev.Body()
	if pen <= 0.5 {
		return Pattern{}, false
	}
	return v.emit(Piercing, v.last()-1, pen)
}

func matchDarkCloudCover(v view) (Pattern, bool) {
	prev, cur := v.bars[v.last()-1], v.bars[v.last()]
	if !prev.Bullish() || !long(prev) || !cur.Bearish() {
		return Pattern{}, false
	}
	if cur.Open < prev.Close || cur.Close <= prev.Open {
		return Pattern{}, false
	}
	pen := (prev.Close - cur.Close) / prev.Body()
	if pen <= 0.5 {
		return Pattern{}, false
	}
	return v.emit(DarkCloudCover, v.last()-1, pen)
}

func matchBullishHarami(v view) (Pattern, bool) {
	prev, cur := v.bars[v.last()-1], v.bars[v.last()]
	if !prev.Bearish() || !long(prev) || !cur.Bullish() {
		return Pattern{}, false
	}
	if cur.Open <= prev.Close || cur.Close >= prev.Open {
		return Pattern{}, false
	}
	ratio := cur.Body() / prev.Body()
	if ratio > haramiBodyMax {
		return Pattern{}, false
	}
	return v.emit(BullishHarami, v.last()-1, 1-ratio)
}

func matchBearishHarami(v view) (Pattern, bool) {
	prev, cur := v.bars[v.last()-1], v.bars[v.last()]
	if !prev.Bullish() || !long(prev) || !cur.Bearish() {
		return Pattern{}, false
	}
	if cur.Open >= prev.Close || cur.Close <= prev.Open {
		return Pattern{}, false
	}
	ratio := cur.Body() / prev.Body()
	if ratio > haramiBodyMax {
		return Pattern{}, false
	}
	return v.emit(BearishHarami, v.last()-1, 1-ratio)
}
