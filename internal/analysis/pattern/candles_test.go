package pattern

import (
	"slices"
	"testing"

	"tradescope/internal/market"
	"tradescope/internal/market/markettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectLast(t *testing.T, bars []market.Candle) []Pattern {
	t.Helper()
	s := markettest.Series(t, bars)
	return slices.Collect(NewDetector(testSettings()).Detect(s, s.Len()-1))
}

func TestMorningAndEveningStar(t *testing.T) {
	morning := append(flatBars(5, 104),
		markettest.Bar(5, 104, 104.2, 99.8, 100),
		markettest.Bar(6, 99.6, 99.9, 99.0, 99.4),
		markettest.Bar(7, 99.5, 103.2, 99.4, 103),
	)
	p, ok := find(detectLast(t, morning), MorningStar)
	require.True(t, ok)
	assert.Equal(t, 5, p.Start)
	assert.Equal(t, 7, p.End)
	assert.Equal(t, Bullish, p.Bias)
	assert.InDelta(t, 0.75, p.Confidence, 1e-9)

	evening := append(flatBars(5, 100),
		markettest.Bar(5, 100, 104.2, 99.8, 104),
		markettest.Bar(6, 104.4, 104.8, 104.1, 104.6),
		markettest.Bar(7, 104.5, 104.6, 100.8, 101),
	)
	p, ok = find(detectLast(t, evening), EveningStar)
	require.True(t, ok)
	assert.Equal(t, 5, p.Start)
	assert.Equal(t, Bearish, p.Bias)
	assert.InDelta(t, 0.75, p.Confidence, 1e-9)

	// a recovery that stops short of the first body's midpoint is no star
	shallow := slices.Clone(morning)
	shallow[7] = markettest.Bar(7, 99.5, 101.2, 99.4, 101)
	_, ok = find(detectLast(t, shallow), MorningStar)
	assert.False(t, ok)
}

func TestPiercingAndDarkCloudCover(t *testing.T) {
	piercing := append(flatBars(6, 104),
		markettest.Bar(6, 104, 104.2, 99.8, 100),
		markettest.Bar(7, 99.8, 103.2, 99.5, 103),
	)
	got := detectLast(t, piercing)
	p, ok := find(got, Piercing)
	require.True(t, ok, "%+v", got)
	assert.Equal(t, 6, p.Start)
	assert.InDelta(t, 0.75, p.Confidence, 1e-9)
	_, ok = find(got, BullishEngulfing)
	assert.False(t, ok)

	cloud := append(flatBars(6, 100),
		markettest.Bar(6, 100, 104.2, 99.8, 104),
		markettest.Bar(7, 104.2, 104.5, 100.8, 101),
	)
	p, ok = find(detectLast(t, cloud), DarkCloudCover)
	require.True(t, ok)
	assert.Equal(t, Bearish, p.Bias)
	assert.InDelta(t, 0.75, p.Confidence, 1e-9)
}

func TestHarami(t *testing.T) {
	bull := append(flatBars(6, 104),
		markettest.Bar(6, 104, 104.2, 99.8, 100),
		markettest.Bar(7, 101, 102.2, 100.8, 102),
	)
	p, ok := find(detectLast(t, bull), BullishHarami)
	require.True(t, ok)
	assert.Equal(t, 6, p.Start)
	assert.Equal(t, Bullish, p.Bias)
	assert.InDelta(t, 0.75, p.Confidence, 1e-9)

	bear := append(flatBars(6, 100),
		markettest.Bar(6, 100, 104.2, 99.8, 104),
		markettest.Bar(7, 103, 103.2, 101.8, 102),
	)
	p, ok = find(detectLast(t, bear), BearishHarami)
	require.True(t, ok)
	assert.Equal(t, Bearish, p.Bias)

	// an inside bar wider than half the prior body does not qualify
	wide := slices.Clone(bull)
	wide[7] = markettest.Bar(7, 100.5, 103.2, 100.4, 103)
	_, ok = find(detectLast(t, wide), BullishHarami)
	assert.False(t, ok)
}
