package trading

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFloorToStep(t *testing.T) {
	cases := []struct {
		qty, step, want float64
	}{
		{1.2345, 0.01, 1.23},
		{0.0099, 0.01, 0},
		{7, 0, 7},
		{0.3, 0.1, 0.3}, // float division gives 2.9999999999999996
	}
	for _, tc := range cases {
		got := Float(FloorToStep(Dec(tc.qty), Dec(tc.step)))
		assert.Equal(t, tc.want, got, "qty=%v step=%v", tc.qty, tc.step)
	}
}

func TestComparisons(t *testing.T) {
	assert.True(t, AtOrBelow(99.5, 99.5))
	assert.True(t, AtOrAbove(99.5, 99.5))
	assert.True(t, AtOrBelow(99.4, 99.5))
	assert.False(t, AtOrAbove(99.4, 99.5))
}

func TestPnLAndFee(t *testing.T) {
	assert.Equal(t, 20.0, Float(PnL(1, 100, 110, 2)))
	assert.Equal(t, -20.0, Float(PnL(-1, 100, 110, 2)))
	assert.Equal(t, 0.2, Float(Fee(100, 2, 0.001)))
	assert.True(t, Fee(100, 2, 0).IsZero())
}
