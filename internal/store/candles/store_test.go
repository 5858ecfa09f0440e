package candles

import (
	"context"
	"testing"
	"time"

	"tradescope/internal/market"
	"tradescope/internal/market/markettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	// 10 minutes into the bar after the last of 48 hourly bars
	now := time.UnixMilli(markettest.Start + 48*markettest.Step).Add(10 * time.Minute)
	return st.WithClock(func() time.Time { return now })
}

func TestInsertAndRange(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	bars := markettest.Uptrend(10, 100, 1)

	n, err := st.InsertCandles(ctx, markettest.Symbol, markettest.Timeframe, bars)
	require.NoError(t, err)
	assert.Equal(t, 10, n)

	// upsert does not duplicate
	bars[3].Close = 104.5
	_, err = st.InsertCandles(ctx, markettest.Symbol, markettest.Timeframe, bars[3:4])
	require.NoError(t, err)

	got, err := st.RangeCandles(ctx, markettest.Symbol, markettest.Timeframe, bars[2].OpenTime, bars[5].OpenTime)
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, 104.5, got[1].Close)
	assert.Equal(t, bars[2].OpenTime, got[0].OpenTime)

	m, err := st.Manifest(ctx, markettest.Symbol, markettest.Timeframe)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", m.Symbol)
	assert.Equal(t, int64(10), m.Rows)
	assert.Equal(t, bars[0].OpenTime, m.MinTime)
	assert.Equal(t, bars[9].OpenTime, m.MaxTime)
}

func TestFetchLookback(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	_, err := st.Fetch(ctx, markettest.Symbol, markettest.Timeframe, 1)
	assert.ErrorIs(t, err, market.ErrNotFound)

	_, err = st.Put(ctx, markettest.Series(t, markettest.Uptrend(48, 100, 1)))
	require.NoError(t, err)

	s, err := st.Fetch(ctx, "btcusdt", markettest.Timeframe, 1)
	require.NoError(t, err)
	assert.Equal(t, 24, s.Len())
	assert.Equal(t, "BTC/USDT", s.Symbol())
	first := s.At(0)
	assert.Equal(t, markettest.Start+24*markettest.Step, first.OpenTime)

	_, err = st.Fetch(ctx, markettest.Symbol, markettest.Timeframe, 3)
	assert.ErrorIs(t, err, market.ErrNotFound, "gaps fall through")

	_, err = st.Fetch(ctx, markettest.Symbol, "7m", 1)
	assert.Error(t, err)
}

func TestManifests(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	_, err := st.InsertCandles(ctx, "ETH/USDT", "4h", markettest.Flat(3, 10))
	require.NoError(t, err)
	_, err = st.InsertCandles(ctx, "BTC/USDT", "1h", markettest.Flat(2, 10))
	require.NoError(t, err)

	list, err := st.Manifests(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "BTC/USDT", list[0].Symbol)
	assert.Equal(t, "1h", list[0].Timeframe)
	assert.Equal(t, "ETH/USDT", list[1].Symbol)
	assert.Equal(t, int64(3), list[1].Rows)
}
