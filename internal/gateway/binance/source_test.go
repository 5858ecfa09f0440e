package binance

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"tradescope/internal/market"
	"tradescope/internal/market/markettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// klineServer serves bars 0..48 of the hourly markettest grid.
func klineServer(t *testing.T, calls *atomic.Int32) *httptest.Server {
	t.Helper()
	bars := markettest.Uptrend(49, 100, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		q := r.URL.Query()
		switch q.Get("symbol") {
		case "NOPEUSDT":
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"code":-1121,"msg":"Invalid symbol."}`))
			return
		case "DOWNUSDT":
			w.WriteHeader(http.StatusServiceUnavailable)
			_, _ = w.Write([]byte(`{"code":-1001,"msg":"Internal error; unable to process your request."}`))
			return
		}
		assert.Equal(t, "/fapi/v1/klines", r.URL.Path)
		assert.Equal(t, "1h", q.Get("interval"))
		start, _ := strconv.ParseInt(q.Get("startTime"), 10, 64)
		end, _ := strconv.ParseInt(q.Get("endTime"), 10, 64)
		limit, _ := strconv.Atoi(q.Get("limit"))
		rows := [][]any{}
		for _, b := range bars {
			if b.OpenTime < start || b.OpenTime > end || len(rows) >= limit {
				continue
			}
			f := func(v float64) string { return strconv.FormatFloat(v, 'f', -1, 64) }
			rows = append(rows, []any{
				b.OpenTime, f(b.Open), f(b.High), f(b.Low), f(b.Close), f(b.Volume),
				b.CloseTime, "0", 7, "0", "0", "0",
			})
		}
		_ = json.NewEncoder(w).Encode(rows)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestSource(t *testing.T, base string) *Source {
	t.Helper()
	src, err := New(Config{RESTBaseURL: base, RateLimitPerMin: 60_000, MaxBatch: 10})
	require.NoError(t, err)
	now := time.UnixMilli(markettest.Start + 48*markettest.Step).Add(10 * time.Minute)
	return src.WithClock(func() time.Time { return now })
}

func TestFetchPaginatesAndDropsFormingBar(t *testing.T) {
	var calls atomic.Int32
	srv := klineServer(t, &calls)
	src := newTestSource(t, srv.URL)

	s, err := src.Fetch(context.Background(), "btcusdt", "1h", 1)
	require.NoError(t, err)
	assert.Equal(t, "BTC/USDT", s.Symbol())
	assert.Equal(t, "1h", s.Timeframe())
	require.Equal(t, 24, s.Len())
	assert.Equal(t, markettest.Start+24*markettest.Step, s.At(0).OpenTime)
	last, _ := s.Last()
	assert.Equal(t, markettest.Start+47*markettest.Step, last.OpenTime)
	assert.Equal(t, int64(7), last.Trades)
	assert.Equal(t, 147.0, last.Close)
	assert.Equal(t, int32(3), calls.Load(), "25 bars in pages of 10")
}

func TestFetchErrors(t *testing.T) {
	var calls atomic.Int32
	srv := klineServer(t, &calls)
	src := newTestSource(t, srv.URL)
	ctx := context.Background()

	_, err := src.Fetch(ctx, "NOPE/USDT", "1h", 1)
	assert.ErrorIs(t, err, market.ErrNotFound)

	_, err = src.Fetch(ctx, "DOWN/USDT", "1h", 1)
	assert.ErrorIs(t, err, market.ErrUnavailable)

	_, err = src.Fetch(ctx, "???", "1h", 1)
	assert.ErrorIs(t, err, market.ErrInvalidSymbol)

	_, err = src.Fetch(ctx, "BTC/USDT", "3h", 1)
	assert.Error(t, err)

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	_, err = src.Fetch(cancelled, "BTC/USDT", "1h", 1)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFetchUnreachable(t *testing.T) {
	src := newTestSource(t, "http://127.0.0.1:1")
	_, err := src.Fetch(context.Background(), "BTC/USDT", "1h", 1)
	assert.ErrorIs(t, err, market.ErrUnavailable)
}

func TestDropUnclosed(t *testing.T) {
	bars := markettest.Flat(3, 1)
	closedAt := time.UnixMilli(bars[2].OpenTime + markettest.Step)
	assert.Len(t, dropUnclosed(bars, time.Hour, closedAt.Add(-time.Millisecond)), 2)
	assert.Len(t, dropUnclosed(bars, time.Hour, closedAt), 3)
	assert.Empty(t, dropUnclosed(nil, time.Hour, closedAt))
}
