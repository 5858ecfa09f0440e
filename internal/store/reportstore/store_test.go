package reportstore

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"tradescope/internal/backtest"
	"tradescope/internal/decision"
	"tradescope/internal/executor"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "reports.db"))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func sampleReport(symbol string) *backtest.Report {
	return &backtest.Report{
		Symbol:    symbol,
		Timeframe: "1h",
		Bars:      40,
		Warmup:    37,
		Config:    backtest.DefaultConfig(),
		Trades: []executor.TradeResult{
			{Direction: decision.Long, EntryIndex: 37, ExitIndex: 38, EntryPrice: 100, ExitPrice: 106, Size: 1, Reason: executor.ExitTarget, PnL: 6},
			{Direction: decision.Short, EntryIndex: 38, ExitIndex: 39, EntryPrice: 106, ExitPrice: 108, Size: 1, Reason: executor.ExitEndOfData, PnL: -2},
		},
		Equity: []backtest.EquityPoint{
			{Index: 37, Time: 1, Equity: 10_000},
			{Index: 38, Time: 2, Realized: 6, Equity: 10_006},
			{Index: 39, Time: 3, Realized: 4, Equity: 10_004, Drawdown: 2},
		},
		Counters: backtest.Counters{Bars: 3, Signals: 2, Proposals: 2},
		Stats:    backtest.Stats{Trades: 2, Wins: 1, Losses: 1, NetPnL: 4, ProfitFactor: 3, ExitReasons: map[string]int{"target": 1, "end_of_data": 1}},
		Notes:    []string{"sample"},
	}
}

func TestSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	rep := sampleReport("BTC/USDT")

	id, err := st.SaveReport(ctx, "  nightly ", rep)
	require.NoError(t, err)
	require.NotEmpty(t, id)

	run, err := st.GetRun(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "nightly", run.Label)
	assert.Equal(t, "BTC/USDT", run.Symbol)
	assert.Equal(t, rep.Stats, run.Stats)
	assert.Equal(t, rep.Counters, run.Counters)
	assert.Equal(t, []string{"sample"}, run.Notes)

	var cfg backtest.Config
	require.NoError(t, json.Unmarshal(run.Config, &cfg))
	assert.Equal(t, rep.Config, cfg)

	trades, err := st.Trades(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rep.Trades, trades)

	equity, err := st.Equity(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, rep.Equity, equity)
}

func TestListRuns(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, sym := range []string{"BTC/USDT", "ETH/USDT", "BTC/USDT"} {
		at := base.Add(time.Duration(i) * time.Minute)
		st.now = func() time.Time { return at }
		_, err := st.SaveReport(ctx, sym, sampleReport(sym))
		require.NoError(t, err)
	}

	all, err := st.ListRuns(ctx, ListOptions{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.True(t, all[0].CreatedAt.Equal(base.Add(2*time.Minute)))
	assert.Equal(t, "BTC/USDT", all[0].Label)
	assert.Nil(t, all[0].Config, "headers skip the config")

	btc, err := st.ListRuns(ctx, ListOptions{Symbol: "BTC/USDT", Limit: 1})
	require.NoError(t, err)
	require.Len(t, btc, 1)
	assert.Equal(t, "BTC/USDT", btc[0].Symbol)
}

func TestMissingRun(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	_, err := st.GetRun(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Trades(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = st.Equity(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, st.DeleteRun(ctx, "nope"), ErrNotFound)
}

func TestDeleteRun(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	id, err := st.SaveReport(ctx, "", sampleReport("BTC/USDT"))
	require.NoError(t, err)
	require.NoError(t, st.DeleteRun(ctx, id))
	_, err = st.GetRun(ctx, id)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveEmptyReport(t *testing.T) {
	ctx := context.Background()
	st := openTestStore(t)
	rep := &backtest.Report{Symbol: "BTC/USDT", Timeframe: "1h", Config: backtest.DefaultConfig(), Notes: []string{"too short"}}
	id, err := st.SaveReport(ctx, "", rep)
	require.NoError(t, err)
	trades, err := st.Trades(ctx, id)
	require.NoError(t, err)
	assert.Empty(t, trades)
}
