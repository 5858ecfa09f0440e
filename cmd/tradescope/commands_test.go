package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"tradescope/internal/config"
	"tradescope/internal/market"
	"tradescope/internal/store/reportstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

type fixedProvider struct {
	series *market.Series
	err    error
}

func (p fixedProvider) Name() string { return "fixed" }

func (p fixedProvider) Fetch(context.Context, string, string, int) (*market.Series, error) {
	return p.series, p.err
}

func TestLoadSeriesTreatsMissingDataAsNoRun(t *testing.T) {
	for _, sentinel := range []error{market.ErrNotFound, market.ErrUnavailable} {
		s, ok, err := loadSeries(context.Background(), fixedProvider{err: fmt.Errorf("%w: x", sentinel)}, "BTCUSDT", "1h", 1)
		assert.NoError(t, err)
		assert.False(t, ok)
		assert.Nil(t, s)
	}
	_, _, err := loadSeries(context.Background(), fixedProvider{err: market.ErrInvalidSymbol}, "??", "1h", 1)
	assert.ErrorIs(t, err, market.ErrInvalidSymbol)
}

func uptrendRows() [][]any {
	var rows [][]any
	const step = int64(3_600_000)
	for i := range 80 {
		o := 100 + float64(i)
		rows = append(rows, []any{int64(i) * step, o, o + 1.5, o - 0.5, o + 1, 10, int64(i+1)*step - 1})
	}
	return rows
}

func writeDump(t *testing.T, dir string, rows [][]any) {
	t.Helper()
	raw, err := json.Marshal(rows)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "BTCUSDT_1h.json"), raw, 0o644))
}

func TestLoadSeriesReturnsMalformedBars(t *testing.T) {
	bad := &market.CandleError{Index: 7, Kind: market.InvariantViolation, Reason: "high below low"}
	_, ok, err := loadSeries(context.Background(), fixedProvider{err: bad}, "BTCUSDT", "1h", 1)
	assert.False(t, ok)
	var candleErr *market.CandleError
	require.ErrorAs(t, err, &candleErr)
	assert.Equal(t, 7, candleErr.Index)
}

// fileConfig points the market chain at a kline dump with a steady uptrend.
func fileConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	writeDump(t, dir, uptrendRows())

	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Market.Sources = []string{config.SourceFile}
	cfg.Market.FileDir = dir
	cfg.Market.CacheDir = ""
	cfg.Store.ReportDB = filepath.Join(t.TempDir(), "reports.db")
	cfg.Backtest.LookbackDays = 0
	return cfg
}

func TestRunBacktestStoresReport(t *testing.T) {
	cfg := fileConfig(t)
	var out bytes.Buffer
	require.NoError(t, runBacktest(context.Background(), cfg, []string{"-label", "smoke"}, &out))

	var rep map[string]any
	require.NoError(t, json.Unmarshal(out.Bytes(), &rep))
	assert.Equal(t, "BTC/USDT", rep["symbol"])
	assert.EqualValues(t, 80, rep["bars"])
	assert.NotContains(t, rep, "signals")

	store, err := reportstore.Open(cfg.Store.ReportDB)
	require.NoError(t, err)
	defer store.Close()
	runs, err := store.ListRuns(context.Background(), reportstore.ListOptions{})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "smoke", runs[0].Label)
}

func TestRunBacktestWithoutDataWritesNothing(t *testing.T) {
	cfg := fileConfig(t)
	var out bytes.Buffer
	require.NoError(t, runBacktest(context.Background(), cfg, []string{"-symbol", "ETHUSDT"}, &out))
	assert.Empty(t, out.String())
	_, err := os.Stat(cfg.Store.ReportDB)
	assert.True(t, os.IsNotExist(err))
}

func TestRunSweepAndStats(t *testing.T) {
	cfg := fileConfig(t)
	cfg.Sweep.RiskPerTrade = []float64{0.01, 0.02}
	var out bytes.Buffer
	require.NoError(t, runSweep(context.Background(), cfg, nil, &out))
	var rows []sweepRow
	require.NoError(t, json.Unmarshal(out.Bytes(), &rows))
	require.Len(t, rows, 2)
	assert.Equal(t, "BTC/USDT", rows[0].Symbol)
	assert.Empty(t, rows[0].Error)

	out.Reset()
	require.NoError(t, runStats(context.Background(), cfg, []string{"-format", "yaml"}, &out))
	var stats []map[string]any
	require.NoError(t, yaml.Unmarshal(out.Bytes(), &stats))
	for _, st := range stats {
		assert.Contains(t, st, "kind")
		assert.Contains(t, st, "success_rate")
	}
}

func TestRunBacktestRejectsFormat(t *testing.T) {
	cfg := fileConfig(t)
	assert.Error(t, runBacktest(context.Background(), cfg, []string{"-format", "csv"}, &bytes.Buffer{}))
}

func TestRunBacktestRejectsMalformedDump(t *testing.T) {
	cfg := fileConfig(t)
	rows := uptrendRows()
	o := 140.0
	rows[40][2], rows[40][3] = o-1, o
	writeDump(t, cfg.Market.FileDir, rows)

	var out bytes.Buffer
	err := runBacktest(context.Background(), cfg, nil, &out)
	var candleErr *market.CandleError
	require.ErrorAs(t, err, &candleErr)
	assert.Equal(t, 40, candleErr.Index)
	assert.Equal(t, market.InvariantViolation, candleErr.Kind)
	assert.ErrorContains(t, err, "candle 40")
	assert.Empty(t, out.String())
	assert.NoFileExists(t, cfg.Store.ReportDB)
}
