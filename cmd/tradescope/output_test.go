package main

import (
	"bytes"
	"testing"

	"tradescope/internal/backtest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestWriteOutputYAMLKeepsJSONNames(t *testing.T) {
	rep := &backtest.Report{
		Symbol:    "BTC/USDT",
		Timeframe: "1h",
		Stats:     backtest.Stats{Trades: 2, NetPnL: 12.5, ExitReasons: map[string]int{"target": 2}},
		Notes:     []string{"yes"},
	}
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, formatYAML, rep))
	assert.Contains(t, buf.String(), "symbol: BTC/USDT")
	assert.Contains(t, buf.String(), "net_pnl: 12.5")
	assert.NotContains(t, buf.String(), "{")

	var back map[string]any
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &back))
	assert.Equal(t, "yes", back["notes"].([]any)[0], "strings that look like booleans stay strings")
	stats := back["stats"].(map[string]any)
	assert.Equal(t, 2, stats["trades"])
}

func TestWriteOutputJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeOutput(&buf, formatJSON, sweepRow{Name: "a", Error: "boom"}))
	assert.JSONEq(t, `{"name":"a","symbol":"","error":"boom"}`, buf.String())
}

func TestCheckFormat(t *testing.T) {
	assert.NoError(t, checkFormat("json"))
	assert.NoError(t, checkFormat("yaml"))
	assert.Error(t, checkFormat("csv"))
}

func TestSplitConfigFlag(t *testing.T) {
	t.Setenv("TRADESCOPE_CONFIG", "")
	args, path := splitConfigFlag([]string{"-symbol", "ETHUSDT", "-config", "x.yaml", "-days=3"})
	assert.Equal(t, []string{"-symbol", "ETHUSDT", "-days=3"}, args)
	assert.Equal(t, "x.yaml", path)

	_, path = splitConfigFlag([]string{"--config=y.yaml"})
	assert.Equal(t, "y.yaml", path)
}
