package backtest

import (
	"context"
	"testing"

	"tradescope/internal/market/markettest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGrid(t *testing.T) {
	base := testConfig()
	cfgs := Grid(base, []float64{0.01, 0.02}, []float64{1.5, 3}, nil)
	require.Len(t, cfgs, 4)
	assert.Equal(t, 0.01, cfgs[0].Risk.RiskPerTrade)
	assert.Equal(t, 1.5, cfgs[0].Risk.RewardRisk)
	assert.Equal(t, 3.0, cfgs[3].Risk.RewardRisk)
	for _, c := range cfgs {
		assert.Equal(t, base.Pattern.MinConfidence, c.Pattern.MinConfidence)
	}
	assert.Equal(t, "risk=0.02 rr=3 conf=0.3", GridName(cfgs[3]))
	assert.Len(t, Grid(base, nil, nil, nil), 1)
}

func TestSweepRunsJobsIndependently(t *testing.T) {
	series := markettest.Series(t, markettest.Uptrend(40, 100, 1))
	var jobs []SweepJob
	for _, cfg := range Grid(testConfig(), []float64{0.01, 0.02}, []float64{2}, []float64{0.3, 0.9}) {
		jobs = append(jobs, SweepJob{Name: GridName(cfg), Config: cfg, Series: series})
	}
	broken := testConfig()
	broken.InitialEquity = -1
	jobs = append(jobs, SweepJob{Name: "broken", Config: broken, Series: series})
	jobs = append(jobs, SweepJob{Name: "missing", Config: testConfig()})

	results, err := Sweep(context.Background(), jobs, 2)
	require.NoError(t, err)
	require.Len(t, results, len(jobs))
	assert.False(t, series.Frozen(), "jobs run on clones")

	for i, res := range results[:4] {
		assert.Equal(t, jobs[i].Name, res.Name)
		require.NoError(t, res.Err)
		require.NotNil(t, res.Report)
	}
	// a confidence floor above every breakout suppresses all trades
	assert.NotEmpty(t, results[0].Report.Trades)
	assert.Empty(t, results[1].Report.Trades)

	// doubling risk doubles the first trade's size
	assert.InDelta(t, 2*results[0].Report.Trades[0].Size, results[2].Report.Trades[0].Size, 0.002)

	assert.Error(t, results[4].Err)
	assert.Nil(t, results[4].Report)
	assert.Error(t, results[5].Err)

	single, err := New(testConfig())
	require.NoError(t, err)
	want, err := single.Run(context.Background(), markettest.Series(t, markettest.Uptrend(40, 100, 1)))
	require.NoError(t, err)
	assert.Equal(t, want, results[0].Report)
}

func TestSweepCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	series := markettest.Series(t, markettest.Uptrend(40, 100, 1))
	results, err := Sweep(ctx, []SweepJob{{Name: "a", Config: testConfig(), Series: series}}, 1)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, results)
}
