package risk

import (
	"errors"
	"testing"

	"tradescope/internal/decision"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func signal(d decision.Direction) decision.Signal {
	return decision.Signal{Index: 42, Direction: d, Strength: 0.8, Net: d.Sign() * 0.8}
}

func TestSizeLong(t *testing.T) {
	p, ok := Size(signal(decision.Long), Quote{Index: 42, Time: 7, Price: 100, ATR: 2}, AccountState{Equity: 10_000}, DefaultSettings())
	require.True(t, ok)
	assert.Equal(t, decision.Long, p.Direction)
	assert.Equal(t, 42, p.Index)
	assert.Equal(t, int64(7), p.Time)
	assert.Equal(t, 100.0, p.Entry)
	assert.Equal(t, 97.0, p.StopLoss)
	assert.Equal(t, 106.0, p.TakeProfit)
	assert.Equal(t, 33.333, p.Size)
	assert.InDelta(t, 99.999, p.RiskAmount, 1e-9)
	assert.LessOrEqual(t, p.RiskAmount, 100.0)
	assert.NoError(t, p.Validate())
}

func TestSizeShort(t *testing.T) {
	p, ok := Size(signal(decision.Short), Quote{Price: 100, ATR: 2}, AccountState{Equity: 10_000}, DefaultSettings())
	require.True(t, ok)
	assert.Equal(t, 103.0, p.StopLoss)
	assert.Equal(t, 94.0, p.TakeProfit)
	assert.NoError(t, p.Validate())
}

func TestSizeRejections(t *testing.T) {
	quote := Quote{Price: 100, ATR: 2}
	acct := AccountState{Equity: 10_000}
	cases := []struct {
		name  string
		sig   decision.Signal
		quote Quote
		acct  AccountState
		cfg   func(*Settings)
	}{
		{name: "flat signal", sig: signal(decision.Flat), quote: quote, acct: acct},
		{name: "position open", sig: signal(decision.Long), quote: quote, acct: AccountState{Equity: 10_000, OpenPosition: true}},
		{name: "zero atr", sig: signal(decision.Long), quote: Quote{Price: 100}, acct: acct},
		{name: "floors to zero", sig: signal(decision.Long), quote: quote, acct: AccountState{Equity: 1}, cfg: func(s *Settings) { s.LotStep = 0.01 }},
		{name: "below min size", sig: signal(decision.Long), quote: quote, acct: acct, cfg: func(s *Settings) { s.MinSize = 50 }},
		{name: "stop below zero", sig: signal(decision.Long), quote: Quote{Price: 2, ATR: 2}, acct: acct},
		{name: "no equity", sig: signal(decision.Short), quote: quote, acct: AccountState{}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultSettings()
			if tc.cfg != nil {
				tc.cfg(&cfg)
			}
			_, ok := Size(tc.sig, tc.quote, tc.acct, cfg)
			assert.False(t, ok)
		})
	}
}

func TestNeverProposesWhileOpen(t *testing.T) {
	for _, d := range []decision.Direction{decision.Flat, decision.Long, decision.Short} {
		for _, atr := range []float64{0.1, 1, 5} {
			_, ok := Size(signal(d), Quote{Price: 50, ATR: atr}, AccountState{Equity: 1e6, OpenPosition: true}, DefaultSettings())
			assert.False(t, ok)
		}
	}
}

func TestProposalValidate(t *testing.T) {
	good := TradeProposal{Direction: decision.Long, Entry: 100, StopLoss: 95, TakeProfit: 110, Size: 1}
	require.NoError(t, good.Validate())

	wrongStop := good
	wrongStop.StopLoss = 101
	assert.True(t, errors.Is(wrongStop.Validate(), ErrInvalidProposal))

	shortWrong := good
	shortWrong.Direction = decision.Short
	assert.Error(t, shortWrong.Validate())

	noSize := good
	noSize.Size = 0
	assert.Error(t, noSize.Validate())
}

func TestSettingsValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())
	bad := DefaultSettings()
	bad.RiskPerTrade = 1.5
	assert.Error(t, bad.Validate())
	bad = DefaultSettings()
	bad.ATRMultiple = 0
	assert.Error(t, bad.Validate())
}
