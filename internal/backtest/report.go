package backtest

import (
	"math"

	"tradescope/internal/decision"
	"tradescope/internal/executor"
	"tradescope/internal/risk"
)

// profitFactorCap stands in for an infinite profit factor.
const profitFactorCap = 999

// EquityPoint is the account after one simulated bar. Realized is the
// cumulative closed P&L; Equity adds the initial equity and the open
// position's unrealized P&L. Drawdown is measured on realized equity.
type EquityPoint struct {
	Index      int     `json:"index" yaml:"index"`
	Time       int64   `json:"time" yaml:"time"`
	Realized   float64 `json:"realized" yaml:"realized"`
	Unrealized float64 `json:"unrealized" yaml:"unrealized"`
	Equity     float64 `json:"equity" yaml:"equity"`
	Drawdown   float64 `json:"drawdown" yaml:"drawdown"`
}

// Stats summarizes a run.
type Stats struct {
	Trades         int            `json:"trades" yaml:"trades"`
	Wins           int            `json:"wins" yaml:"wins"`
	Losses         int            `json:"losses" yaml:"losses"`
	WinRate        float64        `json:"win_rate" yaml:"win_rate"`
	GrossProfit    float64        `json:"gross_profit" yaml:"gross_profit"`
	GrossLoss      float64        `json:"gross_loss" yaml:"gross_loss"`
	NetPnL         float64        `json:"net_pnl" yaml:"net_pnl"`
	Fees           float64        `json:"fees" yaml:"fees"`
	ProfitFactor   float64        `json:"profit_factor" yaml:"profit_factor"`
	MaxDrawdown    float64        `json:"max_drawdown" yaml:"max_drawdown"`
	MaxDrawdownPct float64        `json:"max_drawdown_pct" yaml:"max_drawdown_pct"`
	Sharpe         float64        `json:"sharpe" yaml:"sharpe"`
	AvgHoldingBars float64        `json:"avg_holding_bars" yaml:"avg_holding_bars"`
	FinalEquity    float64        `json:"final_equity" yaml:"final_equity"`
	ReturnPct      float64        `json:"return_pct" yaml:"return_pct"`
	ExitReasons    map[string]int `json:"exit_reasons" yaml:"exit_reasons"`
}

// Counters tracks how the pipeline filtered bars into trades.
type Counters struct {
	Bars              int `json:"bars" yaml:"bars"`
	Patterns          int `json:"patterns" yaml:"patterns"`
	Signals           int `json:"signals" yaml:"signals"`
	Proposals         int `json:"proposals" yaml:"proposals"`
	RejectedSignals   int `json:"rejected_signals" yaml:"rejected_signals"`
	SignalsWhileOpen  int `json:"signals_while_open" yaml:"signals_while_open"`
	SignalsOnLastBar  int `json:"signals_on_last_bar" yaml:"signals_on_last_bar"`
	RejectedProposals int `json:"rejected_proposals" yaml:"rejected_proposals"`
}

// Report is the plain result of one run. It holds no identity of its own so
// two runs over the same input compare equal.
type Report struct {
	Symbol    string                 `json:"symbol" yaml:"symbol"`
	Timeframe string                 `json:"timeframe" yaml:"timeframe"`
	Bars      int                    `json:"bars" yaml:"bars"`
	Warmup    int                    `json:"warmup" yaml:"warmup"`
	StartTime int64                  `json:"start_time" yaml:"start_time"`
	EndTime   int64                  `json:"end_time" yaml:"end_time"`
	Config    Config                 `json:"config" yaml:"config"`
	Trades    []executor.TradeResult `json:"trades" yaml:"trades"`
	Equity    []EquityPoint          `json:"equity" yaml:"equity"`
	Signals   []decision.Signal      `json:"signals,omitempty" yaml:"signals,omitempty"`
	Proposals []risk.TradeProposal   `json:"proposals,omitempty" yaml:"proposals,omitempty"`
	Counters  Counters               `json:"counters" yaml:"counters"`
	Stats     Stats                  `json:"stats" yaml:"stats"`
	Notes     []string               `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// summarize derives the stats from trades and the equity curve.
func summarize(initial float64, trades []executor.TradeResult, equity []EquityPoint) Stats {
	st := Stats{Trades: len(trades), ExitReasons: make(map[string]int)}
	returns := make([]float64, 0, len(trades))
	holding := 0
	for _, t := range trades {
		switch {
		case t.PnL > 0:
			st.Wins++
			st.GrossProfit += t.PnL
		case t.PnL < 0:
			st.Losses++
			st.GrossLoss += -t.PnL
		}
		st.NetPnL += t.PnL
		st.Fees += t.Fees
		st.ExitReasons[t.Reason.String()]++
		holding += t.HoldingBars
		returns = append(returns, t.ReturnPct)
	}
	if st.Trades > 0 {
		st.WinRate = float64(st.Wins) / float64(st.Trades)
		st.AvgHoldingBars = float64(holding) / float64(st.Trades)
	}
	switch {
	case st.GrossLoss > 0:
		st.ProfitFactor = st.GrossProfit / st.GrossLoss
	case st.GrossProfit > 0:
		st.ProfitFactor = profitFactorCap
	}
	st.Sharpe = sharpe(returns)

	peak := initial
	for _, p := range equity {
		level := initial + p.Realized
		peak = math.Max(peak, level)
		dd := peak - level
		st.MaxDrawdown = math.Max(st.MaxDrawdown, dd)
		if peak > 0 {
			st.MaxDrawdownPct = math.Max(st.MaxDrawdownPct, dd/peak)
		}
	}
	st.FinalEquity = initial
	if n := len(equity); n > 0 {
		st.FinalEquity = initial + equity[n-1].Realized
	}
	if initial > 0 {
		st.ReturnPct = (st.FinalEquity - initial) / initial
	}
	return st
}

// sharpe is mean over sample standard deviation of per-trade returns, scaled
// by the square root of the trade count.
func sharpe(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}
	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(n)
	var sq float64
	for _, r := range returns {
		sq += (r - mean) * (r - mean)
	}
	sd := math.Sqrt(sq / float64(n-1))
	if sd == 0 {
		return 0
	}
	return mean / sd * math.Sqrt(float64(n))
}
