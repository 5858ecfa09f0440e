// Package backtest replays a candle series bar by bar through pattern
// detection, scoring, risk sizing and simulated execution.
package backtest

import (
	"context"
	"fmt"
	"maps"
	"slices"

	"tradescope/internal/analysis/indicator"
	"tradescope/internal/analysis/pattern"
	"tradescope/internal/decision"
	"tradescope/internal/executor"
	"tradescope/internal/logger"
	"tradescope/internal/market"
	"tradescope/internal/pkg/symbol"
	"tradescope/internal/risk"
)

// ExecutorFactory builds a fresh executor for each run.
type ExecutorFactory func(executor.Settings) executor.Executor

type Option func(*Backtester)

// WithExecutor swaps the simulated executor for another implementation.
func WithExecutor(f ExecutorFactory) Option {
	return func(b *Backtester) {
		if f != nil {
			b.newExecutor = f
		}
	}
}

// Backtester is safe for concurrent Run calls on distinct series; it keeps
// no state between runs.
type Backtester struct {
	cfg         Config
	detector    *pattern.Detector
	scorer      *decision.Scorer
	newExecutor ExecutorFactory
}

func New(cfg Config, opts ...Option) (*Backtester, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("backtest config: %w", err)
	}
	cfg.Scoring.Weights = maps.Clone(cfg.Scoring.Weights)
	b := &Backtester{
		cfg:      cfg,
		detector: pattern.NewDetector(cfg.Pattern),
		scorer:   decision.NewScorer(cfg.Scoring),
		newExecutor: func(s executor.Settings) executor.Executor {
			return executor.NewSim(s)
		},
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

func (b *Backtester) Config() Config { return b.cfg }

// Run simulates the strategy over series and freezes it first. Bars are
// checked as they enter a series (market.NewSeries and Append return a
// *market.CandleError naming the offending index), so Run never sees an
// invalid bar. A series no longer than the warm-up yields an empty report.
// A cancelled run returns ctx.Err() and no report.
func (b *Backtester) Run(ctx context.Context, series *market.Series) (*Report, error) {
	if series == nil {
		return nil, fmt.Errorf("backtest: nil series")
	}
	if !symbol.IsNormalized(series.Symbol()) {
		return nil, fmt.Errorf("backtest: %w: %q is not in BASE/QUOTE form", market.ErrInvalidSymbol, series.Symbol())
	}
	series.Freeze()

	n := series.Len()
	warmup := b.cfg.WarmupBars()
	rep := &Report{
		Symbol:    series.Symbol(),
		Timeframe: series.Timeframe(),
		Bars:      n,
		Warmup:    warmup,
		Config:    b.cfg,
		Trades:    []executor.TradeResult{},
		Equity:    []EquityPoint{},
	}
	if lastBar, ok := series.Last(); ok {
		rep.StartTime = series.At(0).OpenTime
		rep.EndTime = lastBar.OpenTime
	}
	if n <= warmup {
		rep.Notes = append(rep.Notes, fmt.Sprintf("series has %d bars; at least %d are needed to trade after warm-up", n, warmup+1))
		rep.Stats = summarize(b.cfg.InitialEquity, nil, nil)
		return rep, nil
	}

	sim := b.newExecutor(b.cfg.Execution)
	ind := indicator.Compute(series, n-1, b.cfg.Indicator)
	rep.Equity = make([]EquityPoint, 0, n-warmup)
	var realized float64

	record := func(res executor.TradeResult) {
		rep.Trades = append(rep.Trades, res)
		realized += res.PnL
	}

	for i := warmup; i < n; i++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}
		bar := series.At(i)
		last := i == n-1
		rep.Counters.Bars++

		patterns := slices.Collect(b.detector.Detect(series, i))
		rep.Counters.Patterns += len(patterns)
		snap := ind.At(i)
		sig := b.scorer.Score(patterns, snap, i)
		if sig.Actionable() {
			rep.Counters.Signals++
			rep.Signals = append(rep.Signals, sig)
		}

		if _, holding := sim.Position(); holding {
			if sig.Actionable() {
				rep.Counters.SignalsWhileOpen++
			}
			if res, closed := sim.Step(i, bar); closed {
				record(res)
			}
		} else if sig.Actionable() {
			if last {
				rep.Counters.SignalsOnLastBar++
			} else {
				b.enter(sim, rep, sig, snap, bar, i, b.cfg.InitialEquity+realized)
			}
		}

		if last {
			if res, closed := sim.Close(i, bar, executor.ExitEndOfData); closed {
				record(res)
			}
		}

		var unrealized float64
		if pos, holding := sim.Position(); holding {
			unrealized = pos.Unrealized
		}
		rep.Equity = append(rep.Equity, EquityPoint{
			Index:      i,
			Time:       bar.OpenTime,
			Realized:   realized,
			Unrealized: unrealized,
			Equity:     b.cfg.InitialEquity + realized + unrealized,
		})
	}
	fillDrawdown(b.cfg.InitialEquity, rep.Equity)
	rep.Stats = summarize(b.cfg.InitialEquity, rep.Trades, rep.Equity)
	logger.Debugf("[backtest] %s@%s bars=%d warmup=%d signals=%d trades=%d net=%.4f",
		rep.Symbol, rep.Timeframe, n, warmup, rep.Counters.Signals, rep.Stats.Trades, rep.Stats.NetPnL)
	return rep, nil
}

func (b *Backtester) enter(sim executor.Executor, rep *Report, sig decision.Signal, snap indicator.Snapshot, bar market.Candle, i int, equity float64) {
	quote := risk.Quote{Index: i, Time: bar.CloseTime, Price: bar.Close}
	if snap.ATR.OK {
		quote.ATR = snap.ATR.V
	}
	p, ok := risk.Size(sig, quote, risk.AccountState{Equity: equity}, b.cfg.Risk)
	if !ok {
		rep.Counters.RejectedSignals++
		return
	}
	if err := sim.Open(p); err != nil {
		rep.Counters.RejectedProposals++
		logger.Debugf("[backtest] proposal at bar %d rejected: %v", i, err)
		return
	}
	rep.Counters.Proposals++
	rep.Proposals = append(rep.Proposals, p)
}

func fillDrawdown(initial float64, equity []EquityPoint) {
	peak := initial
	for i := range equity {
		level := initial + equity[i].Realized
		peak = max(peak, level)
		equity[i].Drawdown = peak - level
	}
}
