package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"tradescope/internal/analysis/pattern"
	"tradescope/internal/backtest"
	"tradescope/internal/config"
	"tradescope/internal/gateway"
	"tradescope/internal/logger"
	"tradescope/internal/market"
	"tradescope/internal/store/reportstore"
	reporthttp "tradescope/internal/transport/http/report"

	"golang.org/x/sync/errgroup"
)

// runFlags are shared by the commands that load a series.
type runFlags struct {
	symbol    string
	timeframe string
	days      int
	format    string
	detail    bool
	save      bool
	label     string
}

func (f *runFlags) bind(fs *flag.FlagSet, cfg *config.Config) {
	fs.StringVar(&f.symbol, "symbol", cfg.Backtest.Symbol, "symbol, e.g. BTC/USDT or BTCUSDT")
	fs.StringVar(&f.timeframe, "tf", cfg.Backtest.Timeframe, "timeframe ("+joinTimeframes()+")")
	fs.IntVar(&f.days, "days", cfg.Backtest.LookbackDays, "lookback in days")
	fs.StringVar(&f.format, "format", formatJSON, "output format: json | yaml")
}

func runBacktest(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("backtest", flag.ContinueOnError)
	var f runFlags
	f.bind(fs, cfg)
	fs.BoolVar(&f.detail, "signals", false, "keep every signal and proposal in the output")
	fs.BoolVar(&f.save, "save", true, "store the report in store.report_db")
	fs.StringVar(&f.label, "label", "", "label stored with the report")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(f.format); err != nil {
		return err
	}

	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	bt, err := backtest.New(engine)
	if err != nil {
		return err
	}
	m, err := gateway.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	series, ok, err := loadSeries(ctx, m, f.symbol, f.timeframe, f.days)
	if err != nil || !ok {
		return err
	}
	rep, err := bt.Run(ctx, series)
	if err != nil {
		return err
	}
	logSummary(series.Symbol(), rep)
	if f.save {
		ids, err := saveReports(ctx, cfg, f.label, rep)
		if err != nil {
			return err
		}
		logger.Infof("[main] report stored as %s", ids[0])
	}
	if !f.detail {
		rep.Signals, rep.Proposals = nil, nil
	}
	return writeOutput(out, f.format, rep)
}

// sweepRow is one line of sweep output; the full report stays in the store.
type sweepRow struct {
	Name     string             `json:"name"`
	Symbol   string             `json:"symbol"`
	Error    string             `json:"error,omitempty"`
	Stats    *backtest.Stats    `json:"stats,omitempty"`
	Counters *backtest.Counters `json:"counters,omitempty"`
}

func runSweep(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("sweep", flag.ContinueOnError)
	var f runFlags
	f.bind(fs, cfg)
	parallel := fs.Int("parallel", cfg.Sweep.Parallelism, "concurrent jobs (0 = GOMAXPROCS)")
	fs.BoolVar(&f.save, "save", false, "store every successful report")
	fs.StringVar(&f.label, "label", "sweep", "label stored with saved reports")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(f.format); err != nil {
		return err
	}
	symbols := cfg.SweepSymbols()
	if symbolSet(fs) {
		symbols = []string{f.symbol}
	}

	base, err := cfg.Engine()
	if err != nil {
		return err
	}
	grid := backtest.Grid(base, cfg.Sweep.RiskPerTrade, cfg.Sweep.RewardRisk, cfg.Sweep.MinConfidences)
	m, err := gateway.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	var jobs []backtest.SweepJob
	for _, sym := range symbols {
		series, ok, err := loadSeries(ctx, m, sym, f.timeframe, f.days)
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		for _, c := range grid {
			jobs = append(jobs, backtest.SweepJob{
				Name:   series.Symbol() + " " + backtest.GridName(c),
				Config: c,
				Series: series,
			})
		}
	}
	if len(jobs) == 0 {
		logger.Warnf("[sweep] no data for any symbol, nothing to run")
		return nil
	}
	logger.Infof("[sweep] running %d jobs over %d symbols", len(jobs), len(symbols))

	results, err := backtest.Sweep(ctx, jobs, *parallel)
	if err != nil {
		return err
	}
	rows := make([]sweepRow, 0, len(results))
	var reports []*backtest.Report
	for _, res := range results {
		row := sweepRow{Name: res.Name}
		if res.Err != nil {
			row.Error = res.Err.Error()
			logger.Warnf("[sweep] %s failed: %v", res.Name, res.Err)
		} else {
			row.Symbol = res.Report.Symbol
			row.Stats = &res.Report.Stats
			row.Counters = &res.Report.Counters
			reports = append(reports, res.Report)
		}
		rows = append(rows, row)
	}
	if f.save && len(reports) > 0 {
		ids, err := saveReports(ctx, cfg, f.label, reports...)
		if err != nil {
			return err
		}
		logger.Infof("[sweep] stored %d reports", len(ids))
	}
	return writeOutput(out, f.format, rows)
}

func runStats(ctx context.Context, cfg *config.Config, args []string, out io.Writer) error {
	fs := flag.NewFlagSet("stats", flag.ContinueOnError)
	var f runFlags
	f.bind(fs, cfg)
	outcome := cfg.Outcome()
	fs.IntVar(&outcome.Horizon, "horizon", outcome.Horizon, "bars allowed for the move")
	fs.Float64Var(&outcome.TargetPct, "target", outcome.TargetPct, "favourable move that counts as success")
	fs.Float64Var(&outcome.StopPct, "stop", outcome.StopPct, "adverse move that counts as failure")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if err := checkFormat(f.format); err != nil {
		return err
	}
	if outcome.Horizon <= 0 || outcome.TargetPct <= 0 || outcome.StopPct <= 0 {
		return fmt.Errorf("horizon, target and stop must be > 0")
	}
	engine, err := cfg.Engine()
	if err != nil {
		return err
	}
	m, err := gateway.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	series, ok, err := loadSeries(ctx, m, f.symbol, f.timeframe, f.days)
	if err != nil || !ok {
		return err
	}
	stats := pattern.NewDetector(engine.Pattern).Evaluate(series.Freeze(), outcome)
	return writeOutput(out, f.format, stats)
}

func runServe(ctx context.Context, cfg *config.Config, args []string, _ io.Writer) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.App.HTTPAddr, "listen address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	runs, err := reportstore.Open(cfg.Store.ReportDB)
	if err != nil {
		return err
	}
	defer runs.Close()
	srvCfg := reporthttp.Config{Addr: *addr, Runs: runs}
	m, err := gateway.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	defer m.Close()
	if m.Cache != nil {
		srvCfg.Datasets = m.Cache
	}
	srv, err := reporthttp.NewServer(srvCfg)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Start(gctx) })
	g.Go(func() error {
		<-gctx.Done()
		logger.Infof("[main] shutting down report api")
		return nil
	})
	return g.Wait()
}

// loadSeries fetches through the market chain. Missing or unreachable
// data is logged and reported as ok=false rather than an error; malformed
// bars are returned as the *market.CandleError naming the offending index.
func loadSeries(ctx context.Context, src market.Provider, sym, timeframe string, days int) (*market.Series, bool, error) {
	series, err := src.Fetch(ctx, sym, timeframe, days)
	var candleErr *market.CandleError
	switch {
	case errors.As(err, &candleErr):
		return nil, false, fmt.Errorf("loading %s@%s: %w", sym, timeframe, err)
	case errors.Is(err, market.ErrNotFound), errors.Is(err, market.ErrUnavailable):
		logger.Warnf("[main] no data to backtest for %s@%s: %v", sym, timeframe, err)
		return nil, false, nil
	case err != nil:
		return nil, false, err
	}
	logger.Infof("[main] loaded %d bars for %s@%s", series.Len(), series.Symbol(), series.Timeframe())
	return series, true, nil
}

func saveReports(ctx context.Context, cfg *config.Config, label string, reps ...*backtest.Report) ([]string, error) {
	store, err := reportstore.Open(cfg.Store.ReportDB)
	if err != nil {
		return nil, err
	}
	defer store.Close()
	ids := make([]string, 0, len(reps))
	for _, rep := range reps {
		id, err := store.SaveReport(ctx, label, rep)
		if err != nil {
			return ids, fmt.Errorf("saving report for %s: %w", rep.Symbol, err)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func logSummary(sym string, rep *backtest.Report) {
	s := rep.Stats
	logger.InfoBlock(fmt.Sprintf(`[main] %s@%s bars=%d warmup=%d
[main] trades=%d win_rate=%.2f net_pnl=%.2f return=%.2f%%
[main] profit_factor=%.2f max_drawdown=%.2f (%.2f%%) sharpe=%.2f`,
		sym, rep.Timeframe, rep.Bars, rep.Warmup,
		s.Trades, s.WinRate, s.NetPnL, s.ReturnPct*100,
		s.ProfitFactor, s.MaxDrawdown, s.MaxDrawdownPct*100, s.Sharpe))
	for _, note := range rep.Notes {
		logger.Infof("[main] note: %s", note)
	}
}

func symbolSet(fs *flag.FlagSet) bool {
	set := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == "symbol" {
			set = true
		}
	})
	return set
}
