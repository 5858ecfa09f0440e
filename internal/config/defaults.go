package config

import (
	"strings"
)

const (
	defaultAppLogLevel      = "info"
	defaultAppLogFormat     = "text"
	defaultAppHTTPAddr      = ":9991"
	defaultBinanceREST      = "https://fapi.binance.com"
	defaultBinanceTimeout   = 15
	defaultBinanceRate      = 120
	defaultBinanceMaxBatch  = 1500
	defaultCacheDir         = "data/candles"
	defaultBreakerThreshold = 3
	defaultBreakerCooldown  = 60
	defaultSymbol           = "BTCUSDT"
	defaultTimeframe        = "1h"
	defaultLookbackDays     = 30
	defaultInitialEquity    = 10_000
	defaultMaxHoldingBars   = 48
	defaultReportDB         = "data/reports.db"
	defaultStatsHorizon     = 10
	defaultStatsTargetPct   = 0.02
	defaultStatsStopPct     = 0.01
	defaultSweepParallelism = 0
)

var defaultSources = []string{"binance"}

// applyDefaults fills every key the files and environment left unset.
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.Market.applyDefaults(keys)
	c.Backtest.applyDefaults(keys)
	c.Indicator.applyDefaults(keys)
	c.Pattern.applyDefaults(keys)
	c.Scoring.applyDefaults(keys)
	c.Risk.applyDefaults(keys)
	c.Execution.applyDefaults(keys)
	c.Sweep.applyDefaults(keys)
	c.Stats.applyDefaults(keys)
	c.Store.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		stringFieldDefault("app.log_format", &a.LogFormat, defaultAppLogFormat),
		stringFieldDefault("app.http_addr", &a.HTTPAddr, defaultAppHTTPAddr),
	)
	a.LogLevel = strings.ToLower(strings.TrimSpace(a.LogLevel))
	a.LogFormat = strings.ToLower(strings.TrimSpace(a.LogFormat))
}

func (m *MarketConfig) applyDefaults(keys keySet) {
	if m == nil {
		return
	}
	b := &m.Binance
	applyFieldDefaults(keys,
		fieldDefault{
			key:   "market.sources",
			need:  func() bool { return len(m.Sources) == 0 },
			apply: func() { m.Sources = append([]string(nil), defaultSources...) },
		},
		stringFieldDefault("market.binance.rest_url", &b.RESTBaseURL, defaultBinanceREST),
		intFieldDefault("market.binance.timeout_seconds", &b.TimeoutSeconds, defaultBinanceTimeout),
		intFieldDefault("market.binance.rate_limit_per_min", &b.RateLimitPerMin, defaultBinanceRate),
		intFieldDefault("market.binance.max_batch", &b.MaxBatch, defaultBinanceMaxBatch),
		stringFieldDefault("market.cache_dir", &m.CacheDir, defaultCacheDir),
		intFieldDefault("market.breaker_threshold", &m.BreakerThreshold, defaultBreakerThreshold),
		intFieldDefault("market.breaker_cooldown_seconds", &m.BreakerCooldownSeconds, defaultBreakerCooldown),
	)
	m.Sources = normalizeList(m.Sources)
	b.Proxy.RESTURL = strings.TrimSpace(b.Proxy.RESTURL)
}

func (b *BacktestConfig) applyDefaults(keys keySet) {
	if b == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("backtest.symbol", &b.Symbol, defaultSymbol),
		stringFieldDefault("backtest.timeframe", &b.Timeframe, defaultTimeframe),
		intFieldDefault("backtest.lookback_days", &b.LookbackDays, defaultLookbackDays),
		floatFieldDefault("backtest.initial_equity", &b.InitialEquity, defaultInitialEquity),
	)
}

func (i *IndicatorConfig) applyDefaults(keys keySet) {
	if i == nil {
		return
	}
	def := indicatorDefaults()
	applyFieldDefaults(keys,
		intFieldDefault("indicator.trend_window", &i.TrendWindow, def.TrendWindow),
		intFieldDefault("indicator.fast_window", &i.FastWindow, def.FastWindow),
		intFieldDefault("indicator.rsi_window", &i.RSIWindow, def.RSIWindow),
		intFieldDefault("indicator.atr_window", &i.ATRWindow, def.ATRWindow),
		intFieldDefault("indicator.band_window", &i.BandWindow, def.BandWindow),
		floatFieldDefault("indicator.band_width", &i.BandWidth, def.BandWidth),
		intFieldDefault("indicator.volume_window", &i.VolumeWindow, def.VolumeWindow),
	)
}

func (p *PatternConfig) applyDefaults(keys keySet) {
	if p == nil {
		return
	}
	def := patternDefaults()
	applyFieldDefaults(keys,
		floatFieldDefault("pattern.min_confidence", &p.MinConfidence, def.MinConfidence),
		intFieldDefault("pattern.lookback", &p.Lookback, def.Lookback),
		intFieldDefault("pattern.pivot_strength", &p.PivotStrength, def.PivotStrength),
		floatFieldDefault("pattern.peak_tolerance", &p.PeakTolerance, def.PeakTolerance),
		floatFieldDefault("pattern.min_depth", &p.MinDepth, def.MinDepth),
		intFieldDefault("pattern.breakout_lookback", &p.BreakoutLookback, def.BreakoutLookback),
		floatFieldDefault("pattern.level_tolerance", &p.LevelTolerance, def.LevelTolerance),
	)
}

func (s *ScoringConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	def := scoringDefaults()
	applyFieldDefaults(keys,
		floatFieldDefault("scoring.threshold", &s.Threshold, def.Threshold),
		floatFieldDefault("scoring.counter_trend_dampener", &s.CounterTrendDampener, def.CounterTrendDampener),
		floatFieldDefault("scoring.overextended_dampener", &s.OverextendedDampener, def.OverextendedDampener),
		floatFieldDefault("scoring.band_dampener", &s.BandDampener, def.BandDampener),
		floatFieldDefault("scoring.volume_dampener", &s.VolumeDampener, def.VolumeDampener),
		floatFieldDefault("scoring.volume_factor", &s.VolumeFactor, def.VolumeFactor),
		floatFieldDefault("scoring.rsi_overbought", &s.RSIOverbought, def.RSIOverbought),
		floatFieldDefault("scoring.rsi_oversold", &s.RSIOversold, def.RSIOversold),
	)
	if len(s.Weights) > 0 {
		out := make(map[string]float64, len(s.Weights))
		for name, w := range s.Weights {
			out[strings.ToLower(strings.TrimSpace(name))] = w
		}
		s.Weights = out
	}
}

func (r *RiskConfig) applyDefaults(keys keySet) {
	if r == nil {
		return
	}
	def := riskDefaults()
	applyFieldDefaults(keys,
		floatFieldDefault("risk.risk_per_trade", &r.RiskPerTrade, def.RiskPerTrade),
		floatFieldDefault("risk.reward_risk", &r.RewardRisk, def.RewardRisk),
		floatFieldDefault("risk.atr_multiple", &r.ATRMultiple, def.ATRMultiple),
		floatFieldDefault("risk.lot_step", &r.LotStep, def.LotStep),
		floatFieldDefault("risk.min_size", &r.MinSize, def.MinSize),
	)
}

func (e *ExecutionConfig) applyDefaults(keys keySet) {
	if e == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("execution.max_holding_bars", &e.MaxHoldingBars, defaultMaxHoldingBars),
	)
}

func (s *SweepConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("sweep.parallelism", &s.Parallelism, defaultSweepParallelism),
	)
	for i := range s.Symbols {
		s.Symbols[i] = strings.TrimSpace(s.Symbols[i])
	}
}

func (s *StatsConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("stats.horizon", &s.Horizon, defaultStatsHorizon),
		floatFieldDefault("stats.target_pct", &s.TargetPct, defaultStatsTargetPct),
		floatFieldDefault("stats.stop_pct", &s.StopPct, defaultStatsStopPct),
	)
}

func (s *StoreConfig) applyDefaults(keys keySet) {
	if s == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("store.report_db", &s.ReportDB, defaultReportDB),
	)
}

// Helper functions

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

// intFieldDefault and floatFieldDefault only look at the key: an explicit
// zero in the file is kept.
func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil },
		apply: func() { *target = def },
	}
}

func floatFieldDefault(key string, target *float64, def float64) fieldDefault {
	return fieldDefault{
		key:   key,
		need:  func() bool { return target != nil },
		apply: func() { *target = def },
	}
}

func normalizeList(items []string) []string {
	if len(items) == 0 {
		return nil
	}
	out := make([]string, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, item := range items {
		item = strings.ToLower(strings.TrimSpace(item))
		if item == "" || seen[item] {
			continue
		}
		seen[item] = true
		out = append(out, item)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
