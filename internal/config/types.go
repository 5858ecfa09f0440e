package config

import (
	"strings"
	"time"
)

// Config is the process configuration of tradescope. The engine never reads
// it directly; Engine() derives the immutable backtest.Config.
type Config struct {
	App       AppConfig       `toml:"app"`
	Market    MarketConfig    `toml:"market"`
	Backtest  BacktestConfig  `toml:"backtest"`
	Indicator IndicatorConfig `toml:"indicator"`
	Pattern   PatternConfig   `toml:"pattern"`
	Scoring   ScoringConfig   `toml:"scoring"`
	Risk      RiskConfig      `toml:"risk"`
	Execution ExecutionConfig `toml:"execution"`
	Sweep     SweepConfig     `toml:"sweep"`
	Stats     StatsConfig     `toml:"stats"`
	Store     StoreConfig     `toml:"store"`
}

type AppConfig struct {
	LogLevel  string `toml:"log_level"`
	LogFormat string `toml:"log_format"` // "text" | "json"
	LogPath   string `toml:"log_path"`
	HTTPAddr  string `toml:"http_addr"`
}

// MarketConfig lists the candle sources in the order they are tried. The
// cache is always consulted first when CacheDir is set.
type MarketConfig struct {
	Sources  []string      `toml:"sources"`
	Binance  BinanceConfig `toml:"binance"`
	FileDir  string        `toml:"file_dir"`
	CacheDir string        `toml:"cache_dir"`
	// A source failing BreakerThreshold fetches in a row is skipped for
	// BreakerCooldownSeconds. Zero disables the breaker.
	BreakerThreshold       int `toml:"breaker_threshold"`
	BreakerCooldownSeconds int `toml:"breaker_cooldown_seconds"`
}

func (m MarketConfig) BreakerCooldown() time.Duration {
	return time.Duration(m.BreakerCooldownSeconds) * time.Second
}

type BinanceConfig struct {
	RESTBaseURL     string      `toml:"rest_url"`
	TimeoutSeconds  int         `toml:"timeout_seconds"`
	RateLimitPerMin int         `toml:"rate_limit_per_min"`
	MaxBatch        int         `toml:"max_batch"`
	Proxy           ProxyConfig `toml:"proxy"`
}

func (b BinanceConfig) Timeout() time.Duration {
	return time.Duration(b.TimeoutSeconds) * time.Second
}

type ProxyConfig struct {
	Enabled bool   `toml:"enabled"`
	RESTURL string `toml:"rest_url"`
}

type BacktestConfig struct {
	Symbol        string  `toml:"symbol"`
	Timeframe     string  `toml:"timeframe"`
	LookbackDays  int     `toml:"lookback_days"`
	InitialEquity float64 `toml:"initial_equity"`
	Warmup        int     `toml:"warmup"`
}

type IndicatorConfig struct {
	TrendWindow  int     `toml:"trend_window"`
	FastWindow   int     `toml:"fast_window"`
	RSIWindow    int     `toml:"rsi_window"`
	ATRWindow    int     `toml:"atr_window"`
	BandWindow   int     `toml:"band_window"`
	BandWidth    float64 `toml:"band_width"`
	VolumeWindow int     `toml:"volume_window"`
}

type PatternConfig struct {
	MinConfidence    float64 `toml:"min_confidence"`
	Lookback         int     `toml:"lookback"`
	PivotStrength    int     `toml:"pivot_strength"`
	PeakTolerance    float64 `toml:"peak_tolerance"`
	MinDepth         float64 `toml:"min_depth"`
	BreakoutLookback int     `toml:"breakout_lookback"`
	LevelTolerance   float64 `toml:"level_tolerance"`
}

// ScoringConfig.Weights is keyed by pattern kind name ("breakout",
// "double_bottom", ...). Kinds left out keep their default weight.
type ScoringConfig struct {
	Weights              map[string]float64 `toml:"weights"`
	Threshold            float64            `toml:"threshold"`
	CounterTrendDampener float64            `toml:"counter_trend_dampener"`
	OverextendedDampener float64            `toml:"overextended_dampener"`
	BandDampener         float64            `toml:"band_dampener"`
	VolumeDampener       float64            `toml:"volume_dampener"`
	VolumeFactor         float64            `toml:"volume_factor"`
	RSIOverbought        float64            `toml:"rsi_overbought"`
	RSIOversold          float64            `toml:"rsi_oversold"`
}

type RiskConfig struct {
	RiskPerTrade float64 `toml:"risk_per_trade"`
	RewardRisk   float64 `toml:"reward_risk"`
	ATRMultiple  float64 `toml:"atr_multiple"`
	LotStep      float64 `toml:"lot_step"`
	MinSize      float64 `toml:"min_size"`
}

type ExecutionConfig struct {
	MaxHoldingBars int     `toml:"max_holding_bars"`
	FeeRate        float64 `toml:"fee_rate"`
}

// SweepConfig expands the base run over each grid axis. An empty axis keeps
// the base value; an empty Symbols list sweeps backtest.symbol only.
type SweepConfig struct {
	Parallelism    int       `toml:"parallelism"`
	Symbols        []string  `toml:"symbols"`
	RiskPerTrade   []float64 `toml:"risk_per_trade"`
	RewardRisk     []float64 `toml:"reward_risk"`
	MinConfidences []float64 `toml:"min_confidence"`
}

type StatsConfig struct {
	Horizon   int     `toml:"horizon"`
	TargetPct float64 `toml:"target_pct"`
	StopPct   float64 `toml:"stop_pct"`
}

type StoreConfig struct {
	ReportDB string `toml:"report_db"`
}

// keySet tracks the key paths set explicitly by a file or the environment.
type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return false
	}
	_, ok := k[path]
	return ok
}

// fieldDefault applies a default when key is unset and need reports true.
type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}
