package config

import (
	"fmt"
	"slices"
	"strings"

	"tradescope/internal/market"
	"tradescope/internal/pkg/symbol"
)

// Source names accepted in market.sources.
const (
	SourceBinance = "binance"
	SourceFile    = "file"
)

// validate checks the ambient sections, then the engine config derived from
// the rest.
func validate(c *Config) error {
	if err := c.App.validate(); err != nil {
		return err
	}
	if err := c.Market.validate(); err != nil {
		return err
	}
	if err := c.Backtest.validate(); err != nil {
		return err
	}
	if err := c.Sweep.validate(); err != nil {
		return err
	}
	if err := c.Stats.validate(); err != nil {
		return err
	}
	if strings.TrimSpace(c.Store.ReportDB) == "" {
		return fmt.Errorf("store.report_db cannot be empty")
	}
	engine, err := c.Engine()
	if err != nil {
		return err
	}
	if err := engine.Validate(); err != nil {
		return fmt.Errorf("engine config invalid: %w", err)
	}
	return nil
}

func (a *AppConfig) validate() error {
	switch a.LogLevel {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("app.log_level must be debug/info/warn/error, got %q", a.LogLevel)
	}
	switch a.LogFormat {
	case "text", "json":
	default:
		return fmt.Errorf("app.log_format must be text or json, got %q", a.LogFormat)
	}
	return nil
}

func (m *MarketConfig) validate() error {
	if len(m.Sources) == 0 {
		return fmt.Errorf("market.sources requires at least one source")
	}
	for _, src := range m.Sources {
		switch src {
		case SourceBinance:
		case SourceFile:
			if strings.TrimSpace(m.FileDir) == "" {
				return fmt.Errorf("market.file_dir is required when the file source is enabled")
			}
		default:
			return fmt.Errorf("market.sources contains unknown source: %s", src)
		}
	}
	if m.BreakerThreshold < 0 || m.BreakerCooldownSeconds < 0 {
		return fmt.Errorf("market.breaker_threshold and market.breaker_cooldown_seconds must be >= 0")
	}
	if slices.Contains(m.Sources, SourceBinance) {
		b := m.Binance
		if b.TimeoutSeconds <= 0 {
			return fmt.Errorf("market.binance.timeout_seconds must be > 0")
		}
		if b.RateLimitPerMin <= 0 {
			return fmt.Errorf("market.binance.rate_limit_per_min must be > 0")
		}
		if b.MaxBatch <= 0 || b.MaxBatch > defaultBinanceMaxBatch {
			return fmt.Errorf("market.binance.max_batch must be within [1,%d]", defaultBinanceMaxBatch)
		}
		if b.Proxy.Enabled && b.Proxy.RESTURL == "" {
			return fmt.Errorf("market.binance.proxy.rest_url is required when the proxy is enabled")
		}
	}
	return nil
}

func (b *BacktestConfig) validate() error {
	if !symbol.IsValid(b.Symbol) {
		return fmt.Errorf("backtest.symbol is invalid: %q", b.Symbol)
	}
	if _, err := market.ParseTimeframe(b.Timeframe); err != nil {
		return fmt.Errorf("backtest.timeframe: %w", err)
	}
	if b.LookbackDays <= 0 {
		return fmt.Errorf("backtest.lookback_days must be > 0")
	}
	return nil
}

func (s *SweepConfig) validate() error {
	if s.Parallelism < 0 {
		return fmt.Errorf("sweep.parallelism must be >= 0")
	}
	for _, sym := range s.Symbols {
		if !symbol.IsValid(sym) {
			return fmt.Errorf("sweep.symbols contains invalid symbol: %q", sym)
		}
	}
	for _, v := range s.RiskPerTrade {
		if v <= 0 || v > 1 {
			return fmt.Errorf("sweep.risk_per_trade values must be within (0,1], got %v", v)
		}
	}
	for _, v := range s.RewardRisk {
		if v <= 0 {
			return fmt.Errorf("sweep.reward_risk values must be > 0, got %v", v)
		}
	}
	for _, v := range s.MinConfidences {
		if v < 0 || v > 1 {
			return fmt.Errorf("sweep.min_confidence values must be within [0,1], got %v", v)
		}
	}
	return nil
}

func (s *StatsConfig) validate() error {
	if s.Horizon <= 0 {
		return fmt.Errorf("stats.horizon must be > 0")
	}
	if s.TargetPct <= 0 || s.StopPct <= 0 {
		return fmt.Errorf("stats.target_pct and stats.stop_pct must be > 0")
	}
	return nil
}
