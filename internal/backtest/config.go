package backtest

import (
	"errors"
	"fmt"

	"tradescope/internal/analysis/indicator"
	"tradescope/internal/analysis/pattern"
	"tradescope/internal/decision"
	"tradescope/internal/executor"
	"tradescope/internal/risk"
)

// Config is everything a run depends on. It is copied into the Backtester
// and never read again from outside.
type Config struct {
	Indicator     indicator.Settings `json:"indicator" yaml:"indicator"`
	Pattern       pattern.Settings   `json:"pattern" yaml:"pattern"`
	Scoring       decision.Settings  `json:"scoring" yaml:"scoring"`
	Risk          risk.Settings      `json:"risk" yaml:"risk"`
	Execution     executor.Settings  `json:"execution" yaml:"execution"`
	InitialEquity float64            `json:"initial_equity" yaml:"initial_equity"`
	// Warmup is a floor on the bars skipped before trading; the effective
	// value also covers indicator and detector needs.
	Warmup int `json:"warmup" yaml:"warmup"`
}

func DefaultConfig() Config {
	return Config{
		Indicator:     indicator.DefaultSettings(),
		Pattern:       pattern.DefaultSettings(),
		Scoring:       decision.DefaultSettings(),
		Risk:          risk.DefaultSettings(),
		Execution:     executor.Settings{MaxHoldingBars: 48},
		InitialEquity: 10_000,
	}
}

func (c Config) Validate() error {
	var errs []error
	if c.InitialEquity <= 0 {
		errs = append(errs, fmt.Errorf("initial_equity must be > 0, got %v", c.InitialEquity))
	}
	if c.Warmup < 0 {
		errs = append(errs, fmt.Errorf("warmup must be >= 0, got %d", c.Warmup))
	}
	ind := c.Indicator
	if ind.TrendWindow < 1 || ind.FastWindow < 1 || ind.RSIWindow < 1 || ind.ATRWindow < 1 || ind.BandWindow < 1 || ind.VolumeWindow < 1 {
		errs = append(errs, errors.New("indicator windows must be >= 1"))
	}
	if ind.BandWidth <= 0 {
		errs = append(errs, fmt.Errorf("indicator band_width must be > 0, got %v", ind.BandWidth))
	}
	p := c.Pattern
	if p.MinConfidence < 0 || p.MinConfidence > 1 {
		errs = append(errs, fmt.Errorf("pattern min_confidence must be within [0,1], got %v", p.MinConfidence))
	}
	if p.PivotStrength < 1 || p.BreakoutLookback < 1 || p.Lookback < 1 {
		errs = append(errs, errors.New("pattern lookback, pivot_strength and breakout_lookback must be >= 1"))
	}
	if p.PeakTolerance < 0 || p.MinDepth < 0 || p.LevelTolerance < 0 {
		errs = append(errs, errors.New("pattern tolerances must be >= 0"))
	}
	s := c.Scoring
	if s.Threshold < 0 {
		errs = append(errs, fmt.Errorf("scoring threshold must be >= 0, got %v", s.Threshold))
	}
	if s.VolumeFactor < 0 {
		errs = append(errs, fmt.Errorf("scoring volume_factor must be >= 0, got %v", s.VolumeFactor))
	}
	for k, w := range s.Weights {
		if !k.Valid() || w < 0 {
			errs = append(errs, fmt.Errorf("scoring weight %s=%v is invalid", k, w))
		}
	}
	if err := c.Risk.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("risk: %w", err))
	}
	if c.Execution.MaxHoldingBars < 0 {
		errs = append(errs, fmt.Errorf("execution max_holding_bars must be >= 0, got %d", c.Execution.MaxHoldingBars))
	}
	if c.Execution.FeeRate < 0 || c.Execution.FeeRate >= 1 {
		errs = append(errs, fmt.Errorf("execution fee_rate must be within [0,1), got %v", c.Execution.FeeRate))
	}
	return errors.Join(errs...)
}

// WarmupBars is the index of the first simulated bar.
func (c Config) WarmupBars() int {
	return max(c.Warmup, c.Indicator.Warmup(), c.Pattern.MinBars()-1)
}
