package config

import (
	"fmt"

	"tradescope/internal/analysis/indicator"
	"tradescope/internal/analysis/pattern"
	"tradescope/internal/backtest"
	"tradescope/internal/decision"
	"tradescope/internal/executor"
	"tradescope/internal/gateway/binance"
	"tradescope/internal/pkg/symbol"
	"tradescope/internal/risk"
)

// Engine builds the immutable backtest configuration. Weight names are
// resolved to pattern kinds; unknown names are an error.
func (c *Config) Engine() (backtest.Config, error) {
	out := backtest.DefaultConfig()
	out.InitialEquity = c.Backtest.InitialEquity
	out.Warmup = c.Backtest.Warmup
	out.Indicator = indicator.Settings{
		TrendWindow:  c.Indicator.TrendWindow,
		FastWindow:   c.Indicator.FastWindow,
		RSIWindow:    c.Indicator.RSIWindow,
		ATRWindow:    c.Indicator.ATRWindow,
		BandWindow:   c.Indicator.BandWindow,
		BandWidth:    c.Indicator.BandWidth,
		VolumeWindow: c.Indicator.VolumeWindow,
	}
	out.Pattern = pattern.Settings{
		MinConfidence:    c.Pattern.MinConfidence,
		Lookback:         c.Pattern.Lookback,
		PivotStrength:    c.Pattern.PivotStrength,
		PeakTolerance:    c.Pattern.PeakTolerance,
		MinDepth:         c.Pattern.MinDepth,
		BreakoutLookback: c.Pattern.BreakoutLookback,
		LevelTolerance:   c.Pattern.LevelTolerance,
	}
	weights := decision.DefaultWeights()
	for name, w := range c.Scoring.Weights {
		kind, err := pattern.ParseKind(name)
		if err != nil {
			return backtest.Config{}, fmt.Errorf("scoring.weights: %w", err)
		}
		weights[kind] = w
	}
	out.Scoring = decision.Settings{
		Weights:              weights,
		Threshold:            c.Scoring.Threshold,
		CounterTrendDampener: c.Scoring.CounterTrendDampener,
		OverextendedDampener: c.Scoring.OverextendedDampener,
		BandDampener:         c.Scoring.BandDampener,
		VolumeDampener:       c.Scoring.VolumeDampener,
		VolumeFactor:         c.Scoring.VolumeFactor,
		RSIOverbought:        c.Scoring.RSIOverbought,
		RSIOversold:          c.Scoring.RSIOversold,
	}
	out.Risk = risk.Settings{
		RiskPerTrade: c.Risk.RiskPerTrade,
		RewardRisk:   c.Risk.RewardRisk,
		ATRMultiple:  c.Risk.ATRMultiple,
		LotStep:      c.Risk.LotStep,
		MinSize:      c.Risk.MinSize,
	}
	out.Execution = executor.Settings{
		MaxHoldingBars: c.Execution.MaxHoldingBars,
		FeeRate:        c.Execution.FeeRate,
	}
	return out, nil
}

// Outcome is the pattern evaluation window used by the stats command.
func (c *Config) Outcome() pattern.Outcome {
	return pattern.Outcome{Horizon: c.Stats.Horizon, TargetPct: c.Stats.TargetPct, StopPct: c.Stats.StopPct}
}

// SweepSymbols falls back to backtest.symbol when sweep.symbols is empty.
func (c *Config) SweepSymbols() []string {
	if out := symbol.NormalizeList(c.Sweep.Symbols); len(out) > 0 {
		return out
	}
	return []string{symbol.Normalize(c.Backtest.Symbol)}
}

// BinanceSource maps the market.binance section onto the gateway config.
func (c *Config) BinanceSource() binance.Config {
	b := c.Market.Binance
	return binance.Config{
		RESTBaseURL:     b.RESTBaseURL,
		HTTPTimeout:     b.Timeout(),
		ProxyEnabled:    b.Proxy.Enabled,
		RESTProxyURL:    b.Proxy.RESTURL,
		RateLimitPerMin: b.RateLimitPerMin,
		MaxBatch:        b.MaxBatch,
	}
}

func indicatorDefaults() indicator.Settings { return indicator.DefaultSettings() }

func patternDefaults() pattern.Settings { return pattern.DefaultSettings() }

func scoringDefaults() decision.Settings { return decision.DefaultSettings() }

func riskDefaults() risk.Settings { return risk.DefaultSettings() }
