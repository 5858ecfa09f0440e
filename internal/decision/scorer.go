package decision

import (
	"math"
	"slices"

	"tradescope/internal/analysis/indicator"
	"tradescope/internal/analysis/pattern"
)

// Settings controls how patterns are weighed into a signal.
//
// A bullish pattern is multiplied by CounterTrendDampener when the fast
// average (or the close, before it is defined) sits below the trend average,
// by OverextendedDampener when RSI is at or above RSIOverbought, and by
// BandDampener when the close is above the upper Bollinger band. Bearish
// patterns mirror this. Breakouts and breakdowns printed on volume below
// VolumeFactor times the volume average are multiplied by VolumeDampener.
// Dampeners are clamped to [0, 1] so they only ever suppress.
type Settings struct {
	Weights              map[pattern.Kind]float64 `json:"weights"`
	Threshold            float64                  `json:"threshold"`
	CounterTrendDampener float64                  `json:"counter_trend_dampener"`
	OverextendedDampener float64                  `json:"overextended_dampener"`
	BandDampener         float64                  `json:"band_dampener"`
	VolumeDampener       float64                  `json:"volume_dampener"`
	VolumeFactor         float64                  `json:"volume_factor"`
	RSIOverbought        float64                  `json:"rsi_overbought"`
	RSIOversold          float64                  `json:"rsi_oversold"`
}

func DefaultSettings() Settings {
	return Settings{
		Weights:              DefaultWeights(),
		Threshold:            0.25,
		CounterTrendDampener: 0.5,
		OverextendedDampener: 0.75,
		BandDampener:         0.75,
		VolumeDampener:       0.5,
		VolumeFactor:         1,
		RSIOverbought:        70,
		RSIOversold:          30,
	}
}

// DefaultWeights assigns a base weight to every pattern kind.
func DefaultWeights() map[pattern.Kind]float64 {
	out := make(map[pattern.Kind]float64)
	for _, k := range pattern.Kinds() {
		out[k] = defaultWeight(k)
	}
	return out
}

func defaultWeight(k pattern.Kind) float64 {
	switch k {
	case pattern.HeadShoulders, pattern.InverseHeadShoulders:
		return 0.9
	case pattern.DoubleTop, pattern.DoubleBottom:
		return 0.8
	case pattern.Breakout, pattern.Breakdown:
		return 0.7
	case pattern.SupportBounce, pattern.ResistanceRejection:
		return 0.6
	case pattern.BullishEngulfing, pattern.BearishEngulfing:
		return 0.5
	case pattern.MorningStar, pattern.EveningStar:
		return 0.6
	case pattern.Piercing, pattern.DarkCloudCover:
		return 0.5
	case pattern.Hammer, pattern.ShootingStar:
		return 0.4
	case pattern.BullishHarami, pattern.BearishHarami:
		return 0.3
	default:
		return 0
	}
}

// Scorer turns the patterns completing at a bar into a signal. It is pure.
type Scorer struct {
	cfg Settings
}

func NewScorer(cfg Settings) *Scorer {
	if cfg.Weights == nil {
		cfg.Weights = DefaultWeights()
	}
	cfg.CounterTrendDampener = clamp01(cfg.CounterTrendDampener)
	cfg.OverextendedDampener = clamp01(cfg.OverextendedDampener)
	cfg.BandDampener = clamp01(cfg.BandDampener)
	cfg.VolumeDampener = clamp01(cfg.VolumeDampener)
	return &Scorer{cfg: cfg}
}

// Score only counts patterns ending at index. Contributions are summed in
// (kind, start) order so the result does not depend on the input order.
func (s *Scorer) Score(patterns []pattern.Pattern, snap indicator.Snapshot, index int) Signal {
	sig := Signal{Index: index}
	for _, p := range patterns {
		if p.End == index {
			sig.Patterns = append(sig.Patterns, p)
		}
	}
	slices.SortFunc(sig.Patterns, comparePatterns)

	var net float64
	for _, p := range sig.Patterns {
		w := s.cfg.Weights[p.Kind]
		if w == 0 {
			continue
		}
		net += w * p.Confidence * p.Bias.Sign() * s.dampening(p, snap)
	}
	sig.Net = net
	sig.Strength = clamp01(math.Abs(net))
	switch {
	case math.Abs(net) < s.cfg.Threshold || net == 0:
		sig.Direction = Flat
	case net > 0:
		sig.Direction = Long
	default:
		sig.Direction = Short
	}
	return sig
}

func (s *Scorer) dampening(p pattern.Pattern, snap indicator.Snapshot) float64 {
	f := 1.0
	regime := snap.Close
	if snap.Fast.OK {
		regime = snap.Fast.V
	}
	switch p.Bias {
	case pattern.Bullish:
		if snap.Trend.OK && regime < snap.Trend.V {
			f *= s.cfg.CounterTrendDampener
		}
		if snap.RSI.OK && s.cfg.RSIOverbought > 0 && snap.RSI.V >= s.cfg.RSIOverbought {
			f *= s.cfg.OverextendedDampener
		}
		if snap.BandUpper.OK && snap.Close > snap.BandUpper.V {
			f *= s.cfg.BandDampener
		}
	case pattern.Bearish:
		if snap.Trend.OK && regime > snap.Trend.V {
			f *= s.cfg.CounterTrendDampener
		}
		if snap.RSI.OK && s.cfg.RSIOversold > 0 && snap.RSI.V <= s.cfg.RSIOversold {
			f *= s.cfg.OverextendedDampener
		}
		if snap.BandLower.OK && snap.Close < snap.BandLower.V {
			f *= s.cfg.BandDampener
		}
	}
	if (p.Kind == pattern.Breakout || p.Kind == pattern.Breakdown) && s.thinVolume(snap) {
		f *= s.cfg.VolumeDampener
	}
	return f
}

func (s *Scorer) thinVolume(snap indicator.Snapshot) bool {
	return snap.VolumeMA.OK && s.cfg.VolumeFactor > 0 && snap.Volume < s.cfg.VolumeFactor*snap.VolumeMA.V
}

func comparePatterns(a, b pattern.Pattern) int {
	if a.Kind != b.Kind {
		return int(a.Kind) - int(b.Kind)
	}
	if a.Start != b.Start {
		return a.Start - b.Start
	}
	switch {
	case a.Confidence < b.Confidence:
		return -1
	case a.Confidence > b.Confidence:
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
