package pattern

import (
	"iter"

	"tradescope/internal/market"
)

// Settings tunes the matchers. Tolerances are relative to price.
type Settings struct {
	MinConfidence    float64 `json:"min_confidence" yaml:"min_confidence"`
	Lookback         int     `json:"lookback" yaml:"lookback"`
	PivotStrength    int     `json:"pivot_strength" yaml:"pivot_strength"`
	PeakTolerance    float64 `json:"peak_tolerance" yaml:"peak_tolerance"`
	MinDepth         float64 `json:"min_depth" yaml:"min_depth"`
	BreakoutLookback int     `json:"breakout_lookback" yaml:"breakout_lookback"`
	LevelTolerance   float64 `json:"level_tolerance" yaml:"level_tolerance"`
}

func DefaultSettings() Settings {
	return Settings{
		MinConfidence:    0.5,
		Lookback:         60,
		PivotStrength:    3,
		PeakTolerance:    0.01,
		MinDepth:         0.02,
		BreakoutLookback: 20,
		LevelTolerance:   0.003,
	}
}

// MinBars is the shortest history on which detection runs at all.
func (s Settings) MinBars() int {
	return max(s.BreakoutLookback+1, 2*s.PivotStrength+3, 3)
}

func (s Settings) window() int {
	return max(s.Lookback, s.BreakoutLookback+1, s.MinBars())
}

// Detector runs every registered matcher against a bar. It holds no state
// between calls.
type Detector struct {
	cfg Settings
}

func NewDetector(cfg Settings) *Detector {
	return &Detector{cfg: cfg}
}

func (d *Detector) Settings() Settings { return d.cfg }

// Detect yields the patterns completing at bar upto, in kind order. Only bars
// [0, upto] are visible to the matchers. The sequence is empty when upto is
// out of range or the history is shorter than MinBars.
func (d *Detector) Detect(s *market.Series, upto int) iter.Seq[Pattern] {
	return func(yield func(Pattern) bool) {
		if s == nil || upto < 0 || upto >= s.Len() || upto+1 < d.cfg.MinBars() {
			return
		}
		bars := s.Window(upto, d.cfg.window())
		v := view{bars: bars, offset: upto - len(bars) + 1, cfg: d.cfg}
		for k := Kind(0); k < kindCount; k++ {
			p, ok := registry[k](v)
			if !ok || p.Confidence < d.cfg.MinConfidence {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// view is the read-only window handed to matchers.
type view struct {
	bars   []market.Candle
	offset int
	cfg    Settings
}

func (v view) last() int { return len(v.bars) - 1 }

func (v view) emit(kind Kind, localStart int, confidence float64) (Pattern, bool) {
	return Pattern{
		Kind:       kind,
		Start:      v.offset + max(localStart, 0),
		End:        v.offset + v.last(),
		Confidence: clamp01(confidence),
		Bias:       kind.Bias(),
	}, true
}

func clamp01(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
