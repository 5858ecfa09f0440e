package indicator

import (
	"tradescope/internal/market"
)

// Settings holds the indicator windows used by the decision pipeline.
type Settings struct {
	TrendWindow  int     `json:"trend_window" yaml:"trend_window"`
	FastWindow   int     `json:"fast_window" yaml:"fast_window"`
	RSIWindow    int     `json:"rsi_window" yaml:"rsi_window"`
	ATRWindow    int     `json:"atr_window" yaml:"atr_window"`
	BandWindow   int     `json:"band_window" yaml:"band_window"`
	BandWidth    float64 `json:"band_width" yaml:"band_width"`
	VolumeWindow int     `json:"volume_window" yaml:"volume_window"`
}

func DefaultSettings() Settings {
	return Settings{
		TrendWindow:  50,
		FastWindow:   20,
		RSIWindow:    14,
		ATRWindow:    14,
		BandWindow:   20,
		BandWidth:    2,
		VolumeWindow: 20,
	}
}

// Warmup is the first bar index at which every indicator is defined.
func (s Settings) Warmup() int {
	w := max(s.TrendWindow-1, s.FastWindow-1, s.RSIWindow, s.ATRWindow, s.BandWindow-1, s.VolumeWindow-1)
	return max(w, 0)
}

// Set is every indicator computed over bars [0, upto] of one series.
type Set struct {
	closes    []float64
	volumes   []float64
	Trend     Line
	Fast      Line
	RSI       Line
	ATR       Line
	BandUpper Line
	BandLower Line
	VolumeMA  Line
}

// Compute evaluates all indicators over bars [0, upto]. Every line is causal,
// so a reading at i < upto equals the one computed with upto = i.
func Compute(s *market.Series, upto int, cfg Settings) Set {
	closes := s.Closes(upto)
	highs := s.Highs(upto)
	lows := s.Lows(upto)
	volumes := s.Volumes(upto)
	upper, _, lower := Bollinger(closes, cfg.BandWindow, cfg.BandWidth)
	return Set{
		closes:    closes,
		volumes:   volumes,
		Trend:     SMA(closes, cfg.TrendWindow),
		Fast:      EMA(closes, cfg.FastWindow),
		RSI:       RSI(closes, cfg.RSIWindow),
		ATR:       ATR(highs, lows, closes, cfg.ATRWindow),
		BandUpper: upper,
		BandLower: lower,
		VolumeMA:  SMA(volumes, cfg.VolumeWindow),
	}
}

func (s Set) Len() int { return len(s.closes) }

// Snapshot is the indicator readings at one bar.
type Snapshot struct {
	Index     int
	Close     float64
	Volume    float64
	Trend     Value
	Fast      Value
	RSI       Value
	ATR       Value
	BandUpper Value
	BandLower Value
	VolumeMA  Value
}

func (s Set) At(i int) Snapshot {
	snap := Snapshot{
		Index:     i,
		Trend:     s.Trend.Value(i),
		Fast:      s.Fast.Value(i),
		RSI:       s.RSI.Value(i),
		ATR:       s.ATR.Value(i),
		BandUpper: s.BandUpper.Value(i),
		BandLower: s.BandLower.Value(i),
		VolumeMA:  s.VolumeMA.Value(i),
	}
	if i >= 0 && i < len(s.closes) {
		snap.Close = s.closes[i]
		snap.Volume = s.volumes[i]
	}
	return snap
}
