package market

import (
	"iter"
	"slices"
	"sync/atomic"
)

// Series is an ordered candle history for one symbol@timeframe. It is
// append-only while being acquired and read-only once frozen.
type Series struct {
	symbol    string
	timeframe string
	candles   []Candle
	frozen    atomic.Bool
}

// NewSeries builds a series by appending every candle, so the same ordering
// and invariant checks apply.
func NewSeries(symbol, timeframe string, candles []Candle) (*Series, error) {
	s := &Series{symbol: symbol, timeframe: timeframe, candles: make([]Candle, 0, len(candles))}
	for _, c := range candles {
		if err := s.Append(c); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// Append adds the next bar. Timestamps must strictly increase.
func (s *Series) Append(c Candle) error {
	if s.frozen.Load() {
		return ErrFrozen
	}
	idx := len(s.candles)
	if err := checkBar(s.candles, idx, c); err != nil {
		return err
	}
	s.candles = append(s.candles, c)
	return nil
}

func checkBar(prev []Candle, idx int, c Candle) error {
	if idx > 0 && c.OpenTime <= prev[idx-1].OpenTime {
		return &CandleError{Index: idx, Kind: InputError, Reason: "timestamp not after previous bar"}
	}
	if err := c.Validate(); err != nil {
		return &CandleError{Index: idx, Kind: InvariantViolation, Reason: err.Error()}
	}
	return nil
}

// Freeze marks the series read-only. It is idempotent.
func (s *Series) Freeze() *Series {
	s.frozen.Store(true)
	return s
}

func (s *Series) Frozen() bool { return s.frozen.Load() }

func (s *Series) Symbol() string { return s.symbol }

func (s *Series) Timeframe() string { return s.timeframe }

func (s *Series) Len() int {
	if s == nil {
		return 0
	}
	return len(s.candles)
}

func (s *Series) At(i int) Candle { return s.candles[i] }

func (s *Series) Last() (Candle, bool) {
	if len(s.candles) == 0 {
		return Candle{}, false
	}
	return s.candles[len(s.candles)-1], true
}

// Candles returns a copy of all bars.
func (s *Series) Candles() []Candle {
	return slices.Clone(s.candles)
}

// Window returns up to n bars ending at upto (inclusive). The slice aliases the
// series and must not be modified.
func (s *Series) Window(upto, n int) []Candle {
	if upto < 0 || upto >= len(s.candles) || n <= 0 {
		return nil
	}
	start := max(upto-n+1, 0)
	return s.candles[start : upto+1 : upto+1]
}

// All yields index/candle pairs in order.
func (s *Series) All() iter.Seq2[int, Candle] {
	return func(yield func(int, Candle) bool) {
		for i, c := range s.candles {
			if !yield(i, c) {
				return
			}
		}
	}
}

func (s *Series) Closes(upto int) []float64 {
	return s.column(upto, func(c Candle) float64 { return c.Close })
}

func (s *Series) Highs(upto int) []float64 {
	return s.column(upto, func(c Candle) float64 { return c.High })
}

func (s *Series) Lows(upto int) []float64 {
	return s.column(upto, func(c Candle) float64 { return c.Low })
}

func (s *Series) Volumes(upto int) []float64 {
	return s.column(upto, func(c Candle) float64 { return c.Volume })
}

func (s *Series) column(upto int, pick func(Candle) float64) []float64 {
	if upto >= len(s.candles) {
		upto = len(s.candles) - 1
	}
	if upto < 0 {
		return nil
	}
	out := make([]float64, upto+1)
	for i := 0; i <= upto; i++ {
		out[i] = pick(s.candles[i])
	}
	return out
}

// Clone returns an independent, unfrozen copy.
func (s *Series) Clone() *Series {
	return &Series{
		symbol:    s.symbol,
		timeframe: s.timeframe,
		candles:   slices.Clone(s.candles),
	}
}
