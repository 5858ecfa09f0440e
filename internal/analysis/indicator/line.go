package indicator

import (
	"iter"
	"math"
)

// Value is one reading of a line. OK is false inside the warm-up region.
type Value struct {
	V  float64
	OK bool
}

// Line is an indicator series aligned 1:1 with its input bars and left-padded
// with undefined readings before the first full window.
type Line struct {
	name  string
	vals  []float64
	first int
}

func newLine(name string, vals []float64, first int) Line {
	if first < 0 {
		first = 0
	}
	if first > len(vals) {
		first = len(vals)
	}
	return Line{name: name, vals: vals, first: first}
}

// undefinedLine is the result for inputs shorter than one window.
func undefinedLine(name string, n int) Line {
	return Line{name: name, vals: make([]float64, n), first: n}
}

func (l Line) Name() string { return l.name }

func (l Line) Len() int { return len(l.vals) }

// First is the index of the first defined reading (== Len when none).
func (l Line) First() int { return l.first }

func (l Line) At(i int) (float64, bool) {
	if i < l.first || i >= len(l.vals) {
		return math.NaN(), false
	}
	v := l.vals[i]
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return math.NaN(), false
	}
	return v, true
}

func (l Line) Value(i int) Value {
	v, ok := l.At(i)
	return Value{V: v, OK: ok}
}

// Values lazily yields every reading in bar order. It can be ranged over
// repeatedly.
func (l Line) Values() iter.Seq2[int, Value] {
	return func(yield func(int, Value) bool) {
		for i := range l.vals {
			if !yield(i, l.Value(i)) {
				return
			}
		}
	}
}
