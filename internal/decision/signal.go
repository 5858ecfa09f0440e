package decision

import (
	"fmt"
	"strings"

	"tradescope/internal/analysis/pattern"
)

// Direction is the trade side a signal points to.
type Direction int

const (
	Flat Direction = iota
	Long
	Short
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "flat"
	}
}

// Sign is +1 for long, -1 for short and 0 for flat.
func (d Direction) Sign() float64 {
	switch d {
	case Long:
		return 1
	case Short:
		return -1
	default:
		return 0
	}
}

func (d Direction) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

func (d *Direction) UnmarshalText(raw []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(raw))) {
	case "long":
		*d = Long
	case "short":
		*d = Short
	case "flat", "":
		*d = Flat
	default:
		return fmt.Errorf("unknown direction %q", raw)
	}
	return nil
}

// Signal is the scored outcome at one bar.
type Signal struct {
	Index     int               `json:"index"`
	Direction Direction         `json:"direction"`
	Strength  float64           `json:"strength"`
	Net       float64           `json:"net"`
	Patterns  []pattern.Pattern `json:"patterns,omitempty"`
}

func (s Signal) Actionable() bool { return s.Direction != Flat }
