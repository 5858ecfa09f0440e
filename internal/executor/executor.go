// Package executor turns trade proposals into trade results. Sim fills
// against historical bars; a live implementation routes to an exchange behind
// the same Executor interface.
package executor

import (
	"errors"
	"fmt"
	"strings"

	"tradescope/internal/decision"
	"tradescope/internal/market"
	"tradescope/internal/risk"
)

var ErrPositionOpen = errors.New("position already open")

// Executor manages at most one position at a time.
type Executor interface {
	Open(p risk.TradeProposal) error
	// Step advances the open position by one bar and reports a result when the
	// bar closed it.
	Step(index int, bar market.Candle) (TradeResult, bool)
	// Close force-closes the open position at the bar close.
	Close(index int, bar market.Candle, reason ExitReason) (TradeResult, bool)
	Position() (OpenPosition, bool)
	State() State
}

type State int

const (
	NoPosition State = iota
	Open
	ClosedStop
	ClosedTarget
	ClosedTimeout
	ClosedEndOfData
)

func (s State) String() string {
	switch s {
	case NoPosition:
		return "no_position"
	case Open:
		return "open"
	case ClosedStop:
		return "closed_stop"
	case ClosedTarget:
		return "closed_target"
	case ClosedTimeout:
		return "closed_timeout"
	case ClosedEndOfData:
		return "closed_end_of_data"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type ExitReason int

const (
	ExitStop ExitReason = iota
	ExitTarget
	ExitTimeout
	ExitEndOfData
)

var exitReasonNames = map[ExitReason]string{
	ExitStop:      "stop",
	ExitTarget:    "target",
	ExitTimeout:   "timeout",
	ExitEndOfData: "end_of_data",
}

func (r ExitReason) String() string {
	if name, ok := exitReasonNames[r]; ok {
		return name
	}
	return fmt.Sprintf("exit(%d)", int(r))
}

func ParseExitReason(s string) (ExitReason, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for r, name := range exitReasonNames {
		if name == key {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown exit reason %q", s)
}

func (r ExitReason) MarshalText() ([]byte, error) { return []byte(r.String()), nil }

func (r *ExitReason) UnmarshalText(raw []byte) error {
	parsed, err := ParseExitReason(string(raw))
	if err != nil {
		return err
	}
	*r = parsed
	return nil
}

func (r ExitReason) closedState() State {
	switch r {
	case ExitStop:
		return ClosedStop
	case ExitTarget:
		return ClosedTarget
	case ExitTimeout:
		return ClosedTimeout
	default:
		return ClosedEndOfData
	}
}

// OpenPosition exists only while a trade is open.
type OpenPosition struct {
	Proposal   risk.TradeProposal `json:"proposal"`
	EntryIndex int                `json:"entry_index"`
	EntryTime  int64              `json:"entry_time"`
	BarsHeld   int                `json:"bars_held"`
	Unrealized float64            `json:"unrealized"`
}

// TradeResult is the immutable record of one closed trade. PnL is net of Fees.
type TradeResult struct {
	Direction   decision.Direction `json:"direction" yaml:"direction"`
	EntryIndex  int                `json:"entry_index" yaml:"entry_index"`
	ExitIndex   int                `json:"exit_index" yaml:"exit_index"`
	EntryTime   int64              `json:"entry_time" yaml:"entry_time"`
	ExitTime    int64              `json:"exit_time" yaml:"exit_time"`
	EntryPrice  float64            `json:"entry_price" yaml:"entry_price"`
	ExitPrice   float64            `json:"exit_price" yaml:"exit_price"`
	Size        float64            `json:"size" yaml:"size"`
	StopLoss    float64            `json:"stop_loss" yaml:"stop_loss"`
	TakeProfit  float64            `json:"take_profit" yaml:"take_profit"`
	Reason      ExitReason         `json:"reason" yaml:"reason"`
	PnL         float64            `json:"pnl" yaml:"pnl"`
	Fees        float64            `json:"fees" yaml:"fees"`
	ReturnPct   float64            `json:"return_pct" yaml:"return_pct"`
	HoldingBars int                `json:"holding_bars" yaml:"holding_bars"`
	HoldingMs   int64              `json:"holding_ms" yaml:"holding_ms"`
}

func (t TradeResult) Win() bool { return t.PnL > 0 }
