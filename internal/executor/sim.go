package executor

import (
	"tradescope/internal/decision"
	"tradescope/internal/logger"
	"tradescope/internal/market"
	"tradescope/internal/pkg/trading"
	"tradescope/internal/risk"
)

// Settings for simulated fills.
type Settings struct {
	// MaxHoldingBars closes a trade at the bar close after this many bars.
	// Zero disables the timeout.
	MaxHoldingBars int     `json:"max_holding_bars"`
	FeeRate        float64 `json:"fee_rate"`
}

// Sim fills proposals against bars. Stops and targets fill at their own price;
// when one bar reaches both, the stop wins.
type Sim struct {
	cfg   Settings
	state State
	pos   *OpenPosition
}

var _ Executor = (*Sim)(nil)

func NewSim(cfg Settings) *Sim {
	return &Sim{cfg: cfg}
}

func (s *Sim) State() State { return s.state }

func (s *Sim) Position() (OpenPosition, bool) {
	if s.pos == nil {
		return OpenPosition{}, false
	}
	return *s.pos, true
}

// Open enters at the proposal price on the proposal bar.
func (s *Sim) Open(p risk.TradeProposal) error {
	if s.state == Open {
		return ErrPositionOpen
	}
	if err := p.Validate(); err != nil {
		return err
	}
	s.pos = &OpenPosition{Proposal: p, EntryIndex: p.Index, EntryTime: p.Time}
	s.state = Open
	logger.Debugf("[executor] open %s size=%.6f entry=%.6f stop=%.6f target=%.6f at bar %d",
		p.Direction, p.Size, p.Entry, p.StopLoss, p.TakeProfit, p.Index)
	return nil
}

func (s *Sim) Step(index int, bar market.Candle) (TradeResult, bool) {
	if s.state != Open || index <= s.pos.EntryIndex {
		return TradeResult{}, false
	}
	p := s.pos.Proposal
	s.pos.BarsHeld = index - s.pos.EntryIndex
	switch p.Direction {
	case decision.Long:
		if trading.AtOrBelow(bar.Low, p.StopLoss) {
			return s.finish(index, bar, p.StopLoss, ExitStop), true
		}
		if trading.AtOrAbove(bar.High, p.TakeProfit) {
			return s.finish(index, bar, p.TakeProfit, ExitTarget), true
		}
	case decision.Short:
		if trading.AtOrAbove(bar.High, p.StopLoss) {
			return s.finish(index, bar, p.StopLoss, ExitStop), true
		}
		if trading.AtOrBelow(bar.Low, p.TakeProfit) {
			return s.finish(index, bar, p.TakeProfit, ExitTarget), true
		}
	}
	if s.cfg.MaxHoldingBars > 0 && s.pos.BarsHeld >= s.cfg.MaxHoldingBars {
		return s.finish(index, bar, bar.Close, ExitTimeout), true
	}
	s.pos.Unrealized = trading.Float(trading.PnL(p.Direction.Sign(), p.Entry, bar.Close, p.Size))
	return TradeResult{}, false
}

func (s *Sim) Close(index int, bar market.Candle, reason ExitReason) (TradeResult, bool) {
	if s.state != Open {
		return TradeResult{}, false
	}
	s.pos.BarsHeld = max(index-s.pos.EntryIndex, 0)
	return s.finish(index, bar, bar.Close, reason), true
}

func (s *Sim) finish(index int, bar market.Candle, price float64, reason ExitReason) TradeResult {
	p := s.pos.Proposal
	gross := trading.PnL(p.Direction.Sign(), p.Entry, price, p.Size)
	fees := trading.Fee(p.Entry, p.Size, s.cfg.FeeRate).Add(trading.Fee(price, p.Size, s.cfg.FeeRate))
	net := gross.Sub(fees)
	exitTime := bar.CloseTime
	if exitTime == 0 {
		exitTime = bar.OpenTime
	}
	res := TradeResult{
		Direction:   p.Direction,
		EntryIndex:  s.pos.EntryIndex,
		ExitIndex:   index,
		EntryTime:   s.pos.EntryTime,
		ExitTime:    exitTime,
		EntryPrice:  p.Entry,
		ExitPrice:   price,
		Size:        p.Size,
		StopLoss:    p.StopLoss,
		TakeProfit:  p.TakeProfit,
		Reason:      reason,
		PnL:         trading.Float(net),
		Fees:        trading.Float(fees),
		HoldingBars: s.pos.BarsHeld,
		HoldingMs:   max(exitTime-s.pos.EntryTime, 0),
	}
	if notional := trading.Dec(p.Entry).Mul(trading.Dec(p.Size)); notional.IsPositive() {
		res.ReturnPct = trading.Float(net.Div(notional))
	}
	s.pos = nil
	s.state = reason.closedState()
	logger.Debugf("[executor] close %s at bar %d price=%.6f reason=%s pnl=%.6f",
		res.Direction, index, price, reason, res.PnL)
	return res
}
