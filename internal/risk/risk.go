package risk

import (
	"errors"
	"fmt"

	"tradescope/internal/decision"
	"tradescope/internal/pkg/trading"

	"github.com/shopspring/decimal"
)

// Settings bounds how much equity a single trade may put at risk.
type Settings struct {
	// RiskPerTrade is the fraction of equity lost if the stop is hit.
	RiskPerTrade float64 `json:"risk_per_trade"`
	RewardRisk   float64 `json:"reward_risk"`
	ATRMultiple  float64 `json:"atr_multiple"`
	// LotStep is the exchange quantity increment; sizes are floored to it.
	LotStep float64 `json:"lot_step"`
	MinSize float64 `json:"min_size"`
}

func DefaultSettings() Settings {
	return Settings{
		RiskPerTrade: 0.01,
		RewardRisk:   2,
		ATRMultiple:  1.5,
		LotStep:      0.001,
		MinSize:      0.001,
	}
}

func (s Settings) Validate() error {
	switch {
	case s.RiskPerTrade <= 0 || s.RiskPerTrade > 1:
		return fmt.Errorf("risk_per_trade must be in (0, 1], got %v", s.RiskPerTrade)
	case s.RewardRisk <= 0:
		return fmt.Errorf("reward_risk must be > 0, got %v", s.RewardRisk)
	case s.ATRMultiple <= 0:
		return fmt.Errorf("atr_multiple must be > 0, got %v", s.ATRMultiple)
	case s.LotStep < 0 || s.MinSize < 0:
		return fmt.Errorf("lot_step and min_size must be >= 0")
	}
	return nil
}

// AccountState is the simulated account as the sizer sees it.
type AccountState struct {
	Equity       float64
	OpenPosition bool
}

// Quote is the market reading at the signal bar.
type Quote struct {
	Index int
	Time  int64
	Price float64
	ATR   float64
}

// TradeProposal is a sized trade ready for an executor.
type TradeProposal struct {
	Index      int                `json:"index"`
	Time       int64              `json:"time"`
	Direction  decision.Direction `json:"direction"`
	Entry      float64            `json:"entry"`
	StopLoss   float64            `json:"stop_loss"`
	TakeProfit float64            `json:"take_profit"`
	Size       float64            `json:"size"`
	RiskAmount float64            `json:"risk_amount"`
	Strength   float64            `json:"strength"`
}

var ErrInvalidProposal = errors.New("invalid trade proposal")

// Validate checks side ordering and size.
func (p TradeProposal) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("%w: size %v", ErrInvalidProposal, p.Size)
	}
	if p.StopLoss <= 0 || p.TakeProfit <= 0 || p.Entry <= 0 {
		return fmt.Errorf("%w: non-positive price", ErrInvalidProposal)
	}
	switch p.Direction {
	case decision.Long:
		if !(p.StopLoss < p.Entry && p.Entry < p.TakeProfit) {
			return fmt.Errorf("%w: long needs stop < entry < target", ErrInvalidProposal)
		}
	case decision.Short:
		if !(p.TakeProfit < p.Entry && p.Entry < p.StopLoss) {
			return fmt.Errorf("%w: short needs target < entry < stop", ErrInvalidProposal)
		}
	default:
		return fmt.Errorf("%w: flat direction", ErrInvalidProposal)
	}
	return nil
}

// Size converts a signal into a proposal. It returns false when the signal is
// flat, a position is already open, the stop distance is not positive, the
// floored size is below the minimum, or the resulting prices are inconsistent.
func Size(sig decision.Signal, q Quote, acct AccountState, cfg Settings) (TradeProposal, bool) {
	if !sig.Actionable() || acct.OpenPosition {
		return TradeProposal{}, false
	}
	if q.Price <= 0 || q.ATR <= 0 || acct.Equity <= 0 {
		return TradeProposal{}, false
	}
	entry := trading.Dec(q.Price)
	dist := trading.Dec(q.ATR).Mul(trading.Dec(cfg.ATRMultiple))
	if !dist.IsPositive() {
		return TradeProposal{}, false
	}
	riskAmt := trading.Dec(acct.Equity).Mul(trading.Dec(cfg.RiskPerTrade))
	size := trading.FloorToStep(riskAmt.Div(dist), trading.Dec(cfg.LotStep))
	if !size.IsPositive() || size.LessThan(trading.Dec(cfg.MinSize)) {
		return TradeProposal{}, false
	}
	reward := dist.Mul(trading.Dec(cfg.RewardRisk))
	sign := decimal.NewFromInt(int64(sig.Direction.Sign()))
	p := TradeProposal{
		Index:      q.Index,
		Time:       q.Time,
		Direction:  sig.Direction,
		Entry:      trading.Float(entry),
		StopLoss:   trading.Float(entry.Sub(dist.Mul(sign))),
		TakeProfit: trading.Float(entry.Add(reward.Mul(sign))),
		Size:       trading.Float(size),
		RiskAmount: trading.Float(size.Mul(dist)),
		Strength:   sig.Strength,
	}
	if p.Validate() != nil {
		return TradeProposal{}, false
	}
	return p, true
}
