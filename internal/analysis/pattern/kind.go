package pattern

import (
	"fmt"
	"strings"
)

// Kind enumerates every recognized pattern. The set is closed; each kind has
// exactly one matcher in the registry.
type Kind int

const (
	DoubleTop Kind = iota
	DoubleBottom
	HeadShoulders
	InverseHeadShoulders
	Breakout
	Breakdown
	SupportBounce
	ResistanceRejection
	BullishEngulfing
	BearishEngulfing
	Hammer
	ShootingStar
	MorningStar
	EveningStar
	Piercing
	DarkCloudCover
	BullishHarami
	BearishHarami
	kindCount
)

var kindNames = [kindCount]string{
	DoubleTop:            "double_top",
	DoubleBottom:         "double_bottom",
	HeadShoulders:        "head_shoulders",
	InverseHeadShoulders: "inverse_head_shoulders",
	Breakout:             "breakout",
	Breakdown:            "breakdown",
	SupportBounce:        "support_bounce",
	ResistanceRejection:  "resistance_rejection",
	BullishEngulfing:     "bullish_engulfing",
	BearishEngulfing:     "bearish_engulfing",
	Hammer:               "hammer",
	ShootingStar:         "shooting_star",
	MorningStar:          "morning_star",
	EveningStar:          "evening_star",
	Piercing:             "piercing",
	DarkCloudCover:       "dark_cloud_cover",
	BullishHarami:        "bullish_harami",
	BearishHarami:        "bearish_harami",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	out := make([]Kind, kindCount)
	for i := range out {
		out[i] = Kind(i)
	}
	return out
}

func (k Kind) Valid() bool { return k >= 0 && k < kindCount }

func (k Kind) String() string {
	if !k.Valid() {
		return fmt.Sprintf("kind(%d)", int(k))
	}
	return kindNames[k]
}

// Bias is the directional implication of a kind.
func (k Kind) Bias() Bias {
	switch k {
	case DoubleBottom, InverseHeadShoulders, Breakout, SupportBounce,
		BullishEngulfing, Hammer, MorningStar, Piercing, BullishHarami:
		return Bullish
	case DoubleTop, HeadShoulders, Breakdown, ResistanceRejection,
		BearishEngulfing, ShootingStar, EveningStar, DarkCloudCover, BearishHarami:
		return Bearish
	default:
		return Neutral
	}
}

func ParseKind(s string) (Kind, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for i, name := range kindNames {
		if name == key {
			return Kind(i), nil
		}
	}
	return 0, fmt.Errorf("unknown pattern kind %q", s)
}

func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("invalid pattern kind %d", int(k))
	}
	return []byte(k.String()), nil
}

func (k *Kind) UnmarshalText(b []byte) error {
	parsed, err := ParseKind(string(b))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

type Bias int

const (
	Neutral Bias = iota
	Bullish
	Bearish
)

func (b Bias) String() string {
	switch b {
	case Bullish:
		return "bullish"
	case Bearish:
		return "bearish"
	default:
		return "neutral"
	}
}

// Sign is +1 for bullish, -1 for bearish and 0 otherwise.
func (b Bias) Sign() float64 {
	switch b {
	case Bullish:
		return 1
	case Bearish:
		return -1
	default:
		return 0
	}
}

func (b Bias) MarshalText() ([]byte, error) { return []byte(b.String()), nil }

func (b *Bias) UnmarshalText(raw []byte) error {
	switch strings.ToLower(strings.TrimSpace(string(raw))) {
	case "bullish":
		*b = Bullish
	case "bearish":
		*b = Bearish
	case "neutral", "":
		*b = Neutral
	default:
		return fmt.Errorf("unknown bias %q", raw)
	}
	return nil
}

// Pattern is one detected occurrence spanning bars [Start, End].
type Pattern struct {
	Kind       Kind    `json:"kind" yaml:"kind"`
	Start      int     `json:"start" yaml:"start"`
	End        int     `json:"end" yaml:"end"`
	Confidence float64 `json:"confidence" yaml:"confidence"`
	Bias       Bias    `json:"bias" yaml:"bias"`
}
