package pattern

import (
	"tradescope/internal/market"
)

// Outcome defines how a detected pattern is judged after the fact: success if
// price moves TargetPct in the bias direction within Horizon bars before an
// adverse StopPct move.
type Outcome struct {
	Horizon   int     `json:"horizon" yaml:"horizon"`
	TargetPct float64 `json:"target_pct" yaml:"target_pct"`
	StopPct   float64 `json:"stop_pct" yaml:"stop_pct"`
}

func DefaultOutcome() Outcome {
	return Outcome{Horizon: 10, TargetPct: 0.02, StopPct: 0.01}
}

// KindStats aggregates outcomes for one kind.
type KindStats struct {
	Kind         Kind    `json:"kind" yaml:"kind"`
	Occurrences  int     `json:"occurrences" yaml:"occurrences"`
	Successes    int     `json:"successes" yaml:"successes"`
	Failures     int     `json:"failures" yaml:"failures"`
	Expired      int     `json:"expired" yaml:"expired"`
	SuccessRate  float64 `json:"success_rate" yaml:"success_rate"`
	AvgConf      float64 `json:"avg_confidence" yaml:"avg_confidence"`
	AvgFavorable float64 `json:"avg_favorable" yaml:"avg_favorable"`
	AvgAdverse   float64 `json:"avg_adverse" yaml:"avg_adverse"`
}

// Evaluate replays detection over the whole series and scores every pattern
// against the bars that follow it. It reads future bars and is meant for
// offline research only; the backtest loop never calls it.
func (d *Detector) Evaluate(s *market.Series, o Outcome) []KindStats {
	acc := make([]KindStats, kindCount)
	for k := range acc {
		acc[k].Kind = Kind(k)
	}
	n := s.Len()
	for i := 0; i < n-1; i++ {
		for p := range d.Detect(s, i) {
			sign := p.Bias.Sign()
			if sign == 0 {
				continue
			}
			st := &acc[p.Kind]
			st.Occurrences++
			st.AvgConf += p.Confidence
			res, fav, adv := judge(s, i, sign, o)
			st.AvgFavorable += fav
			st.AvgAdverse += adv
			switch res {
			case outcomeSuccess:
				st.Successes++
			case outcomeFailure:
				st.Failures++
			default:
				st.Expired++
			}
		}
	}
	out := make([]KindStats, 0, len(acc))
	for _, st := range acc {
		if st.Occurrences == 0 {
			continue
		}
		n := float64(st.Occurrences)
		st.SuccessRate = float64(st.Successes) / n
		st.AvgConf /= n
		st.AvgFavorable /= n
		st.AvgAdverse /= n
		out = append(out, st)
	}
	return out
}

type outcome int

const (
	outcomeExpired outcome = iota
	outcomeSuccess
	outcomeFailure
)

// judge walks forward from bar i. The adverse move is checked first on each
// bar, matching the executor's stop-before-target rule.
func judge(s *market.Series, i int, sign float64, o Outcome) (outcome, float64, float64) {
	entry := s.At(i).Close
	end := min(i+o.Horizon, s.Len()-1)
	var fav, adv float64
	for j := i + 1; j <= end; j++ {
		c := s.At(j)
		up, down := (c.High-entry)/entry, (entry-c.Low)/entry
		f, a := up, down
		if sign < 0 {
			f, a = down, up
		}
		fav, adv = max(fav, f), max(adv, a)
		if o.StopPct > 0 && a >= o.StopPct {
			return outcomeFailure, fav, adv
		}
		if o.TargetPct > 0 && f >= o.TargetPct {
			return outcomeSuccess, fav, adv
		}
	}
	return outcomeExpired, fav, adv
}
