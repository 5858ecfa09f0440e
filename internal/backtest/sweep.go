package backtest

import (
	"context"
	"fmt"
	"runtime"

	"tradescope/internal/logger"
	"tradescope/internal/market"

	"golang.org/x/sync/errgroup"
)

// SweepJob is one independent run of a sweep.
type SweepJob struct {
	Name   string
	Config Config
	Series *market.Series
}

// SweepResult carries either a report or the job's own error.
type SweepResult struct {
	Name   string  `json:"name" yaml:"name"`
	Report *Report `json:"report,omitempty" yaml:"report,omitempty"`
	Err    error   `json:"-" yaml:"-"`
}

// Sweep runs jobs concurrently, each on its own copy of the series. A job
// that fails on its input is reported in its result without stopping the
// others. Cancelling ctx aborts the sweep and discards every result.
func Sweep(ctx context.Context, jobs []SweepJob, parallelism int) ([]SweepResult, error) {
	if parallelism <= 0 {
		parallelism = runtime.GOMAXPROCS(0)
	}
	results := make([]SweepResult, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(parallelism)
	for i, job := range jobs {
		results[i].Name = job.Name
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rep, err := runJob(gctx, job)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				logger.Warnf("[sweep] job %s failed: %v", job.Name, err)
				results[i].Err = err
				return nil
			}
			results[i].Report = rep
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}

func runJob(ctx context.Context, job SweepJob) (*Report, error) {
	if job.Series == nil {
		return nil, fmt.Errorf("job %s: nil series", job.Name)
	}
	bt, err := New(job.Config)
	if err != nil {
		return nil, err
	}
	return bt.Run(ctx, job.Series.Clone())
}

// Grid expands base over every combination of the given values. An empty
// slice keeps the base value for that axis.
func Grid(base Config, riskPerTrade, rewardRisk, minConfidence []float64) []Config {
	if len(riskPerTrade) == 0 {
		riskPerTrade = []float64{base.Risk.RiskPerTrade}
	}
	if len(rewardRisk) == 0 {
		rewardRisk = []float64{base.Risk.RewardRisk}
	}
	if len(minConfidence) == 0 {
		minConfidence = []float64{base.Pattern.MinConfidence}
	}
	out := make([]Config, 0, len(riskPerTrade)*len(rewardRisk)*len(minConfidence))
	for _, r := range riskPerTrade {
		for _, rr := range rewardRisk {
			for _, mc := range minConfidence {
				cfg := base
				cfg.Risk.RiskPerTrade = r
				cfg.Risk.RewardRisk = rr
				cfg.Pattern.MinConfidence = mc
				out = append(out, cfg)
			}
		}
	}
	return out
}

// GridName labels a config produced by Grid.
func GridName(cfg Config) string {
	return fmt.Sprintf("risk=%g rr=%g conf=%g", cfg.Risk.RiskPerTrade, cfg.Risk.RewardRisk, cfg.Pattern.MinConfidence)
}
