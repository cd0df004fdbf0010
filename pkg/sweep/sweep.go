package sweep

import (
	"context"
	"log/slog"
	"math"
	"runtime"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// Params controls a sweep. Step n uses the ceiling Alpha*2^n.
type Params struct {
	Winners int     `json:"winners" yaml:"winners"`
	Alpha   float64 `json:"alpha" yaml:"alpha"`
	Steps   int     `json:"steps" yaml:"steps"`
	Workers int     `json:"workers" yaml:"workers"`
}

// DefaultParams sweeps the ceilings up to the default one.
func DefaultParams() Params {
	return Params{
		Winners: 1,
		Alpha:   election.DefaultAlpha,
		Steps:   election.DefaultEscalations,
		Workers: runtime.NumCPU(),
	}
}

// Step is the tie rate at one ceiling.
type Step struct {
	N        int     `json:"n" yaml:"n"`
	MaxAlpha float64 `json:"max_alpha" yaml:"maxAlpha"`
	Ties     int     `json:"ties" yaml:"ties"`
	Ratio    float64 `json:"ratio" yaml:"ratio"`
}

// Report aggregates a sweep. Attempt statistics are taken at the highest
// ceiling.
type Report struct {
	Elections    int     `json:"elections" yaml:"elections"`
	Failed       int     `json:"failed" yaml:"failed"`
	Winners      int     `json:"winners" yaml:"winners"`
	Alpha        float64 `json:"alpha" yaml:"alpha"`
	Steps        []*Step `json:"steps" yaml:"steps"`
	MeanAttempts float64 `json:"mean_attempts" yaml:"meanAttempts"`
	MaxAlpha     float64 `json:"max_alpha" yaml:"maxAlpha"`
}

type outcome struct {
	failed   bool
	ties     []bool
	attempts int
	maxAlpha float64
}

// Run resolves every election at every ceiling. Elections are independent
// and evaluated concurrently; each one still runs its rounds in order.
// Elections that cannot fill the requested seats are counted as failed and
// left out of the ratios.
func Run(ctx context.Context, sets []*ballot.Set, p Params) (*Report, error) {
	if len(sets) == 0 {
		return nil, ballot.ErrNoBallots
	}
	if p.Steps < 1 {
		return nil, errors.Errorf("steps must be positive: %d", p.Steps)
	}
	if p.Workers < 1 {
		p.Workers = 1
	}

	results := make([]*outcome, len(sets))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.Workers)
	for i, s := range sets {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			o, err := evaluate(s, p)
			if err != nil {
				return errors.Wrapf(err, "election %d", i+1)
			}
			results[i] = o
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return aggregate(results, p), nil
}

func evaluate(s *ballot.Set, p Params) (*outcome, error) {
	o := &outcome{ties: make([]bool, p.Steps)}
	for n := 1; n <= p.Steps; n++ {
		cfg := election.DefaultConfig(p.Winners)
		cfg.Alpha = p.Alpha
		cfg.MaxAlpha = ceiling(p.Alpha, n)

		res, err := election.Run(s, cfg)
		if errors.Is(err, election.ErrNotEnoughCandidates) {
			o.failed = true
			return o, nil
		}
		if err != nil {
			return nil, err
		}

		o.ties[n-1] = res.Tie
		if n == p.Steps {
			o.attempts = res.Attempts()
			o.maxAlpha = res.MaxAlpha()
		}
	}
	return o, nil
}

func aggregate(results []*outcome, p Params) *Report {
	r := &Report{
		Elections: len(results),
		Winners:   p.Winners,
		Alpha:     p.Alpha,
		Steps:     make([]*Step, 0, p.Steps),
	}

	attempts := 0
	for _, o := range results {
		if o.failed {
			r.Failed++
			continue
		}
		attempts += o.attempts
		r.MaxAlpha = math.Max(r.MaxAlpha, o.maxAlpha)
	}

	counted := r.Elections - r.Failed
	if counted > 0 {
		r.MeanAttempts = float64(attempts) / float64(counted)
	}

	for n := 1; n <= p.Steps; n++ {
		st := &Step{N: n, MaxAlpha: ceiling(p.Alpha, n)}
		for _, o := range results {
			if !o.failed && o.ties[n-1] {
				st.Ties++
			}
		}
		if counted > 0 {
			st.Ratio = float64(st.Ties) / float64(counted)
		}
		r.Steps = append(r.Steps, st)
	}

	slog.Debug("sweep complete", "elections", r.Elections, "failed", r.Failed, "steps", len(r.Steps))
	return r
}

func ceiling(alpha float64, n int) float64 {
	return alpha * math.Pow(2, float64(n))
}
