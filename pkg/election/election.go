package election

import (
	"log/slog"
	"math"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/pkg/errors"
)

// TieMarker stands in for the seat a tied round could not fill.
const TieMarker = "TIE"

var (
	ErrNotEnoughCandidates = errors.New("not enough candidates for the remaining seats")
	ErrInvalidConfig       = errors.New("invalid election config")
)

// Strategy picks the winner of one round from the current ballots.
type Strategy func(set *ballot.Set, candidates []string, alpha float64) Outcome

// Config controls a multi-winner election.
type Config struct {
	// Winners is the number of seats to fill.
	Winners int `json:"winners" yaml:"winners"`
	// Alpha is the starting distance sensitivity of every round.
	Alpha float64 `json:"alpha" yaml:"alpha"`
	// MaxAlpha bounds alpha escalation within a round. May be Infinity.
	MaxAlpha float64 `json:"max_alpha" yaml:"maxAlpha"`
	// Strategy resolves each round; Pairwise(MaxAlpha) when nil.
	Strategy Strategy `json:"-" yaml:"-"`
}

// DefaultConfig returns the config for the given number of seats with the
// default alpha and ceiling.
func DefaultConfig(winners int) Config {
	return Config{
		Winners:  winners,
		Alpha:    DefaultAlpha,
		MaxAlpha: DefaultMaxAlpha,
	}
}

func (c Config) Validate() error {
	if c.Winners < 1 {
		return errors.Wrapf(ErrInvalidConfig, "winners must be positive: %d", c.Winners)
	}
	if c.Alpha < 0 || math.IsNaN(c.Alpha) || math.IsInf(c.Alpha, 0) {
		return errors.Wrapf(ErrInvalidConfig, "alpha must be a finite non-negative number: %v", c.Alpha)
	}
	if math.IsNaN(c.MaxAlpha) || c.MaxAlpha < c.Alpha {
		return errors.Wrapf(ErrInvalidConfig, "max alpha (%v) must not be less than alpha (%v)", c.MaxAlpha, c.Alpha)
	}
	return nil
}

// Round records one resolve-then-reweight cycle.
type Round struct {
	Number     int      `json:"number" yaml:"number"`
	Candidates []string `json:"candidates" yaml:"candidates"`
	Ballots    int      `json:"ballots" yaml:"ballots"`
	Weight     float64  `json:"weight" yaml:"weight"`
	Outcome    `yaml:",inline"`
}

// Result is the ordered list of winners. When Tie is set the election
// stopped early and Winners holds the seats filled before the tied round.
type Result struct {
	Winners []string `json:"winners" yaml:"winners"`
	Tie     bool     `json:"tie" yaml:"tie"`
	Rounds  []*Round `json:"rounds,omitempty" yaml:"rounds,omitempty"`
}

// Slots returns the winners with TieMarker in place of the unresolved seat.
func (r *Result) Slots() []string {
	s := make([]string, 0, len(r.Winners)+1)
	s = append(s, r.Winners...)
	if r.Tie {
		s = append(s, TieMarker)
	}
	return s
}

// Attempts returns the total number of resolution attempts over all rounds.
func (r *Result) Attempts() int {
	n := 0
	for _, rd := range r.Rounds {
		n += rd.Attempts
	}
	return n
}

// MaxAlpha returns the largest alpha any round reached.
func (r *Result) MaxAlpha() float64 {
	var m float64
	for _, rd := range r.Rounds {
		m = math.Max(m, rd.Alpha)
	}
	return m
}

// Run fills cfg.Winners seats one round at a time. Each round derives the
// candidates from the current ballots, resolves a winner and, unless it is
// the last round, reweights the ballots for the next one. A tied round ends
// the election. Running out of candidates is a configuration error.
func Run(set *ballot.Set, cfg Config) (*Result, error) {
	if set == nil {
		return nil, errors.New("ballot set required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	resolve := cfg.Strategy
	if resolve == nil {
		resolve = Pairwise(cfg.MaxAlpha)
	}

	res := &Result{
		Winners: make([]string, 0, cfg.Winners),
		Rounds:  make([]*Round, 0, cfg.Winners),
	}

	cur := set
	for i := 0; i < cfg.Winners; i++ {
		cands := cur.Candidates()
		remaining := cfg.Winners - (i + 1)
		if remaining >= cands.Len() {
			return nil, errors.Wrapf(ErrNotEnoughCandidates,
				"round %d: %d candidates left for %d seats", i+1, cands.Len(), remaining+1)
		}

		list := cands.List()
		slog.Debug("round start", "round", i+1, "candidates", len(list), "ballots", cur.Len())

		rd := &Round{
			Number:     i + 1,
			Candidates: list,
			Ballots:    cur.Len(),
			Weight:     cur.Total(),
			Outcome:    resolve(cur, list, cfg.Alpha),
		}
		res.Rounds = append(res.Rounds, rd)

		if rd.Tie {
			slog.Debug("round tied", "round", rd.Number, "alpha", rd.Alpha, "attempts", rd.Attempts)
			res.Tie = true
			return res, nil
		}

		slog.Debug("round winner", "round", rd.Number, "winner", rd.Winner, "alpha", rd.Alpha, "attempts", rd.Attempts)
		res.Winners = append(res.Winners, rd.Winner)

		if remaining == 0 {
			break
		}
		cur = Reweight(cur, rd.Winner, rd.Alpha)
	}

	return res, nil
}
