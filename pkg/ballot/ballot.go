package ballot

import (
	"math"
	"strings"

	"github.com/pkg/errors"
)

const keySeparator = "\x1f"

var (
	ErrEmptyRanking       = errors.New("ranking is empty")
	ErrEmptyCandidate     = errors.New("candidate id is empty")
	ErrDuplicateCandidate = errors.New("candidate appears more than once in ranking")
	ErrInvalidWeight      = errors.New("weight must be a finite non-negative number")
)

// Ranking is one ballot's preference order, most preferred first.
type Ranking []string

// Key returns the identity of the ranking within a Set.
func (r Ranking) Key() string {
	return strings.Join(r, keySeparator)
}

// Validate checks that the ranking is non-empty and duplicate-free.
func (r Ranking) Validate() error {
	if len(r) == 0 {
		return ErrEmptyRanking
	}
	seen := make(map[string]struct{}, len(r))
	for _, c := range r {
		if c == "" {
			return ErrEmptyCandidate
		}
		if strings.Contains(c, keySeparator) {
			return errors.Errorf("candidate id %q contains a reserved character", c)
		}
		if _, ok := seen[c]; ok {
			return errors.Wrapf(ErrDuplicateCandidate, "candidate: %s", c)
		}
		seen[c] = struct{}{}
	}
	return nil
}

// Without returns a copy of the ranking with c removed.
func (r Ranking) Without(c string) Ranking {
	out := make(Ranking, 0, len(r))
	for _, v := range r {
		if v != c {
			out = append(out, v)
		}
	}
	return out
}

func (r Ranking) String() string {
	return strings.Join(r, ",")
}

// Ballot is a ranking with the number of votes it represents.
type Ballot struct {
	ranking Ranking
	weight  float64
	pos     map[string]int
}

func newBallot(r Ranking, w float64) *Ballot {
	b := &Ballot{
		ranking: make(Ranking, len(r)),
		weight:  w,
		pos:     make(map[string]int, len(r)),
	}
	copy(b.ranking, r)
	for i, c := range b.ranking {
		b.pos[c] = i
	}
	return b
}

// Ranking returns a copy of the ballot's ranking.
func (b *Ballot) Ranking() Ranking {
	r := make(Ranking, len(b.ranking))
	copy(r, b.ranking)
	return r
}

func (b *Ballot) Weight() float64 {
	return b.weight
}

func (b *Ballot) Len() int {
	return len(b.ranking)
}

// Position returns the 0-based position of c in the ranking.
func (b *Ballot) Position(c string) (int, bool) {
	i, ok := b.pos[c]
	return i, ok
}

// Contains reports whether c is ranked on the ballot.
func (b *Ballot) Contains(c string) bool {
	_, ok := b.pos[c]
	return ok
}

// Set maps rankings to weights. Iteration follows insertion order so that
// repeated computations over the same Set sum in the same order.
type Set struct {
	ballots []*Ballot
	index   map[string]int
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{
		ballots: make([]*Ballot, 0),
		index:   make(map[string]int),
	}
}

// Add records w votes for r. Weights for a ranking already in the Set are
// summed.
func (s *Set) Add(r Ranking, w float64) error {
	if err := r.Validate(); err != nil {
		return errors.Wrapf(err, "invalid ranking [%s]", r)
	}
	if w < 0 || math.IsNaN(w) || math.IsInf(w, 0) {
		return errors.Wrapf(ErrInvalidWeight, "ranking [%s] weight: %v", r, w)
	}

	k := r.Key()
	if i, ok := s.index[k]; ok {
		s.ballots[i].weight += w
		return nil
	}

	s.index[k] = len(s.ballots)
	s.ballots = append(s.ballots, newBallot(r, w))
	return nil
}

// MustAdd is like Add but panics on invalid input. Intended for literals
// in tests and examples.
func (s *Set) MustAdd(r Ranking, w float64) *Set {
	if err := s.Add(r, w); err != nil {
		panic(err)
	}
	return s
}

// Len returns the number of distinct rankings.
func (s *Set) Len() int {
	return len(s.ballots)
}

// Ballots returns the ballots in insertion order. Ballots are read-only.
func (s *Set) Ballots() []*Ballot {
	return s.ballots
}

// Weight returns the weight recorded for r, 0 when absent.
func (s *Set) Weight(r Ranking) float64 {
	if i, ok := s.index[r.Key()]; ok {
		return s.ballots[i].weight
	}
	return 0
}

// Has reports whether r is in the Set.
func (s *Set) Has(r Ranking) bool {
	_, ok := s.index[r.Key()]
	return ok
}

// Total returns the sum of all weights.
func (s *Set) Total() float64 {
	var t float64
	for _, b := range s.ballots {
		t += b.weight
	}
	return t
}

// Candidates returns the distinct candidates in first-appearance order.
func (s *Set) Candidates() *Candidates {
	c := newCandidates()
	for _, b := range s.ballots {
		for _, id := range b.ranking {
			c.add(id)
		}
	}
	return c
}
