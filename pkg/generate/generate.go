package generate

import (
	"math"
	"math/rand/v2"
	"slices"
	"strconv"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/pkg/errors"
)

const (
	distributionScale = 100.0
	cutPrecision      = 1000.0
)

// Params describe the elections to generate. Zero ranking lengths default
// to the number of candidates; zero MaxUnique means no limit.
type Params struct {
	Voters     int    `json:"voters" yaml:"voters"`
	Candidates int    `json:"candidates" yaml:"candidates"`
	MaxUnique  int    `json:"max_unique" yaml:"maxUnique"`
	MinLength  int    `json:"min_length" yaml:"minLength"`
	MaxLength  int    `json:"max_length" yaml:"maxLength"`
	Elections  int    `json:"elections" yaml:"elections"`
	Seed       uint64 `json:"seed" yaml:"seed"`
}

// DefaultParams returns a small three-candidate election.
func DefaultParams() Params {
	return Params{
		Voters:     10,
		Candidates: 3,
		Elections:  1,
	}
}

func (p *Params) normalize() error {
	if p.Voters < 1 {
		return errors.Errorf("voters must be positive: %d", p.Voters)
	}
	if p.Candidates < 1 {
		return errors.Errorf("candidates must be positive: %d", p.Candidates)
	}
	if p.Elections < 1 {
		return errors.Errorf("elections must be positive: %d", p.Elections)
	}
	if p.MaxUnique < 0 {
		return errors.Errorf("max unique rankings must not be negative: %d", p.MaxUnique)
	}
	if p.MinLength == 0 {
		p.MinLength = p.Candidates
	}
	if p.MaxLength == 0 {
		p.MaxLength = p.Candidates
	}
	if p.MinLength < 1 || p.MaxLength > p.Candidates || p.MinLength > p.MaxLength {
		return errors.Errorf("invalid ranking length range [%d, %d] for %d candidates",
			p.MinLength, p.MaxLength, p.Candidates)
	}
	return nil
}

// Generate produces random elections. The same Params, seed included,
// always produce the same document.
func Generate(p Params) (*ballot.Document, error) {
	if err := p.normalize(); err != nil {
		return nil, errors.Wrap(err, "invalid generator params")
	}

	seed := p.Seed
	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed>>1|1))

	d := &ballot.Document{
		NumVoters:         p.Voters,
		NumCandidates:     p.Candidates,
		MaxUniqueRankings: p.MaxUnique,
		MaxRankingLength:  p.MaxLength,
		MinRankingLength:  p.MinLength,
		NumElections:      p.Elections,
		Elections:         make([]*ballot.DocumentRecord, 0, p.Elections),
	}

	for i := 0; i < p.Elections; i++ {
		rankings := uniqueRankings(rng, p)
		d.Elections = append(d.Elections, &ballot.DocumentRecord{
			Ballots: distribute(rng, p.Voters, rankings),
		})
	}
	return d, nil
}

func uniqueRankings(rng *rand.Rand, p Params) []ballot.Ranking {
	limit := min(possibleRankings(p.Candidates, p.MinLength, p.MaxLength), p.Voters)
	if p.MaxUnique > 0 {
		limit = min(limit, p.MaxUnique)
	}

	seen := make(map[string]bool, limit)
	list := make([]ballot.Ranking, 0, limit)
	for len(list) < limit {
		n := p.MinLength + rng.IntN(p.MaxLength-p.MinLength+1)
		perm := rng.Perm(p.Candidates)[:n]

		r := make(ballot.Ranking, n)
		for i, c := range perm {
			r[i] = strconv.Itoa(c)
		}
		if k := r.Key(); !seen[k] {
			seen[k] = true
			list = append(list, r)
		}
	}
	return list
}

// possibleRankings counts the distinct rankings of length min..max, capped
// at MaxInt32 to keep the arithmetic small.
func possibleRankings(candidates, minLen, maxLen int) int {
	total := 0
	for l := minLen; l <= maxLen; l++ {
		perms := 1
		for i := 0; i < l; i++ {
			perms *= candidates - i
			if perms >= math.MaxInt32 {
				return math.MaxInt32
			}
		}
		total += perms
		if total >= math.MaxInt32 {
			return math.MaxInt32
		}
	}
	return total
}

// distribute splits the voters across rankings at random cut points. A
// ranking that rounds to zero votes is left out and its share rolls into
// the next one; the last ranking absorbs any rounding remainder.
func distribute(rng *rand.Rand, voters int, rankings []ballot.Ranking) []*ballot.DocumentBallot {
	cuts := make([]float64, 0, len(rankings))
	for i := 0; i < len(rankings)-1; i++ {
		v := rng.Float64() * distributionScale
		cuts = append(cuts, math.RoundToEven(v*cutPrecision)/cutPrecision)
	}
	slices.Sort(cuts)
	cuts = append(cuts, distributionScale)

	list := make([]*ballot.DocumentBallot, 0, len(rankings))
	prev := 0.0
	remaining := voters
	for i, r := range rankings {
		share := float64(voters) * (cuts[i] - prev) / distributionScale
		votes := min(int(math.RoundToEven(share)), remaining)
		remaining -= votes
		if i == len(rankings)-1 && remaining > 0 {
			votes += remaining
			remaining = 0
		}
		if votes == 0 {
			continue
		}
		list = append(list, &ballot.DocumentBallot{Ranking: r, Count: float64(votes)})
		prev = cuts[i]
	}
	return list
}
