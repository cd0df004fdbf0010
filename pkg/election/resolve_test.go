package election

import (
	"testing"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoWay(a, b float64) *ballot.Set {
	return ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "B"}, a).
		MustAdd(ballot.Ranking{"B", "A"}, b)
}

func TestCompare(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "C", "B"}, 10). // A ahead by 2
		MustAdd(ballot.Ranking{"B", "A"}, 4).       // B ahead by 1
		MustAdd(ballot.Ranking{"A"}, 3).            // only A
		MustAdd(ballot.Ranking{"B", "D"}, 2).       // only B
		MustAdd(ballot.Ranking{"C", "D"}, 100)      // neither

	p := Compare(set, "A", "B", 0.5)
	assert.Equal(t, "A", p.A)
	assert.Equal(t, "B", p.B)
	assert.Equal(t, 10*(1+2*0.5)+3*(1+0.5), p.PointsA)
	assert.Equal(t, 4*(1+0.5)+2*(1+0.5), p.PointsB)
	assert.Equal(t, "A", p.Winner())
	assert.Equal(t, p.PointsA-p.PointsB, p.Margin())

	r := Compare(set, "B", "A", 0.5)
	assert.Equal(t, p.PointsA, r.PointsB)
	assert.Equal(t, p.PointsB, r.PointsA)
}

func TestPairWinnerTie(t *testing.T) {
	p := Pair{A: "A", B: "B", PointsA: 5, PointsB: 5}
	assert.Equal(t, "", p.Winner())
}

func TestResolveMajority(t *testing.T) {
	set := twoWay(60, 40)
	out := Resolve(set, set.Candidates().List(), DefaultAlpha, DefaultMaxAlpha)

	assert.Equal(t, "A", out.Winner)
	assert.False(t, out.Tie)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 1, out.Comparisons)
	assert.Equal(t, DefaultAlpha, out.Alpha)
}

func TestResolveTwoCandidatesSingleComparison(t *testing.T) {
	sets := []*ballot.Set{
		twoWay(60, 40),
		twoWay(1, 2),
		twoWay(50.5, 50),
		ballot.NewSet().MustAdd(ballot.Ranking{"A"}, 3).MustAdd(ballot.Ranking{"B", "A"}, 2),
		ballot.NewSet().MustAdd(ballot.Ranking{"X", "A", "B"}, 1).MustAdd(ballot.Ranking{"B"}, 7),
	}

	for _, set := range sets {
		out := Resolve(set, []string{"A", "B"}, DefaultAlpha, DefaultMaxAlpha)
		assert.False(t, out.Tie)
		assert.Equal(t, 1, out.Attempts)
		assert.Equal(t, 1, out.Comparisons)
	}
}

func TestResolveTieAtCeiling(t *testing.T) {
	set := twoWay(50, 50)
	out := Resolve(set, set.Candidates().List(), DefaultAlpha, DefaultMaxAlpha)

	assert.True(t, out.Tie)
	assert.Empty(t, out.Winner)
	assert.Equal(t, DefaultEscalations+1, out.Attempts)
	assert.Equal(t, DefaultEscalations+1, out.Comparisons)
	assert.Equal(t, DefaultMaxAlpha, out.Alpha)
}

func TestResolveCustomCeiling(t *testing.T) {
	set := twoWay(50, 50)
	out := Resolve(set, set.Candidates().List(), 0.01, 0.04)

	assert.True(t, out.Tie)
	assert.Equal(t, 3, out.Attempts)
	assert.Equal(t, 0.04, out.Alpha)
}

func TestResolveInfiniteCeilingTerminates(t *testing.T) {
	set := twoWay(50, 50)
	out := Resolve(set, set.Candidates().List(), DefaultAlpha, Infinity)

	assert.True(t, out.Tie)
	assert.Greater(t, out.Attempts, DefaultEscalations+1)
}

func TestResolveZeroAlphaCannotEscalate(t *testing.T) {
	set := twoWay(50, 50)
	out := Resolve(set, set.Candidates().List(), 0, 1)

	assert.True(t, out.Tie)
	assert.Equal(t, 1, out.Attempts)
}

func TestResolveAlphaAboveCeiling(t *testing.T) {
	set := twoWay(60, 40)
	out := Resolve(set, set.Candidates().List(), 2, 1)

	assert.True(t, out.Tie)
	assert.Equal(t, 0, out.Attempts)
}

func TestResolveSingleCandidate(t *testing.T) {
	set := ballot.NewSet().MustAdd(ballot.Ranking{"A"}, 1)
	out := Resolve(set, []string{"A"}, DefaultAlpha, DefaultMaxAlpha)

	assert.Equal(t, "A", out.Winner)
	assert.Equal(t, 1, out.Attempts)
	assert.Equal(t, 0, out.Comparisons)
}

func TestResolveNoCandidates(t *testing.T) {
	out := Resolve(ballot.NewSet(), nil, DefaultAlpha, DefaultMaxAlpha)
	assert.True(t, out.Tie)
}

func TestResolveEscalationBreaksTie(t *testing.T) {
	// At alpha 0.25 A and B score 3.75 each, at 0.5 B leads 5 to 4.5.
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "B"}, 3).
		MustAdd(ballot.Ranking{"B", "C", "A"}, 2.5)

	first := Compare(set, "A", "B", 0.25)
	require.Equal(t, first.PointsA, first.PointsB)

	out := Resolve(set, set.Candidates().List(), 0.25, 4)
	assert.Equal(t, "B", out.Winner)
	assert.Equal(t, 2, out.Attempts)
	assert.Equal(t, 0.5, out.Alpha)
	assert.Equal(t, 6, out.Comparisons)
}

func TestResolveShortCircuits(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A"}, 5).
		MustAdd(ballot.Ranking{"B"}, 3).
		MustAdd(ballot.Ranking{"C"}, 4)

	out := Resolve(set, set.Candidates().List(), DefaultAlpha, DefaultMaxAlpha)
	assert.Equal(t, "A", out.Winner)
	assert.Equal(t, 2, out.Comparisons, "B vs C cannot change the winner")
}

func TestResolvePluralityBoundary(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"B"}, 30).
		MustAdd(ballot.Ranking{"C"}, 31).
		MustAdd(ballot.Ranking{"A"}, 20).
		MustAdd(ballot.Ranking{"D"}, 19)

	out := Resolve(set, set.Candidates().List(), DefaultAlpha, DefaultMaxAlpha)
	assert.Equal(t, "C", out.Winner)
	assert.Equal(t, 1, out.Attempts)
}

func TestResolveDeterministic(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "B", "C"}, 5).
		MustAdd(ballot.Ranking{"B", "C", "A"}, 3).
		MustAdd(ballot.Ranking{"C", "B"}, 2)
	cands := set.Candidates().List()

	first := Resolve(set, cands, DefaultAlpha, DefaultMaxAlpha)
	second := Resolve(set, cands, DefaultAlpha, DefaultMaxAlpha)
	assert.Equal(t, first, second)

	tied := twoWay(50, 50)
	assert.Equal(t,
		Resolve(tied, []string{"A", "B"}, DefaultAlpha, DefaultMaxAlpha),
		Resolve(tied, []string{"A", "B"}, DefaultAlpha, DefaultMaxAlpha))
}

func TestMarginGrowsWithAlpha(t *testing.T) {
	// every ballot ranking both has A ahead by a wider gap than B's lead
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "C", "B"}, 6).
		MustAdd(ballot.Ranking{"B", "A"}, 5)

	prev := Compare(set, "A", "B", DefaultAlpha)
	require.Equal(t, "A", prev.Winner())

	alpha := DefaultAlpha
	for i := 0; i < DefaultEscalations; i++ {
		alpha *= 2
		p := Compare(set, "A", "B", alpha)
		assert.Equal(t, "A", p.Winner())
		assert.GreaterOrEqual(t, p.Margin(), prev.Margin())
		prev = p
	}
}

func TestPairwiseStrategy(t *testing.T) {
	s := Pairwise(0.04)
	out := s(twoWay(50, 50), []string{"A", "B"}, 0.01)
	assert.True(t, out.Tie)
	assert.Equal(t, 3, out.Attempts)
}
