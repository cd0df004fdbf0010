package election

import (
	"testing"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReweight(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "B", "C"}, 10).
		MustAdd(ballot.Ranking{"B", "A", "C"}, 6).
		MustAdd(ballot.Ranking{"C"}, 4)

	next := Reweight(set, "A", 0.5)

	require.Equal(t, 1, next.Len())
	assert.Equal(t, 10.0+6.0/1.5, next.Weight(ballot.Ranking{"B", "C"}))
	assert.False(t, next.Has(ballot.Ranking{"C"}), "single-candidate ballots are consumed")
}

func TestReweightWinnerAbsent(t *testing.T) {
	set := ballot.NewSet().MustAdd(ballot.Ranking{"B", "C"}, 9)
	next := Reweight(set, "A", 0.5)

	assert.Equal(t, 9.0/(1+2*0.5), next.Weight(ballot.Ranking{"B", "C"}))
}

func TestReweightPreservesOrderAndInput(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"C", "A", "D", "B"}, 8).
		MustAdd(ballot.Ranking{"D", "C"}, 2)

	next := Reweight(set, "A", 0.25)

	assert.True(t, next.Has(ballot.Ranking{"C", "D", "B"}))
	assert.Equal(t, 8/1.25, next.Weight(ballot.Ranking{"C", "D", "B"}))
	assert.Equal(t, 2/1.5, next.Weight(ballot.Ranking{"D", "C"}))

	assert.Equal(t, 2, set.Len())
	assert.Equal(t, 8.0, set.Weight(ballot.Ranking{"C", "A", "D", "B"}))
	assert.True(t, set.Candidates().Contains("A"))
	assert.False(t, next.Candidates().Contains("A"))
}

func TestReweightWeightBound(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "B", "C"}, 7).
		MustAdd(ballot.Ranking{"B", "A", "C"}, 5).
		MustAdd(ballot.Ranking{"B", "C", "A"}, 3).
		MustAdd(ballot.Ranking{"C", "B"}, 11).
		MustAdd(ballot.Ranking{"A"}, 2)

	const alpha = 0.08
	next := Reweight(set, "A", alpha)

	// contributing original weight and whether any contributor was discounted
	sources := make(map[string]float64)
	discounted := make(map[string]bool)
	for _, b := range set.Ballots() {
		if b.Len() <= 1 {
			continue
		}
		k := b.Ranking().Without("A").Key()
		sources[k] += b.Weight()
		if d, ok := b.Position("A"); !ok || d > 0 {
			discounted[k] = true
		}
	}

	for _, b := range next.Ballots() {
		k := b.Ranking().Key()
		assert.LessOrEqual(t, b.Weight(), sources[k])
		if discounted[k] {
			assert.Less(t, b.Weight(), sources[k])
		}
	}
	assert.Less(t, next.Total(), set.Total())
}

func TestReweightZeroAlphaKeepsWeight(t *testing.T) {
	set := ballot.NewSet().
		MustAdd(ballot.Ranking{"B", "A"}, 4).
		MustAdd(ballot.Ranking{"C", "B"}, 6)

	next := Reweight(set, "A", 0)
	assert.Equal(t, 4.0, next.Weight(ballot.Ranking{"B"}))
	assert.Equal(t, 6.0, next.Weight(ballot.Ranking{"C", "B"}))
}
