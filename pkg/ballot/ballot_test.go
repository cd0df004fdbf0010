package ballot

import (
	"math"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRankingValidate(t *testing.T) {
	tests := []struct {
		name string
		r    Ranking
		err  error
	}{
		{"valid", Ranking{"A", "B", "C"}, nil},
		{"single", Ranking{"A"}, nil},
		{"empty", Ranking{}, ErrEmptyRanking},
		{"nil", nil, ErrEmptyRanking},
		{"empty id", Ranking{"A", ""}, ErrEmptyCandidate},
		{"duplicate", Ranking{"A", "B", "A"}, ErrDuplicateCandidate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.r.Validate()
			if tt.err == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.err), "got %v", err)
		})
	}
}

func TestRankingReservedCharacter(t *testing.T) {
	assert.Error(t, Ranking{"A" + keySeparator + "B"}.Validate())
}

func TestRankingWithout(t *testing.T) {
	r := Ranking{"A", "B", "C"}
	assert.Equal(t, Ranking{"A", "C"}, r.Without("B"))
	assert.Equal(t, Ranking{"A", "B", "C"}, r.Without("D"))
	assert.Equal(t, Ranking{"A", "B", "C"}, r, "original must not change")
}

func TestSetAdd(t *testing.T) {
	s := NewSet()
	require.NoError(t, s.Add(Ranking{"A", "B"}, 10))
	require.NoError(t, s.Add(Ranking{"B", "A"}, 5))
	require.NoError(t, s.Add(Ranking{"A", "B"}, 2.5))

	assert.Equal(t, 2, s.Len())
	assert.Equal(t, 12.5, s.Weight(Ranking{"A", "B"}))
	assert.Equal(t, 5.0, s.Weight(Ranking{"B", "A"}))
	assert.Equal(t, 0.0, s.Weight(Ranking{"C"}))
	assert.Equal(t, 17.5, s.Total())
	assert.True(t, s.Has(Ranking{"B", "A"}))
	assert.False(t, s.Has(Ranking{"A"}))
}

func TestSetAddRejectsMalformed(t *testing.T) {
	s := NewSet()
	assert.True(t, errors.Is(s.Add(Ranking{}, 1), ErrEmptyRanking))
	assert.True(t, errors.Is(s.Add(Ranking{"A", "A"}, 1), ErrDuplicateCandidate))
	assert.True(t, errors.Is(s.Add(Ranking{"A"}, -1), ErrInvalidWeight))
	assert.True(t, errors.Is(s.Add(Ranking{"A"}, math.NaN()), ErrInvalidWeight))
	assert.True(t, errors.Is(s.Add(Ranking{"A"}, math.Inf(1)), ErrInvalidWeight))
	assert.Equal(t, 0, s.Len())
	assert.NoError(t, s.Add(Ranking{"A"}, 0))
}

func TestSetCopiesRanking(t *testing.T) {
	r := Ranking{"A", "B"}
	s := NewSet().MustAdd(r, 1)
	r[0] = "Z"

	b := s.Ballots()[0]
	assert.Equal(t, Ranking{"A", "B"}, b.Ranking())

	out := b.Ranking()
	out[0] = "Y"
	assert.Equal(t, Ranking{"A", "B"}, b.Ranking())
}

func TestBallotPosition(t *testing.T) {
	s := NewSet().MustAdd(Ranking{"A", "B", "C"}, 1)
	b := s.Ballots()[0]

	p, ok := b.Position("C")
	assert.True(t, ok)
	assert.Equal(t, 2, p)

	_, ok = b.Position("D")
	assert.False(t, ok)
	assert.True(t, b.Contains("A"))
	assert.Equal(t, 3, b.Len())
	assert.Equal(t, 1.0, b.Weight())
}

func TestSetCandidatesOrder(t *testing.T) {
	s := NewSet().
		MustAdd(Ranking{"C", "A"}, 1).
		MustAdd(Ranking{"B"}, 1).
		MustAdd(Ranking{"A", "D", "B"}, 1)

	c := s.Candidates()
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, []string{"C", "A", "B", "D"}, c.List())
	assert.True(t, c.Contains("D"))
	assert.False(t, c.Contains("E"))
}

func TestNewCandidates(t *testing.T) {
	c := NewCandidates("A", "B", "A")
	assert.Equal(t, []string{"A", "B"}, c.List())
}

func TestMustAddPanics(t *testing.T) {
	assert.Panics(t, func() { NewSet().MustAdd(Ranking{}, 1) })
}
