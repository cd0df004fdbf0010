package sweep

import (
	"context"
	"testing"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/mchmarny/alphavote/pkg/generate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func twoWay(a, b float64) *ballot.Set {
	return ballot.NewSet().
		MustAdd(ballot.Ranking{"A", "B"}, a).
		MustAdd(ballot.Ranking{"B", "A"}, b)
}

func TestRun(t *testing.T) {
	sets := []*ballot.Set{
		twoWay(50, 50),
		twoWay(60, 40),
		ballot.NewSet().MustAdd(ballot.Ranking{"A"}, 1),
	}

	p := DefaultParams()
	p.Steps = 4
	p.Workers = 2

	r, err := Run(context.Background(), sets, p)
	require.NoError(t, err)

	assert.Equal(t, 3, r.Elections)
	assert.Equal(t, 0, r.Failed)
	require.Len(t, r.Steps, 4)
	for i, st := range r.Steps {
		assert.Equal(t, i+1, st.N)
		assert.Equal(t, 1, st.Ties)
		assert.InDelta(t, 1.0/3.0, st.Ratio, 1e-12)
	}
	assert.InDelta(t, election.DefaultAlpha*16, r.Steps[3].MaxAlpha, 1e-12)
	// tied election: 5 attempts, the other two: 1 each
	assert.InDelta(t, 7.0/3.0, r.MeanAttempts, 1e-12)
	assert.InDelta(t, election.DefaultAlpha*16, r.MaxAlpha, 1e-12)
}

func TestRunCountsFailures(t *testing.T) {
	sets := []*ballot.Set{
		twoWay(60, 40),
		ballot.NewSet().MustAdd(ballot.Ranking{"A"}, 1),
	}

	p := DefaultParams()
	p.Winners = 2
	p.Steps = 2

	r, err := Run(context.Background(), sets, p)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Failed, "both run out of candidates in round 2")
	for _, st := range r.Steps {
		assert.Equal(t, 0.0, st.Ratio)
	}
}

func TestRunTieRatioNeverGrows(t *testing.T) {
	d, err := generate.Generate(generate.Params{
		Voters:     20,
		Candidates: 4,
		MinLength:  1,
		MaxLength:  4,
		Elections:  60,
		Seed:       99,
	})
	require.NoError(t, err)
	sets, err := d.Sets()
	require.NoError(t, err)

	r, err := Run(context.Background(), sets, DefaultParams())
	require.NoError(t, err)
	require.Len(t, r.Steps, election.DefaultEscalations)

	for i := 1; i < len(r.Steps); i++ {
		assert.LessOrEqual(t, r.Steps[i].Ties, r.Steps[i-1].Ties)
	}
}

func TestRunErrors(t *testing.T) {
	_, err := Run(context.Background(), nil, DefaultParams())
	assert.Error(t, err)

	p := DefaultParams()
	p.Steps = 0
	_, err = Run(context.Background(), []*ballot.Set{twoWay(1, 2)}, p)
	assert.Error(t, err)

	p = DefaultParams()
	p.Alpha = -1
	_, err = Run(context.Background(), []*ballot.Set{twoWay(1, 2)}, p)
	assert.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = Run(ctx, []*ballot.Set{twoWay(1, 2)}, DefaultParams())
	assert.ErrorIs(t, err, context.Canceled)
}
