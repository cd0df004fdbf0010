package cvr

import (
	"strings"
	"testing"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testExport = `RowNumber,BoxID,BoxPosition,BallotID,PrecinctID,BallotStyleID,Choice_1,Choice_2,Choice_3
1,1,1,a1,P1,S1,Alice,Bob,Carol
2,1,2,a2,P1,S1,Bob,skipped,Alice
3,1,3,a3,P1,S1,Alice,Bob,Carol
4,1,4,a4,P1,S1,overvote,Write-in,Undeclared
5,1,5,a5,P1,S1,"Carol",Carol,Bob
6,1,6,a6,P1,S1,Bob,Alice,
7,1,7,a7,P1,S1,Alice, Bob ,Carol
`

func TestConvert(t *testing.T) {
	set, sum, err := Convert(strings.NewReader(testExport), DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, 7, sum.Rows)
	assert.Equal(t, 1, sum.Empty)
	assert.Equal(t, 3, sum.Rankings)
	assert.Equal(t, 3, sum.Candidates)

	assert.Equal(t, 3.0, set.Weight(ballot.Ranking{"Alice", "Bob", "Carol"}))
	assert.Equal(t, 2.0, set.Weight(ballot.Ranking{"Bob", "Alice"}))
	assert.Equal(t, 1.0, set.Weight(ballot.Ranking{"Carol", "Bob"}))

	// highest count first, equal counts keep first-seen order
	b := set.Ballots()
	assert.Equal(t, ballot.Ranking{"Alice", "Bob", "Carol"}, b[0].Ranking())
	assert.Equal(t, ballot.Ranking{"Bob", "Alice"}, b[1].Ranking())
	assert.Equal(t, ballot.Ranking{"Carol", "Bob"}, b[2].Ranking())
}

func TestConvertCustomColumns(t *testing.T) {
	in := "id,c1,c2\n1,X,Y\n2,Y,none\n"
	set, sum, err := Convert(strings.NewReader(in), Options{FirstColumn: 1, Markers: []string{"none"}})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Rankings)
	assert.Equal(t, 1.0, set.Weight(ballot.Ranking{"Y"}))
}

func TestConvertShortRows(t *testing.T) {
	in := "a,b,c\n1,2\n"
	_, _, err := Convert(strings.NewReader(in), DefaultOptions())
	assert.True(t, errors.Is(err, ballot.ErrNoBallots))
}

func TestConvertErrors(t *testing.T) {
	_, _, err := Convert(nil, DefaultOptions())
	assert.Error(t, err)

	_, _, err = Convert(strings.NewReader(""), DefaultOptions())
	assert.True(t, errors.Is(err, ballot.ErrNoBallots))

	_, _, err = Convert(strings.NewReader("h\n"), Options{FirstColumn: -1})
	assert.Error(t, err)
}
