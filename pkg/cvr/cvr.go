package cvr

import (
	"encoding/csv"
	"io"
	"log/slog"
	"sort"
	"strings"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/pkg/errors"
)

// DefaultFirstColumn is the 0-based index of the first ranking column in
// a cast vote record export.
const DefaultFirstColumn = 6

// DefaultMarkers are the cell values that do not name a candidate.
var DefaultMarkers = []string{
	"skipped",
	"overvote",
	"Write-in",
	"Undeclared",
}

// Options controls how ranking columns are read.
type Options struct {
	FirstColumn int      `json:"first_column" yaml:"firstColumn"`
	Markers     []string `json:"markers" yaml:"markers"`
}

// DefaultOptions returns the options for the common export layout.
func DefaultOptions() Options {
	return Options{
		FirstColumn: DefaultFirstColumn,
		Markers:     DefaultMarkers,
	}
}

// Summary describes a conversion.
type Summary struct {
	Rows       int `json:"rows" yaml:"rows"`
	Empty      int `json:"empty" yaml:"empty"`
	Rankings   int `json:"rankings" yaml:"rankings"`
	Candidates int `json:"candidates" yaml:"candidates"`
}

type tally struct {
	ranking ballot.Ranking
	votes   int
}

// Convert reads a CVR export (header row first) and aggregates identical
// rankings. Marker cells and repeated candidates are dropped, rows that rank
// nobody are skipped. Ballots are ordered by vote count, highest first.
func Convert(r io.Reader, opt Options) (*ballot.Set, *Summary, error) {
	if r == nil {
		return nil, nil, errors.New("reader required")
	}
	if opt.FirstColumn < 0 {
		return nil, nil, errors.Errorf("invalid first column: %d", opt.FirstColumn)
	}

	markers := make(map[string]bool, len(opt.Markers))
	for _, m := range opt.Markers {
		markers[m] = true
	}

	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = true

	if _, err := cr.Read(); err != nil {
		if err == io.EOF {
			return nil, nil, ballot.ErrNoBallots
		}
		return nil, nil, errors.Wrap(err, "error reading cvr header")
	}

	sum := &Summary{}
	index := make(map[string]int)
	list := make([]*tally, 0)

	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, errors.Wrapf(err, "error reading cvr row %d", sum.Rows+1)
		}
		sum.Rows++

		rank := clean(rec, opt.FirstColumn, markers)
		if len(rank) == 0 {
			sum.Empty++
			continue
		}

		k := rank.Key()
		if i, ok := index[k]; ok {
			list[i].votes++
			continue
		}
		index[k] = len(list)
		list = append(list, &tally{ranking: rank, votes: 1})
	}

	sort.SliceStable(list, func(i, j int) bool {
		return list[i].votes > list[j].votes
	})

	set := ballot.NewSet()
	for _, t := range list {
		if err := set.Add(t.ranking, float64(t.votes)); err != nil {
			return nil, nil, errors.Wrapf(err, "error adding ranking [%s]", t.ranking)
		}
	}
	if set.Len() == 0 {
		return nil, nil, ballot.ErrNoBallots
	}

	sum.Rankings = set.Len()
	sum.Candidates = set.Candidates().Len()
	slog.Debug("cvr converted", "rows", sum.Rows, "empty", sum.Empty, "rankings", sum.Rankings)

	return set, sum, nil
}

func clean(rec []string, first int, markers map[string]bool) ballot.Ranking {
	if len(rec) <= first {
		return nil
	}

	seen := make(map[string]bool)
	rank := make(ballot.Ranking, 0, len(rec)-first)
	for _, cell := range rec[first:] {
		v := strings.TrimSpace(strings.ReplaceAll(cell, `"`, ""))
		if v == "" || markers[v] || seen[v] {
			continue
		}
		seen[v] = true
		rank = append(rank, v)
	}
	return rank
}
