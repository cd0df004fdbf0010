package ballot

import (
	"bufio"
	"io"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

const (
	fieldSeparator = ","

	// maxLineBytes bounds one ballot line of an election file.
	maxLineBytes = 16 << 20
)

var ErrNoBallots = errors.New("no ballots found")

// ReadAll parses an election file. Each line holds one ballot as
// `votes,first,second,...`; blank lines separate elections. Lines without a
// first choice are skipped.
func ReadAll(r io.Reader) ([]*Set, error) {
	if r == nil {
		return nil, errors.New("reader required")
	}

	list := make([]*Set, 0)
	cur := NewSet()
	flush := func() {
		if cur.Len() > 0 {
			list = append(list, cur)
			cur = NewSet()
		}
	}

	s := bufio.NewScanner(r)
	s.Buffer(make([]byte, 0, bufio.MaxScanTokenSize), maxLineBytes)
	line := 0
	for s.Scan() {
		line++
		txt := strings.TrimSpace(s.Text())
		if txt == "" {
			flush()
			continue
		}

		rank, votes, ok, err := parseLine(txt)
		if err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
		if !ok {
			continue
		}
		if err := cur.Add(rank, votes); err != nil {
			return nil, errors.Wrapf(err, "line %d", line)
		}
	}
	if err := s.Err(); err != nil {
		return nil, errors.Wrap(err, "error reading election file")
	}
	flush()

	if len(list) == 0 {
		return nil, ErrNoBallots
	}
	return list, nil
}

// Read parses a single election. Multi-election input is rejected.
func Read(r io.Reader) (*Set, error) {
	list, err := ReadAll(r)
	if err != nil {
		return nil, err
	}
	if len(list) != 1 {
		return nil, errors.Errorf("expected 1 election, found %d", len(list))
	}
	return list[0], nil
}

func parseLine(txt string) (Ranking, float64, bool, error) {
	parts := strings.Split(txt, fieldSeparator)
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	for len(parts) > 1 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) < 2 || parts[1] == "" {
		return nil, 0, false, nil
	}

	votes, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return nil, 0, false, errors.Wrapf(err, "invalid vote count: %q", parts[0])
	}

	return Ranking(parts[1:]), votes, true, nil
}

// Write encodes the Set in the election file format.
func Write(w io.Writer, s *Set) error {
	if s == nil {
		return errors.New("ballot set required")
	}
	bw := bufio.NewWriter(w)
	for _, b := range s.Ballots() {
		if _, err := bw.WriteString(formatLine(b)); err != nil {
			return errors.Wrap(err, "error writing ballot")
		}
	}
	return errors.Wrap(bw.Flush(), "error flushing election file")
}

// WriteAll encodes several elections separated by blank lines.
func WriteAll(w io.Writer, sets []*Set) error {
	for i, s := range sets {
		if i > 0 {
			if _, err := io.WriteString(w, "\n"); err != nil {
				return errors.Wrap(err, "error writing election separator")
			}
		}
		if err := Write(w, s); err != nil {
			return errors.Wrapf(err, "election %d", i+1)
		}
	}
	return nil
}

func formatLine(b *Ballot) string {
	return strconv.FormatFloat(b.Weight(), 'f', -1, 64) + fieldSeparator + b.ranking.String() + "\n"
}
