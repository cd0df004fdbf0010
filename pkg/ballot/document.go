package ballot

import (
	"encoding/json"
	"io"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatYAML = "yaml"
)

// Document is the structured form of one or more elections, as produced by
// the generator.
type Document struct {
	NumVoters         int               `json:"num_voters" yaml:"num_voters"`
	NumCandidates     int               `json:"num_candidates" yaml:"num_candidates"`
	MaxUniqueRankings int               `json:"max_unique_rankings" yaml:"max_unique_rankings"`
	MaxRankingLength  int               `json:"max_ranking_length" yaml:"max_ranking_length"`
	MinRankingLength  int               `json:"min_ranking_length" yaml:"min_ranking_length"`
	NumElections      int               `json:"num_elections" yaml:"num_elections"`
	Elections         []*DocumentRecord `json:"elections" yaml:"elections"`
}

// DocumentRecord holds the ballots of one election.
type DocumentRecord struct {
	Ballots []*DocumentBallot `json:"ballots" yaml:"ballots"`
}

// DocumentBallot is a ranking with its vote count.
type DocumentBallot struct {
	Ranking Ranking `json:"ranking" yaml:"ranking"`
	Count   float64 `json:"count" yaml:"count"`
}

// UnmarshalJSON accepts candidate ids written as strings or numbers, as in
// `["A", "B"]` or `[0, 2, 1]`.
func (r *Ranking) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return errors.Wrap(err, "ranking must be a list of candidate ids")
	}
	if raw == nil {
		*r = nil
		return nil
	}

	out := make(Ranking, 0, len(raw))
	for _, v := range raw {
		var id string
		if err := json.Unmarshal(v, &id); err == nil {
			out = append(out, id)
			continue
		}
		var n json.Number
		if err := json.Unmarshal(v, &n); err != nil {
			return errors.Errorf("invalid candidate id: %s", v)
		}
		out = append(out, n.String())
	}
	*r = out
	return nil
}

// NewRecord converts a Set into a document record.
func NewRecord(s *Set) *DocumentRecord {
	rec := &DocumentRecord{Ballots: make([]*DocumentBallot, 0, s.Len())}
	for _, b := range s.Ballots() {
		rec.Ballots = append(rec.Ballots, &DocumentBallot{
			Ranking: b.Ranking(),
			Count:   b.Weight(),
		})
	}
	return rec
}

// Set converts the record into a validated Set.
func (r *DocumentRecord) Set() (*Set, error) {
	s := NewSet()
	for i, b := range r.Ballots {
		if b == nil {
			continue
		}
		if err := s.Add(b.Ranking, b.Count); err != nil {
			return nil, errors.Wrapf(err, "ballot %d", i+1)
		}
	}
	if s.Len() == 0 {
		return nil, ErrNoBallots
	}
	return s, nil
}

// Sets converts every election in the document.
func (d *Document) Sets() ([]*Set, error) {
	list := make([]*Set, 0, len(d.Elections))
	for i, e := range d.Elections {
		s, err := e.Set()
		if err != nil {
			return nil, errors.Wrapf(err, "election %d", i+1)
		}
		list = append(list, s)
	}
	if len(list) == 0 {
		return nil, ErrNoBallots
	}
	return list, nil
}

// FormatFromPath infers the election format from a file extension.
func FormatFromPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatCSV
	}
}

// Decode reads elections in the given format.
func Decode(r io.Reader, format string) ([]*Set, error) {
	switch format {
	case FormatJSON:
		var d Document
		if err := json.NewDecoder(r).Decode(&d); err != nil {
			return nil, errors.Wrap(err, "error decoding json election document")
		}
		return d.Sets()
	case FormatYAML:
		var d Document
		if err := yaml.NewDecoder(r).Decode(&d); err != nil {
			return nil, errors.Wrap(err, "error decoding yaml election document")
		}
		return d.Sets()
	case FormatCSV, "":
		return ReadAll(r)
	default:
		return nil, errors.Errorf("unsupported election format: %s", format)
	}
}

// Encode writes the document in the given format. CSV output carries only
// the ballots.
func Encode(w io.Writer, d *Document, format string) error {
	if d == nil {
		return errors.New("document required")
	}
	switch format {
	case FormatJSON:
		e := json.NewEncoder(w)
		e.SetIndent("", "    ")
		return errors.Wrap(e.Encode(d), "error encoding json election document")
	case FormatYAML:
		e := yaml.NewEncoder(w)
		defer e.Close()
		return errors.Wrap(e.Encode(d), "error encoding yaml election document")
	case FormatCSV, "":
		sets, err := d.Sets()
		if err != nil {
			return err
		}
		return WriteAll(w, sets)
	default:
		return errors.Errorf("unsupported election format: %s", format)
	}
}
