package data

import (
	"database/sql"
	"encoding/json"
	"math"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/alphavote/pkg/election"
	"github.com/pkg/errors"
)

const (
	insertResultSQL = `INSERT INTO result (id, election_id, winners, alpha, max_alpha, elected, tie, rounds, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	selectResultsSQL = `SELECT id, election_id, winners, alpha, max_alpha, elected, tie, rounds, created_at
		FROM result
		WHERE election_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`
)

// Result is a stored election run. A nil MaxAlpha means the run was not
// bounded.
type Result struct {
	ID         string            `json:"id" yaml:"id"`
	ElectionID string            `json:"election_id" yaml:"electionId"`
	Winners    int               `json:"winners" yaml:"winners"`
	Alpha      float64           `json:"alpha" yaml:"alpha"`
	MaxAlpha   *float64          `json:"max_alpha,omitempty" yaml:"maxAlpha,omitempty"`
	Elected    []string          `json:"elected" yaml:"elected"`
	Tie        bool              `json:"tie" yaml:"tie"`
	Rounds     []*election.Round `json:"rounds,omitempty" yaml:"rounds,omitempty"`
	CreatedAt  time.Time         `json:"created_at" yaml:"createdAt"`
}

// Config returns the election config the result was produced with.
func (r *Result) Config() election.Config {
	cfg := election.Config{
		Winners:  r.Winners,
		Alpha:    r.Alpha,
		MaxAlpha: election.Infinity,
	}
	if r.MaxAlpha != nil {
		cfg.MaxAlpha = *r.MaxAlpha
	}
	return cfg
}

// SaveResult stores the outcome of running the election with cfg.
func SaveResult(db *sql.DB, electionID string, cfg election.Config, res *election.Result) (*Result, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if res == nil {
		return nil, errors.New("result required")
	}

	r := &Result{
		ID:         uuid.NewString(),
		ElectionID: electionID,
		Winners:    cfg.Winners,
		Alpha:      cfg.Alpha,
		Elected:    res.Slots(),
		Tie:        res.Tie,
		Rounds:     res.Rounds,
	}

	var maxAlpha sql.NullFloat64
	if !math.IsInf(cfg.MaxAlpha, 1) {
		v := cfg.MaxAlpha
		r.MaxAlpha = &v
		maxAlpha = sql.NullFloat64{Float64: v, Valid: true}
	}

	elected, err := json.Marshal(r.Elected)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode winners")
	}
	rounds, err := json.Marshal(r.Rounds)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode rounds")
	}

	tie := 0
	if r.Tie {
		tie = 1
	}

	created := now()
	r.CreatedAt = parseTime(created)

	if _, err := db.Exec(rebind(db, insertResultSQL), r.ID, r.ElectionID, r.Winners, r.Alpha,
		maxAlpha, string(elected), tie, string(rounds), created); err != nil {
		return nil, errors.Wrapf(err, "failed to insert result for election: %s", electionID)
	}

	return r, nil
}

// ListResults returns up to limit results of an election, newest first.
func ListResults(db *sql.DB, electionID string, limit int) ([]*Result, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if limit < 1 {
		limit = 1
	}

	rows, err := db.Query(rebind(db, selectResultsSQL), electionID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute result select statement")
	}
	defer rows.Close()

	list := make([]*Result, 0)
	for rows.Next() {
		r := &Result{}
		var maxAlpha sql.NullFloat64
		var elected, rounds, created string
		var tie int
		if err := rows.Scan(&r.ID, &r.ElectionID, &r.Winners, &r.Alpha, &maxAlpha,
			&elected, &tie, &rounds, &created); err != nil {
			return nil, errors.Wrap(err, "failed to scan result")
		}
		if maxAlpha.Valid {
			v := maxAlpha.Float64
			r.MaxAlpha = &v
		}
		if err := json.Unmarshal([]byte(elected), &r.Elected); err != nil {
			return nil, errors.Wrapf(err, "failed to decode winners of result: %s", r.ID)
		}
		if err := json.Unmarshal([]byte(rounds), &r.Rounds); err != nil {
			return nil, errors.Wrapf(err, "failed to decode rounds of result: %s", r.ID)
		}
		r.Tie = tie != 0
		r.CreatedAt = parseTime(created)
		list = append(list, r)
	}

	return list, errors.Wrap(rows.Err(), "failed to iterate results")
}
