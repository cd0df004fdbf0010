package data

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/pkg/errors"
)

const (
	insertElectionSQL = `INSERT INTO election (id, name, source, ballots, candidates, votes, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	insertBallotSQL = `INSERT INTO ballot (election_id, seq, ranking, weight) VALUES (?, ?, ?, ?)`

	selectElectionSQL = `SELECT id, name, source, ballots, candidates, votes, created_at
		FROM election
		WHERE name = ?
	`

	selectElectionsSQL = `SELECT id, name, source, ballots, candidates, votes, created_at
		FROM election
		ORDER BY created_at DESC, name
	`

	selectBallotsSQL = `SELECT ranking, weight FROM ballot WHERE election_id = ? ORDER BY seq`

	deleteResultsSQL  = `DELETE FROM result WHERE election_id = ?`
	deleteBallotsSQL  = `DELETE FROM ballot WHERE election_id = ?`
	deleteElectionSQL = `DELETE FROM election WHERE id = ?`
)

// Election is a stored ballot set.
type Election struct {
	ID         string    `json:"id" yaml:"id"`
	Name       string    `json:"name" yaml:"name"`
	Source     string    `json:"source" yaml:"source"`
	Ballots    int       `json:"ballots" yaml:"ballots"`
	Candidates int       `json:"candidates" yaml:"candidates"`
	Votes      float64   `json:"votes" yaml:"votes"`
	CreatedAt  time.Time `json:"created_at" yaml:"createdAt"`
}

// SaveElection stores the ballots under name. An existing election with the
// same name is replaced only when replace is set.
func SaveElection(db *sql.DB, name, source string, set *ballot.Set, replace bool) (*Election, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}
	if name == "" {
		return nil, errors.New("election name required")
	}
	if set == nil || set.Len() == 0 {
		return nil, ballot.ErrNoBallots
	}

	existing, err := GetElection(db, name)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	if existing != nil && !replace {
		return nil, errors.Errorf("election already exists: %s", name)
	}

	e := &Election{
		ID:         uuid.NewString(),
		Name:       name,
		Source:     source,
		Ballots:    set.Len(),
		Candidates: set.Candidates().Len(),
		Votes:      set.Total(),
	}
	created := now()
	e.CreatedAt = parseTime(created)

	tx, err := db.Begin()
	if err != nil {
		return nil, errors.Wrap(err, "failed to begin transaction")
	}

	if existing != nil {
		if err := deleteElection(tx, db, existing.ID); err != nil {
			return nil, rollback(tx, errors.Wrapf(err, "failed to replace election: %s", name))
		}
	}

	if _, err := tx.Exec(rebind(db, insertElectionSQL),
		e.ID, e.Name, e.Source, e.Ballots, e.Candidates, e.Votes, created); err != nil {
		return nil, rollback(tx, errors.Wrapf(err, "failed to insert election: %s", name))
	}

	stmt, err := tx.Prepare(rebind(db, insertBallotSQL))
	if err != nil {
		return nil, rollback(tx, errors.Wrap(err, "failed to prepare ballot insert statement"))
	}
	defer stmt.Close()

	for i, b := range set.Ballots() {
		r, err := json.Marshal(b.Ranking())
		if err != nil {
			return nil, rollback(tx, errors.Wrapf(err, "failed to encode ranking %d", i))
		}
		if _, err := stmt.Exec(e.ID, i, string(r), b.Weight()); err != nil {
			return nil, rollback(tx, errors.Wrapf(err, "failed to insert ballot %d", i))
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, errors.Wrap(err, "failed to commit transaction")
	}

	return e, nil
}

// GetElection returns the election stored under name or ErrNotFound.
func GetElection(db *sql.DB, name string) (*Election, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	row := db.QueryRow(rebind(db, selectElectionSQL), name)
	e, err := scanElection(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, errors.Wrapf(ErrNotFound, "election: %s", name)
		}
		return nil, errors.Wrap(err, "failed to scan election")
	}
	return e, nil
}

// ListElections returns all stored elections, newest first.
func ListElections(db *sql.DB) ([]*Election, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(selectElectionsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute election select statement")
	}
	defer rows.Close()

	list := make([]*Election, 0)
	for rows.Next() {
		e, err := scanElection(rows)
		if err != nil {
			return nil, errors.Wrap(err, "failed to scan election")
		}
		list = append(list, e)
	}
	return list, errors.Wrap(rows.Err(), "failed to iterate elections")
}

// GetBallots loads the ballots of an election in their stored order.
func GetBallots(db *sql.DB, electionID string) (*ballot.Set, error) {
	if db == nil {
		return nil, errDBNotInitialized
	}

	rows, err := db.Query(rebind(db, selectBallotsSQL), electionID)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute ballot select statement")
	}
	defer rows.Close()

	set := ballot.NewSet()
	for rows.Next() {
		var raw string
		var w float64
		if err := rows.Scan(&raw, &w); err != nil {
			return nil, errors.Wrap(err, "failed to scan ballot")
		}
		var r ballot.Ranking
		if err := json.Unmarshal([]byte(raw), &r); err != nil {
			return nil, errors.Wrapf(err, "failed to decode ranking: %s", raw)
		}
		if err := set.Add(r, w); err != nil {
			return nil, errors.Wrap(err, "stored ballot is invalid")
		}
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "failed to iterate ballots")
	}
	if set.Len() == 0 {
		return nil, errors.Wrapf(ballot.ErrNoBallots, "election: %s", electionID)
	}
	return set, nil
}

// DeleteElection removes an election with its ballots and results.
func DeleteElection(db *sql.DB, name string) error {
	e, err := GetElection(db, name)
	if err != nil {
		return err
	}

	tx, err := db.Begin()
	if err != nil {
		return errors.Wrap(err, "failed to begin transaction")
	}
	if err := deleteElection(tx, db, e.ID); err != nil {
		return rollback(tx, errors.Wrapf(err, "failed to delete election: %s", name))
	}
	return errors.Wrap(tx.Commit(), "failed to commit transaction")
}

// deleteElection removes the results, ballots and row of an election
// within tx.
func deleteElection(tx *sql.Tx, db *sql.DB, id string) error {
	for _, q := range []string{deleteResultsSQL, deleteBallotsSQL, deleteElectionSQL} {
		if _, err := tx.Exec(rebind(db, q), id); err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanElection(s scanner) (*Election, error) {
	e := &Election{}
	var created string
	if err := s.Scan(&e.ID, &e.Name, &e.Source, &e.Ballots, &e.Candidates, &e.Votes, &created); err != nil {
		return nil, err
	}
	e.CreatedAt = parseTime(created)
	return e, nil
}

func rollback(tx *sql.Tx, err error) error {
	if rbErr := tx.Rollback(); rbErr != nil {
		return errors.Wrapf(err, "rollback failed: %v", rbErr)
	}
	return err
}
