package cli

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/mchmarny/alphavote/pkg/ballot"
	"github.com/mchmarny/alphavote/pkg/data"
	"github.com/mchmarny/alphavote/pkg/election"
)

// RunRequest carries the election config of an API run. Zero values fall
// back to the configured ones; Unbounded removes the alpha ceiling.
type RunRequest struct {
	Winners   int      `json:"winners,omitempty"`
	Alpha     *float64 `json:"alpha,omitempty"`
	MaxAlpha  *float64 `json:"max_alpha,omitempty"`
	Unbounded bool     `json:"unbounded,omitempty"`
	Matrix    bool     `json:"matrix,omitempty"`
	Save      bool     `json:"save,omitempty"`
}

// ResolveRequest resolves ballots that are not stored.
type ResolveRequest struct {
	RunRequest
	Ballots []*ballot.DocumentBallot `json:"ballots"`
}

// ElectionDetail is a stored election with its ballots.
type ElectionDetail struct {
	*data.Election
	Ballots []*ballot.DocumentBallot `json:"ballot_list"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (r *RunRequest) config(base election.Config) election.Config {
	cfg := base
	if r.Winners != 0 {
		cfg.Winners = r.Winners
	}
	if r.Alpha != nil {
		cfg.Alpha = *r.Alpha
	}
	if r.MaxAlpha != nil {
		cfg.MaxAlpha = *r.MaxAlpha
	}
	if r.Unbounded {
		cfg.MaxAlpha = election.Infinity
	}
	return cfg
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, serverMaxBodyBytes)).Decode(v)
	if err == nil || errors.Is(err, io.EOF) {
		return true
	}
	writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
	return false
}

// runStatus maps election errors to HTTP status codes.
func runStatus(err error) int {
	switch {
	case errors.Is(err, data.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, election.ErrInvalidConfig),
		errors.Is(err, election.ErrNotEnoughCandidates),
		errors.Is(err, ballot.ErrNoBallots):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func electionsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		db, err := cfg.DB()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database unavailable")
			return
		}
		list, err := data.ListElections(db)
		if err != nil {
			slog.Error("failed to list elections", "error", err)
			writeError(w, http.StatusInternalServerError, "error listing elections")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func electionAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		db, err := cfg.DB()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database unavailable")
			return
		}

		e, err := data.GetElection(db, name)
		if err != nil {
			writeError(w, runStatus(err), err.Error())
			return
		}
		set, err := data.GetBallots(db, e.ID)
		if err != nil {
			slog.Error("failed to load ballots", "election", name, "error", err)
			writeError(w, http.StatusInternalServerError, "error loading ballots")
			return
		}

		writeJSON(w, http.StatusOK, &ElectionDetail{
			Election: e,
			Ballots:  ballot.NewRecord(set).Ballots,
		})
	}
}

func resultsAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		limit := queryParamInt(r, "limit", resultLimitDefault)
		if limit <= 0 || limit > resultLimitMax {
			limit = resultLimitMax
		}

		db, err := cfg.DB()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database unavailable")
			return
		}

		e, err := data.GetElection(db, name)
		if err != nil {
			writeError(w, runStatus(err), err.Error())
			return
		}
		list, err := data.ListResults(db, e.ID, limit)
		if err != nil {
			slog.Error("failed to list results", "election", name, "error", err)
			writeError(w, http.StatusInternalServerError, "error listing results")
			return
		}
		writeJSON(w, http.StatusOK, list)
	}
}

func runAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req RunRequest
		if !decodeBody(w, r, &req) {
			return
		}

		db, err := cfg.DB()
		if err != nil {
			writeError(w, http.StatusInternalServerError, "database unavailable")
			return
		}

		rep, err := runStoredElection(db, r.PathValue("name"), req.config(cfg.Config.Election()), req.Matrix, req.Save)
		if err != nil {
			writeError(w, runStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func resolveAPIHandler(cfg *appConfig) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ResolveRequest
		if !decodeBody(w, r, &req) {
			return
		}

		set, err := (&ballot.DocumentRecord{Ballots: req.Ballots}).Set()
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		rep, _, err := runElection(set, req.config(cfg.Config.Election()), req.Matrix)
		if err != nil {
			writeError(w, runStatus(err), err.Error())
			return
		}
		writeJSON(w, http.StatusOK, rep)
	}
}

func queryParamInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return i
}
