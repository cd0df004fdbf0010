package data

import (
	"database/sql"
	"embed"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/lib/pq"
	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

const (
	DataFileName  string = "data.db"
	schemaVersion int    = 1

	driverSQLite   = "sqlite"
	driverPostgres = "postgres"

	timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

	insertVersionSQL = `INSERT INTO schema_version (version) VALUES (?)
		ON CONFLICT (version) DO NOTHING
	`
)

var (
	//go:embed sql/*
	f embed.FS

	errDBNotInitialized = errors.New("database not initialized")

	// ErrNotFound is returned when a named record does not exist.
	ErrNotFound = errors.New("not found")
)

// Init creates the schema in the database at dsn if it does not exist yet.
// The dsn is either a SQLite file path or a postgres:// URL.
func Init(dsn string) error {
	if dsn == "" {
		return errors.New("dsn not specified")
	}

	db, err := GetDB(dsn)
	if err != nil {
		return errors.Wrapf(err, "error opening database: %s", redact(dsn))
	}
	defer db.Close()

	slog.Debug("creating db schema", "driver", driverName(dsn))
	b, err := f.ReadFile("sql/ddl.sql")
	if err != nil {
		return errors.Wrap(err, "failed to read the schema creation file")
	}
	if _, err := db.Exec(string(b)); err != nil {
		return errors.Wrapf(err, "failed to create database schema in: %s", redact(dsn))
	}
	if _, err := db.Exec(rebind(db, insertVersionSQL), schemaVersion); err != nil {
		return errors.Wrap(err, "failed to record schema version")
	}
	slog.Debug("db schema ready", "version", schemaVersion)

	return nil
}

// GetDB opens the database at dsn with the matching driver.
func GetDB(dsn string) (*sql.DB, error) {
	conn, err := sql.Open(driverName(dsn), dsn)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open database: %s", redact(dsn))
	}
	return conn, nil
}

func driverName(dsn string) string {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		return driverPostgres
	}
	return driverSQLite
}

func isPostgres(db *sql.DB) bool {
	_, ok := db.Driver().(*pq.Driver)
	return ok
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func rebind(db *sql.DB, query string) string {
	if !isPostgres(db) {
		return query
	}

	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteString("$" + strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// redact hides the password of a connection URL.
func redact(dsn string) string {
	if driverName(dsn) != driverPostgres {
		return dsn
	}
	at := strings.LastIndex(dsn, "@")
	scheme := strings.Index(dsn, "://")
	if at < 0 || scheme < 0 {
		return dsn
	}
	creds := dsn[scheme+3 : at]
	if i := strings.Index(creds, ":"); i >= 0 {
		return dsn[:scheme+3] + creds[:i] + ":***" + dsn[at:]
	}
	return dsn
}

// Contains checks for val in list
func Contains[T comparable](list []T, val T) bool {
	if list == nil {
		return false
	}
	for _, item := range list {
		if item == val {
			return true
		}
	}
	return false
}

func now() string {
	return time.Now().UTC().Format(timeFormat)
}

func parseTime(v string) time.Time {
	t, err := time.Parse(timeFormat, v)
	if err != nil {
		slog.Debug("invalid stored time", "value", v, "error", err)
		return time.Time{}
	}
	return t
}
