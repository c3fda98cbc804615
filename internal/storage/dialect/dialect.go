// Package dialect abstracts the SQL differences between the embedded SQLite
// store and a hosted Postgres backend.
package dialect

import (
	"fmt"
	"strings"
)

// Dialect captures the per-database knobs the sqldb store needs.
type Dialect interface {
	// Name returns the dialect name ("sqlite" or "postgres").
	Name() string

	// DriverName returns the database/sql driver to open.
	DriverName() string

	// Rebind converts ? placeholders to the dialect's parameter format.
	Rebind(query string) string

	// TimestampType returns the SQL column type for timestamps.
	TimestampType() string

	// InitStatements returns statements run once after connecting
	// (PRAGMAs for SQLite, nothing for Postgres).
	InitStatements() []string
}

// FromDriverName resolves a dialect from a configured driver name.
func FromDriverName(driver string) (Dialect, error) {
	switch strings.ToLower(driver) {
	case "sqlite", "sqlite3":
		return sqliteDialect{}, nil
	case "postgres", "pq":
		return postgresDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string       { return "sqlite" }
func (sqliteDialect) DriverName() string { return "sqlite" }

func (sqliteDialect) Rebind(query string) string {
	return query // SQLite uses ?
}

func (sqliteDialect) TimestampType() string { return "TIMESTAMP" }

func (sqliteDialect) InitStatements() []string {
	return []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	}
}

type postgresDialect struct{}

func (postgresDialect) Name() string       { return "postgres" }
func (postgresDialect) DriverName() string { return "postgres" }

func (postgresDialect) Rebind(query string) string {
	var b strings.Builder
	idx := 1
	for _, ch := range query {
		if ch == '?' {
			fmt.Fprintf(&b, "$%d", idx)
			idx++
		} else {
			b.WriteRune(ch)
		}
	}
	return b.String()
}

func (postgresDialect) TimestampType() string { return "TIMESTAMP WITH TIME ZONE" }

func (postgresDialect) InitStatements() []string { return nil }
