package sqlstore

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

// Dialect captures what differs between the supported SQL backends. Both
// accept $n placeholders and INSERT ... RETURNING.
type Dialect struct {
	// Name is the database/sql driver name
	Name string

	idColumn      string
	timestampType string
	isUnique      func(error) bool
}

var (
	// Postgres is the production dialect
	Postgres = &Dialect{
		Name:          "postgres",
		idColumn:      "BIGSERIAL PRIMARY KEY",
		timestampType: "TIMESTAMPTZ",
		isUnique: func(err error) bool {
			var pqErr *pq.Error
			return errors.As(err, &pqErr) && pqErr.Code == "23505"
		},
	}

	// SQLite is the local and test dialect
	SQLite = &Dialect{
		Name:          "sqlite3",
		idColumn:      "INTEGER PRIMARY KEY AUTOINCREMENT",
		timestampType: "TIMESTAMP",
		isUnique: func(err error) bool {
			var sqErr sqlite3.Error
			return errors.As(err, &sqErr) && sqErr.ExtendedCode == sqlite3.ErrConstraintUnique
		},
	}
)

// DialectFor returns the dialect registered under a driver name
func DialectFor(driver string) (*Dialect, error) {
	switch driver {
	case "postgres", "postgresql":
		return Postgres, nil
	case "sqlite3", "sqlite":
		return SQLite, nil
	}
	return nil, fmt.Errorf("unsupported storage driver %q", driver)
}

// IsUniqueViolation reports whether err was raised by a unique constraint
func (d *Dialect) IsUniqueViolation(err error) bool {
	return err != nil && d.isUnique(err)
}
