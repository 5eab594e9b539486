package sqlite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqldb"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Dialect is the modernc SQLite flavour of the shared SQL repository.
var Dialect = sqldb.Dialect{
	DriverName:        "sqlite",
	IsUniqueViolation: isUniqueViolation,
	Migrate:           migrateUp,
}

// NewStore opens the SQLite database at path. WAL and a busy timeout let
// concurrent requests queue on the single writer instead of failing, and
// transactions take the write lock up front.
func NewStore(ctx context.Context, path string) (*sqldb.Store, error) {
	s, err := sqldb.Open(ctx, Dialect, DSN(path))
	if err != nil {
		return nil, err
	}

	// Every connection to :memory: is its own database.
	if path == ":memory:" {
		s.DB().SetMaxOpenConns(1)
	}
	return s, nil
}

// DSN builds the modernc connection string for path.
func DSN(path string) string {
	if path == ":memory:" {
		return "file::memory:?_pragma=busy_timeout(5000)&_txlock=immediate"
	}
	return fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_txlock=immediate", path)
}

func isUniqueViolation(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		return strings.Contains(se.Error(), "UNIQUE")
	}
	return false
}
