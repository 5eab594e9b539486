package postgres

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/accounts/internal/accounts/store/drivers/sqldb"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
)

const uniqueViolation = "23505"

// Dialect is the Postgres (pgx) flavour of the shared SQL repository.
var Dialect = sqldb.Dialect{
	DriverName:        "pgx",
	IsUniqueViolation: isUniqueViolation,
	Migrate:           migrateUp,
}

// NewStore connects to the Postgres database at url.
func NewStore(ctx context.Context, url string) (*sqldb.Store, error) {
	return sqldb.Open(ctx, Dialect, url)
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
