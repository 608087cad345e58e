package db

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// sqlStateUniqueViolation is the SQLSTATE Postgres reports when a row breaks a unique constraint.
const sqlStateUniqueViolation = "23505"

// isDuplicateEvent reports whether err means the event row is already stored.
func isDuplicateEvent(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == sqlStateUniqueViolation
}
