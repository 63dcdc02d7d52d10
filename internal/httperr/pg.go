package httperr

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
)

// Postgres error codes that mean a concurrent writer won the race. The
// losing transaction was rolled back cleanly and the request is safe to
// retry as-is.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

func IsSerializationConflict(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == pgSerializationFailure || pgErr.Code == pgDeadlockDetected
}
