package postgresql

import (
	"errors"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const (
	uniqueViolationCode     = "23505"
	foreignKeyViolationCode = "23503"
)

// The stdlib pgx driver surfaces server errors as *pgconn.PgError while lib/pq
// connections surface *pq.Error; both carry the SQLSTATE code.
func sqlState(err error) string {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

func isUniqueViolation(err error) bool {
	return sqlState(err) == uniqueViolationCode
}

func isForeignKeyViolation(err error) bool {
	return sqlState(err) == foreignKeyViolationCode
}
