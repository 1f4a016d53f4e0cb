package database

import (
	"errors"

	"github.com/lib/pq"
)

// pqDuplicateErr reports whether err is a Postgres unique constraint
// violation (SQLSTATE 23505).
func pqDuplicateErr(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}
