package driver

import (
	"database/sql/driver"
	"errors"
)

// ErrLastInsertIDNotSupported is returned by Result.LastInsertId.
var ErrLastInsertIDNotSupported = errors.New("s2http: LastInsertId is not supported")

// Result reports the affected row count of an exec statement.
type Result struct {
	rowsAffected int64
}

// LastInsertId is not reported by the HTTP API.
func (r Result) LastInsertId() (int64, error) {
	return 0, ErrLastInsertIDNotSupported
}

// RowsAffected returns the server's rowsAffected value.
func (r Result) RowsAffected() (int64, error) {
	return r.rowsAffected, nil
}

var _ driver.Result = Result{}
