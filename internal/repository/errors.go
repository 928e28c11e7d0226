package repository

import (
	"errors"
	"fmt"
)

// Common errors for store access.
var (
	ErrTooManyRows   = errors.New("result set exceeds row limit")
	ErrUnknownDriver = errors.New("unknown database driver")
)

// DataAccessError reports any failure to read from the relational store:
// connection, acquisition, query, scan, timeout or row-limit failures all
// collapse into this one kind.
type DataAccessError struct {
	Op  string
	Err error
}

func (e *DataAccessError) Error() string {
	if e.Err == nil {
		return e.Op
	}
	if e.Op == "" {
		return e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

func (e *DataAccessError) Unwrap() error {
	return e.Err
}

// dataAccessError wraps err unless it already is a DataAccessError.
func dataAccessError(op string, err error) error {
	var dae *DataAccessError
	if errors.As(err, &dae) {
		return err
	}
	return &DataAccessError{Op: op, Err: err}
}

func tooManyRows(limit int) error {
	return fmt.Errorf("%w: more than %d rows", ErrTooManyRows, limit)
}
