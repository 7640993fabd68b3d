package orm

import "errors"

var (
	// ErrNotFound is returned when a query expects exactly one row but finds none.
	ErrNotFound = errors.New("orm: not found")

	// ErrMissingWhere guards Delete against wiping a whole table.
	ErrMissingWhere = errors.New("orm: Delete without WHERE clause is not allowed")

	// ErrMissingPK is returned by Update when the row carries no primary key value.
	ErrMissingPK = errors.New("orm: primary key value is required for Update")
)
