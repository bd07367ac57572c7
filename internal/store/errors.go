package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist in the caller's scope.
	// It is the same whether the record is absent or owned by someone else.
	ErrNotFound = errors.New("record not found")

	// ErrInvalidScope is returned when a scoped operation is called without an owner.
	ErrInvalidScope = errors.New("owner scope required")
)
