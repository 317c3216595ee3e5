package store

import "errors"

var (
	// ErrNotFound is returned when a record does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateKey is returned when a unique or primary key already exists.
	ErrDuplicateKey = errors.New("duplicate key")
	// ErrForeignKeyViolation is returned when a course references an unknown user.
	ErrForeignKeyViolation = errors.New("foreign key violation")
	// ErrTransport wraps any other failure talking to the backing store.
	ErrTransport = errors.New("store unavailable")
)
