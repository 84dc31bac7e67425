package persistence

import "errors"

var (
	// ErrNotFound is returned when the requested record does not exist.
	ErrNotFound = errors.New("persistence: not found")
	// ErrDuplicate is returned when a primary or unique key already exists.
	ErrDuplicate = errors.New("persistence: duplicate record")
	// ErrForeignKey is returned when a booking references a missing employee or space.
	ErrForeignKey = errors.New("persistence: foreign key violation")
	// ErrConstraintViolation is returned for CHECK and NOT NULL failures.
	ErrConstraintViolation = errors.New("persistence: constraint violation")
	// ErrBusy is returned when the database stays locked past the retry budget.
	ErrBusy = errors.New("persistence: database busy")
	// ErrInconsistentDataset is returned when one employee or space ID carries
	// different attributes in the same dataset.
	ErrInconsistentDataset = errors.New("persistence: inconsistent dataset")
	// ErrCountMismatch is returned when post-load verification finds a table
	// whose row count differs from what was inserted.
	ErrCountMismatch = errors.New("persistence: row count mismatch")
)
