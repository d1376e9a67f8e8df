package storage

import "errors"

// Errors shared by every store implementation.
var (
	// ErrNotFound is returned when a requested record does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateKey is returned when inserting a fill, round, tick, or
	// candle whose key is already recorded. Trade history is immutable,
	// so inserts never overwrite.
	ErrDuplicateKey = errors.New("duplicate key: trade history is immutable")

	// ErrInvalidInput is returned when input validation fails.
	ErrInvalidInput = errors.New("invalid input")
)
