// Package store holds the errors every persistence implementation reports,
// so domain code can branch on them without importing a driver.
package store

import "errors"

var (
	// ErrConflict is returned when a write violates a natural-key uniqueness
	// constraint. The surrounding transaction has been rolled back.
	ErrConflict = errors.New("record already exists")

	ErrNotFound = errors.New("record not found")
)
