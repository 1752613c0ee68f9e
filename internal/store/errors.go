package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is a generic version of the entity-specific not found
	// errors (e.g., ErrSessionNotFound, ErrDeckNotFound).
	ErrNotFound = errors.New("entity not found")

	// ErrDeckNotFound is returned when a deck does not exist.
	ErrDeckNotFound = errors.New("deck not found")

	// ErrSessionNotFound is returned when a study session does not exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionFinalized is returned when a write targets a session that is
	// already completed or abandoned.
	ErrSessionFinalized = errors.New("session already finalized")

	// ErrDuplicate is returned when an operation would create a duplicate of
	// a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")
)

// MapError wraps a low-level database error with a store sentinel so callers
// can use errors.Is without knowing the driver.
func MapError(sentinel, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %v", sentinel, err)
}
