package store

import (
	"errors"
	"fmt"
)

// Common store errors used across all store implementations.
var (
	// ErrNotFound is returned when a requested entity does not exist in the
	// store. This is the generic version of the entity-specific not found
	// errors.
	ErrNotFound = errors.New("entity not found")

	// ErrDuplicate is returned when an operation would create a duplicate
	// of a unique entity.
	ErrDuplicate = errors.New("entity already exists")

	// ErrInvalidEntity is returned when an entity fails validation before
	// being stored. Check the wrapped error for specific validation details.
	ErrInvalidEntity = errors.New("invalid entity")

	// ErrTransactionFailed is returned when a database transaction fails
	// to commit or when an operation within a transaction fails.
	ErrTransactionFailed = errors.New("transaction failed")

	// Entity-specific "not found" errors

	// ErrUserNotFound indicates that the requested user does not exist.
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTopicNotFound indicates that the requested topic does not exist.
	ErrTopicNotFound = fmt.Errorf("%w: topic", ErrNotFound)

	// ErrTermNotFound indicates that the requested term does not exist.
	ErrTermNotFound = fmt.Errorf("%w: term", ErrNotFound)

	// ErrWordbankEntryNotFound indicates that the requested wordbank entry
	// does not exist.
	ErrWordbankEntryNotFound = fmt.Errorf("%w: wordbank entry", ErrNotFound)

	// ErrDeliveryNotFound indicates that the requested delivery does not exist.
	ErrDeliveryNotFound = fmt.Errorf("%w: delivery", ErrNotFound)
)

// IsNotFoundError checks if the error is any kind of "not found" error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsDuplicateError checks if the error is any kind of "duplicate" error.
func IsDuplicateError(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
