package domain

import "errors"

// Common domain errors used across the application.
var (
	// ErrValidation is returned when a domain entity fails validation.
	// This is often wrapped with a more specific error message.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidID is returned when an ID is malformed or invalid.
	ErrInvalidID = errors.New("invalid ID")

	// ErrInvalidTier is returned when a subscription tier is not one of the
	// known values.
	ErrInvalidTier = errors.New("invalid subscription tier")

	// ErrInvalidAction is returned when a wordbank action is not valid.
	ErrInvalidAction = errors.New("invalid wordbank action")

	// ErrInvalidDeliveryType is returned when a delivery type is not valid.
	ErrInvalidDeliveryType = errors.New("invalid delivery type")
)
