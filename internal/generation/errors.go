package generation

import "errors"

// Common errors returned by the generation package
var (
	// ErrRateLimitExceeded is returned when a user has exhausted their
	// tier's request quota for the current reset period. Not retried
	// automatically; the caller must wait for the period to reset.
	ErrRateLimitExceeded = errors.New("generation rate limit exceeded")

	// ErrCostCeilingExceeded is returned for non-cached calls while the
	// cost monitor's emergency mode is set.
	ErrCostCeilingExceeded = errors.New("cost ceiling exceeded")

	// ErrGenerationUnavailable is returned when the upstream call failed
	// after all retries.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrInvalidResponse is returned when the model response cannot be
	// parsed or is malformed.
	ErrInvalidResponse = errors.New("invalid response from language model")

	// ErrContentBlocked is returned when the model blocks the content due
	// to safety filters.
	ErrContentBlocked = errors.New("content blocked by language model safety filters")

	// ErrTransientFailure is returned for temporary upstream errors that
	// might resolve on retry.
	ErrTransientFailure = errors.New("transient error during generation")

	// ErrInvalidConfig is returned when the generator configuration is invalid.
	ErrInvalidConfig = errors.New("invalid generator configuration")
)
