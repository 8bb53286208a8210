// Package api provides HTTP handlers for the API.
package api

import (
	"errors"
	"net/http"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/generation"
	"github.com/lexiday/lexiday-api/internal/service"
	"github.com/lexiday/lexiday-api/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Quota and cost guardrails
	case errors.Is(err, generation.ErrRateLimitExceeded):
		return http.StatusTooManyRequests

	case errors.Is(err, generation.ErrCostCeilingExceeded),
		errors.Is(err, generation.ErrGenerationUnavailable):
		return http.StatusServiceUnavailable

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTopicNotFound),
		errors.Is(err, store.ErrTermNotFound),
		errors.Is(err, store.ErrWordbankEntryNotFound),
		errors.Is(err, store.ErrDeliveryNotFound):
		return http.StatusNotFound

	// Conflict errors
	case errors.Is(err, store.ErrDuplicate):
		return http.StatusConflict

	// Bad request errors
	case errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrInvalidAction),
		errors.Is(err, domain.ErrInvalidTier),
		errors.Is(err, domain.ErrUserTimezoneInvalid),
		errors.Is(err, service.ErrNoTopicsSelected),
		errors.Is(err, service.ErrOnboardingIncomplete),
		errors.Is(err, service.ErrNoSubscribedTopics):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message based
// on the error type.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, generation.ErrRateLimitExceeded):
		return "Generation rate limit exceeded, try again later"

	case errors.Is(err, generation.ErrCostCeilingExceeded),
		errors.Is(err, generation.ErrGenerationUnavailable):
		return "Word generation is temporarily unavailable"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTopicNotFound):
		return "Topic not found"

	case errors.Is(err, store.ErrTermNotFound):
		return "Term not found"

	case errors.Is(err, store.ErrWordbankEntryNotFound):
		return "Wordbank entry not found"

	case errors.Is(err, store.ErrDeliveryNotFound):
		return "Delivery not found"

	case errors.Is(err, store.ErrDuplicate):
		return "Resource already exists"

	case errors.Is(err, domain.ErrInvalidAction):
		return "Invalid wordbank action"

	case errors.Is(err, domain.ErrUserTimezoneInvalid):
		return "Invalid timezone"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, service.ErrNoTopicsSelected):
		return "At least one topic must be selected"

	case errors.Is(err, service.ErrOnboardingIncomplete):
		return "Complete onboarding before requesting a daily word"

	case errors.Is(err, service.ErrNoSubscribedTopics):
		return "Subscribe to at least one topic first"

	default:
		return "An unexpected error occurred"
	}
}
