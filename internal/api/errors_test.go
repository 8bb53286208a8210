package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/generation"
	"github.com/lexiday/lexiday-api/internal/service"
	"github.com/lexiday/lexiday-api/internal/store"
)

func TestMapErrorToStatusCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"rate limit", generation.ErrRateLimitExceeded, http.StatusTooManyRequests},
		{"cost ceiling", generation.ErrCostCeilingExceeded, http.StatusServiceUnavailable},
		{"generation unavailable", generation.ErrGenerationUnavailable, http.StatusServiceUnavailable},
		{"user not found", store.ErrUserNotFound, http.StatusNotFound},
		{"topic not found", store.ErrTopicNotFound, http.StatusNotFound},
		{"term not found", store.ErrTermNotFound, http.StatusNotFound},
		{"wordbank entry not found", store.ErrWordbankEntryNotFound, http.StatusNotFound},
		{"delivery not found", store.ErrDeliveryNotFound, http.StatusNotFound},
		{"duplicate", store.ErrDuplicate, http.StatusConflict},
		{"invalid entity", store.ErrInvalidEntity, http.StatusBadRequest},
		{"invalid action", domain.ErrInvalidAction, http.StatusBadRequest},
		{"invalid tier", domain.ErrInvalidTier, http.StatusBadRequest},
		{"invalid timezone", domain.ErrUserTimezoneInvalid, http.StatusBadRequest},
		{"no topics selected", service.ErrNoTopicsSelected, http.StatusBadRequest},
		{"onboarding incomplete", service.ErrOnboardingIncomplete, http.StatusBadRequest},
		{"no subscribed topics", service.ErrNoSubscribedTopics, http.StatusBadRequest},
		{"unknown error", errors.New("boom"), http.StatusInternalServerError},
		{"wrapped error keeps mapping", fmt.Errorf("context: %w", store.ErrUserNotFound), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapErrorToStatusCode(tt.err))
		})
	}
}

func TestGetSafeErrorMessage(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil error", nil, "An unexpected error occurred"},
		{"rate limit", generation.ErrRateLimitExceeded, "Generation rate limit exceeded, try again later"},
		{"generation unavailable", generation.ErrGenerationUnavailable, "Word generation is temporarily unavailable"},
		{"user not found", store.ErrUserNotFound, "User not found"},
		{"invalid action", domain.ErrInvalidAction, "Invalid wordbank action"},
		{"onboarding incomplete", service.ErrOnboardingIncomplete, "Complete onboarding before requesting a daily word"},
		{"internal detail hidden", errors.New("pq: connection refused"), "An unexpected error occurred"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, GetSafeErrorMessage(tt.err))
		})
	}
}
