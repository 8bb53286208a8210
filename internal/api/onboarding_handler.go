package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/api/shared"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/service"
)

// OnboardingHandler handles onboarding HTTP requests.
type OnboardingHandler struct {
	onboardingService *service.OnboardingService
	validator         *validator.Validate
	logger            *slog.Logger
}

// NewOnboardingHandler creates a new OnboardingHandler.
func NewOnboardingHandler(onboardingService *service.OnboardingService, log *slog.Logger) *OnboardingHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for OnboardingHandler")
	}
	return &OnboardingHandler{
		onboardingService: onboardingService,
		validator:         validator.New(),
		logger:            log.With(slog.String("component", "onboarding_handler")),
	}
}

// CompleteOnboarding handles POST /onboarding requests.
func (h *OnboardingHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	var req OnboardingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid onboarding request")
		return
	}

	selections := make([]service.TopicSelection, 0, len(req.Topics))
	for _, t := range req.Topics {
		selections = append(selections, service.TopicSelection{
			Name:   t.Name,
			Weight: t.Weight,
		})
	}

	user, err := h.onboardingService.CompleteOnboarding(r.Context(), userID, req.Timezone, selections)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Info("onboarding completed",
		slog.String("user_id", userID.String()),
		slog.Int("topics", len(selections)))
	shared.RespondWithJSON(w, r, http.StatusOK, userToResponse(user))
}
