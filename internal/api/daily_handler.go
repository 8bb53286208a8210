package api

import (
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/api/shared"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/service"
)

// DailyHandler handles daily word HTTP requests.
type DailyHandler struct {
	dailyService *service.DailyService
	logger       *slog.Logger
}

// NewDailyHandler creates a new DailyHandler.
func NewDailyHandler(dailyService *service.DailyService, log *slog.Logger) *DailyHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for DailyHandler")
	}
	return &DailyHandler{
		dailyService: dailyService,
		logger:       log.With(slog.String("component", "daily_handler")),
	}
}

// GetDailyWord handles GET /daily requests. The first request of the user's
// local day selects and records the word; repeats return the same word.
func (h *DailyHandler) GetDailyWord(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		log.Warn("user ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return
	}

	word, err := h.dailyService.GetNextDailyWord(r.Context(), userID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("daily word served",
		slog.String("user_id", userID.String()),
		slog.String("term_id", word.Term.ID.String()),
		slog.String("type", string(word.Delivery.Type)))
	shared.RespondWithJSON(w, r, http.StatusOK, dailyWordToResponse(word))
}
