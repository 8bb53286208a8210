package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/api/shared"
	"github.com/lexiday/lexiday-api/internal/domain"
	"github.com/lexiday/lexiday-api/internal/platform/logger"
	"github.com/lexiday/lexiday-api/internal/service"
)

// WordbankHandler handles wordbank-related HTTP requests.
type WordbankHandler struct {
	wordbankService *service.WordbankService
	validator       *validator.Validate
	logger          *slog.Logger
}

// NewWordbankHandler creates a new WordbankHandler.
func NewWordbankHandler(wordbankService *service.WordbankService, log *slog.Logger) *WordbankHandler {
	if log == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for WordbankHandler")
	}
	return &WordbankHandler{
		wordbankService: wordbankService,
		validator:       validator.New(),
		logger:          log.With(slog.String("component", "wordbank_handler")),
	}
}

// GetEntry handles GET /wordbank/{termID} requests.
func (h *WordbankHandler) GetEntry(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, termID, ok := h.identifiers(w, r)
	if !ok {
		return
	}

	entry, err := h.wordbankService.GetEntry(r.Context(), userID, termID)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("wordbank entry served",
		slog.String("user_id", userID.String()),
		slog.String("term_id", termID.String()))
	shared.RespondWithJSON(w, r, http.StatusOK, entryToResponse(entry))
}

// SubmitAction handles POST /wordbank/{termID}/actions requests. It applies
// a review answer or lifecycle action and returns the entry's new state.
func (h *WordbankHandler) SubmitAction(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	userID, termID, ok := h.identifiers(w, r)
	if !ok {
		return
	}

	var req ActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if err := h.validator.Struct(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid action")
		return
	}

	action, err := domain.ParseWordbankAction(req.Action)
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid action")
		return
	}

	entry, err := h.wordbankService.HandleAction(r.Context(), userID, termID, action)
	if err != nil {
		shared.RespondWithErrorAndLog(w, r, MapErrorToStatusCode(err), GetSafeErrorMessage(err), err)
		return
	}

	log.Debug("wordbank action applied",
		slog.String("user_id", userID.String()),
		slog.String("term_id", termID.String()),
		slog.String("action", req.Action))
	shared.RespondWithJSON(w, r, http.StatusOK, entryToResponse(entry))
}

// identifiers pulls the authenticated user ID from the context and the term
// ID from the URL, writing the error response itself on failure.
func (h *WordbankHandler) identifiers(w http.ResponseWriter, r *http.Request) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := r.Context().Value(shared.UserIDContextKey).(uuid.UUID)
	if !ok || userID == uuid.Nil {
		shared.RespondWithError(w, r, http.StatusUnauthorized, "User ID not found or invalid")
		return uuid.Nil, uuid.Nil, false
	}

	termID, err := uuid.Parse(chi.URLParam(r, "termID"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid term ID")
		return uuid.Nil, uuid.Nil, false
	}

	return userID, termID, true
}
