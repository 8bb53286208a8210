package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/lexiday/lexiday-api/internal/api/shared"
)

// UserIDHeader carries the authenticated user's ID, set by the gateway in
// front of this service. Authentication itself happens upstream.
const UserIDHeader = "X-User-ID"

// IdentityMiddleware extracts the user ID from the gateway header and places
// it in the request context for handlers.
func IdentityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(UserIDHeader)
		if raw == "" {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "User identity required")
			return
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			shared.RespondWithError(w, r, http.StatusUnauthorized, "Invalid user identity")
			return
		}

		ctx := context.WithValue(r.Context(), shared.UserIDContextKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}
