package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lexiday/lexiday-api/internal/api"
	apiMiddleware "github.com/lexiday/lexiday-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	dailyHandler := api.NewDailyHandler(app.dailyService, app.logger)
	wordbankHandler := api.NewWordbankHandler(app.wordbankService, app.logger)
	onboardingHandler := api.NewOnboardingHandler(app.onboardingService, app.logger)

	r.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.IdentityMiddleware)

			r.Post("/onboarding", onboardingHandler.CompleteOnboarding)

			r.Get("/daily", dailyHandler.GetDailyWord)

			r.Get("/wordbank/{termID}", wordbankHandler.GetEntry)
			r.Post("/wordbank/{termID}/actions", wordbankHandler.SubmitAction)
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
