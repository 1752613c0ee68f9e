package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/mnemohq/mnemo-api/internal/api"
	apiMiddleware "github.com/mnemohq/mnemo-api/internal/api/middleware"
)

// setupRouter creates and configures the application router with all routes
// and middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	studyHandler := api.NewStudyHandler(app.studyService, app.logger)
	authMiddleware := apiMiddleware.NewAuthMiddleware(app.jwtService)

	r.Route("/api", func(r chi.Router) {
		// Guest surface: opaque-token identity, no account required.
		r.Post("/guest/token", studyHandler.MintGuestToken)
		r.Group(func(r chi.Router) {
			r.Use(apiMiddleware.GuestIdentity)
			r.Mount("/guest/sessions", studyHandler.Routes())
		})

		// Authenticated surface.
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.Authenticate)
			r.Mount("/sessions", studyHandler.Routes())
		})
	})

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("Failed to write health check response", "error", err)
		}
	})

	return r
}
