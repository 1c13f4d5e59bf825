package http

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/avolkov/profilekeeper/internal/middleware"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// NewRouter constructs and returns an HTTP handler that serves the profile
// sync API. It applies CORS, JSON content-type enforcement, request logging
// and API-key authentication, and mounts the profile endpoints under /api.
//
// Routes:
//
//	GET  /ping         → liveness probe (no auth)
//	GET  /api/profile  → profileHandler.Profile
//	POST /api/profile  → updateHandler.Update
func NewRouter(
	profileHandler *ProfileHandler,
	updateHandler *UpdateHandler,
	apiKey string,
	logger *zap.Logger,
) http.Handler {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "X-API-Key"},
		MaxAge:         300,
	}))

	// Only allow requests with Content-Type: application/json
	r.Use(chiMiddleware.AllowContentType("application/json"))

	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	// Keep unregistered callers out; identity itself is resolved upstream
	r.Use(middleware.APIKey(apiKey))

	r.Get("/ping", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("pong"))
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/profile", profileHandler.Profile)
		r.Post("/profile", updateHandler.Update)
	})

	return r
}
