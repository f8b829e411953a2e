package api

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/iconidentify/tikgrab/internal/api/handler"
	mw "github.com/iconidentify/tikgrab/internal/api/middleware"
)

// NewRouter creates the HTTP router with all routes configured. An empty
// apiKey leaves the v1 routes unauthenticated.
func NewRouter(
	downloadHandler *handler.DownloadHandler,
	searchHandler *handler.SearchHandler,
	healthHandler *handler.HealthHandler,
	apiKey string,
) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.CleanPath)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(mw.Logger)
	r.Use(mw.Recovery)
	r.Use(middleware.Timeout(15 * time.Minute))

	// Health endpoints (no auth)
	r.Get("/health", healthHandler.Live)
	r.Get("/ready", healthHandler.Ready)

	// API v1
	r.Route("/api/v1", func(r chi.Router) {
		if apiKey != "" {
			r.Use(mw.APIKeyAuth(apiKey))
		}

		r.Post("/downloads", downloadHandler.Submit)
		r.Get("/downloads", downloadHandler.List)
		r.Get("/downloads/{jobID}", downloadHandler.Get)

		r.Get("/search", searchHandler.Search)
	})

	return r
}
