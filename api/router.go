package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/cors"
)

// NewRouter installs middleware and registers the HTTP routes. ws, when non-nil,
// is mounted at /ws outside the request timeout.
func NewRouter(h *Handler, ws http.HandlerFunc) chi.Router {
	r := chi.NewRouter()

	// --- middleware ---
	r.Use(chimw.RequestID) // add X-Request-ID
	r.Use(chimw.RealIP)    // set RemoteAddr from X-Forwarded-For etc.
	r.Use(chimw.Recoverer) // recover from panics
	r.Use(cors.New(cors.Options{
		AllowedOrigins: h.Config.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodOptions},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	}).Handler)

	r.Get("/healthz", h.Health)

	r.Route("/api", func(r chi.Router) {
		r.Use(chimw.Timeout(10 * time.Second))
		r.Get("/catalog", h.Catalog)
		r.Get("/metrics", h.Metrics)
	})

	if ws != nil {
		r.Get("/ws", ws)
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "not_found", "path": r.URL.Path})
	})

	return r
}
