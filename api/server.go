/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. RequestID:  Unique ID per request, copied onto every log line
  2. Logger:     Structured request logging (logrus)
  3. Recoverer:  Panic recovery (500 instead of crash)
  4. CORS:       Cross-origin requests for the consolidation UI
  5. JSON:       Default response content type

ROUTE GROUPS:
  /api/health             Liveness
  /api/policy/*           Policy tables in force
  /api/cycles/*           Resolved key dates
  /api/rosters/*          Roster evaluation
  /api/sessions/*         Stored roster results

SECURITY NOTE:
  No authentication middleware. Deploy behind the installation's
  authenticating proxy; rosters carry personal data.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/warp/promotion-engine/log"
)

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, allowedOrigins []string) *chi.Mux {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(log.NewStructuredLogger(h.Log))
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", h.Health)

		r.Route("/policy", func(r chi.Router) {
			r.Get("/", h.GetPolicy)
			r.Get("/grades", h.ListGrades)
		})

		r.Get("/cycles/{grade}/{year}/dates", h.GetCycleDates)

		r.Post("/rosters/evaluate", h.EvaluateRoster)

		r.Route("/sessions", func(r chi.Router) {
			r.Get("/{id}", h.GetSession)
			r.Delete("/{id}", h.DeleteSession)
		})
	})

	return r
}
