/*
server.go - HTTP router and middleware configuration

PURPOSE:
  Configures the HTTP router (chi), middleware stack, and route definitions.
  This is the wiring layer that connects URLs to handlers.

MIDDLEWARE STACK:
  1. Logger:     Request logging
  2. Recoverer:  Panic recovery (500 instead of crash)
  3. RequestID:  Unique ID per request for tracing
  4. CORS:       Cross-origin requests for the dashboard

ROUTE GROUPS:
  /api/assignments/*    Snapshot records
  /api/members/*        Per-member risk and HR-event queries
  /api/summaries        Classified member list
  /api/report           Report contract
  /api/cross-verify     Verification groups
  /api/matrix           Settlement-system pair matrix
  /api/ruleset          Active ruleset
  /api/snapshots        Report archive
  /api/scenarios/*      Demo scenarios

SECURITY NOTE:
  No authentication middleware. All endpoints are public.

SEE ALSO:
  - handlers.go: Handler implementations
  - cmd/server/main.go: Server startup
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// DefaultCORSOrigins is used when no origins are configured.
var DefaultCORSOrigins = []string{"http://localhost:5173", "http://localhost:8080"}

// NewRouter creates a new router with all routes configured.
func NewRouter(h *Handler, corsOrigins []string) *chi.Mux {
	if len(corsOrigins) == 0 {
		corsOrigins = DefaultCORSOrigins
	}

	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "ruleset": h.Ruleset().Version})
	})

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Assignment routes
		r.Route("/assignments", func(r chi.Router) {
			r.Get("/", h.ListAssignments)
			r.Post("/", h.CreateAssignment)
			r.Post("/import", h.ImportAssignments)
			r.Get("/{id}", h.GetAssignment)
			r.Delete("/{id}", h.DeleteAssignment)
		})

		// Member routes
		r.Route("/members", func(r chi.Router) {
			r.Get("/{id}/summary", h.GetMemberSummary)
			r.Get("/{id}/affected-projects", h.GetAffectedProjects)
		})

		// Risk views
		r.Get("/summaries", h.ListSummaries)
		r.Get("/report", h.GetReport)
		r.Get("/cross-verify", h.GetCrossVerify)
		r.Get("/matrix", h.GetMatrix)

		// Ruleset routes
		r.Get("/ruleset", h.GetRuleset)
		r.Put("/ruleset", h.UpdateRuleset)

		// Snapshot routes
		r.Route("/snapshots", func(r chi.Router) {
			r.Get("/", h.ListSnapshots)
			r.Post("/", h.CreateSnapshot)
		})

		// Scenario routes
		r.Route("/scenarios", func(r chi.Router) {
			r.Get("/", h.ListScenarios)
			r.Get("/current", h.GetCurrentScenario)
			r.Post("/load", h.LoadScenario)
		})
	})

	return r
}
