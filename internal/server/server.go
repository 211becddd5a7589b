package server

import (
	"log/slog"
	"net/http"

	"github.com/claude/mapty/internal/tracker"
	"github.com/claude/mapty/internal/view"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server holds dependencies for HTTP handlers.
type Server struct {
	store  *tracker.Store
	view   *view.List
	log    *slog.Logger
	apiKey string
	zoom   int
	router chi.Router
}

// New creates a new Server with all routes configured. When apiKey is empty
// mutating endpoints are open; tsnet or the network boundary handles access.
func New(store *tracker.Store, list *view.List, apiKey string, zoom int, log *slog.Logger) *Server {
	s := &Server{
		store:  store,
		view:   list,
		log:    log,
		apiKey: apiKey,
		zoom:   zoom,
		router: chi.NewRouter(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", s.handleHealth)
		r.Get("/view", s.handleView)
		r.Get("/workouts", s.handleListWorkouts)
		r.Get("/workouts/{id}", s.handleGetWorkout)
		r.Get("/workouts/{id}/center", s.handleCenterOn)

		// Mutations (API key required when configured)
		r.Group(func(r chi.Router) {
			if s.apiKey != "" {
				r.Use(APIKeyAuth(s.apiKey))
			}
			r.Post("/workouts", s.handleCreateWorkout)
			r.Delete("/workouts", s.handleClearWorkouts)
			r.Patch("/workouts/{id}", s.handleUpdateWorkout)
			r.Delete("/workouts/{id}", s.handleRemoveWorkout)
			r.Post("/workouts/{id}/activate", s.handleActivateWorkout)
		})
	})

	s.router.Handle("/metrics", promhttp.Handler())
}

// SetMCP mounts an MCP transport handler at /mcp.
func (s *Server) SetMCP(h http.Handler) {
	s.router.Handle("/mcp", h)
}
