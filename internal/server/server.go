package server

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lazypower/fibday/internal/engine"
)

// Pinger is implemented by stores that can report their own health.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Server is the fibday HTTP API server.
type Server struct {
	engine  *engine.Engine
	pinger  Pinger
	router  chi.Router
	version string
	started time.Time
}

// New creates a new Server around eng. pinger may be nil when the store has
// no health check.
func New(eng *engine.Engine, pinger Pinger, version string) *Server {
	s := &Server{
		engine:  eng,
		pinger:  pinger,
		version: version,
		started: time.Now(),
	}
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", s.handleHealth)

		// counter surface
		r.Post("/activate", s.handleActivate)
		r.Get("/counter", s.handleCounter)
		r.Post("/milestone/decision", s.handleDecision)
		r.Get("/summary", s.handleSummary)

		// notes surface
		r.Get("/notes", s.handleListNotes)
		r.Post("/notes", s.handleAddNote)
		r.Put("/notes/{index}", s.handleEditNoteAt)
		r.Delete("/notes/{index}", s.handleRemoveNoteAt)
		r.Put("/notes/id/{id}", s.handleEditNote)
		r.Delete("/notes/id/{id}", s.handleRemoveNote)
	})

	r.Handle("/metrics", promhttp.HandlerFor(s.engine.Registry(), promhttp.HandlerOpts{}))

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeOK := true
	if s.pinger != nil {
		if err := s.pinger.PingContext(r.Context()); err != nil {
			storeOK = false
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"version": s.version,
		"uptime":  time.Since(s.started).Seconds(),
		"store":   storeOK,
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}
