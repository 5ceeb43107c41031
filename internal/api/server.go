package api

import (
	"log/slog"
	"net/http"

	"github.com/dgallion1/md2notion/internal/config"
	"github.com/dgallion1/md2notion/internal/notion"
	"github.com/dgallion1/md2notion/internal/pipeline"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// StatsSource exposes client request stats.
type StatsSource interface {
	Stats() *notion.Stats
}

// Server is the HTTP API server for md2notion.
type Server struct {
	router       chi.Router
	orchestrator *pipeline.Orchestrator
	stats        StatsSource
	log          *slog.Logger
	cfg          config.Config
}

// NewServer creates and configures the HTTP server.
func NewServer(orch *pipeline.Orchestrator, stats StatsSource, log *slog.Logger, cfg config.Config) *Server {
	s := &Server{
		orchestrator: orch,
		stats:        stats,
		log:          log,
		cfg:          cfg,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	// Public endpoints.
	r.Get("/health", s.handleHealth)

	// Authenticated endpoints.
	r.Group(func(r chi.Router) {
		r.Use(AuthMiddleware(s.cfg.APIKey, s.log))

		r.Post("/api/convert", s.handleConvert)
		r.Post("/api/convert/inline", s.handleConvertInline)

		r.Post("/api/pages", s.handlePublish)
		r.Post("/api/pages/batch", s.handleBatchPublish)
		r.Get("/api/pages/{jobID}/status", s.handlePublishStatus)

		r.Get("/api/stats/notion", s.handleNotionStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":      "ok",
		"queue_depth": s.orchestrator.QueueDepth(),
	})
}
