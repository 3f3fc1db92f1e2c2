// Package server provides the HTTP API for triggering runs and browsing reports.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/commodities/internal/pipeline"
	"github.com/aristath/commodities/internal/reports"
	"github.com/aristath/commodities/internal/services"
)

// RunExecutor executes a pipeline run and persists its report
type RunExecutor interface {
	Execute(ctx context.Context, mode pipeline.Mode) (*services.RunResult, error)
}

// ReportStore reads archived reports
type ReportStore interface {
	Get(ctx context.Context, id string) (*pipeline.Envelope, error)
	List(ctx context.Context, limit int) ([]reports.Summary, error)
}

// Config holds server configuration
type Config struct {
	Log         zerolog.Logger
	Port        int
	Runs        RunExecutor
	Reports     ReportStore
	Metrics     http.Handler                    // Optional; serves /metrics
	HealthCheck func(ctx context.Context) error // Optional; checked by /health
	RunTimeout  time.Duration                   // Zero uses the default of 10 minutes
}

// Server represents the HTTP server
type Server struct {
	router      *chi.Mux
	server      *http.Server
	log         zerolog.Logger
	port        int
	runs        RunExecutor
	reports     ReportStore
	metrics     http.Handler
	healthCheck func(ctx context.Context) error
	runTimeout  time.Duration
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	runTimeout := cfg.RunTimeout
	if runTimeout <= 0 {
		runTimeout = 10 * time.Minute
	}

	s := &Server{
		router:      chi.NewRouter(),
		log:         cfg.Log.With().Str("component", "server").Logger(),
		port:        cfg.Port,
		runs:        cfg.Runs,
		reports:     cfg.Reports,
		metrics:     cfg.Metrics,
		healthCheck: cfg.HealthCheck,
		runTimeout:  runTimeout,
	}

	s.setupMiddleware()
	s.setupRoutes()

	s.server = &http.Server{
		Addr:        fmt.Sprintf(":%d", cfg.Port),
		Handler:     s.router,
		ReadTimeout: 15 * time.Second,
		// Runs are synchronous; the write deadline has to outlast them
		WriteTimeout: runTimeout + 15*time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics)
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Route("/runs", func(r chi.Router) {
			r.Use(middleware.Timeout(s.runTimeout))
			r.Post("/discovery", s.handleRunDiscovery)
			r.Post("/review", s.handleRunReview)
		})

		r.Route("/reports", func(r chi.Router) {
			r.Use(middleware.Timeout(30 * time.Second))
			r.Get("/", s.handleListReports)
			r.Get("/{id}", s.handleGetReport)
		})
	})
}

// Handler exposes the router, mainly for tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
