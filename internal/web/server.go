// Package web provides the HTTP API for uploads: synchronous validation and
// import, queued imports, the target list, health and metrics.
package web

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/JonMunkholm/bulkload/internal/config"
	"github.com/JonMunkholm/bulkload/internal/jobs"
	"github.com/JonMunkholm/bulkload/internal/metrics"
	"github.com/JonMunkholm/bulkload/internal/service"
	"github.com/JonMunkholm/bulkload/internal/web/middleware"
)

// Queue enqueues stored uploads for the worker. Satisfied by *jobs.Client.
type Queue interface {
	EnqueueImport(ctx context.Context, p jobs.ImportPayload) (string, error)
}

// Options holds the optional collaborators of a Server.
type Options struct {
	Queue    Queue               // nil disables the async endpoint
	Metrics  *metrics.Metrics    // nil disables upload metrics
	Gatherer prometheus.Gatherer // nil disables /metrics
}

// Server is the HTTP server for uploads.
type Server struct {
	cfg     *config.Config
	service *service.Service
	opts    Options
	router  *chi.Mux
	server  *http.Server
}

// NewServer creates a Server with its routes.
func NewServer(cfg *config.Config, svc *service.Service, opts Options) *Server {
	s := &Server{
		cfg:     cfg,
		service: svc,
		opts:    opts,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(chimw.RequestID)
	s.router.Use(chimw.RealIP)
	s.router.Use(middleware.Logger)
	s.router.Use(chimw.Recoverer)
	s.router.Use(securityHeaders)
}

func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)
	if s.opts.Gatherer != nil {
		s.router.Handle("/metrics", promhttp.HandlerFor(s.opts.Gatherer, promhttp.HandlerOpts{}))
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(chimw.Timeout(s.cfg.Server.RequestTimeout))
			r.Get("/targets", s.handleListTargets)
			r.Get("/uploads/status", s.handleUploadStatus)
		})

		// Uploads run under the upload timeout enforced by the service.
		r.Post("/upload/{target}", s.handleUpload)
		r.Post("/upload/{target}/async", s.handleUploadAsync)
	})
}

// Start listens on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

// writeJSON encodes v as JSON with the given status.
// Logs encoding errors since headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
