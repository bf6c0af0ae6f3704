// Package server exposes the generation pipeline over HTTP.
//
// Routes:
//
//	GET  /healthz              liveness probe
//	POST /v1/validate          decode + normalize + validate a document
//	POST /v1/render            run the full pipeline, return artifacts
//	POST /v1/designs           validate and persist a document
//	GET  /v1/designs           list persisted designs
//	GET  /v1/designs/{id}      fetch one design
//	DELETE /v1/designs/{id}    delete one design
//
// Store routes respond 503 when the server runs without a store.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matzehuels/sketchlift/pkg/pipeline"
	"github.com/matzehuels/sketchlift/pkg/store"
)

// Config configures the HTTP server.
type Config struct {
	Addr   string
	Runner *pipeline.Runner
	Store  store.Store // optional
	Logger *log.Logger

	// MaxBodyBytes bounds request bodies. Zero means the default 4 MiB.
	MaxBodyBytes int64
}

const defaultMaxBody = 4 << 20

// Server is the HTTP front end.
type Server struct {
	cfg    Config
	logger *log.Logger
	http   *http.Server
}

// New creates a server. The runner is required.
func New(cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = log.Default()
	}
	if cfg.MaxBodyBytes == 0 {
		cfg.MaxBodyBytes = defaultMaxBody
	}
	s := &Server{cfg: cfg, logger: cfg.Logger}
	s.http = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Routes builds the router. Exposed for tests.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Route("/v1", func(r chi.Router) {
		r.Post("/validate", s.handleValidate)
		r.Post("/render", s.handleRender)
		r.Route("/designs", func(r chi.Router) {
			r.Post("/", s.handleCreateDesign)
			r.Get("/", s.handleListDesigns)
			r.Get("/{id}", s.handleGetDesign)
			r.Delete("/{id}", s.handleDeleteDesign)
		})
	})
	return r
}

// ListenAndServe blocks until the context is cancelled or the listener
// fails, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", s.cfg.Addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}

// requestLogger logs each request with method, path, status and timing.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start))
	})
}
