package http

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/davidbz/promptician/internal/config"
	"github.com/davidbz/promptician/internal/http/middleware"
	"github.com/davidbz/promptician/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	srv         *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
) *Server {
	s := &Server{
		config:      *cfg,
		handler:     handler,
		middlewares: middlewares,
	}

	// Long-lived event streams end when shutdown begins.
	baseCtx, cancel := context.WithCancel(context.Background())

	// Built up front so Shutdown is safe before Start.
	s.srv = &http.Server{
		BaseContext:       func(net.Listener) context.Context { return baseCtx },
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           s.Routes(),
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
	}
	s.srv.RegisterOnShutdown(cancel)

	return s
}

// Routes returns the API routes wrapped in the middleware chain.
func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/session", s.handler.HandleSession)
	mux.HandleFunc("PUT /v1/session/fields", s.handler.HandleFields)
	mux.HandleFunc("POST /v1/session/submit", s.handler.HandleSubmit)
	mux.HandleFunc("POST /v1/session/reset", s.handler.HandleReset)
	mux.HandleFunc("POST /v1/session/save", s.handler.HandleSave)
	mux.HandleFunc("POST /v1/session/load", s.handler.HandleLoad)
	mux.HandleFunc("POST /v1/session/rating", s.handler.HandleToggleRating)
	mux.HandleFunc("POST /v1/session/star", s.handler.HandleToggleStar)
	mux.HandleFunc("PUT /v1/session/evaluation", s.handler.HandleEvaluation)
	mux.HandleFunc("GET /v1/session/events", s.handler.HandleEvents)
	mux.HandleFunc("GET /v1/records", s.handler.HandleRecords)
	mux.HandleFunc("GET /v1/records/{id}", s.handler.HandleRecord)
	mux.HandleFunc("GET /v1/models", s.handler.HandleModels)
	mux.HandleFunc("GET /health", s.handler.HandleHealth)

	if s.middlewares == nil {
		return mux
	}
	return s.middlewares(mux)
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
