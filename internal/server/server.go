// Package server owns the HTTP listener: routing, middleware, and
// graceful shutdown.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/ghostfetch/internal/app"
	"github.com/ternarybob/ghostfetch/internal/common"
)

// Server wraps the HTTP server and its routes.
type Server struct {
	httpServer *http.Server
	logger     arbor.ILogger
}

// New builds the server over the application's handlers.
func New(config *common.Config, application *app.App, logger arbor.ILogger) *Server {
	mux := http.NewServeMux()
	registerRoutes(mux, application)

	addr := fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)
	handler := chain(mux, logger,
		recoveryMiddleware,
		corsMiddleware,
		loggingMiddleware,
	)

	return &Server{
		httpServer: &http.Server{
			Addr:    addr,
			Handler: handler,
			// No WriteTimeout: sync fetches and event streams outlive
			// any sane fixed value.
			ReadHeaderTimeout: 10 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		logger: logger,
	}
}

// Start blocks serving requests until Shutdown is called.
func (s *Server) Start() error {
	s.logger.Info().Str("addr", s.httpServer.Addr).Msg("HTTP server listening")
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server failed: %w", err)
	}
	return nil
}

// Shutdown drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("HTTP server shutting down")
	return s.httpServer.Shutdown(ctx)
}
