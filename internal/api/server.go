package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/voxsplit/voxsplit/pkg/logger"
)

// Server wraps the HTTP server with graceful shutdown
type Server struct {
	httpServer *http.Server
	logger     *logger.Logger
}

// NewServer creates a new API server
func NewServer(addr string, handler http.Handler, logger *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           handler,
			ReadHeaderTimeout: 10 * time.Second,
		},
		logger: logger.Named("api-server"),
	}
}

// Start starts the server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("Starting API server", logger.String("addr", s.httpServer.Addr))
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown stops the server gracefully
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down API server")
	return s.httpServer.Shutdown(ctx)
}
