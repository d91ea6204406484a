package server

import (
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	ginhandler "users-crud/internal/adapter/gin/handler"
	"users-crud/internal/adapter/gin/middleware"
	"users-crud/internal/config"
)

// Server struct holds all server dependencies
type Server struct {
	Config *config.Config
	Logger *zap.Logger
	HTTP   *http.Server
}

// New creates a new server instance
func New(cfg *config.Config, l *zap.Logger, handler *ginhandler.UserHandler, rateLimiter *middleware.RateLimiter) *Server {
	return &Server{
		Config: cfg,
		Logger: l,
		HTTP:   SetupGinServer(cfg, handler, rateLimiter, l),
	}
}

// Start serves HTTP until the server is shut down.
func (s *Server) Start() error {
	s.Logger.Info("HTTP API running", zap.String("address", s.HTTP.Addr))

	if err := s.HTTP.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to serve HTTP: %w", err)
	}
	return nil
}
