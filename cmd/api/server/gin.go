package server

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	ginhandler "users-crud/internal/adapter/gin/handler"
	"users-crud/internal/adapter/gin/middleware"
	ginrouter "users-crud/internal/adapter/gin/router"
	"users-crud/internal/config"
)

// SetupGinServer creates and configures the Gin REST API server
func SetupGinServer(
	cfg *config.Config,
	handler *ginhandler.UserHandler,
	rateLimiter *middleware.RateLimiter,
	l *zap.Logger,
) *http.Server {
	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := ginrouter.SetupRouter(handler, ginrouter.Options{
		ServiceName:    cfg.Logger.ServiceName,
		SwaggerEnabled: cfg.App.SwaggerEnabled,
		RateLimiter:    rateLimiter,
	}, l)

	addr := ":" + cfg.App.HTTPPort
	l.Info("Gin REST API configured",
		zap.String("address", addr),
		zap.Bool("rate_limit", rateLimiter != nil),
		zap.Bool("swagger", cfg.App.SwaggerEnabled),
	)

	return &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 2 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
}
