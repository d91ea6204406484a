package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"go.uber.org/zap"

	_ "users-crud/docs"
	"users-crud/internal/adapter/gin/handler"
	"users-crud/internal/adapter/gin/middleware"
)

// Options controls optional router features.
type Options struct {
	ServiceName    string
	SwaggerEnabled bool
	// RateLimiter is nil when rate limiting is disabled.
	RateLimiter *middleware.RateLimiter
}

// SetupRouter configures and returns a Gin router with all routes and middleware
func SetupRouter(userHandler *handler.UserHandler, opts Options, log *zap.Logger) *gin.Engine {
	router := gin.New()

	// Global middleware
	router.Use(middleware.Recovery(log))
	router.Use(middleware.Logger(log))
	router.Use(middleware.CORS())
	if opts.RateLimiter != nil {
		router.Use(opts.RateLimiter.Middleware())
	}

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": opts.ServiceName,
		})
	})

	if opts.SwaggerEnabled {
		router.GET("/swagger/*any", gin.WrapH(httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json"))))
	}

	api := router.Group("/api")
	{
		users := api.Group("/users")
		{
			users.GET("", userHandler.ListUsers)
			users.POST("", userHandler.CreateUser)
			users.PUT("", userHandler.UpdateUser)
			users.DELETE("", userHandler.DeleteUser)
		}
	}

	return router
}
