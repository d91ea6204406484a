package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"users-crud/cmd/api/infrastructure"
	"users-crud/internal/adapter/cache"
	"users-crud/internal/adapter/db/connector"
	"users-crud/internal/adapter/db/sqlrepo"
	ginhandler "users-crud/internal/adapter/gin/handler"
	"users-crud/internal/adapter/gin/middleware"
	"users-crud/internal/adapter/repository/cached"
	"users-crud/internal/config"
	"users-crud/internal/usecase/user"
	redisclient "users-crud/pkg/redis"
)

// Container holds all application dependencies
type Container struct {
	Config      *config.Config
	Logger      *zap.Logger
	DB          connector.Provider
	RedisClient *redisclient.Client
	UserUC      user.Usecase
	RateLimiter *middleware.RateLimiter
	GinHandler  *ginhandler.UserHandler
}

// NewContainer creates and initializes all application dependencies.
// Redis, and with it the list cache and rate limiter, is only set up when
// REDIS_ENABLED is true.
func NewContainer(ctx context.Context, cfg *config.Config, l *zap.Logger) (*Container, error) {
	// Validate configuration before initializing any dependencies
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	c := &Container{Config: cfg, Logger: l}

	db, err := infrastructure.NewDatabase(ctx, cfg, l)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	var repo user.Repository = sqlrepo.NewUserRepo(db, l)

	if cfg.Redis.Enabled {
		rdb, err := infrastructure.NewRedisClient(ctx, cfg, l)
		if err != nil {
			_ = c.Close()
			return nil, fmt.Errorf("failed to initialize Redis: %w", err)
		}
		c.RedisClient = rdb

		userCache := cache.NewRedisUserListCache(
			rdb.Client,
			time.Duration(cfg.Redis.CacheTTL)*time.Second,
			l,
		)
		repo = cached.NewUserRepository(repo, userCache, l)

		if cfg.RateLimit.Enabled {
			c.RateLimiter = middleware.NewRateLimiter(
				rdb.Client,
				middleware.RateLimiterConfig{
					RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
					BurstCapacity:     cfg.RateLimit.BurstCapacity,
				},
				l,
			)
		}
	}

	c.UserUC = user.New(repo, l, user.Options{ReportMissing: cfg.App.ReportMissing})
	c.GinHandler = ginhandler.NewUserHandler(c.UserUC, l)

	return c, nil
}

// Close closes all resources held by the container
func (c *Container) Close() error {
	var errs []error

	if c.RedisClient != nil {
		if err := c.RedisClient.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close Redis: %w", err))
		}
	}

	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close database: %w", err))
		}
	}

	return errors.Join(errs...)
}
