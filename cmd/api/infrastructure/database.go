package infrastructure

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"users-crud/internal/adapter/db/connector"
	"users-crud/internal/config"
	"users-crud/pkg/logger"
)

// NewDatabase builds the connection provider selected by DB_CONN_STRATEGY.
// Under the per-request strategy nothing is dialed until the first request.
func NewDatabase(ctx context.Context, cfg *config.Config, l *zap.Logger) (connector.Provider, error) {
	gormLogger := logger.NewGormLogger(l, cfg.Logger.SlowQuerySeconds, cfg.Logger.Level)

	provider, err := connector.NewProvider(ctx, cfg.DB, connector.Options{
		Logger:     l,
		GormLogger: gormLogger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to set up database connector: %w", err)
	}

	l.Info("database connector ready",
		zap.String("driver", cfg.DB.Driver),
		zap.String("strategy", cfg.DB.ConnStrategy),
		zap.Bool("tls", cfg.DB.TLS),
	)

	return provider, nil
}
