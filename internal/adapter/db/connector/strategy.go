package connector

import (
	"context"
	"database/sql"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PerRequest opens a dedicated single-connection pool on every Acquire and
// closes it on release. Nothing is shared between concurrent operations.
type PerRequest struct {
	dial   DialectorFunc
	opts   Options
	log    *zap.Logger
	closed atomic.Bool
}

// NewPerRequest creates a PerRequest provider.
func NewPerRequest(dial DialectorFunc, opts Options) *PerRequest {
	return &PerRequest{
		dial: dial,
		opts: opts,
		log:  loggerOrNop(opts.Logger),
	}
}

// Acquire opens a new connection and verifies it with a ping.
func (p *PerRequest) Acquire(ctx context.Context) (*gorm.DB, func() error, error) {
	if p.closed.Load() {
		return nil, nil, ErrClosed
	}

	db, sqlDB, err := openGorm(ctx, p.dial, p.opts)
	if err != nil {
		p.log.Error("failed to open per-request connection", zap.Error(err))
		return nil, nil, err
	}

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)

	release := func() error {
		return sqlDB.Close()
	}
	return db.WithContext(ctx), release, nil
}

// Close marks the provider closed. Connections already handed out stay
// valid until released.
func (p *PerRequest) Close() error {
	p.closed.Store(true)
	return nil
}

// PoolSettings configures a Pooled provider.
type PoolSettings struct {
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// Pooled shares one connection pool across all operations.
type Pooled struct {
	db    *gorm.DB
	sqlDB *sql.DB
	log   *zap.Logger
}

// NewPooled opens the shared pool and checks connectivity.
func NewPooled(ctx context.Context, dial DialectorFunc, settings PoolSettings, opts Options) (*Pooled, error) {
	log := loggerOrNop(opts.Logger)

	db, sqlDB, err := openGorm(ctx, dial, opts)
	if err != nil {
		return nil, err
	}

	sqlDB.SetMaxOpenConns(settings.MaxOpenConns)
	sqlDB.SetMaxIdleConns(settings.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(settings.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(settings.ConnMaxIdleTime)

	log.Info("database pool opened",
		zap.Int("max_open_conns", settings.MaxOpenConns),
		zap.Int("max_idle_conns", settings.MaxIdleConns),
		zap.Duration("conn_max_lifetime", settings.ConnMaxLifetime),
		zap.Duration("conn_max_idle_time", settings.ConnMaxIdleTime),
	)

	return &Pooled{db: db, sqlDB: sqlDB, log: log}, nil
}

// Acquire returns the shared pool bound to ctx. Release is a no-op.
func (p *Pooled) Acquire(ctx context.Context) (*gorm.DB, func() error, error) {
	return p.db.WithContext(ctx), func() error { return nil }, nil
}

// Close closes the shared pool.
func (p *Pooled) Close() error {
	p.log.Info("closing database pool")
	return p.sqlDB.Close()
}
