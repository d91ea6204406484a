// Package connector opens database connections for the repository layer.
//
// A Provider hands out a *gorm.DB per operation. Two strategies exist:
// PerRequest opens and closes a dedicated connection around every
// operation, Pooled shares a single connection pool for the process.
package connector

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/glebarez/sqlite"
	gomysql "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
	gormmysql "gorm.io/driver/mysql"
	pgdriver "gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"users-crud/internal/config"
)

// Provider hands out database handles scoped to a single operation.
type Provider interface {
	// Acquire returns a handle bound to ctx and a release func that must be
	// called once the operation is done.
	Acquire(ctx context.Context) (*gorm.DB, func() error, error)

	// Close releases any resources held by the provider itself.
	Close() error
}

// ErrClosed is returned by Acquire after the provider has been closed.
var ErrClosed = errors.New("connection provider closed")

// DialectorFunc builds a fresh gorm.Dialector. It is called once per opened
// connection pool, so implementations must not share mutable state.
type DialectorFunc func() (gorm.Dialector, error)

// Options configures a provider.
type Options struct {
	Logger     *zap.Logger
	GormLogger gormlogger.Interface
}

// NewProvider builds the provider selected by cfg.ConnStrategy.
func NewProvider(ctx context.Context, cfg config.DatabaseConfig, opts Options) (Provider, error) {
	dial, err := NewDialectorFunc(cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.ConnStrategy {
	case config.StrategyPerRequest:
		return NewPerRequest(dial, opts), nil
	case config.StrategyPooled:
		return NewPooled(ctx, dial, PoolSettings{
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: time.Duration(cfg.ConnMaxLifetime) * time.Second,
			ConnMaxIdleTime: time.Duration(cfg.ConnMaxIdleTime) * time.Second,
		}, opts)
	default:
		return nil, fmt.Errorf("unsupported connection strategy %q", cfg.ConnStrategy)
	}
}

// NewDialectorFunc returns a DialectorFunc for the configured driver.
func NewDialectorFunc(cfg config.DatabaseConfig) (DialectorFunc, error) {
	switch cfg.Driver {
	case config.DriverMySQL:
		mc, err := MySQLConfig(cfg)
		if err != nil {
			return nil, err
		}
		return func() (gorm.Dialector, error) {
			c, err := gomysql.NewConnector(mc)
			if err != nil {
				return nil, fmt.Errorf("failed to create mysql connector: %w", err)
			}
			return gormmysql.New(gormmysql.Config{
				Conn:                      sql.OpenDB(c),
				SkipInitializeWithVersion: true,
			}), nil
		}, nil
	case config.DriverPostgres:
		dsn := cfg.DSN()
		return func() (gorm.Dialector, error) {
			return pgdriver.Open(dsn), nil
		}, nil
	case config.DriverSQLite:
		path := cfg.SQLitePath
		return func() (gorm.Dialector, error) {
			return sqlite.Open(path), nil
		}, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

// MySQLConfig translates cfg into a driver config. Affected-row counts are
// reported as matched rows so an update that rewrites identical values still
// counts as a hit.
func MySQLConfig(cfg config.DatabaseConfig) (*gomysql.Config, error) {
	mc := gomysql.NewConfig()
	mc.User = cfg.User
	mc.Passwd = cfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(cfg.Host, cfg.Port)
	mc.DBName = cfg.Name
	mc.ParseTime = true
	mc.ClientFoundRows = true

	if cfg.TLS {
		tc, err := TLSConfig(cfg.Host, cfg.TLSCAFile)
		if err != nil {
			return nil, err
		}
		mc.TLS = tc
	}

	return mc, nil
}

func openGorm(ctx context.Context, dial DialectorFunc, opts Options) (*gorm.DB, *sql.DB, error) {
	d, err := dial()
	if err != nil {
		return nil, nil, err
	}

	gormCfg := &gorm.Config{
		SkipDefaultTransaction: true,
		DisableAutomaticPing:   true,
	}
	if opts.GormLogger != nil {
		gormCfg.Logger = opts.GormLogger
	}

	db, err := gorm.Open(d, gormCfg)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = sqlDB.Close()
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return db, sqlDB, nil
}

func loggerOrNop(l *zap.Logger) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l
}
