package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, DriverMySQL, cfg.DB.Driver)
	assert.Equal(t, "3306", cfg.DB.Port)
	assert.True(t, cfg.DB.TLS)
	assert.Equal(t, StrategyPerRequest, cfg.DB.ConnStrategy)
	assert.Equal(t, "8080", cfg.App.HTTPPort)
	assert.False(t, cfg.App.ReportMissing)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, "http://localhost:8080", cfg.Client.BaseURL)
	assert.NoError(t, cfg.Validate())
}

func TestLoadConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	content := "DB_HOST=file-host\nDB_NAME=file-db\nHTTP_PORT=9000\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "app.env"), []byte(content), 0o600))

	t.Setenv("DB_HOST", "env-host")
	t.Setenv("DB_TLS", "false")
	t.Setenv("USERS_REPORT_MISSING", "true")

	cfg, err := LoadConfig(dir)
	require.NoError(t, err)

	assert.Equal(t, "env-host", cfg.DB.Host)
	assert.Equal(t, "file-db", cfg.DB.Name)
	assert.Equal(t, "9000", cfg.App.HTTPPort)
	assert.False(t, cfg.DB.TLS)
	assert.True(t, cfg.App.ReportMissing)
}

func TestLoadConfig_ProductionLoggerDefaults(t *testing.T) {
	t.Setenv("APP_ENV", "production")

	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logger.Level)
	assert.Equal(t, "json", cfg.Logger.Format)
	assert.True(t, cfg.Logger.EnableSampling)
}

func TestConfig_Validate(t *testing.T) {
	valid := func() *Config {
		cfg, err := LoadConfig(t.TempDir())
		require.NoError(t, err)
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:    "unknown driver",
			mutate:  func(c *Config) { c.DB.Driver = "oracle" },
			wantErr: "unsupported DB_DRIVER",
		},
		{
			name:    "missing host",
			mutate:  func(c *Config) { c.DB.Host = "" },
			wantErr: "DB_HOST is required",
		},
		{
			name:    "non numeric port",
			mutate:  func(c *Config) { c.DB.Port = "abc" },
			wantErr: "DB_PORT must be numeric",
		},
		{
			name:    "unknown strategy",
			mutate:  func(c *Config) { c.DB.ConnStrategy = "shared" },
			wantErr: "unsupported DB_CONN_STRATEGY",
		},
		{
			name:    "rate limit without redis",
			mutate:  func(c *Config) { c.RateLimit.Enabled = true },
			wantErr: "requires REDIS_ENABLED",
		},
		{
			name: "sqlite needs no host",
			mutate: func(c *Config) {
				c.DB.Driver = DriverSQLite
				c.DB.Host = ""
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestDatabaseConfig_DSN(t *testing.T) {
	c := DatabaseConfig{Host: "db", Port: "5432", User: "u", Password: "p", Name: "users", TLS: true, TLSCAFile: "/etc/ca.pem"}
	assert.Equal(t, "postgres://u:p@db:5432/users?sslmode=verify-full&sslrootcert=%2Fetc%2Fca.pem", c.DSN())

	c.TLS = false
	assert.Equal(t, "postgres://u:p@db:5432/users?sslmode=disable", c.DSN())
}

func TestDatabaseConfig_DSN_EscapesCredentials(t *testing.T) {
	tests := []struct {
		name     string
		user     string
		password string
	}{
		{"space", "app", "s3cret pass"},
		{"quote and equals", "app", `it's=x`},
		{"url delimiters", "app@corp", "p@ss:w/rd?#"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DatabaseConfig{Host: "db", Port: "5432", User: tt.user, Password: tt.password, Name: "users"}

			parsed, err := pgx.ParseConfig(c.DSN())
			require.NoError(t, err)
			assert.Equal(t, tt.user, parsed.User)
			assert.Equal(t, tt.password, parsed.Password)
			assert.Equal(t, "db", parsed.Host)
			assert.Equal(t, uint16(5432), parsed.Port)
			assert.Equal(t, "users", parsed.Database)
		})
	}
}
