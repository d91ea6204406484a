package router

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"users-crud/internal/adapter/db/connector"
	"users-crud/internal/adapter/db/sqlrepo"
	"users-crud/internal/adapter/gin/handler"
	"users-crud/internal/config"
	"users-crud/internal/usecase/user"
)

func benchmarkRouter(b *testing.B, strategy string) http.Handler {
	b.Helper()
	gin.SetMode(gin.ReleaseMode)
	log := zap.NewNop()

	path := filepath.Join(b.TempDir(), "users.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	if err != nil {
		b.Fatal(err)
	}
	if err := db.AutoMigrate(&sqlrepo.UserSchema{}); err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 50; i++ {
		db.Create(&sqlrepo.UserSchema{Name: "User", Email: "user@example.com"})
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}

	provider, err := connector.NewProvider(b.Context(), config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   path,
		ConnStrategy: strategy,
		MaxOpenConns: 4,
		MaxIdleConns: 4,
	}, connector.Options{Logger: log})
	if err != nil {
		b.Fatal(err)
	}
	b.Cleanup(func() { _ = provider.Close() })

	uc := user.New(sqlrepo.NewUserRepo(provider, log), log, user.Options{})
	return SetupRouter(handler.NewUserHandler(uc, log), Options{}, log)
}

func benchmarkList(b *testing.B, strategy string) {
	r := benchmarkRouter(b, strategy)
	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/users", nil))
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func benchmarkCreate(b *testing.B, strategy string) {
	r := benchmarkRouter(b, strategy)
	body := []byte(`{"name":"Bench","email":"bench@example.com"}`)
	b.ReportAllocs()
	b.ResetTimer()

	for b.Loop() {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/users", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)
		if w.Code != http.StatusOK {
			b.Fatalf("unexpected status %d", w.Code)
		}
	}
}

func BenchmarkList_PerRequest(b *testing.B) { benchmarkList(b, config.StrategyPerRequest) }
func BenchmarkList_Pooled(b *testing.B) { benchmarkList(b, config.StrategyPooled) }
func BenchmarkCreate_PerRequest(b *testing.B) { benchmarkCreate(b, config.StrategyPerRequest) }
func BenchmarkCreate_Pooled(b *testing.B) { benchmarkCreate(b, config.StrategyPooled) }
