package router

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"

	"users-crud/internal/adapter/cache"
	"users-crud/internal/adapter/db/connector"
	"users-crud/internal/adapter/db/sqlrepo"
	"users-crud/internal/adapter/gin/handler"
	"users-crud/internal/adapter/gin/middleware"
	"users-crud/internal/adapter/repository/cached"
	"users-crud/internal/config"
	"users-crud/internal/usecase/user"
)

type stack struct {
	reportMissing bool
	redis         *redis.Client
	limiter       *middleware.RateLimiter
}

func newServer(t *testing.T, s stack) *gin.Engine {
	gin.SetMode(gin.TestMode)
	log := zaptest.NewLogger(t)

	path := filepath.Join(t.TempDir(), "users.db")
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&sqlrepo.UserSchema{}))
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	provider, err := connector.NewProvider(t.Context(), config.DatabaseConfig{
		Driver:       config.DriverSQLite,
		SQLitePath:   path,
		ConnStrategy: config.StrategyPerRequest,
	}, connector.Options{Logger: log})
	require.NoError(t, err)
	t.Cleanup(func() { _ = provider.Close() })

	var repo user.Repository = sqlrepo.NewUserRepo(provider, log)
	if s.redis != nil {
		repo = cached.NewUserRepository(repo, cache.NewRedisUserListCache(s.redis, time.Minute, log), log)
	}

	uc := user.New(repo, log, user.Options{ReportMissing: s.reportMissing})
	return SetupRouter(handler.NewUserHandler(uc, log), Options{
		ServiceName:    "users-crud",
		SwaggerEnabled: true,
		RateLimiter:    s.limiter,
	}, log)
}

func call(t *testing.T, r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func listUsers(t *testing.T, r http.Handler) []handler.UserResponse {
	t.Helper()
	w := call(t, r, http.MethodGet, "/api/users", "")
	require.Equal(t, http.StatusOK, w.Code)
	var users []handler.UserResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &users))
	return users
}

func TestUsersAPI_AliceScenario(t *testing.T) {
	for name, s := range map[string]stack{
		"database only": {},
		"with cache":    {redis: redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})},
	} {
		t.Run(name, func(t *testing.T) {
			r := newServer(t, s)

			assert.Empty(t, listUsers(t, r))

			w := call(t, r, http.MethodPost, "/api/users", `{"name":"Alice","email":"a@x.io"}`)
			require.Equal(t, http.StatusOK, w.Code)
			var created handler.UserResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
			assert.Positive(t, created.ID)
			assert.Equal(t, "Alice", created.Name)
			assert.Equal(t, "a@x.io", created.Email)

			assert.Equal(t, []handler.UserResponse{created}, listUsers(t, r))

			w = call(t, r, http.MethodPut, "/api/users", `{"id":`+itoa(created.ID)+`,"name":"Alicia","email":"a@x.io"}`)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"message":"Updated successfully"}`, w.Body.String())

			assert.Equal(t, []handler.UserResponse{{ID: created.ID, Name: "Alicia", Email: "a@x.io"}}, listUsers(t, r))

			w = call(t, r, http.MethodDelete, "/api/users", `{"id":`+itoa(created.ID)+`}`)
			require.Equal(t, http.StatusOK, w.Code)
			assert.JSONEq(t, `{"message":"Deleted successfully"}`, w.Body.String())

			assert.Empty(t, listUsers(t, r))

			w = call(t, r, http.MethodDelete, "/api/users", `{"id":`+itoa(created.ID)+`}`)
			assert.Equal(t, http.StatusOK, w.Code, "deleting twice succeeds twice")
		})
	}
}

func TestUsersAPI_UniqueIDs(t *testing.T) {
	r := newServer(t, stack{})

	ids := map[int64]bool{}
	for i := 0; i < 3; i++ {
		w := call(t, r, http.MethodPost, "/api/users", `{"name":"Same","email":"same@x.io"}`)
		require.Equal(t, http.StatusOK, w.Code)
		var u handler.UserResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &u))
		assert.False(t, ids[u.ID])
		ids[u.ID] = true
	}
	assert.Len(t, listUsers(t, r), 3)
}

func TestUsersAPI_MissingRows(t *testing.T) {
	t.Run("silent by default", func(t *testing.T) {
		r := newServer(t, stack{})

		w := call(t, r, http.MethodPut, "/api/users", `{"id":42,"name":"Ghost","email":"g@x.io"}`)
		assert.Equal(t, http.StatusOK, w.Code)
		w = call(t, r, http.MethodDelete, "/api/users", `{"id":42}`)
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Empty(t, listUsers(t, r))
	})

	t.Run("reported", func(t *testing.T) {
		r := newServer(t, stack{reportMissing: true})

		w := call(t, r, http.MethodPut, "/api/users", `{"id":42,"name":"Ghost","email":"g@x.io"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
		w = call(t, r, http.MethodDelete, "/api/users", `{"id":42}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestUsersAPI_BadInput(t *testing.T) {
	r := newServer(t, stack{})

	tests := []struct {
		method string
		body   string
		code   string
	}{
		{http.MethodPost, `{"name":"","email":"a@x.io"}`, "validation_error"},
		{http.MethodPost, `{"name":"Alice"}`, "validation_error"},
		{http.MethodPost, `not json`, "invalid_request"},
		{http.MethodPut, `{"name":"Alice","email":"a@x.io"}`, "validation_error"},
		{http.MethodDelete, `{"id":0}`, "validation_error"},
	}

	for _, tt := range tests {
		w := call(t, r, tt.method, "/api/users", tt.body)
		assert.Equal(t, http.StatusBadRequest, w.Code, "%s %s", tt.method, tt.body)
		var resp handler.ErrorResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		assert.Equal(t, tt.code, resp.Error)
	}
	assert.Empty(t, listUsers(t, r))
}

func TestUsersAPI_RateLimited(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: miniredis.RunT(t).Addr()})
	limiter := middleware.NewRateLimiter(client, middleware.RateLimiterConfig{RequestsPerSecond: 0.001, BurstCapacity: 2}, zaptest.NewLogger(t))
	r := newServer(t, stack{limiter: limiter})

	assert.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusOK, call(t, r, http.MethodGet, "/api/users", "").Code)
	assert.Equal(t, http.StatusTooManyRequests, call(t, r, http.MethodGet, "/api/users", "").Code)
}

func TestHealthAndSwagger(t *testing.T) {
	r := newServer(t, stack{})

	w := call(t, r, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"users-crud"}`, w.Body.String())

	w = call(t, r, http.MethodGet, "/swagger/doc.json", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"/api/users"`)
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}
