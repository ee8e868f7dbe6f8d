package main

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/loginapp/internal/config"
	"github.com/yourusername/loginapp/internal/logging"
	"github.com/yourusername/loginapp/internal/sessionstore"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Port:           "0",
		GinMode:        gin.TestMode,
		SessionSecret:  "test-secret",
		SessionCookie:  "session",
		SessionStore:   config.SessionStoreCookie,
		SessionMaxAge:  3600,
		DatabaseDriver: "sqlite",
		DatabaseDSN:    "file:" + filepath.Join(t.TempDir(), "app.db"),
		BcryptCost:     4,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

func newTestServer(t *testing.T, cfg *config.Config) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	service, db, err := setupAccounts(ctx, cfg, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	store, closeStore, err := setupSessionStore(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(closeStore)

	router, err := newRouter(cfg, zap.NewNop(), service, store)
	require.NoError(t, err)
	return router
}

func TestHealth(t *testing.T) {
	router := newTestServer(t, testConfig(t))

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok","service":"loginapp"}`, rec.Body.String())
	assert.NotEmpty(t, rec.Header().Get(logging.RequestIDHeader))
}

func TestCORSDisabledByDefault(t *testing.T) {
	router := newTestServer(t, testConfig(t))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://evil.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSAllowedOrigin(t *testing.T) {
	cfg := testConfig(t)
	cfg.CORSAllowedOrigins = "http://app.test"
	router := newTestServer(t, cfg)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://app.test")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "http://app.test", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestSetupSessionStoreRedis(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.SessionStore = config.SessionStoreRedis
	cfg.SessionRedisURL = "redis://" + mr.Addr() + "/0"

	store, closeStore, err := setupSessionStore(context.Background(), cfg)
	require.NoError(t, err)
	defer closeStore()

	_, ok := store.(*sessionstore.RedisStore)
	assert.True(t, ok)
}

func TestSetupSessionStoreRedisUnreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	cfg := testConfig(t)
	cfg.SessionStore = config.SessionStoreRedis
	cfg.SessionRedisURL = "redis://" + addr + "/0"

	_, _, err := setupSessionStore(context.Background(), cfg)
	assert.Error(t, err)
}

func TestLoginFlowWithRedisSessions(t *testing.T) {
	mr := miniredis.RunT(t)
	cfg := testConfig(t)
	cfg.SessionStore = config.SessionStoreRedis
	cfg.SessionRedisURL = "redis://" + mr.Addr() + "/0"
	router := newTestServer(t, cfg)

	form := url.Values{"name": {"Ada"}, "username": {"ada"}, "password": {"secret1"}}
	req := httptest.NewRequest(http.MethodPost, "/create", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "/success", rec.Header().Get("Location"))
	assert.NotEmpty(t, mr.Keys(), "session should be stored in redis")

	req = httptest.NewRequest(http.MethodGet, "/success", nil)
	for _, c := range rec.Result().Cookies() {
		req.AddCookie(c)
	}
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ada")
}

func TestSetupAccountsRejectsUnknownDriver(t *testing.T) {
	cfg := testConfig(t)
	cfg.DatabaseDriver = "mysql"

	_, _, err := setupAccounts(context.Background(), cfg, zap.NewNop())
	assert.Error(t, err)
}

func TestSessionOptions(t *testing.T) {
	cfg := testConfig(t)
	opts := sessionOptions(cfg)
	assert.Equal(t, 3600, opts.MaxAge)
	assert.True(t, opts.HttpOnly)
	assert.False(t, opts.Secure)

	cfg.GinMode = gin.ReleaseMode
	assert.True(t, sessionOptions(cfg).Secure)
}
