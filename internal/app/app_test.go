package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/yungbote/curriculum-backend/internal/data/cache"
	"github.com/yungbote/curriculum-backend/internal/platform/logger"
)

func sqliteConfig(t *testing.T) Config {
	t.Helper()
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("SQLITE_PATH", "file:app_"+strings.ReplaceAll(uuid.NewString(), "-", "")+"?mode=memory&cache=shared")
	cfg, err := LoadConfig()
	require.NoError(t, err)
	return cfg
}

func TestNewWithConfigServesHTTP(t *testing.T) {
	gin.SetMode(gin.TestMode)
	ctx := context.Background()
	a, err := NewWithConfig(ctx, logger.NewNop(), sqliteConfig(t))
	require.NoError(t, err)
	t.Cleanup(a.Close)
	require.NoError(t, a.Start(ctx))

	_, isMemory := a.Services.Cache.(*cache.Memory)
	require.True(t, isMemory)
	require.Nil(t, a.Services.Broadcast)

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	rec = httptest.NewRecorder()
	body := strings.NewReader(`{"title":"Algebra"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/courses", body)
	req.Header.Set("Content-Type", "application/json")
	a.Server.Engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestNewWithConfigMetricsDisabled(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := sqliteConfig(t)
	cfg.MetricsEnabled = false
	a, err := NewWithConfig(context.Background(), logger.NewNop(), cfg)
	require.NoError(t, err)
	t.Cleanup(a.Close)

	rec := httptest.NewRecorder()
	a.Server.Engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestWireCacheRequiresRedisClient(t *testing.T) {
	for _, backend := range []string{CacheRedis, CacheBroadcast} {
		_, _, err := wireCache(logger.NewNop(), Config{CacheBackend: backend}, Clients{})
		require.Error(t, err, backend)
	}
}
