package observability

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func failing(msg string) Pinger {
	return PingerFunc(func(ctx context.Context) error { return errors.New(msg) })
}

var healthy = PingerFunc(func(ctx context.Context) error { return nil })

func TestHealthChecker_Check(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(h *HealthChecker)
		expected string
	}{
		{"no dependencies", func(h *HealthChecker) {}, StatusHealthy},
		{"all healthy", func(h *HealthChecker) {
			h.AddCritical("database", healthy).AddOptional("redis", healthy)
		}, StatusHealthy},
		{"optional down", func(h *HealthChecker) {
			h.AddCritical("database", healthy).AddOptional("redis", failing("connection refused"))
		}, StatusDegraded},
		{"critical down", func(h *HealthChecker) {
			h.AddCritical("database", failing("no route")).AddOptional("redis", failing("connection refused"))
		}, StatusUnhealthy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHealthChecker()
			tt.setup(h)

			status := h.Check(context.Background())
			assert.Equal(t, tt.expected, status.Status)
			assert.NotEmpty(t, status.Version)
		})
	}
}

func TestHealthChecker_DependencyMessage(t *testing.T) {
	h := NewHealthChecker().AddOptional("s3", failing("bucket missing"))

	status := h.Check(context.Background())
	require.Contains(t, status.Dependencies, "s3")
	assert.Equal(t, StatusUnhealthy, status.Dependencies["s3"].Status)
	assert.Equal(t, "bucket missing", status.Dependencies["s3"].Message)
}

func TestHealthChecker_SQLAndRedis(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()
	mock.ExpectPing()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	h := NewHealthChecker().
		AddCritical("database", PingerFunc(db.PingContext)).
		AddOptional("redis", PingerFunc(func(ctx context.Context) error { return client.Ping(ctx).Err() }))

	assert.Equal(t, StatusHealthy, h.Check(context.Background()).Status)

	mr.Close()
	mock.ExpectPing()
	assert.Equal(t, StatusDegraded, h.Check(context.Background()).Status)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthChecker_Readiness(t *testing.T) {
	tests := []struct {
		name       string
		checker    *HealthChecker
		expectCode int
	}{
		{"healthy", NewHealthChecker().AddCritical("database", healthy), http.StatusOK},
		{"degraded", NewHealthChecker().AddOptional("redis", failing("down")), http.StatusOK},
		{"unhealthy", NewHealthChecker().AddCritical("database", failing("down")), http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.checker.Readiness(w, httptest.NewRequest("GET", "/health/ready", nil))

			assert.Equal(t, tt.expectCode, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

			var status HealthStatus
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
			assert.NotEmpty(t, status.Status)
		})
	}
}

func TestRegisterHealthRoutes(t *testing.T) {
	mux := http.NewServeMux()
	RegisterHealthRoutes(mux, NewHealthChecker().AddCritical("database", failing("down")))

	for path, code := range map[string]int{
		"/health":       http.StatusServiceUnavailable,
		"/health/ready": http.StatusServiceUnavailable,
		"/health/live":  http.StatusOK,
	} {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, code, w.Code, path)
	}
}
