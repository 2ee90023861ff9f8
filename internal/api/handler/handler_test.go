package handler_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Rrens/dietplan/internal/api/handler"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func TestHealthCheck(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/health", nil)
	rec := httptest.NewRecorder()

	handler.HealthCheck(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])

	data, ok := body["data"].(map[string]any)
	require.True(t, ok, "expected data to be a map")
	assert.Equal(t, "ok", data["status"])
}

func TestReadyCheck(t *testing.T) {
	healthy := pingFunc(func(context.Context) error { return nil })
	broken := pingFunc(func(context.Context) error { return errors.New("connection refused") })

	tests := []struct {
		name   string
		deps   map[string]handler.Pinger
		status int
	}{
		{"all ready", map[string]handler.Pinger{"database": healthy, "redis": healthy}, http.StatusOK},
		{"nil dependency skipped", map[string]handler.Pinger{"database": healthy, "redis": nil}, http.StatusOK},
		{"database down", map[string]handler.Pinger{"database": broken}, http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/ready", nil)
			rec := httptest.NewRecorder()

			handler.ReadyCheck(tt.deps)(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			body := decode(t, rec)
			if tt.status != http.StatusOK {
				assert.Equal(t, false, body["success"])
				assert.Equal(t, "database not ready", body["error"])
			}
		})
	}
}

func TestPublicHandler_MissingToken(t *testing.T) {
	// the token check runs before the service is touched
	h := handler.NewPublicHandler(nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/public/diet-view", nil)
	rec := httptest.NewRecorder()

	h.DietView(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "expired or invalid", decode(t, rec)["error"])
}
