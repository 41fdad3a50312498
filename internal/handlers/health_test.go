package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error {
	return p.err
}

func healthRequest(t *testing.T, handler *HealthHandler) (int, HealthResponse) {
	t.Helper()

	rec := httptest.NewRecorder()
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/health", nil), rec)
	require.NoError(t, handler.Health(c))

	var body HealthResponse
	decodeBody(t, rec, &body)
	return rec.Code, body
}

// TestHealthOK проверяет статус при доступной базе.
func TestHealthOK(t *testing.T) {
	code, body := healthRequest(t, NewHealthHandler(stubPinger{}, "groq"))

	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, HealthResponse{Status: "ok", Database: "ok", AIProvider: "groq"}, body)
}

// TestHealthDegraded проверяет 503 при недоступной базе.
func TestHealthDegraded(t *testing.T) {
	code, body := healthRequest(t, NewHealthHandler(stubPinger{err: errors.New("connection refused")}, ""))

	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "degraded", body.Status)
	assert.Equal(t, "unavailable", body.Database)
}
