package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthCheckTimeout = 2 * time.Second

// Pinger описывает зависимость, доступность которой показывает /health.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	Database   Pinger
	AIProvider string
}

type HealthResponse struct {
	Status     string `json:"status"`
	Database   string `json:"database"`
	AIProvider string `json:"ai_provider,omitempty"`
}

// NewHealthHandler создает обработчик проверки состояния.
func NewHealthHandler(database Pinger, aiProvider string) *HealthHandler {
	return &HealthHandler{Database: database, AIProvider: aiProvider}
}

// Health возвращает статус сервиса и базы. Недоступная база дает degraded и 503.
func (h *HealthHandler) Health(c echo.Context) error {
	response := HealthResponse{Status: "ok", Database: "ok", AIProvider: h.AIProvider}
	if h.Database == nil {
		response.Database = "unknown"
		return c.JSON(http.StatusOK, response)
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), healthCheckTimeout)
	defer cancel()

	if err := h.Database.Ping(ctx); err != nil {
		slog.Warn("health check: database unavailable", slog.Any("error", err))
		response.Status = "degraded"
		response.Database = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, response)
	}

	return c.JSON(http.StatusOK, response)
}
