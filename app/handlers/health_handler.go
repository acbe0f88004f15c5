// Package handlers contains HTTP request handlers and presentation layer logic for the API endpoints
package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/revinity/pacing-targets/app/dto"
)

// Pinger checks connectivity to a backing store.
type Pinger func(ctx context.Context) error

// HealthHandler reports service liveness and backing-store connectivity
type HealthHandler struct {
	mongoPing    Pinger
	postgresPing Pinger
}

// NewHealthHandler creates a new health handler. Either pinger may be nil,
// in which case that store is reported as "not configured".
func NewHealthHandler(mongoPing, postgresPing Pinger) *HealthHandler {
	return &HealthHandler{
		mongoPing:    mongoPing,
		postgresPing: postgresPing,
	}
}

// Health handles health check requests
// @Summary Health Check
// @Description Check the health status of the API and its backing stores
// @Tags Health
// @Produce json
// @Success 200 {object} dto.APIResponse "Service is healthy"
// @Failure 503 {object} dto.APIResponse "One or more backing stores are unreachable"
// @Router /api/health [get]
func (h *HealthHandler) Health(c fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	healthy := true
	stores := fiber.Map{}

	stores["mongodb"] = h.check(ctx, h.mongoPing, &healthy)
	stores["postgres"] = h.check(ctx, h.postgresPing, &healthy)

	status := "healthy"
	statusCode := fiber.StatusOK
	if !healthy {
		status = "degraded"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(dto.APIResponse{
		Success: healthy,
		Message: "Health check completed",
		Data: fiber.Map{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"stores":    stores,
		},
	})
}

func (h *HealthHandler) check(ctx context.Context, ping Pinger, healthy *bool) string {
	if ping == nil {
		return "not configured"
	}
	if err := ping(ctx); err != nil {
		*healthy = false
		return "unreachable: " + err.Error()
	}
	return "connected"
}
