package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// ══════════════════════════════════════════════════════════════════════════════
// HEALTH HANDLER
// ══════════════════════════════════════════════════════════════════════════════

// CheckFunc probes one dependency.
type CheckFunc func(ctx context.Context) error

// HealthHandler serves liveness and dependency health. The endpoint is
// unauthenticated; it reports component state, never data.
type HealthHandler struct {
	checks  map[string]CheckFunc
	timeout time.Duration
}

// NewHealthHandler constructs the handler with per-dependency probes.
func NewHealthHandler(checks map[string]CheckFunc) *HealthHandler {
	return &HealthHandler{
		checks:  checks,
		timeout: 5 * time.Second,
	}
}

// Healthz GET /healthz.
// Returns 200 while the process is up; degraded dependencies are reported
// in the body with a 503 status so load balancers can act on them.
func (h *HealthHandler) Healthz(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	healthy := true
	components := make(fiber.Map, len(h.checks))
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			healthy = false
			components[name] = fiber.Map{"status": "down", "error": err.Error()}
			continue
		}
		components[name] = fiber.Map{"status": "up"}
	}

	status := fiber.StatusOK
	overall := "healthy"
	if !healthy {
		status = fiber.StatusServiceUnavailable
		overall = "degraded"
	}

	return c.Status(status).JSON(fiber.Map{
		"status":     overall,
		"components": components,
		"checked_at": time.Now().UTC(),
	})
}
