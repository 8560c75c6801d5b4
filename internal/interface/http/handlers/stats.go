package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/maestros-hub/maestros-community-backend/internal/application/query"
)

// StatsHandler serves the community statistics snapshot.
type StatsHandler struct {
	stats *query.GetStatsHandler
}

// NewStatsHandler constructs the handler.
func NewStatsHandler(stats *query.GetStatsHandler) *StatsHandler {
	return &StatsHandler{stats: stats}
}

// Get GET /stats.
func (h *StatsHandler) Get(c *fiber.Ctx) error {
	snapshot, err := h.stats.Handle(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": snapshot})
}
