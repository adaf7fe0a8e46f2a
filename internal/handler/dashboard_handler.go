package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/service"
)

type DashboardHandler struct {
	service  service.DashboardService
	shutdown func()
}

// NewDashboardHandler wires node-level endpoints. shutdown is called once
// the shutdown response has been queued; it may be nil.
func NewDashboardHandler(s service.DashboardService, shutdown func()) *DashboardHandler {
	return &DashboardHandler{service: s, shutdown: shutdown}
}

func (h *DashboardHandler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.GetStatus())
}

// GetStats returns overview statistics
func (h *DashboardHandler) GetStats(c *fiber.Ctx) error {
	stats, err := h.service.GetStats()
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(stats)
}

func (h *DashboardHandler) Shutdown(c *fiber.Ctx) error {
	if h.shutdown == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{"success": false, "message": "shutdown not available"})
	}
	// The server stops after this response is written.
	go h.shutdown()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"success": true, "message": "Shutting down."})
}
