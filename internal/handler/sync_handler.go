package handler

import (
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
)

type SyncHandler struct {
	service service.SyncService
}

func NewSyncHandler(s service.SyncService) *SyncHandler {
	return &SyncHandler{service: s}
}

// Sync merges a pushed snapshot, or pulls one from target_ip / peer.
func (h *SyncHandler) Sync(c *fiber.Ctx) error {
	var req model.SyncRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	summary, err := h.service.Sync(c.UserContext(), &req, c.IP())
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": summary.Message, "data": summary})
}

// GetHistory returns recent sync runs
// Query params: limit (default 20)
func (h *SyncHandler) GetHistory(c *fiber.Ctx) error {
	runs, err := h.service.GetHistory(c.QueryInt("limit", 20))
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "data": runs})
}
