package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/model"
	"go-inventory-ledger/internal/service"
)

type InventoryHandler struct {
	service service.InventoryService
}

func NewInventoryHandler(s service.InventoryService) *InventoryHandler {
	return &InventoryHandler{service: s}
}

// ViewAll lists live batches.
func (h *InventoryHandler) ViewAll(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"success": true, "inventory": h.service.GetActiveBatches()})
}

func (h *InventoryHandler) AddBatch(c *fiber.Ctx) error {
	var req model.AddBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.service.AddBatch(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "message": res.Message, "data": res.Batch})
}

func (h *InventoryHandler) UpdateBatch(c *fiber.Ctx) error {
	var req model.UpdateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.service.UpdateBatch(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": res.Message, "data": res.Batch})
}

func (h *InventoryHandler) DeleteBatch(c *fiber.Ctx) error {
	var req model.DeleteBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	res, err := h.service.DeleteBatch(&req)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"success": true, "message": res.Message, "data": res.Batch})
}

func (h *InventoryHandler) Search(c *fiber.Ctx) error {
	var req model.SearchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	item, err := h.service.SearchBatch(&req)
	if errors.Is(err, ledger.ErrNotFound) {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"found": false, "message": "Batch not found."})
	}
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(fiber.Map{"found": true, "data": item})
}

// Snapshot is the document peers fetch to reconcile against this node.
func (h *InventoryHandler) Snapshot(c *fiber.Ctx) error {
	return c.JSON(h.service.GetSnapshot())
}
