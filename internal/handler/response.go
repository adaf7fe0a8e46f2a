package handler

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/peer"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/wal"
)

// statusFor maps an error kind to the HTTP status the client sees.
func statusFor(err error) int {
	switch {
	case errors.Is(err, ledger.ErrValidation):
		return fiber.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, wal.ErrEntryTooLarge):
		return fiber.StatusRequestEntityTooLarge
	case errors.Is(err, peer.ErrFetch):
		return fiber.StatusBadGateway
	case errors.Is(err, wal.ErrIO), errors.Is(err, wal.ErrClosed), errors.Is(err, service.ErrProjectionDisabled):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

func fail(c *fiber.Ctx, err error) error {
	status := statusFor(err)
	if status == fiber.StatusInternalServerError {
		log.Printf("handler: %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(status).JSON(fiber.Map{"success": false, "message": err.Error()})
}

func invalidJSON(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"success": false, "message": "Invalid JSON"})
}
