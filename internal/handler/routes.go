package handler

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"go-inventory-ledger/internal/ws"
)

type Handlers struct {
	Inventory *InventoryHandler
	Sync      *SyncHandler
	Dashboard *DashboardHandler
	Hub       *ws.Hub
}

// Register mounts the JSON API under /api and the change feed on /ws.
func Register(app *fiber.App, h Handlers) {
	api := app.Group("/api")

	api.Get("/status", h.Dashboard.GetStatus)
	api.Get("/stats", h.Dashboard.GetStats)
	api.Post("/shutdown", h.Dashboard.Shutdown)

	api.Get("/view_all", h.Inventory.ViewAll)
	api.Post("/add", h.Inventory.AddBatch)
	api.Post("/update", h.Inventory.UpdateBatch)
	api.Post("/delete", h.Inventory.DeleteBatch)
	api.Post("/search", h.Inventory.Search)
	api.Get("/snapshot", h.Inventory.Snapshot)

	api.Post("/sync", h.Sync.Sync)
	api.Get("/sync/history", h.Sync.GetHistory)

	if h.Hub == nil {
		return
	}

	// WebSocket Route
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return c.SendStatus(fiber.StatusUpgradeRequired)
	})
	app.Get("/ws", websocket.New(func(c *websocket.Conn) {
		h.Hub.Add(c)
		defer h.Hub.Remove(c)

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	}))
}
