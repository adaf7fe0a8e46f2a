package main

import (
	"log"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go-inventory-ledger/internal/config"
	"go-inventory-ledger/internal/handler"
	"go-inventory-ledger/internal/ledger"
	"go-inventory-ledger/internal/peer"
	"go-inventory-ledger/internal/reconcile"
	"go-inventory-ledger/internal/repository"
	"go-inventory-ledger/internal/service"
	"go-inventory-ledger/internal/ws"
	"go-inventory-ledger/pkg/database"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func main() {
	// 1. Load Env
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// 2. Recover the ledger before anything can reach it
	engine, err := ledger.Open(cfg.LedgerConfig())
	if err != nil {
		log.Fatalf("ledger: %v", err)
	}

	// 3. Optional reporting database
	var (
		views repository.BatchViewRepository
		runs  repository.SyncRunRepository
	)
	db, err := database.ConnectDB()
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if db != nil {
		if err := repository.AutoMigrate(db); err != nil {
			log.Fatalf("database: migrate: %v", err)
		}
		views = repository.NewBatchViewRepo(db)
		runs = repository.NewSyncRunRepo(db)
		if err := service.ReseedProjection(engine, views); err != nil {
			log.Printf("Warning: %v", err)
		}
	} else {
		log.Println("No DATABASE_URL configured, reporting projection disabled")
	}

	// 4. Setup WebSocket Hub
	wsHub := ws.NewHub()
	go wsHub.Run()

	// 5. Dependency Injection (Wiring Layers)
	invService := service.NewInventoryService(engine, wsHub, views, cfg.NodeID)
	syncService := service.NewSyncService(
		reconcile.New(engine),
		peer.NewClient(cfg.SyncTimeout),
		cfg.Peers,
		wsHub,
		views,
		runs,
		cfg.NodeID,
	)
	dashService := service.NewDashboardService(engine, views, cfg.NodeID, service.StatsConfig{
		LowStockThreshold:   cfg.LowStockThreshold,
		ExpiryWarningMonths: cfg.ExpiryWarningMonths,
	})

	quit := make(chan os.Signal, 1)
	var requestOnce sync.Once
	requestShutdown := func() {
		requestOnce.Do(func() {
			select {
			case quit <- syscall.SIGTERM:
			default:
			}
		})
	}

	// 6. Setup Fiber
	app := fiber.New(fiber.Config{
		AppName: "Inventory Ledger v1.0",
	})

	// Middleware
	app.Use(logger.New())  // Logging request
	app.Use(recover.New()) // Panic recovery
	app.Use(cors.New())    // CORS

	// 7. Routes
	handler.Register(app, handler.Handlers{
		Inventory: handler.NewInventoryHandler(invService),
		Sync:      handler.NewSyncHandler(syncService),
		Dashboard: handler.NewDashboardHandler(dashService, requestShutdown),
		Hub:       wsHub,
	})

	// 8. Graceful Shutdown
	go func() {
		log.Printf("Node %s serving ledger %s on :%s", cfg.NodeID, cfg.LedgerPath, cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Panic(err)
		}
	}()

	// Wait for interrupt signal or POST /api/shutdown
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}
	wsHub.Stop()

	if err := engine.Close(); err != nil {
		log.Fatalf("ledger: close: %v", err)
	}
	if db != nil {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	log.Println("Server exited")
}
