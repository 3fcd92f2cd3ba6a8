package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"room-planner/internal/common/config"
	"room-planner/internal/common/logutil"
	"room-planner/internal/common/middleware"
	"room-planner/internal/common/telemetry"
	"room-planner/internal/planner/catalog"
	"room-planner/internal/planner/handlers"
	"room-planner/internal/planner/models"
	"room-planner/internal/planner/repository"
	"room-planner/internal/planner/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/joho/godotenv"
)

// ============================================================
// Planner Service
// ============================================================

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: .env file not loaded: %v", err)
	}

	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3001"
	}
	logutil.SetLevel(logutil.ParseLevel(cfg.LogLevel))

	ctx := context.Background()
	if cfg.OTelEnabled {
		shutdown, err := telemetry.Setup(ctx, cfg.ServiceName)
		if err != nil {
			log.Printf("Warning: telemetry setup failed: %v", err)
		} else {
			defer func() {
				if err := shutdown(ctx); err != nil {
					log.Printf("Error shutting down telemetry: %v", err)
				}
			}()
		}
	}

	db, err := repository.OpenSQLite(cfg.PlannerDBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(ctx); err != nil {
		log.Fatalf("init db: %v", err)
	}

	cat, err := catalog.Load()
	if err != nil {
		log.Fatalf("load catalog: %v", err)
	}

	manager := service.NewManager(repo, cat, models.DefaultSettings())
	plannerHandler := handlers.NewPlannerHandler(manager)

	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.WriteTimeout) * time.Second,
		AppName:      "Planner Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.RequestID())
	app.Use(middleware.Logger())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := repo.Ping(c.Context()); err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "db unavailable"})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Planner Routes
	// ============================================================

	plannerHandler.Register(app)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Planner Service on %s (env: %s, catalog: %d types)", addr, cfg.Environment, cat.Count())

	if err := app.Listen(addr); err != nil {
		log.Printf("Failed to start server: %v", err)
	}
}
