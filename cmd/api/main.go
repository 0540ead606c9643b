package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/passbi/subway-access/internal/api"
	"github.com/passbi/subway-access/internal/config"
	"github.com/passbi/subway-access/internal/coordination"
	"github.com/passbi/subway-access/internal/db"
	"github.com/passbi/subway-access/internal/middleware"
	"github.com/passbi/subway-access/internal/staticdata"
	"github.com/passbi/subway-access/internal/subway"
)

func main() {
	log.Println("Starting subway-access API server...")

	cfg := config.Load()

	pool, err := db.InitPoolWithConfig(&db.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		Database: cfg.DBName,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		SSLMode:  cfg.DBSSLMode,
		MinConns: cfg.DBMinConns,
		MaxConns: cfg.DBMaxConns,
	})
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("database connection established")

	locker := coordination.NewLocker(coordination.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
		TLS:      cfg.RedisTLS,
		LockTTL:  cfg.LockTTL,
	})
	defer locker.Close()
	if err := locker.Ping(context.Background()); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	log.Println("redis connection established")

	loaded, err := staticdata.LoadFromPostgres(context.Background(), pool, cfg.SigmoidK)
	if err != nil {
		log.Fatalf("Failed to load network snapshot: %v", err)
	}
	log.Println("network snapshot loaded into memory")

	server := api.NewServer(loaded.Store, loaded.Facility, locker, subway.Profile(cfg.DefaultProfile), cfg.MaxSearchRounds)

	app := fiber.New(fiber.Config{
		AppName:      "subway-access API",
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorHandler: customErrorHandler,
	})

	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format:     "${time} | ${status} | ${latency} | ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	apiKeyHash := os.Getenv("API_KEY_HASH")

	app.Get("/health", server.Health)
	app.Post("/v2/routes", middleware.APIKey(apiKeyHash), server.RouteSearch)
	app.Post("/v2/facility-counts", middleware.APIKey(apiKeyHash), server.UpdateFacilityCounts)

	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "endpoint not found",
		})
	})

	addr := fmt.Sprintf(":%s", cfg.APIPort)

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
		<-sigChan

		log.Println("shutting down gracefully...")
		if err := app.Shutdown(); err != nil {
			log.Printf("error during shutdown: %v", err)
		}
	}()

	log.Printf("server listening on http://localhost%s", addr)
	log.Printf("route search: POST http://localhost%s/v2/routes", addr)
	log.Printf("health check: http://localhost%s/health", addr)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

func customErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	log.Printf("error: %v", err)

	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
