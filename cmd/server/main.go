package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gofiber/contrib/otelfiber/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Ar5h1a-M/LockedIn/internal/api"
	"github.com/Ar5h1a-M/LockedIn/internal/backend"
	"github.com/Ar5h1a-M/LockedIn/internal/chat"
	"github.com/Ar5h1a-M/LockedIn/internal/events"
	"github.com/Ar5h1a-M/LockedIn/internal/store"
	"github.com/Ar5h1a-M/LockedIn/internal/tracing"
)

func main() {
	if err := godotenv.Load(".env.dev"); err != nil {
		fmt.Println("No .env.dev file found, reading from environment variables")
	}

	api.SetupGlobalHandler("planner-bff")

	shutdownTracer, err := tracing.InitTracerProvider("planner-bff")
	if err != nil {
		log.Fatalf("Failed to initialize OpenTelemetry: %v", err)
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Printf("Error shutting down tracer provider: %v", err)
		}
	}()

	backendURL := os.Getenv("BACKEND_API_URL")
	if backendURL == "" {
		log.Fatal("BACKEND_API_URL is not set")
	}
	backendClient := backend.NewHTTPClient(backendURL)

	var publisher events.EventPublisher = events.NoopPublisher{}
	if natsURL := os.Getenv("NATS_URL"); natsURL != "" {
		publisher, err = events.NewNatsPublisher(natsURL)
		if err != nil {
			log.Printf("WARNING: Failed to connect to NATS, planner events disabled: %v", err)
			publisher = events.NoopPublisher{}
		} else {
			log.Println("Successfully connected to NATS.")
		}
	}

	registry := store.NewRegistry(backendClient, publisher)

	pollSeconds, _ := strconv.Atoi(os.Getenv("CHAT_POLL_SECONDS"))
	if pollSeconds == 0 {
		pollSeconds = 2
	}
	feed := chat.NewFeed(backendClient, time.Duration(pollSeconds)*time.Second)

	plannerHandler := api.NewPlannerHandler(registry, backendClient)

	app := fiber.New()
	app.Use(otelfiber.Middleware())
	app.Use(api.PrometheusMiddleware())
	app.Use(rateLimiter())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": "planner-bff"})
	})

	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	v1 := app.Group("/v1")

	groups := v1.Group("/groups/:groupId")
	groups.Use(api.AuthMiddleware())
	groups.Get("/planner", plannerHandler.GetPlanner)
	groups.Post("/sessions", plannerHandler.CreateSession)
	groups.Delete("/sessions/:id", plannerHandler.DeleteSession)
	groups.Post("/sessions/:id/rsvp", plannerHandler.RSVP)
	groups.Get("/messages", plannerHandler.ListMessages)
	groups.Post("/messages", plannerHandler.PostMessage)

	// websocket connects carry the token as a query param, outside the
	// bearer-header middleware
	v1.Get("/groups/:groupId/chat", api.WebSocketAuth(), api.ChatFeedHandler(feed))

	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8002"
	}

	log.Printf("Listening planner-bff on port %s", port)
	log.Fatal(app.Listen(":" + port))
}

func rateLimiter() fiber.Handler {
	maxRequest, _ := strconv.Atoi(os.Getenv("RATE_LIMIT_MAX"))
	if maxRequest == 0 {
		maxRequest = 100
	}
	expirationSec, _ := strconv.Atoi(os.Getenv("RATE_LIMIT_EXPIRATION"))
	if expirationSec == 0 {
		expirationSec = 60
	}

	return limiter.New(limiter.Config{
		Max:        maxRequest,
		Expiration: time.Duration(expirationSec) * time.Second,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{
				"error": "Too many requests, please try again later.",
			})
		},
	})
}
