package main

import (
	"context"
	"fmt"
	"net/http"
	"os"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/clinovia/contentvault/cmd/contentvault/container"
	"github.com/clinovia/contentvault/cmd/contentvault/handlers"
	"github.com/clinovia/contentvault/cmd/contentvault/repository"
	"github.com/clinovia/contentvault/cmd/contentvault/routes"
	"github.com/clinovia/contentvault/common/bootstrap"
	"github.com/clinovia/contentvault/common/middleware"
	"github.com/clinovia/contentvault/common/queue"
)

func main() {
	ctx := context.Background()

	// Bootstrap common components (DB, logger, queue, cache, telemetry)
	components, err := bootstrap.Setup(ctx, "contentvault",
		bootstrap.WithDBInitHook(repository.EnsureSchema),
	)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bootstrap contentvault: %v\n", err)
		os.Exit(1)
	}
	defer components.Shutdown(ctx)

	// Initialize service container (singleton pattern - all services created once)
	serviceContainer, err := container.NewContainer(components)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize service container: %v\n", err)
		os.Exit(1)
	}
	defer serviceContainer.Close()

	// Drain the prewarm queue into the cache in the background
	startPrewarmWorker(ctx, serviceContainer)

	// Initialize Echo server
	e := setupEcho()

	// Setup middleware
	setupMiddleware(e, serviceContainer)

	// Setup health check
	setupHealthCheck(e, components, serviceContainer)

	// Register all routes
	registerRoutes(e, serviceContainer)

	// Start server
	startServer(e, components)
}

// setupEcho initializes the Echo server with basic configuration
func setupEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	return e
}

// setupMiddleware configures all middleware for the Echo server
func setupMiddleware(e *echo.Echo, c *container.Container) {
	e.Use(echomw.Logger())
	e.Use(echomw.Recover())
	e.Use(echomw.CORS())
	e.Use(echomw.RequestID())
	e.Use(middleware.RateLimit(c.RateLimiter, middleware.DefaultRateLimitConfig(), c.Components.Logger))
}

// setupHealthCheck registers the health check endpoint
func setupHealthCheck(e *echo.Echo, components *bootstrap.Components, c *container.Container) {
	e.GET("/health", func(ec echo.Context) error {
		if err := components.Health(ec.Request().Context()); err != nil {
			return ec.JSON(http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"error":  err.Error(),
			})
		}
		return ec.JSON(http.StatusOK, map[string]string{
			"status":  "ok",
			"service": "contentvault",
		})
	})
}

// registerRoutes registers all application routes using the service container
func registerRoutes(e *echo.Echo, c *container.Container) {
	api := e.Group("/api/v1")

	contentHandler := handlers.NewContentHandler(c.Components, c.UploadService, c.RetrievalService)
	recordHandler := handlers.NewRecordHandler(c.Components, c.RecordService)
	lifecycleHandler := handlers.NewLifecycleHandler(c.Components, c.LifecycleService)
	auditHandler := handlers.NewAuditHandler(c.Components, c.AuditService)

	routes.RegisterContentRoutes(api, contentHandler)
	routes.RegisterRecordRoutes(api, recordHandler)
	routes.RegisterLifecycleRoutes(api, lifecycleHandler)
	routes.RegisterAuditRoutes(api, auditHandler)
}

// startPrewarmWorker subscribes to the prewarm topic and warms the cache
// for each published URL
func startPrewarmWorker(ctx context.Context, c *container.Container) {
	err := c.Components.Queue.Subscribe(ctx, queue.TopicPrewarm, func(ctx context.Context, key string, value []byte) error {
		c.RetrievalService.PreWarm(ctx, string(value))
		return nil
	})
	if err != nil {
		c.Components.Logger.Warn("failed to start prewarm worker", "error", err)
	}
}

// startServer starts the Echo server on the configured port
func startServer(e *echo.Echo, components *bootstrap.Components) {
	port := components.Config.Service.Port
	components.Logger.Info("Starting contentvault", "port", port)

	if err := e.Start(fmt.Sprintf(":%d", port)); err != nil {
		components.Logger.Error("Server error", "error", err)
		os.Exit(1)
	}
}
