package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/handlers"
)

// RegisterLifecycleRoutes registers orphan scan and cleanup routes
func RegisterLifecycleRoutes(g *echo.Group, handler *handlers.LifecycleHandler) {
	// POST /api/v1/lifecycle/scan - List orphaned content without deleting
	g.POST("/lifecycle/scan", handler.Scan)
	// POST /api/v1/lifecycle/cleanup - Run one reclamation pass
	g.POST("/lifecycle/cleanup", handler.Cleanup)
}
