package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/handlers"
)

// RegisterRecordRoutes registers service record management routes
func RegisterRecordRoutes(g *echo.Group, handler *handlers.RecordHandler) {
	// POST /api/v1/services - Create a service record
	g.POST("/services", handler.Create)
	// GET /api/v1/services/without-content - Records with no content pointer
	g.GET("/services/without-content", handler.ListWithoutContent)
	// DELETE /api/v1/services/:id - Soft-delete a service record
	g.DELETE("/services/:id", handler.Delete)
}
