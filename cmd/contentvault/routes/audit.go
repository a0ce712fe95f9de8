package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/handlers"
)

// RegisterAuditRoutes registers audit trail routes
func RegisterAuditRoutes(g *echo.Group, handler *handlers.AuditHandler) {
	// GET /api/v1/services/:id/audit - Audit trail for a service record
	g.GET("/services/:id/audit", handler.ListByService)
}
