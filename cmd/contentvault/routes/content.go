package routes

import (
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/handlers"
)

// RegisterContentRoutes registers content upload and retrieval routes
func RegisterContentRoutes(g *echo.Group, handler *handlers.ContentHandler) {
	// POST /api/v1/content/:ownerId - Upload content for an owner
	g.POST("/content/:ownerId", handler.Upload)
	// POST /api/v1/services/:id/content - Upload and attach to a service record
	g.POST("/services/:id/content", handler.UploadAndAttach)
	// GET /api/v1/content?url= - Retrieve content by delivery URL
	g.GET("/content", handler.GetByURL)
	// GET /api/v1/content/:ownerId/:digest - Retrieve content by address
	g.GET("/content/:ownerId/:digest", handler.GetByAddress)
	// POST /api/v1/content/prewarm - Queue cache warming for a URL
	g.POST("/content/prewarm", handler.PreWarm)
}
