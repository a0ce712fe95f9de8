package handlers

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/service"
	"github.com/clinovia/contentvault/common/bootstrap"
)

// LifecycleHandler exposes orphan scans and cleanup runs to operators
type LifecycleHandler struct {
	components *bootstrap.Components
	lifecycle  *service.LifecycleService
}

// NewLifecycleHandler creates a new lifecycle handler
func NewLifecycleHandler(components *bootstrap.Components, lifecycle *service.LifecycleService) *LifecycleHandler {
	return &LifecycleHandler{
		components: components,
		lifecycle:  lifecycle,
	}
}

// Scan lists orphaned objects without deleting anything
// POST /api/v1/lifecycle/scan
func (h *LifecycleHandler) Scan(c echo.Context) error {
	olderThan := h.components.Config.Lifecycle.RetentionPeriod
	if raw := c.QueryParam("older_than"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed < 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "older_than must be a non-negative duration")
		}
		olderThan = parsed
	}

	orphans, err := h.lifecycle.IdentifyOrphaned(c.Request().Context(), olderThan)
	if err != nil {
		h.components.Logger.Error("orphan scan failed", "error", err)
		return httpError(err, "scan failed")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"older_than": olderThan.String(),
		"count":      len(orphans),
		"orphaned":   orphans,
	})
}

// Cleanup runs one reclamation pass and returns its summary. Per-item
// failures are inside the summary, not an HTTP error.
// POST /api/v1/lifecycle/cleanup
func (h *LifecycleHandler) Cleanup(c echo.Context) error {
	summary, err := h.lifecycle.Cleanup(c.Request().Context())
	if err != nil {
		h.components.Logger.Error("cleanup run failed", "error", err)
		return httpError(err, "cleanup failed")
	}

	return c.JSON(http.StatusOK, summary)
}
