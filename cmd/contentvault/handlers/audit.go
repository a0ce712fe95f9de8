package handlers

import (
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/service"
	"github.com/clinovia/contentvault/common/bootstrap"
)

// AuditHandler exposes the audit trail for compliance review
type AuditHandler struct {
	components *bootstrap.Components
	audit      *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(components *bootstrap.Components, audit *service.AuditService) *AuditHandler {
	return &AuditHandler{
		components: components,
		audit:      audit,
	}
}

// ListByService returns the audit trail for a service record, newest
// first
// GET /api/v1/services/:id/audit?limit=100
func (h *AuditHandler) ListByService(c echo.Context) error {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id format")
	}

	limit := 0
	if raw := c.QueryParam("limit"); raw != "" {
		limit, err = strconv.Atoi(raw)
		if err != nil {
			return echo.NewHTTPError(http.StatusBadRequest, "limit must be an integer")
		}
	}

	entries, err := h.audit.ListByOwner(c.Request().Context(), serviceID, limit)
	if err != nil {
		h.components.Logger.Error("failed to list audit entries", "service_id", serviceID, "error", err)
		return httpError(err, "failed to list audit entries")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"service_id": serviceID,
		"count":      len(entries),
		"entries":    entries,
	})
}
