package handlers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/service"
	"github.com/clinovia/contentvault/common/bootstrap"
)

// RecordHandler manages the owning service records
type RecordHandler struct {
	components *bootstrap.Components
	records    *service.RecordService
}

// NewRecordHandler creates a new record handler
func NewRecordHandler(components *bootstrap.Components, records *service.RecordService) *RecordHandler {
	return &RecordHandler{
		components: components,
		records:    records,
	}
}

type createRecordRequest struct {
	Name string `json:"name"`
}

// Create registers a new service record with no content attached
// POST /api/v1/services
func (h *RecordHandler) Create(c echo.Context) error {
	actor := actorID(c)
	if actor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Actor-Id header is required")
	}

	var req createRecordRequest
	if err := c.Bind(&req); err != nil || req.Name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "name field is required")
	}

	rec, err := h.records.Create(c.Request().Context(), req.Name, actor)
	if err != nil {
		h.components.Logger.Error("failed to create service record", "name", req.Name, "error", err)
		return httpError(err, "failed to create service record")
	}

	return c.JSON(http.StatusCreated, rec)
}

// Delete soft-deletes a service record, starting the retention clock for
// its content
// DELETE /api/v1/services/:id
func (h *RecordHandler) Delete(c echo.Context) error {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id format")
	}

	actor := actorID(c)
	if actor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Actor-Id header is required")
	}

	if err := h.records.Delete(c.Request().Context(), serviceID, actor); err != nil {
		h.components.Logger.Error("failed to delete service record", "service_id", serviceID, "error", err)
		return httpError(err, "failed to delete service record")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"service_id": serviceID,
		"status":     "deleted",
	})
}

// ListWithoutContent returns live records carrying no content pointer
// GET /api/v1/services/without-content
func (h *RecordHandler) ListWithoutContent(c echo.Context) error {
	recs, err := h.records.ListWithoutContent(c.Request().Context())
	if err != nil {
		h.components.Logger.Error("failed to list records without content", "error", err)
		return httpError(err, "failed to list records")
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count":   len(recs),
		"records": recs,
	})
}
