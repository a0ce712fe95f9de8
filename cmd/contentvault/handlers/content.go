package handlers

import (
	"io"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/service"
	"github.com/clinovia/contentvault/common/bootstrap"
	"github.com/clinovia/contentvault/common/queue"
)

// maxUploadBytes caps a single upload body
const maxUploadBytes = 32 << 20

// ContentHandler handles content upload and retrieval operations
type ContentHandler struct {
	components *bootstrap.Components
	uploads    *service.UploadService
	retrieval  *service.RetrievalService
}

// NewContentHandler creates a new content handler
func NewContentHandler(components *bootstrap.Components, uploads *service.UploadService, retrieval *service.RetrievalService) *ContentHandler {
	return &ContentHandler{
		components: components,
		uploads:    uploads,
		retrieval:  retrieval,
	}
}

// Upload stores raw body content under an owner without touching any
// owning record
// POST /api/v1/content/:ownerId
func (h *ContentHandler) Upload(c echo.Context) error {
	ownerID, err := uuid.Parse(c.Param("ownerId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner_id format")
	}

	actor := actorID(c)
	if actor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Actor-Id header is required")
	}

	content, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if len(content) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "content exceeds upload limit")
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.uploads.Upload(c.Request().Context(), ownerID, content, contentType, actor)
	if err != nil {
		h.components.Logger.Error("upload failed", "owner_id", ownerID, "error", err)
		return httpError(err, "upload failed")
	}

	return c.JSON(http.StatusCreated, result)
}

// UploadAndAttach stores content and points the owning service record
// at it
// POST /api/v1/services/:id/content
func (h *ContentHandler) UploadAndAttach(c echo.Context) error {
	serviceID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid service_id format")
	}

	actor := actorID(c)
	if actor == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "X-Actor-Id header is required")
	}

	content, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUploadBytes+1))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "failed to read request body")
	}
	if len(content) > maxUploadBytes {
		return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "content exceeds upload limit")
	}

	contentType := c.Request().Header.Get(echo.HeaderContentType)
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	result, err := h.uploads.UploadAndAttach(c.Request().Context(), serviceID, content, contentType, actor)
	if err != nil {
		h.components.Logger.Error("upload and attach failed", "service_id", serviceID, "error", err)
		return httpError(err, "upload failed")
	}

	return c.JSON(http.StatusCreated, result)
}

// GetByURL serves content bytes looked up by delivery URL
// GET /api/v1/content?url={deliveryURL}
func (h *ContentHandler) GetByURL(c echo.Context) error {
	rawURL := c.QueryParam("url")
	if rawURL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url query parameter is required")
	}

	result, err := h.retrieval.GetByURL(c.Request().Context(), rawURL)
	if err != nil {
		return httpError(err, "retrieval failed")
	}

	h.setRetrievalHeaders(c, result.CacheHit, result.Digest)
	return c.Blob(http.StatusOK, result.ContentType, result.Content)
}

// GetByAddress serves content bytes looked up by structured identity
// GET /api/v1/content/:ownerId/:digest?ext={extension}
func (h *ContentHandler) GetByAddress(c echo.Context) error {
	ownerID, err := uuid.Parse(c.Param("ownerId"))
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid owner_id format")
	}

	digest := c.Param("digest")
	extension := c.QueryParam("ext")
	if extension == "" {
		extension = "bin"
	}

	result, err := h.retrieval.GetByAddress(c.Request().Context(), ownerID, digest, extension)
	if err != nil {
		return httpError(err, "retrieval failed")
	}

	h.setRetrievalHeaders(c, result.CacheHit, result.Digest)
	return c.Blob(http.StatusOK, result.ContentType, result.Content)
}

type prewarmRequest struct {
	URL string `json:"url"`
}

// PreWarm queues a delivery URL for asynchronous cache warming
// POST /api/v1/content/prewarm
func (h *ContentHandler) PreWarm(c echo.Context) error {
	var req prewarmRequest
	if err := c.Bind(&req); err != nil || req.URL == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "url field is required")
	}

	if err := h.components.Queue.Publish(c.Request().Context(), queue.TopicPrewarm, req.URL, []byte(req.URL)); err != nil {
		h.components.Logger.Error("failed to queue prewarm", "url", req.URL, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to queue prewarm")
	}

	return c.JSON(http.StatusAccepted, map[string]interface{}{
		"status": "queued",
		"url":    req.URL,
	})
}

func (h *ContentHandler) setRetrievalHeaders(c echo.Context, cacheHit bool, digest string) {
	if cacheHit {
		c.Response().Header().Set("X-Cache", "HIT")
	} else {
		c.Response().Header().Set("X-Cache", "MISS")
	}
	if digest != "" {
		c.Response().Header().Set("X-Content-Digest", digest)
	}
}
