package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/clinovia/contentvault/cmd/contentvault/service"
)

// httpError maps service sentinel errors onto HTTP status codes. Unknown
// errors become 500 with a generic message so internals never leak.
func httpError(err error, fallback string) *echo.HTTPError {
	switch {
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrStorage):
		return echo.NewHTTPError(http.StatusBadGateway, "storage backend unavailable")
	case errors.Is(err, service.ErrAudit):
		return echo.NewHTTPError(http.StatusInternalServerError, "audit trail unavailable")
	default:
		return echo.NewHTTPError(http.StatusInternalServerError, fallback)
	}
}

// actorID resolves the acting identity from the request. Mutating
// operations require it; reads default to anonymous.
func actorID(c echo.Context) string {
	if actor := c.Request().Header.Get("X-Actor-Id"); actor != "" {
		return actor
	}
	return ""
}
