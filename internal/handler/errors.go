package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/littlefidan/littlefidan-sub001/internal/service"
)

// httpError maps service failure classes onto HTTP status codes.
func httpError(err error) error {
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, service.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "access denied")
	case errors.Is(err, service.ErrNotFound):
		return echo.NewHTTPError(http.StatusNotFound, "not found")
	case errors.Is(err, service.ErrValidation):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request")
	case errors.Is(err, service.ErrConflict):
		return echo.NewHTTPError(http.StatusConflict, "conflict, please retry")
	case errors.Is(err, service.ErrUpstream):
		return echo.NewHTTPError(http.StatusBadGateway, "upstream service unavailable")
	default:
		return err
	}
}
