package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/littlefidan/littlefidan-sub001/internal/middleware"
	"github.com/littlefidan/littlefidan-sub001/internal/service"
)

type DownloadHandler struct {
	entitlementService service.EntitlementService
}

func NewDownloadHandler(entitlementService service.EntitlementService) *DownloadHandler {
	return &DownloadHandler{
		entitlementService: entitlementService,
	}
}

func (h *DownloadHandler) Download(c echo.Context) error {
	ctx := c.Request().Context()

	fileID := c.Param("id")
	if fileID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "missing file id")
	}

	resp, err := h.entitlementService.Download(ctx, middleware.UserID(c), fileID, service.DownloadContext{
		IP:        c.RealIP(),
		UserAgent: c.Request().UserAgent(),
	})
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
