package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/littlefidan/littlefidan-sub001/internal/dto"
	"github.com/littlefidan/littlefidan-sub001/internal/middleware"
	"github.com/littlefidan/littlefidan-sub001/internal/service"
)

type CheckoutHandler struct {
	checkoutService service.CheckoutService
}

func NewCheckoutHandler(checkoutService service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutService: checkoutService,
	}
}

func (h *CheckoutHandler) Checkout(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	// Guest checkout is allowed; the order is tied to an account only when the
	// caller is signed in.
	var userID *string
	if id := middleware.UserID(c); id != "" {
		userID = &id
	}

	resp, err := h.checkoutService.Checkout(ctx, userID, &req)
	if err != nil {
		return httpError(err)
	}

	return c.JSON(http.StatusOK, resp)
}
