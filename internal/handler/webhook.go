package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/littlefidan/littlefidan-sub001/internal/dto"
	"github.com/littlefidan/littlefidan-sub001/internal/service"
)

type WebhookHandler struct {
	webhookService service.WebhookService
}

func NewWebhookHandler(webhookService service.WebhookService) *WebhookHandler {
	return &WebhookHandler{
		webhookService: webhookService,
	}
}

// PaymentWebhook is called by the payment provider, not the browser, so it
// sits outside the auth middleware.
func (h *WebhookHandler) PaymentWebhook(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.WebhookRequest
	if err := c.Bind(&req); err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	if err := h.webhookService.HandlePaymentWebhook(ctx, req.ID); err != nil {
		return httpError(err)
	}

	return c.NoContent(http.StatusOK)
}
