package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/client"
	"github.com/littlefidan/littlefidan-sub001/internal/model"
	"github.com/littlefidan/littlefidan-sub001/internal/repository"
)

type WebhookService interface {
	// HandlePaymentWebhook reconciles an order with the provider's view of the
	// payment. Providers deliver at-least-once, so replays must be no-ops.
	HandlePaymentWebhook(ctx context.Context, paymentID string) error
}

type webhookServiceImpl struct {
	mollieClient client.MollieClient
	orderRepo    repository.OrderRepository
	emailService EmailService
}

func NewWebhookService(
	mollieClient client.MollieClient,
	orderRepo repository.OrderRepository,
	emailService EmailService,
) WebhookService {
	return &webhookServiceImpl{
		mollieClient: mollieClient,
		orderRepo:    orderRepo,
		emailService: emailService,
	}
}

// mapPaymentStatus translates a provider payment status into the order state
// pair. ok is false for in-flight statuses that change nothing.
func mapPaymentStatus(providerStatus string) (model.OrderStatus, model.PaymentStatus, bool) {
	switch providerStatus {
	case "paid":
		return model.OrderStatusProcessing, model.PaymentStatusPaid, true
	case "canceled", "expired", "failed":
		return model.OrderStatusCancelled, model.PaymentStatusFailed, true
	default:
		return "", "", false
	}
}

func (s *webhookServiceImpl) HandlePaymentWebhook(ctx context.Context, paymentID string) error {
	if paymentID == "" {
		return fmt.Errorf("missing payment id: %w", ErrValidation)
	}
	if s.mollieClient == nil {
		return fmt.Errorf("no payment provider configured: %w", ErrUpstream)
	}

	// Re-fetch by id; the webhook body is just a poke, not a trusted source.
	payment, err := s.mollieClient.GetPayment(ctx, paymentID)
	if err != nil {
		return fmt.Errorf("fetch payment %s: %v: %w", paymentID, err, ErrUpstream)
	}

	orderID := payment.Metadata.OrderID
	if orderID == "" {
		return fmt.Errorf("payment %s has no order reference: %w", paymentID, ErrNotFound)
	}

	status, paymentStatus, ok := mapPaymentStatus(payment.Status)
	if !ok {
		slog.Debug("payment still in flight", "payment_id", paymentID, "status", payment.Status)
		return nil
	}

	rows, err := s.orderRepo.ApplyPaymentOutcome(ctx, orderID, status, paymentStatus)
	if err != nil {
		return fmt.Errorf("apply payment outcome: %w", err)
	}
	if rows == 0 {
		if _, err := s.orderRepo.FindByID(ctx, orderID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order %s referenced by payment %s: %w", orderID, paymentID, ErrNotFound)
			}
			return fmt.Errorf("load order: %w", err)
		}
		// Already terminal: a webhook replay, or a state race the guarded
		// update lost. Either way there is nothing left to do.
		slog.Info("webhook replay ignored", "payment_id", paymentID, "order_id", orderID)
		return nil
	}

	slog.Info("order reconciled",
		"order_id", orderID, "payment_id", paymentID,
		"status", status, "payment_status", paymentStatus)

	if paymentStatus == model.PaymentStatusPaid {
		order, err := s.orderRepo.FindByID(ctx, orderID)
		if err != nil {
			return fmt.Errorf("load order for confirmation: %w", err)
		}
		if err := s.emailService.SendOrderConfirmation(order.Email, order.OrderNumber, order.Total); err != nil {
			// The order is already reconciled; a mail failure is logged, not
			// returned, so the provider does not redeliver forever.
			slog.Error("send order confirmation", "order_id", orderID, "error", err)
		}
	}

	return nil
}
