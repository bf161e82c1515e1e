package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/client"
	"github.com/littlefidan/littlefidan-sub001/internal/dto"
	"github.com/littlefidan/littlefidan-sub001/internal/model"
	"github.com/littlefidan/littlefidan-sub001/internal/repository"
)

// Dutch VAT on digital goods.
var taxRate = decimal.RequireFromString("0.21")

type CheckoutService interface {
	// Checkout persists an order for the given line items and returns where to
	// send the customer next. userID is nil for guest checkout.
	Checkout(ctx context.Context, userID *string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error)
}

type checkoutServiceImpl struct {
	db               *gorm.DB
	mollieClient     client.MollieClient
	orderRepo        repository.OrderRepository
	emailService     EmailService
	baseURL          string
	allowDevFallback bool
}

func NewCheckoutService(
	db *gorm.DB,
	mollieClient client.MollieClient,
	orderRepo repository.OrderRepository,
	emailService EmailService,
	baseURL string,
	allowDevFallback bool,
) CheckoutService {
	return &checkoutServiceImpl{
		db:               db,
		mollieClient:     mollieClient,
		orderRepo:        orderRepo,
		emailService:     emailService,
		baseURL:          baseURL,
		allowDevFallback: allowDevFallback,
	}
}

// newOrderNumber builds a date-prefixed number with ~122 bits of randomness,
// making collisions vanishingly unlikely. The unique index on order_number
// still backstops the residual case.
func newOrderNumber(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")
	return fmt.Sprintf("LF-%s-%s", now.UTC().Format("20060102"), strings.ToUpper(suffix[:16]))
}

func (s *checkoutServiceImpl) Checkout(ctx context.Context, userID *string, req *dto.CheckoutRequest) (*dto.CheckoutResponse, error) {
	if len(req.Items) == 0 {
		return nil, fmt.Errorf("empty order: %w", ErrValidation)
	}

	subtotal := decimal.Zero
	orderItems := make([]*model.OrderItem, len(req.Items))
	for i, item := range req.Items {
		if !item.Price.IsPositive() {
			return nil, fmt.Errorf("item %s has non-positive price: %w", item.ProductID, ErrValidation)
		}
		if item.Quantity <= 0 {
			return nil, fmt.Errorf("item %s has non-positive quantity: %w", item.ProductID, ErrValidation)
		}

		lineTotal := item.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		subtotal = subtotal.Add(lineTotal)

		orderItems[i] = &model.OrderItem{
			ProductID:   item.ProductID,
			ProductName: item.Name,
			Price:       item.Price,
			Quantity:    item.Quantity,
			LineTotal:   lineTotal,
		}
	}

	tax := subtotal.Mul(taxRate).Round(2)
	total := subtotal.Add(tax)

	order := &model.Order{
		ID:            uuid.NewString(),
		UserID:        userID,
		Email:         req.Customer.Email,
		Status:        model.OrderStatusPending,
		PaymentStatus: model.PaymentStatusPending,
		Subtotal:      subtotal,
		Tax:           tax,
		Total:         total,
		PaymentMethod: req.PaymentMethod,
		Metadata: model.OrderMetadata{
			IsBusiness:  req.Customer.IsBusiness,
			CompanyName: req.Customer.CompanyName,
			VATNumber:   req.Customer.VATNumber,
		},
	}
	for _, item := range orderItems {
		item.OrderID = order.ID
	}

	// Order and items land atomically; a number collision is retried once with
	// fresh randomness before giving up as a conflict.
	var err error
	for attempt := 0; attempt < 2; attempt++ {
		order.OrderNumber = newOrderNumber(time.Now())
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			if err := s.orderRepo.Create(ctx, tx, order); err != nil {
				return fmt.Errorf("store order: %w", err)
			}
			if err := s.orderRepo.CreateOrderItems(ctx, tx, orderItems); err != nil {
				return fmt.Errorf("store order items: %w", err)
			}
			return nil
		})
		if err == nil {
			break
		}
		if !errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, err
		}
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return nil, fmt.Errorf("order number collision: %w", ErrConflict)
	}

	if s.mollieClient != nil {
		return s.startProviderPayment(ctx, order)
	}
	return s.confirmWithoutProvider(ctx, order)
}

func (s *checkoutServiceImpl) startProviderPayment(ctx context.Context, order *model.Order) (*dto.CheckoutResponse, error) {
	payment, err := s.mollieClient.CreatePayment(ctx, &client.CreatePaymentRequest{
		Amount: client.PaymentAmount{
			Currency: "EUR",
			Value:    order.Total.StringFixed(2),
		},
		Description: fmt.Sprintf("Order %s", order.OrderNumber),
		Method:      order.PaymentMethod,
		RedirectURL: fmt.Sprintf("%s/checkout/success?order=%s", s.baseURL, order.OrderNumber),
		WebhookURL:  fmt.Sprintf("%s/api/webhooks/payment", s.baseURL),
		Metadata: client.PaymentMetadata{
			OrderID:     order.ID,
			OrderNumber: order.OrderNumber,
		},
	})
	if err != nil {
		// A configured but unreachable provider fails the checkout. Confirming
		// locally here would grant paid access without a payment.
		slog.Error("create provider payment", "order_id", order.ID, "error", err)
		if _, markErr := s.orderRepo.ApplyPaymentOutcome(ctx, order.ID, model.OrderStatusCancelled, model.PaymentStatusFailed); markErr != nil {
			slog.Error("mark order failed", "order_id", order.ID, "error", markErr)
		}
		return nil, fmt.Errorf("payment provider unavailable: %w", ErrUpstream)
	}

	if err := s.orderRepo.SetPaymentID(ctx, order.ID, payment.ID); err != nil {
		return nil, fmt.Errorf("store payment id: %w", err)
	}

	return &dto.CheckoutResponse{
		Success:     true,
		CheckoutURL: payment.CheckoutURL(),
		OrderID:     order.ID,
	}, nil
}

func (s *checkoutServiceImpl) confirmWithoutProvider(ctx context.Context, order *model.Order) (*dto.CheckoutResponse, error) {
	if !s.allowDevFallback {
		return nil, fmt.Errorf("no payment provider configured: %w", ErrUpstream)
	}

	if _, err := s.orderRepo.ApplyPaymentOutcome(ctx, order.ID, model.OrderStatusProcessing, model.PaymentStatusPaid); err != nil {
		return nil, fmt.Errorf("confirm order: %w", err)
	}

	slog.Warn("order confirmed without payment provider", "order_id", order.ID)

	if err := s.emailService.SendOrderConfirmation(order.Email, order.OrderNumber, order.Total); err != nil {
		slog.Error("send order confirmation", "order_id", order.ID, "error", err)
	}

	return &dto.CheckoutResponse{
		Success:     true,
		CheckoutURL: fmt.Sprintf("%s/checkout/success?order=%s", s.baseURL, order.OrderNumber),
		OrderID:     order.ID,
	}, nil
}
