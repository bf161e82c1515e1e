package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/model"
)

type OrderRepository interface {
	Create(ctx context.Context, tx *gorm.DB, order *model.Order) error
	CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error
	FindByID(ctx context.Context, orderID string) (*model.Order, error)
	SetPaymentID(ctx context.Context, orderID, paymentID string) error

	// ApplyPaymentOutcome moves a pending order into a terminal state. It only
	// ever touches status columns, never the monetary ones, and returns the
	// number of rows changed so callers can tell a fresh transition from an
	// idempotent replay.
	ApplyPaymentOutcome(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (int64, error)

	HasPaidItemForProduct(ctx context.Context, userID, productID string) (bool, error)
	HasPaidBundleWithProduct(ctx context.Context, userID, productID string) (bool, error)
}

type orderRepoImpl struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepoImpl{
		db: db,
	}
}

func (r *orderRepoImpl) Create(ctx context.Context, tx *gorm.DB, order *model.Order) error {
	return tx.WithContext(ctx).Create(order).Error
}

func (r *orderRepoImpl) CreateOrderItems(ctx context.Context, tx *gorm.DB, items []*model.OrderItem) error {
	return tx.WithContext(ctx).Create(&items).Error
}

func (r *orderRepoImpl) FindByID(ctx context.Context, orderID string) (*model.Order, error) {
	var order model.Order
	err := r.db.WithContext(ctx).
		Where("id = ?", orderID).
		First(&order).Error

	if err != nil {
		return nil, err
	}

	return &order, nil
}

func (r *orderRepoImpl) SetPaymentID(ctx context.Context, orderID, paymentID string) error {
	return r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_id": paymentID,
			"updated_at": time.Now(),
		}).Error
}

func (r *orderRepoImpl) ApplyPaymentOutcome(ctx context.Context, orderID string, status model.OrderStatus, paymentStatus model.PaymentStatus) (int64, error) {
	result := r.db.WithContext(ctx).Model(&model.Order{}).
		Where("id = ? AND payment_status = ?", orderID, model.PaymentStatusPending).
		Updates(map[string]interface{}{
			"status":         status,
			"payment_status": paymentStatus,
			"updated_at":     time.Now(),
		})

	return result.RowsAffected, result.Error
}

func (r *orderRepoImpl) HasPaidItemForProduct(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Where("orders.user_id = ?", userID).
		Where("orders.payment_status = ?", model.PaymentStatusPaid).
		Where("order_items.product_id = ?", productID).
		Count(&count).Error

	return count > 0, err
}

// HasPaidBundleWithProduct reports whether the user bought a bundle that
// contains the product as a member.
func (r *orderRepoImpl) HasPaidBundleWithProduct(ctx context.Context, userID, productID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.OrderItem{}).
		Joins("JOIN orders ON orders.id = order_items.order_id").
		Joins("JOIN bundle_items ON bundle_items.bundle_id = order_items.product_id").
		Where("orders.user_id = ?", userID).
		Where("orders.payment_status = ?", model.PaymentStatusPaid).
		Where("bundle_items.product_id = ?", productID).
		Count(&count).Error

	return count > 0, err
}
