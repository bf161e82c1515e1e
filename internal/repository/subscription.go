package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/model"
)

type SubscriptionRepository interface {
	HasActive(ctx context.Context, userID string, now time.Time) (bool, error)
}

type subscriptionRepoImpl struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) SubscriptionRepository {
	return &subscriptionRepoImpl{
		db: db,
	}
}

func (r *subscriptionRepoImpl) HasActive(ctx context.Context, userID string, now time.Time) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Subscription{}).
		Where("user_id = ?", userID).
		Where("status = ?", "active").
		Where("current_period_end >= ?", now).
		Count(&count).Error

	return count > 0, err
}
