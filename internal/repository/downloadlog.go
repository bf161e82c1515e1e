package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/model"
)

type DownloadLogRepository interface {
	Create(ctx context.Context, entry *model.DownloadLog) error
}

type downloadLogRepoImpl struct {
	db *gorm.DB
}

func NewDownloadLogRepository(db *gorm.DB) DownloadLogRepository {
	return &downloadLogRepoImpl{
		db: db,
	}
}

func (r *downloadLogRepoImpl) Create(ctx context.Context, entry *model.DownloadLog) error {
	return r.db.WithContext(ctx).Create(entry).Error
}
