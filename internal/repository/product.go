package repository

import (
	"context"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/littlefidan/littlefidan-sub001/internal/model"
)

type ProductRepository interface {
	Seed(ctx context.Context) error
	FindByID(ctx context.Context, productID string) (*model.Product, error)
	FindFileByID(ctx context.Context, fileID string) (*model.ProductFile, error)
	IncrementDownloadCount(ctx context.Context, fileID string) error
}

type productRepoImpl struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepoImpl{
		db: db,
	}
}

// Seed fills the catalog with a small fixture set for dev environments.
// Safe to run on every start.
func (r *productRepoImpl) Seed(ctx context.Context) error {
	products := []model.Product{
		{ID: "autumn-worksheets", Name: "Autumn Worksheets", AccessTier: model.AccessTierPaid, Price: decimal.RequireFromString("4.95")},
		{ID: "alphabet-sampler", Name: "Alphabet Sampler", AccessTier: model.AccessTierFree, Price: decimal.Zero},
		{ID: "members-flashcards", Name: "Members Flashcards", AccessTier: model.AccessTierSubsOnly, Price: decimal.RequireFromString("3.50")},
		{ID: "starter-pack", Name: "Starter Pack", AccessTier: model.AccessTierPaid, Price: decimal.RequireFromString("9.95"), IsBundle: true},
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&products).Error; err != nil {
		return err
	}

	files := []model.ProductFile{
		{ID: "autumn-worksheets-pdf", ProductID: "autumn-worksheets", StoragePath: "files/autumn-worksheets.pdf", FileName: "autumn-worksheets.pdf", FileSize: 2 << 20},
		{ID: "alphabet-sampler-pdf", ProductID: "alphabet-sampler", StoragePath: "files/alphabet-sampler.pdf", FileName: "alphabet-sampler.pdf", FileSize: 1 << 20},
		{ID: "members-flashcards-pdf", ProductID: "members-flashcards", StoragePath: "files/members-flashcards.pdf", FileName: "members-flashcards.pdf", FileSize: 3 << 20},
	}
	if err := r.db.WithContext(ctx).Clauses(clause.OnConflict{DoNothing: true}).Create(&files).Error; err != nil {
		return err
	}

	bundleItems := []model.BundleItem{
		{BundleID: "starter-pack", ProductID: "autumn-worksheets"},
		{BundleID: "starter-pack", ProductID: "members-flashcards"},
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&bundleItems).Error
}

func (r *productRepoImpl) FindByID(ctx context.Context, productID string) (*model.Product, error) {
	var product model.Product
	err := r.db.WithContext(ctx).
		Where("id = ?", productID).
		First(&product).Error

	if err != nil {
		return nil, err
	}

	return &product, nil
}

func (r *productRepoImpl) FindFileByID(ctx context.Context, fileID string) (*model.ProductFile, error) {
	var file model.ProductFile
	err := r.db.WithContext(ctx).
		Where("id = ?", fileID).
		First(&file).Error

	if err != nil {
		return nil, err
	}

	return &file, nil
}

// IncrementDownloadCount bumps the counter in the database so concurrent
// downloads of the same file cannot lose updates.
func (r *productRepoImpl) IncrementDownloadCount(ctx context.Context, fileID string) error {
	return r.db.WithContext(ctx).
		Model(&model.ProductFile{}).
		Where("id = ?", fileID).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1)).
		Error
}
