package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/client"
	"github.com/littlefidan/littlefidan-sub001/internal/dto"
	"github.com/littlefidan/littlefidan-sub001/internal/model"
	"github.com/littlefidan/littlefidan-sub001/internal/repository"
)

const signedURLExpiry = time.Hour

// DownloadContext carries request audit fields into the download log.
type DownloadContext struct {
	IP        string
	UserAgent string
}

type EntitlementService interface {
	// Download checks whether userID may download fileID and, if so, returns a
	// time-limited signed URL.
	Download(ctx context.Context, userID, fileID string, dc DownloadContext) (*dto.DownloadResponse, error)
}

type entitlementServiceImpl struct {
	storageClient    client.StorageClient
	productRepo      repository.ProductRepository
	orderRepo        repository.OrderRepository
	subscriptionRepo repository.SubscriptionRepository
	downloadLogRepo  repository.DownloadLogRepository
}

func NewEntitlementService(
	storageClient client.StorageClient,
	productRepo repository.ProductRepository,
	orderRepo repository.OrderRepository,
	subscriptionRepo repository.SubscriptionRepository,
	downloadLogRepo repository.DownloadLogRepository,
) EntitlementService {
	return &entitlementServiceImpl{
		storageClient:    storageClient,
		productRepo:      productRepo,
		orderRepo:        orderRepo,
		subscriptionRepo: subscriptionRepo,
		downloadLogRepo:  downloadLogRepo,
	}
}

// grantRule is one entry in the ordered entitlement check. Rules run in slice
// order and the first one returning true wins.
type grantRule struct {
	name  string
	check func(ctx context.Context) (bool, error)
}

// effectiveTier resolves the tier that governs a file. A per-file override is
// only honoured when the parent product is "mixed".
func effectiveTier(product *model.Product, file *model.ProductFile) model.AccessTier {
	if product.AccessTier == model.AccessTierMixed && file.AccessTierOverride != "" {
		return file.AccessTierOverride
	}
	return product.AccessTier
}

// Download evaluates the grant rules for userID. Rejecting sessionless
// callers is the auth middleware's job; an empty userID just means the
// identity-based rules cannot match, so only the free tier can grant.
func (s *entitlementServiceImpl) Download(ctx context.Context, userID, fileID string, dc DownloadContext) (*dto.DownloadResponse, error) {
	file, err := s.productRepo.FindFileByID(ctx, fileID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("file %s: %w", fileID, ErrNotFound)
		}
		return nil, fmt.Errorf("find file: %w", err)
	}

	product, err := s.productRepo.FindByID(ctx, file.ProductID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("product %s: %w", file.ProductID, ErrNotFound)
		}
		return nil, fmt.Errorf("find product: %w", err)
	}

	tier := effectiveTier(product, file)

	rules := []grantRule{
		{
			name: "purchase",
			check: func(ctx context.Context) (bool, error) {
				if userID == "" {
					return false, nil
				}
				return s.orderRepo.HasPaidItemForProduct(ctx, userID, product.ID)
			},
		},
		{
			name: "bundle",
			check: func(ctx context.Context) (bool, error) {
				if userID == "" {
					return false, nil
				}
				return s.orderRepo.HasPaidBundleWithProduct(ctx, userID, product.ID)
			},
		},
		{
			name: "subscription",
			check: func(ctx context.Context) (bool, error) {
				if userID == "" || (tier != model.AccessTierSubsOnly && tier != model.AccessTierMixed) {
					return false, nil
				}
				return s.subscriptionRepo.HasActive(ctx, userID, time.Now())
			},
		},
		{
			name: "free",
			check: func(ctx context.Context) (bool, error) {
				return tier == model.AccessTierFree, nil
			},
		},
	}

	granted := ""
	for _, rule := range rules {
		ok, err := rule.check(ctx)
		if err != nil {
			return nil, fmt.Errorf("entitlement rule %s: %w", rule.name, err)
		}
		if ok {
			granted = rule.name
			break
		}
	}
	if granted == "" {
		return nil, fmt.Errorf("no entitlement for file %s: %w", fileID, ErrForbidden)
	}

	signedURL, err := s.storageClient.CreateSignedURL(ctx, file.StoragePath, signedURLExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign download url: %w", err)
	}

	// Audit log and counter are best-effort; a failed write must not block the
	// download the user is already entitled to.
	go s.recordDownload(userID, file, granted, dc)

	return &dto.DownloadResponse{
		DownloadURL: signedURL,
		FileName:    file.FileName,
		FileSize:    file.FileSize,
	}, nil
}

func (s *entitlementServiceImpl) recordDownload(userID string, file *model.ProductFile, grant string, dc DownloadContext) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.downloadLogRepo.Create(ctx, &model.DownloadLog{
		UserID:    userID,
		FileID:    file.ID,
		ProductID: file.ProductID,
		IP:        dc.IP,
		UserAgent: dc.UserAgent,
	}); err != nil {
		slog.Error("write download log", "file_id", file.ID, "error", err)
	}

	if err := s.productRepo.IncrementDownloadCount(ctx, file.ID); err != nil {
		slog.Error("increment download count", "file_id", file.ID, "error", err)
	}

	slog.Debug("download granted", "file_id", file.ID, "user_id", userID, "rule", grant)
}
