package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/littlefidan/littlefidan-sub001/internal/model"
	"github.com/littlefidan/littlefidan-sub001/internal/repository"
)

type entitlementFixture struct {
	db  *gorm.DB
	svc EntitlementService
}

func newEntitlementFixture(t *testing.T) *entitlementFixture {
	t.Helper()
	db := setupDB(t)
	svc := NewEntitlementService(
		&fakeStorage{},
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewDownloadLogRepository(db),
	)
	return &entitlementFixture{db: db, svc: svc}
}

func (f *entitlementFixture) seedProductWithFile(t *testing.T, productID string, tier model.AccessTier) *model.ProductFile {
	t.Helper()
	require.NoError(t, f.db.Create(&model.Product{
		ID:         productID,
		Name:       productID,
		AccessTier: tier,
		Price:      money("5.00"),
	}).Error)

	file := &model.ProductFile{
		ID:          productID + "-file",
		ProductID:   productID,
		StoragePath: "files/" + productID + ".pdf",
		FileName:    productID + ".pdf",
		FileSize:    1024,
	}
	require.NoError(t, f.db.Create(file).Error)
	return file
}

func (f *entitlementFixture) seedPaidOrder(t *testing.T, userID, productID string) {
	t.Helper()
	orderID := "order-" + userID + "-" + productID
	require.NoError(t, f.db.Create(&model.Order{
		ID:            orderID,
		OrderNumber:   "LF-TEST-" + orderID,
		UserID:        &userID,
		Email:         userID + "@example.com",
		Status:        model.OrderStatusProcessing,
		PaymentStatus: model.PaymentStatusPaid,
		Subtotal:      money("5.00"),
		Tax:           money("1.05"),
		Total:         money("6.05"),
		PaymentMethod: "ideal",
	}).Error)
	require.NoError(t, f.db.Create(&model.OrderItem{
		OrderID:     orderID,
		ProductID:   productID,
		ProductName: productID,
		Price:       money("5.00"),
		Quantity:    1,
		LineTotal:   money("5.00"),
	}).Error)
}

func (f *entitlementFixture) seedSubscription(t *testing.T, userID string, periodEnd time.Time) {
	t.Helper()
	require.NoError(t, f.db.Create(&model.Subscription{
		ID:               "sub-" + userID,
		UserID:           userID,
		Status:           "active",
		CurrentPeriodEnd: periodEnd,
	}).Error)
}

func TestDownload_PurchaseGrantsAnyTier(t *testing.T) {
	for _, tier := range []model.AccessTier{
		model.AccessTierFree, model.AccessTierPaid,
		model.AccessTierSubsOnly, model.AccessTierMixed,
	} {
		t.Run(string(tier), func(t *testing.T) {
			f := newEntitlementFixture(t)
			file := f.seedProductWithFile(t, "prod-a", tier)
			f.seedPaidOrder(t, "user-1", "prod-a")

			resp, err := f.svc.Download(context.Background(), "user-1", file.ID, DownloadContext{})
			require.NoError(t, err)
			assert.Contains(t, resp.DownloadURL, file.StoragePath)
			assert.Contains(t, resp.DownloadURL, "exp=3600")
			assert.Equal(t, file.FileName, resp.FileName)
			assert.Equal(t, int64(1024), resp.FileSize)
		})
	}
}

func TestDownload_BundlePurchaseGrants(t *testing.T) {
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-b", model.AccessTierPaid)

	require.NoError(t, f.db.Create(&model.Product{
		ID:         "bundle-1",
		Name:       "Season bundle",
		AccessTier: model.AccessTierPaid,
		Price:      money("15.00"),
		IsBundle:   true,
	}).Error)
	require.NoError(t, f.db.Create(&model.BundleItem{
		BundleID:  "bundle-1",
		ProductID: "prod-b",
	}).Error)
	f.seedPaidOrder(t, "user-2", "bundle-1")

	_, err := f.svc.Download(context.Background(), "user-2", file.ID, DownloadContext{})
	require.NoError(t, err)
}

func TestDownload_SubscriptionRules(t *testing.T) {
	now := time.Now()
	tests := []struct {
		name      string
		tier      model.AccessTier
		periodEnd time.Time
		hasSub    bool
		wantErr   error
	}{
		{"active sub, subscription_only", model.AccessTierSubsOnly, now.Add(24 * time.Hour), true, nil},
		{"active sub, mixed", model.AccessTierMixed, now.Add(24 * time.Hour), true, nil},
		{"active sub, paid tier", model.AccessTierPaid, now.Add(24 * time.Hour), true, ErrForbidden},
		{"expired sub, subscription_only", model.AccessTierSubsOnly, now.Add(-24 * time.Hour), true, ErrForbidden},
		{"no sub, subscription_only", model.AccessTierSubsOnly, time.Time{}, false, ErrForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEntitlementFixture(t)
			file := f.seedProductWithFile(t, "prod-s", tt.tier)
			if tt.hasSub {
				f.seedSubscription(t, "user-3", tt.periodEnd)
			}

			_, err := f.svc.Download(context.Background(), "user-3", file.ID, DownloadContext{})
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestDownload_FreeTierGrantsWithoutPurchase(t *testing.T) {
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-free", model.AccessTierFree)

	_, err := f.svc.Download(context.Background(), "user-4", file.ID, DownloadContext{})
	require.NoError(t, err)
}

func TestDownload_PaidTierWithoutPurchaseDenied(t *testing.T) {
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-p", model.AccessTierPaid)

	_, err := f.svc.Download(context.Background(), "user-5", file.ID, DownloadContext{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDownload_MixedTierHonoursFileOverride(t *testing.T) {
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-m", model.AccessTierMixed)

	// the parent is mixed but this particular file is a free sample
	require.NoError(t, f.db.Model(&model.ProductFile{}).
		Where("id = ?", file.ID).
		Update("access_tier_override", model.AccessTierFree).Error)

	_, err := f.svc.Download(context.Background(), "user-6", file.ID, DownloadContext{})
	require.NoError(t, err)
}

func TestDownload_UnknownFile(t *testing.T) {
	f := newEntitlementFixture(t)

	_, err := f.svc.Download(context.Background(), "user-7", "no-such-file", DownloadContext{})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDownload_AnonymousFreeTierGranted(t *testing.T) {
	// Sessionless callers are normally stopped by the auth middleware, but
	// when the checker itself is reached a free file still grants.
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-anon", model.AccessTierFree)

	resp, err := f.svc.Download(context.Background(), "", file.ID, DownloadContext{})
	require.NoError(t, err)
	assert.Contains(t, resp.DownloadURL, file.StoragePath)
}

func TestDownload_AnonymousPaidTierDenied(t *testing.T) {
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-anon-paid", model.AccessTierPaid)

	_, err := f.svc.Download(context.Background(), "", file.ID, DownloadContext{})
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDownload_RecordsLogAndCounter(t *testing.T) {
	f := newEntitlementFixture(t)
	file := f.seedProductWithFile(t, "prod-log", model.AccessTierFree)

	_, err := f.svc.Download(context.Background(), "user-8", file.ID, DownloadContext{
		IP:        "203.0.113.9",
		UserAgent: "test-agent",
	})
	require.NoError(t, err)

	// the audit write is fire-and-forget, so poll for it
	require.Eventually(t, func() bool {
		var logs int64
		if err := f.db.Model(&model.DownloadLog{}).Count(&logs).Error; err != nil || logs != 1 {
			return false
		}
		var updated model.ProductFile
		if err := f.db.First(&updated, "id = ?", file.ID).Error; err != nil {
			return false
		}
		return updated.DownloadCount == 1
	}, 2*time.Second, 10*time.Millisecond)

	var entry model.DownloadLog
	require.NoError(t, f.db.First(&entry).Error)
	assert.Equal(t, "user-8", entry.UserID)
	assert.Equal(t, file.ID, entry.FileID)
	assert.Equal(t, "203.0.113.9", entry.IP)
	assert.Equal(t, "test-agent", entry.UserAgent)
}

func TestDownload_SigningFailureSurfaces(t *testing.T) {
	db := setupDB(t)
	svc := NewEntitlementService(
		&fakeStorage{err: assert.AnError},
		repository.NewProductRepository(db),
		repository.NewOrderRepository(db),
		repository.NewSubscriptionRepository(db),
		repository.NewDownloadLogRepository(db),
	)

	f := &entitlementFixture{db: db, svc: svc}
	file := f.seedProductWithFile(t, "prod-err", model.AccessTierFree)

	_, err := svc.Download(context.Background(), "user-9", file.ID, DownloadContext{})
	require.Error(t, err)

	// no audit row for a download that never happened
	var logs int64
	require.NoError(t, db.Model(&model.DownloadLog{}).Count(&logs).Error)
	assert.Zero(t, logs)
}
