package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/littlefidan/littlefidan-sub001/internal/client"
	"github.com/littlefidan/littlefidan-sub001/internal/model"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	// one pooled connection so every goroutine sees the same in-memory db
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&model.Product{},
		&model.BundleItem{},
		&model.ProductFile{},
		&model.Order{},
		&model.OrderItem{},
		&model.Subscription{},
		&model.DownloadLog{},
	))

	return db
}

// fakeMollie implements client.MollieClient against an in-memory payment map.
type fakeMollie struct {
	createErr error
	created   []*client.CreatePaymentRequest
	payments  map[string]*client.Payment
	nextID    int
}

func newFakeMollie() *fakeMollie {
	return &fakeMollie{payments: map[string]*client.Payment{}}
}

func (f *fakeMollie) CreatePayment(ctx context.Context, req *client.CreatePaymentRequest) (*client.Payment, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.created = append(f.created, req)
	f.nextID++
	p := &client.Payment{
		ID:       fmt.Sprintf("tr_test_%d", f.nextID),
		Status:   "open",
		Amount:   req.Amount,
		Metadata: req.Metadata,
		Links: client.PaymentLinks{
			Checkout: client.PaymentLink{Href: "https://pay.example/checkout/" + fmt.Sprint(f.nextID)},
		},
	}
	f.payments[p.ID] = p
	return p, nil
}

func (f *fakeMollie) GetPayment(ctx context.Context, paymentID string) (*client.Payment, error) {
	p, ok := f.payments[paymentID]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", paymentID)
	}
	return p, nil
}

func (f *fakeMollie) setStatus(paymentID, status string) {
	f.payments[paymentID].Status = status
}

// fakeEmail records confirmations instead of dialing SMTP.
type fakeEmail struct {
	sent []string // order numbers
	err  error
}

func (f *fakeEmail) SendOrderConfirmation(to, orderNumber string, total decimal.Decimal) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, orderNumber)
	return nil
}

// fakeStorage returns deterministic signed URLs.
type fakeStorage struct {
	err error
}

func (f *fakeStorage) CreateSignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return fmt.Sprintf("https://storage.example/sign/%s?exp=%d", path, int(expiresIn.Seconds())), nil
}
