package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type AccessTier string

const (
	AccessTierFree     AccessTier = "free"
	AccessTierPaid     AccessTier = "paid"
	AccessTierSubsOnly AccessTier = "subscription_only"
	AccessTierMixed    AccessTier = "mixed"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "pending"
	PaymentStatusPaid    PaymentStatus = "paid"
	PaymentStatusFailed  PaymentStatus = "failed"
)

type Product struct {
	ID         string          `gorm:"primaryKey;size:64;not null"`
	Name       string          `gorm:"size:255;not null"`
	AccessTier AccessTier      `gorm:"size:32;index;not null;default:paid"`
	Price      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	IsBundle   bool            `gorm:"not null;default:false"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// BundleItem links a bundle product to one of its member products.
type BundleItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → products.id (the bundle)
	BundleID string `gorm:"size:64;uniqueIndex:idx_bundle_member;not null"`
	// FK → products.id (the member)
	ProductID string `gorm:"size:64;uniqueIndex:idx_bundle_member;index;not null"`
	CreatedAt time.Time
}

type ProductFile struct {
	ID string `gorm:"primaryKey;size:64;not null"`
	// FK → products.id
	ProductID   string `gorm:"size:64;index;not null"`
	StoragePath string `gorm:"size:512;not null"`
	FileName    string `gorm:"size:255;not null"`
	FileSize    int64  `gorm:"not null"`
	// Only consulted when the parent product's tier is "mixed".
	AccessTierOverride AccessTier `gorm:"size:32"`
	DownloadCount      int64      `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// OrderMetadata carries business-customer flags on an order. It is a tagged
// struct rather than an open map so the reconciler has a compile-time shape.
type OrderMetadata struct {
	IsBusiness  bool   `json:"is_business"`
	CompanyName string `json:"company_name,omitempty"`
	VATNumber   string `json:"vat_number,omitempty"`
}

func (m OrderMetadata) Value() (driver.Value, error) {
	b, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (m *OrderMetadata) Scan(value any) error {
	if value == nil {
		*m = OrderMetadata{}
		return nil
	}
	var b []byte
	switch v := value.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	default:
		return fmt.Errorf("unsupported metadata column type %T", value)
	}
	if len(b) == 0 {
		*m = OrderMetadata{}
		return nil
	}
	return json.Unmarshal(b, m)
}

type Order struct {
	ID          string `gorm:"primaryKey;size:64;not null"`
	OrderNumber string `gorm:"size:64;uniqueIndex;not null"`
	// Nullable for guest checkout.
	UserID        *string         `gorm:"size:64;index"`
	Email         string          `gorm:"size:255;not null"`
	Status        OrderStatus     `gorm:"size:32;index;not null;default:pending"`
	PaymentStatus PaymentStatus   `gorm:"size:32;index;not null;default:pending"`
	Subtotal      decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Tax           decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Total         decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	PaymentMethod string          `gorm:"size:32;not null"`
	// Provider-side payment reference.
	PaymentID string        `gorm:"size:64;index"`
	Metadata  OrderMetadata `gorm:"type:text"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderItem snapshots a purchased product at checkout time. Immutable.
type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID string `gorm:"size:64;index;not null"`
	// FK → products.id
	ProductID   string          `gorm:"size:64;index;not null"`
	ProductName string          `gorm:"size:255;not null"`
	Price       decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Quantity    int             `gorm:"not null"`
	LineTotal   decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	CreatedAt   time.Time
}

// Subscription lifecycle is owned by external billing; this service only
// reads status and period end.
type Subscription struct {
	ID               string `gorm:"primaryKey;size:64;not null"`
	UserID           string `gorm:"size:64;index;not null"`
	Status           string `gorm:"size:32;not null"`
	CurrentPeriodEnd time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// DownloadLog is an append-only audit row. Written on each granted download,
// never read by the service.
type DownloadLog struct {
	ID        uint   `gorm:"primaryKey"`
	UserID    string `gorm:"size:64;index;not null"`
	FileID    string `gorm:"size:64;index;not null"`
	ProductID string `gorm:"size:64;not null"`
	IP        string `gorm:"size:64"`
	UserAgent string `gorm:"size:512"`
	CreatedAt time.Time
}
