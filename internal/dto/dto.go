package dto

import "github.com/shopspring/decimal"

type CheckoutItem struct {
	ProductID string          `json:"product_id" validate:"required"`
	Name      string          `json:"name" validate:"required"`
	Price     decimal.Decimal `json:"price" validate:"required"`
	Quantity  int             `json:"quantity" validate:"required,gt=0"`
}

type CustomerData struct {
	Email       string `json:"email" validate:"required,email"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	IsBusiness  bool   `json:"is_business"`
	CompanyName string `json:"company_name" validate:"required_if=IsBusiness true"`
	VATNumber   string `json:"vat_number"`
}

type CheckoutRequest struct {
	Items         []*CheckoutItem `json:"items" validate:"required,min=1,dive,required"`
	Customer      CustomerData    `json:"customer" validate:"required"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=ideal card banktransfer"`
}

type CheckoutResponse struct {
	Success     bool   `json:"success"`
	CheckoutURL string `json:"checkout_url"`
	OrderID     string `json:"order_id"`
}

type DownloadResponse struct {
	DownloadURL string `json:"download_url"`
	FileName    string `json:"file_name"`
	FileSize    int64  `json:"file_size"`
}

type WebhookRequest struct {
	// Provider payment id, delivered form-encoded by the provider.
	ID string `form:"id" json:"id"`
}
