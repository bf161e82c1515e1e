package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/littlefidan/littlefidan-sub001/internal/config"
)

// MollieClient talks to the hosted-payment provider. Payments are created at
// checkout and re-fetched by id when the provider calls our webhook; the
// webhook payload itself is never trusted.
type MollieClient interface {
	CreatePayment(ctx context.Context, req *CreatePaymentRequest) (*Payment, error)
	GetPayment(ctx context.Context, paymentID string) (*Payment, error)
}

type mollieClientImpl struct {
	httpClient *http.Client
	baseApiURL string
	apiKey     string
}

type PaymentAmount struct {
	Currency string `json:"currency"`
	Value    string `json:"value"`
}

// PaymentMetadata links a provider payment back to our order.
type PaymentMetadata struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
}

type CreatePaymentRequest struct {
	Amount      PaymentAmount   `json:"amount"`
	Description string          `json:"description"`
	Method      string          `json:"method,omitempty"`
	RedirectURL string          `json:"redirectUrl"`
	WebhookURL  string          `json:"webhookUrl"`
	Metadata    PaymentMetadata `json:"metadata"`
}

type PaymentLink struct {
	Href string `json:"href"`
}

type PaymentLinks struct {
	Checkout PaymentLink `json:"checkout"`
}

type Payment struct {
	ID       string          `json:"id"`
	Status   string          `json:"status"`
	Amount   PaymentAmount   `json:"amount"`
	Metadata PaymentMetadata `json:"metadata"`
	Links    PaymentLinks    `json:"_links"`
}

// CheckoutURL returns the provider-hosted payment page for this payment.
func (p *Payment) CheckoutURL() string {
	return p.Links.Checkout.Href
}

func NewMollieClient(cfg *config.Mollie) MollieClient {
	return &mollieClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseApiURL: cfg.BaseApiURL,
		apiKey:     cfg.APIKey,
	}
}

func (c *mollieClientImpl) CreatePayment(ctx context.Context, createReq *CreatePaymentRequest) (*Payment, error) {
	body, err := json.Marshal(createReq)
	if err != nil {
		return nil, fmt.Errorf("marshal payment request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseApiURL+"/payments", bytes.NewBuffer(body))
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider error %d: %s", resp.StatusCode, string(b))
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	return &payment, nil
}

func (c *mollieClientImpl) GetPayment(ctx context.Context, paymentID string) (*Payment, error) {
	url := fmt.Sprintf("%s/payments/%s", c.baseApiURL, paymentID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("provider error %d: %s", resp.StatusCode, string(b))
	}

	var payment Payment
	if err := json.NewDecoder(resp.Body).Decode(&payment); err != nil {
		return nil, fmt.Errorf("decode payment response: %w", err)
	}

	return &payment, nil
}
