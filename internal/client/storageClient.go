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

// StorageClient issues time-limited signed URLs against the object store.
// Product files live in a private bucket; permanent public URLs are never
// handed out.
type StorageClient interface {
	CreateSignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error)
}

type storageClientImpl struct {
	httpClient *http.Client
	baseURL    string
	serviceKey string
	bucket     string
}

func NewStorageClient(cfg *config.Storage) StorageClient {
	return &storageClientImpl{
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		baseURL:    cfg.BaseURL,
		serviceKey: cfg.ServiceKey,
		bucket:     cfg.Bucket,
	}
}

func (c *storageClientImpl) CreateSignedURL(ctx context.Context, path string, expiresIn time.Duration) (string, error) {
	payload := map[string]int{
		"expiresIn": int(expiresIn.Seconds()),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal sign request: %w", err)
	}

	url := fmt.Sprintf("%s/object/sign/%s/%s", c.baseURL, c.bucket, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(body))
	if err != nil {
		return "", fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("http client do: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("storage error %d: %s", resp.StatusCode, string(b))
	}

	var result struct {
		SignedURL string `json:"signedURL"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("decode sign response: %w", err)
	}

	return c.baseURL + result.SignedURL, nil
}
