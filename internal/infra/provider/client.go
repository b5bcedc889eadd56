package provider

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"gearshare/internal/app/policies"
	"gearshare/internal/domain/shared/money"
)

var ErrClientNotConfigured = errors.New("provider: http client not configured")

// Client talks to the external payment provider's synchronous API. It is the
// only place that holds provider credentials; the rest of the system sees
// intent ids and client secrets.
type Client struct {
	HTTP    *http.Client
	BaseURL string
	APIKey  string
}

func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		HTTP:    &http.Client{Timeout: timeout},
		BaseURL: baseURL,
		APIKey:  apiKey,
	}
}

type intentRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

type intentResponse struct {
	ID           string `json:"id"`
	ClientSecret string `json:"client_secret"`
	Status       string `json:"status"`
}

func (c *Client) CreateIntent(ctx context.Context, amount money.Money, metadata map[string]string) (policies.PaymentIntent, error) {
	var resp intentResponse
	err := c.post(ctx, "/v1/payment_intents", intentRequest{
		Amount:   amount.Amount,
		Currency: amount.Currency,
		Metadata: metadata,
	}, &resp)
	if err != nil {
		return policies.PaymentIntent{}, err
	}
	return policies.PaymentIntent{ID: resp.ID, ClientSecret: resp.ClientSecret}, nil
}

func (c *Client) CaptureIntent(ctx context.Context, intentID string, amount money.Money) error {
	return c.post(ctx, "/v1/payment_intents/"+intentID+"/capture", map[string]any{
		"amount_to_capture": amount.Amount,
	}, nil)
}

func (c *Client) CancelIntent(ctx context.Context, intentID string) error {
	return c.post(ctx, "/v1/payment_intents/"+intentID+"/cancel", struct{}{}, nil)
}

func (c *Client) RefundIntent(ctx context.Context, intentID string, amount money.Money) error {
	return c.post(ctx, "/v1/refunds", map[string]any{
		"payment_intent": intentID,
		"amount":         amount.Amount,
	}, nil)
}

func (c *Client) CreateTransfer(ctx context.Context, amount money.Money, destinationAccount string, metadata map[string]string) (string, error) {
	var resp struct {
		ID string `json:"id"`
	}
	err := c.post(ctx, "/v1/transfers", map[string]any{
		"amount":      amount.Amount,
		"currency":    amount.Currency,
		"destination": destinationAccount,
		"metadata":    metadata,
	}, &resp)
	if err != nil {
		return "", err
	}
	return resp.ID, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	if c == nil || c.HTTP == nil {
		return ErrClientNotConfigured
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	res, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("provider: %s: %w", path, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return err
	}
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return &APIError{Status: res.StatusCode, Body: string(raw)}
	}
	if out == nil {
		return nil
	}
	return json.Unmarshal(raw, out)
}

// APIError preserves the provider's response for decline diagnostics.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("provider: status %d: %s", e.Status, e.Body)
}

var _ policies.ProviderPort = (*Client)(nil)
