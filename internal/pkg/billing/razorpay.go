package billing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
)

const (
	GatewayNameRazorpay       = "razorpay"
	defaultRazorpayAPIBaseURL = "https://api.razorpay.com/v1"
)

// APIError is a non-2xx response from the gateway API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay request failed: status=%d body=%s", e.StatusCode, e.Body)
}

type RazorpayClient struct {
	KeyIDValue string
	KeySecret  string
	APIBaseURL string

	HTTPClient *http.Client
	breaker    *gobreaker.CircuitBreaker[[]byte]
}

type razorpayOrder struct {
	ID         string            `json:"id"`
	Entity     string            `json:"entity"`
	Amount     int64             `json:"amount"`
	AmountPaid int64             `json:"amount_paid"`
	AmountDue  int64             `json:"amount_due"`
	Currency   string            `json:"currency"`
	Receipt    string            `json:"receipt"`
	Status     string            `json:"status"`
	Notes      map[string]string `json:"notes,omitempty"`
}

func NewRazorpayClient(keyID, keySecret, baseURL string, timeout time.Duration) *RazorpayClient {
	if strings.TrimSpace(baseURL) == "" {
		baseURL = defaultRazorpayAPIBaseURL
	}
	if timeout <= 0 {
		timeout = defaultGatewayTimeout
	}

	c := &RazorpayClient{
		KeyIDValue: strings.TrimSpace(keyID),
		KeySecret:  strings.TrimSpace(keySecret),
		APIBaseURL: strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		HTTPClient: &http.Client{
			Timeout: timeout,
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        GatewayNameRazorpay,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Printf("[Billing] circuit breaker %s: %s -> %s", name, from.String(), to.String())
		},
		// Client errors are the caller's fault and must not open the breaker.
		IsSuccessful: func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.StatusCode < 500
			}
			return err == nil
		},
	})
	return c
}

func (c *RazorpayClient) Name() string  { return GatewayNameRazorpay }
func (c *RazorpayClient) KeyID() string { return c.KeyIDValue }

func (c *RazorpayClient) CreateOrder(ctx context.Context, req OrderRequest) (*Order, error) {
	if req.AmountMinor <= 0 {
		return nil, fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	}
	payload := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
	}
	if len(req.Notes) > 0 {
		payload["notes"] = req.Notes
	}

	body, err := c.do(ctx, http.MethodPost, "/orders", payload)
	if err != nil {
		return nil, err
	}
	return decodeRazorpayOrder(body)
}

func (c *RazorpayClient) FetchOrder(ctx context.Context, orderID string) (*Order, error) {
	id := strings.TrimSpace(orderID)
	if id == "" {
		return nil, fmt.Errorf("%w: order id is required", ErrInvalidInput)
	}
	body, err := c.do(ctx, http.MethodGet, "/orders/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}
	return decodeRazorpayOrder(body)
}

func (c *RazorpayClient) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	if c.KeyIDValue == "" || c.KeySecret == "" {
		return nil, errors.New("RAZORPAY_KEY_ID/RAZORPAY_KEY_SECRET are not configured")
	}

	return c.breaker.Execute(func() ([]byte, error) {
		var reader io.Reader
		if payload != nil {
			raw, err := json.Marshal(payload)
			if err != nil {
				return nil, err
			}
			reader = bytes.NewReader(raw)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.APIBaseURL+path, reader)
		if err != nil {
			return nil, err
		}
		req.SetBasicAuth(c.KeyIDValue, c.KeySecret)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(body)}
		}
		return body, nil
	})
}

func decodeRazorpayOrder(body []byte) (*Order, error) {
	var raw razorpayOrder
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, err
	}
	if strings.TrimSpace(raw.ID) == "" {
		return nil, errors.New("razorpay returned an order without id")
	}
	return &Order{
		ID:          raw.ID,
		AmountMinor: raw.Amount,
		AmountPaid:  raw.AmountPaid,
		Currency:    raw.Currency,
		Receipt:     raw.Receipt,
		Status:      raw.Status,
	}, nil
}
