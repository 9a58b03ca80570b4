// Package gateway is the HTTP client of the payment gateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pharmacy/internal/core/ports"
	"pharmacy/internal/pkg/errs"
)

const DefaultTimeout = 10 * time.Second

var _ ports.PaymentGateway = (*Client)(nil)

type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errs.NewValueIsRequiredError("gateway base url")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, errs.NewValueIsInvalidErrorWithCause("gateway base url", err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
	}, nil
}

type initiateRequest struct {
	OrderID     string `json:"order_id"`
	OrderNumber string `json:"order_number"`
	Amount      string `json:"amount"`
	Currency    string `json:"currency"`
	Method      string `json:"method"`
}

type initiateResponse struct {
	Reference   string `json:"reference"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
	Reason      string `json:"reason"`
}

// Initiate opens a payment session. req.IdempotencyKey is sent as the Idempotency-Key
// header, falling back to the order id when empty, so a repeated call for the same
// attempt returns the session of the first one.
//
// A 402 or 422 answer is a declined session with Accepted false. Transport failures and
// other non-2xx answers are errors.
func (c *Client) Initiate(ctx context.Context, req ports.PaymentRequest) (ports.PaymentSession, error) {
	body, err := json.Marshal(initiateRequest{
		OrderID:     req.OrderID.String(),
		OrderNumber: req.OrderNumber,
		Amount:      req.Amount.StringFixed(2),
		Currency:    req.Currency,
		Method:      req.Method,
	})
	if err != nil {
		return ports.PaymentSession{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/payments", bytes.NewReader(body))
	if err != nil {
		return ports.PaymentSession{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "application/json")
	key := req.IdempotencyKey
	if key == "" {
		key = req.OrderID.String()
	}
	httpReq.Header.Set("Idempotency-Key", key)
	if c.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return ports.PaymentSession{}, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
	case resp.StatusCode == http.StatusPaymentRequired || resp.StatusCode == http.StatusUnprocessableEntity:
	default:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return ports.PaymentSession{}, fmt.Errorf("gateway http status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out initiateResponse
	if err = json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return ports.PaymentSession{}, fmt.Errorf("decode gateway response: %w", err)
	}

	accepted := resp.StatusCode < 300 && !strings.EqualFold(out.Status, "declined")
	reason := out.Reason
	if !accepted && reason == "" {
		reason = "declined by gateway"
	}

	return ports.PaymentSession{
		Reference:   out.Reference,
		RedirectURL: out.RedirectURL,
		Accepted:    accepted,
		Reason:      reason,
	}, nil
}
