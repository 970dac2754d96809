// Package paystack is a minimal client for the Paystack transaction API:
// initializing a payment, verifying a transaction by reference, and checking
// webhook signatures.
package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// ErrGatewayUnavailable is returned when the gateway cannot be reached or
// responds with a server error.
var ErrGatewayUnavailable = errors.New("payment gateway unavailable")

// Client talks to the Paystack REST API. The zero value is not usable; use New.
type Client struct {
	baseURL string
	secret  string
	http    *http.Client
}

// New builds a Client. baseURL is overridable for tests; timeout bounds every
// request.
func New(baseURL, secret string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		secret:  secret,
		http:    &http.Client{Timeout: timeout},
	}
}

// InitializeRequest describes a payment to start.
type InitializeRequest struct {
	Email       string // Paystack requires an email; a placeholder is fine
	Amount      int64  // minor units (pesewas)
	Reference   string // our locally generated reference
	CallbackURL string
	OrderID     string // carried in metadata so the webhook can find the order
}

// InitializeResult is what the caller needs to hand the buyer off to payment.
type InitializeResult struct {
	AuthorizationURL string
	AccessCode       string
	Reference        string // gateway reference, authoritative from now on
}

// Transaction is the verified state of a payment as reported by the gateway.
type Transaction struct {
	Status    string // "success", "failed", "abandoned", ...
	Amount    int64  // minor units
	Reference string
	OrderID   string // from metadata
	Channel   string
	PaidAt    string
}

type apiEnvelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// Initialize starts a transaction and returns the authorization URL the buyer
// must visit.
func (c *Client) Initialize(ctx context.Context, req InitializeRequest) (*InitializeResult, error) {
	body := map[string]any{
		"email":     req.Email,
		"amount":    req.Amount,
		"reference": req.Reference,
		"currency":  "GHS",
		"channels":  []string{"mobile_money", "card"},
		"metadata":  map[string]any{"order_id": req.OrderID},
	}
	if req.CallbackURL != "" {
		body["callback_url"] = req.CallbackURL
	}

	data, err := c.post(ctx, "/transaction/initialize", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		AuthorizationURL string `json:"authorization_url"`
		AccessCode       string `json:"access_code"`
		Reference        string `json:"reference"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("paystack: decode initialize response: %w", err)
	}
	return &InitializeResult{
		AuthorizationURL: out.AuthorizationURL,
		AccessCode:       out.AccessCode,
		Reference:        out.Reference,
	}, nil
}

// Verify fetches the current state of a transaction by reference.
func (c *Client) Verify(ctx context.Context, reference string) (*Transaction, error) {
	data, err := c.get(ctx, "/transaction/verify/"+url.PathEscape(reference))
	if err != nil {
		return nil, err
	}

	var out struct {
		Status    string `json:"status"`
		Amount    int64  `json:"amount"`
		Reference string `json:"reference"`
		Channel   string `json:"channel"`
		PaidAt    string `json:"paid_at"`
		Metadata  struct {
			OrderID string `json:"order_id"`
		} `json:"metadata"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("paystack: decode verify response: %w", err)
	}
	return &Transaction{
		Status:    out.Status,
		Amount:    out.Amount,
		Reference: out.Reference,
		OrderID:   out.Metadata.OrderID,
		Channel:   out.Channel,
		PaidAt:    out.PaidAt,
	}, nil
}

// VerifySignature reports whether sig is the hex HMAC-SHA512 of body under
// secret, compared in constant time. Paystack sends it in the
// x-paystack-signature header.
func VerifySignature(body []byte, sig, secret string) bool {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(body)
	want := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(want), []byte(sig))
}

func (c *Client) post(ctx context.Context, path string, body any) (json.RawMessage, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req)
}

func (c *Client) get(ctx context.Context, path string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	return c.do(req)
}

func (c *Client) do(req *http.Request) (json.RawMessage, error) {
	req.Header.Set("Authorization", "Bearer "+c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var env apiEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("paystack: decode envelope: %w", err)
	}
	if !env.Status {
		return nil, fmt.Errorf("paystack: %s", env.Message)
	}
	return env.Data, nil
}
