// Package hubtel is a minimal client for the Hubtel messaging APIs: plain SMS
// delivery (quick-send) and the hosted OTP send/verify flow.
package hubtel

import (
	"bytes"
	"context"
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
var ErrGatewayUnavailable = errors.New("sms gateway unavailable")

// ErrInvalidCode is returned by VerifyOTP when the code does not match.
var ErrInvalidCode = errors.New("otp code rejected")

// Client talks to the Hubtel SMS and OTP APIs. Use New.
type Client struct {
	clientID     string
	clientSecret string
	senderID     string
	smsURL       string // quick-send endpoint
	otpURL       string // OTP API base, e.g. https://api-otp.hubtel.com/otp
	countryCode  string // ISO alpha-2, e.g. "GH"
	http         *http.Client
}

// New builds a Client. smsURL and otpURL are overridable for tests; timeout
// bounds every request.
func New(clientID, clientSecret, senderID, smsURL, otpURL, countryCode string, timeout time.Duration) *Client {
	return &Client{
		clientID:     clientID,
		clientSecret: clientSecret,
		senderID:     senderID,
		smsURL:       smsURL,
		otpURL:       otpURL,
		countryCode:  countryCode,
		http:         &http.Client{Timeout: timeout},
	}
}

// SendSMS delivers one message via the quick-send endpoint. Credentials ride
// as query parameters, which is how the quick-send API authenticates.
func (c *Client) SendSMS(ctx context.Context, to, content string) error {
	q := url.Values{}
	q.Set("clientid", c.clientID)
	q.Set("clientsecret", c.clientSecret)
	q.Set("from", c.senderID)
	q.Set("to", to)
	q.Set("content", content)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.smsURL+"?"+q.Encode(), nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<16))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	}
	return nil
}

// OTPSession identifies a pending OTP challenge at the gateway.
type OTPSession struct {
	RequestID string
	Prefix    string
}

// SendOTP asks the gateway to generate and deliver a one-time code to phone.
// The returned request id and prefix are needed for VerifyOTP.
func (c *Client) SendOTP(ctx context.Context, phone string) (*OTPSession, error) {
	body := map[string]any{
		"senderId":    c.senderID,
		"phoneNumber": phone,
		"countryCode": c.countryCode,
	}
	data, err := c.postOTP(ctx, "/send", body)
	if err != nil {
		return nil, err
	}

	var out struct {
		Data struct {
			RequestID string `json:"requestId"`
			Prefix    string `json:"prefix"`
		} `json:"data"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("hubtel: decode otp send response: %w", err)
	}
	return &OTPSession{RequestID: out.Data.RequestID, Prefix: out.Data.Prefix}, nil
}

// VerifyOTP checks a code against a pending challenge. A gateway rejection
// (4xx) maps to ErrInvalidCode; transport and server failures map to
// ErrGatewayUnavailable.
func (c *Client) VerifyOTP(ctx context.Context, requestID, prefix, code string) error {
	body := map[string]any{
		"requestId": requestID,
		"prefix":    prefix,
		"code":      code,
	}
	_, err := c.postOTP(ctx, "/verify", body)
	return err
}

func (c *Client) postOTP(ctx context.Context, path string, body any) ([]byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.otpURL+path, bytes.NewReader(buf))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.clientID, c.clientSecret)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: status %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		return nil, ErrInvalidCode
	}
	return raw, nil
}
