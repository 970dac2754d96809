package hubtel

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(smsURL, otpURL string) *Client {
	return New("cid", "csecret", "KCEONLINE", smsURL, otpURL, "GH", 5*time.Second)
}

func TestSendSMS(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"clientid":     q.Get("clientid"),
			"clientsecret": q.Get("clientsecret"),
			"from":         q.Get("from"),
			"to":           q.Get("to"),
			"content":      q.Get("content"),
		}
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	if err := c.SendSMS(context.Background(), "233241234567", "hello there"); err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if got["clientid"] != "cid" || got["clientsecret"] != "csecret" {
		t.Fatalf("credentials not sent: %+v", got)
	}
	if got["from"] != "KCEONLINE" || got["to"] != "233241234567" || got["content"] != "hello there" {
		t.Fatalf("message fields: %+v", got)
	}
}

func TestSendSMS_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, "")
	if err := c.SendSMS(context.Background(), "233241234567", "x"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("err = %v, want ErrGatewayUnavailable", err)
	}
}

func TestSendOTP(t *testing.T) {
	var gotBody map[string]any
	var gotUser, gotPass string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/send" {
			t.Errorf("path = %s", r.URL.Path)
		}
		gotUser, gotPass, _ = r.BasicAuth()
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		w.Write([]byte(`{"data":{"requestId":"req-42","prefix":"WXYZ"}}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)
	s, err := c.SendOTP(context.Background(), "233241234567")
	if err != nil {
		t.Fatalf("SendOTP: %v", err)
	}
	if s.RequestID != "req-42" || s.Prefix != "WXYZ" {
		t.Fatalf("unexpected session: %+v", s)
	}
	if gotUser != "cid" || gotPass != "csecret" {
		t.Fatal("basic auth not sent")
	}
	if gotBody["phoneNumber"] != "233241234567" || gotBody["countryCode"] != "GH" {
		t.Fatalf("request body: %+v", gotBody)
	}
}

func TestVerifyOTP_StatusMapping(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/verify" {
			t.Errorf("path = %s", r.URL.Path)
		}
		w.WriteHeader(status)
		w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := newTestClient("", srv.URL)

	if err := c.VerifyOTP(context.Background(), "req-42", "WXYZ", "123456"); err != nil {
		t.Fatalf("valid code: %v", err)
	}

	status = http.StatusUnprocessableEntity
	if err := c.VerifyOTP(context.Background(), "req-42", "WXYZ", "000000"); !errors.Is(err, ErrInvalidCode) {
		t.Fatalf("rejected code: err = %v, want ErrInvalidCode", err)
	}

	status = http.StatusInternalServerError
	if err := c.VerifyOTP(context.Background(), "req-42", "WXYZ", "123456"); !errors.Is(err, ErrGatewayUnavailable) {
		t.Fatalf("server error: err = %v, want ErrGatewayUnavailable", err)
	}
}
