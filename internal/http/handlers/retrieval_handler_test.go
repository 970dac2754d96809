package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/services"
)

func TestInitiateRetrieval_Success(t *testing.T) {
	db := newHandlerDB(t)
	retrieval := &stubRetrieval{challenge: &services.OTPChallenge{RequestID: "req-1", Prefix: "ABCD"}}
	r := newTestRouter(t, db, &stubOrders{}, retrieval, &stubAuth{})

	w := doJSON(t, r, http.MethodPost, "/retrieve/initiate", gin.H{"phone": "0241234567"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp services.OTPChallenge
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if resp.RequestID != "req-1" || resp.Prefix != "ABCD" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestInitiateRetrieval_ErrorMapping(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
	}{
		{"invalid phone", services.ErrInvalidPhone, http.StatusBadRequest},
		{"no paid orders", services.ErrNoPaidOrders, http.StatusNotFound},
		{"dispatch failure", services.ErrOTPDispatch, http.StatusBadGateway},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newHandlerDB(t)
			r := newTestRouter(t, db, &stubOrders{}, &stubRetrieval{initErr: tc.err}, &stubAuth{})
			w := doJSON(t, r, http.MethodPost, "/retrieve/initiate", gin.H{"phone": "0241234567"}, nil)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
		})
	}
}

func TestVerifyRetrieval_Success(t *testing.T) {
	db := newHandlerDB(t)
	retrieval := &stubRetrieval{retrieved: &services.RetrievedCheckers{
		Phone: "233241234567",
		Checkers: []domain.AssignedChecker{
			{Serial: "SN-1", Pin: "P-1", Category: domain.CategoryBECE},
		},
	}}
	r := newTestRouter(t, db, &stubOrders{}, retrieval, &stubAuth{})

	w := doJSON(t, r, http.MethodPost, "/retrieve/verify", gin.H{"request_id": "req-1", "code": "123456"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	var resp services.RetrievedCheckers
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	if len(resp.Checkers) != 1 || resp.Checkers[0].Pin != "P-1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestVerifyRetrieval_ErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		status   int
		wantCode string
	}{
		{"unknown or expired session", services.ErrSessionNotFound, http.StatusBadRequest, ErrCodeBadRequest},
		{"wrong code", services.ErrInvalidOTP, http.StatusBadRequest, ErrCodeInvalidOTP},
		{"internal", context.DeadlineExceeded, http.StatusInternalServerError, ErrCodeInternal},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			db := newHandlerDB(t)
			r := newTestRouter(t, db, &stubOrders{}, &stubRetrieval{verifyErr: tc.err}, &stubAuth{})
			w := doJSON(t, r, http.MethodPost, "/retrieve/verify", gin.H{"request_id": "req-1", "code": "000000"}, nil)
			if w.Code != tc.status {
				t.Fatalf("status = %d, want %d", w.Code, tc.status)
			}
			var resp ErrorResponse
			_ = json.Unmarshal(w.Body.Bytes(), &resp)
			if resp.Code != tc.wantCode {
				t.Fatalf("code = %s, want %s", resp.Code, tc.wantCode)
			}
		})
	}
}

func TestVerifyRetrieval_MissingFields(t *testing.T) {
	db := newHandlerDB(t)
	r := newTestRouter(t, db, &stubOrders{}, &stubRetrieval{}, &stubAuth{})

	w := doJSON(t, r, http.MethodPost, "/retrieve/verify", gin.H{"request_id": "req-1"}, nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", w.Code)
	}
}
