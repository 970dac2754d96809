// Order HTTP handlers.
//
// This file exposes the buyer-facing order endpoints:
//   - POST /orders/initiate            (create a pending order + payment URL)
//   - GET  /orders/verify/{reference}  (resolve payment, used by polling)
//   - POST /orders/webhook             (gateway event delivery, HMAC-verified)
//
// Handlers are transport-thin: they validate input, call application services,
// and translate results into HTTP responses. The verify endpoint and the
// webhook funnel into the same service transition, so clients and the gateway
// may race freely.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/gateway/paystack"
	"github.com/youngpres/checker-backend/internal/http/middleware"
	"github.com/youngpres/checker-backend/internal/repo"
	"github.com/youngpres/checker-backend/internal/services"
	"github.com/youngpres/checker-backend/internal/utils"
)

//
// Service contracts (context-aware)
//

// OrderService defines the order lifecycle operations consumed by HTTP
// handlers. Implementations must be safe for concurrent use and honor the
// provided context.
type OrderService interface {
	// InitiateOrder creates a pending order and opens a payment authorization.
	InitiateOrder(ctx context.Context, in services.InitiateOrderInput) (*services.InitiateOrderResult, error)
	// VerifyPayment resolves the order behind reference. Idempotent.
	VerifyPayment(ctx context.Context, reference string) (*domain.Order, error)
}

// RetrievalService defines the OTP retrieval operations consumed by HTTP
// handlers.
type RetrievalService interface {
	InitiateOTP(ctx context.Context, phone string) (*services.OTPChallenge, error)
	VerifyOTP(ctx context.Context, requestID, code string) (*services.RetrievedCheckers, error)
}

// AuthService issues admin tokens for the back-office surface.
type AuthService interface {
	Login(ctx context.Context, email, password string) (string, error)
}

//
// Handler wiring
//

// Handlers groups the HTTP endpoints for orders, retrieval, availability,
// auth, and administration. It depends on abstract service interfaces to keep
// transport concerns separate from business logic; the DB handle is only used
// for idempotency records and conditional-response stats.
type Handlers struct {
	orders    OrderService
	retrieval RetrievalService
	auth      AuthService
	admin     *services.AdminService

	db             *gorm.DB
	webhookSecret  string
	callingCode    string
	idempotencyTTL time.Duration
}

// New constructs a Handlers instance bound to the given services.
func New(orders OrderService, retrieval RetrievalService, auth AuthService, admin *services.AdminService, db *gorm.DB, webhookSecret string, idempotencyTTL time.Duration) *Handlers {
	return &Handlers{
		orders:         orders,
		retrieval:      retrieval,
		auth:           auth,
		admin:          admin,
		db:             db,
		webhookSecret:  webhookSecret,
		callingCode:    "233",
		idempotencyTTL: idempotencyTTL,
	}
}

//
// DTOs
//

// InitiateOrderRequest is the JSON payload for starting a purchase.
type InitiateOrderRequest struct {
	Category string `json:"category" binding:"required" example:"WASSCE"`
	Quantity int    `json:"quantity" binding:"required,min=1" example:"2"`
	Phone    string `json:"phone"    binding:"required" example:"0241234567"`
	Email    string `json:"email"    binding:"omitempty,email" example:"buyer@example.com"`
}

// InitiateOrderResponse hands the buyer off to the payment page.
type InitiateOrderResponse struct {
	OrderID    string `json:"order_id"`
	Reference  string `json:"reference"`
	Amount     int64  `json:"amount"`
	PaymentURL string `json:"payment_url,omitempty"`
	Replayed   bool   `json:"replayed,omitempty"`
}

// VerifyOrderResponse reports the resolved order state.
type VerifyOrderResponse struct {
	Status string        `json:"status"`
	Order  *domain.Order `json:"order"`
}

// InitiateOrder godoc
// @ID          initiateOrder
// @Summary     Start a checker purchase
// @Description Validates stock, creates a pending order, and returns the payment authorization URL. Supports Idempotency-Key replays.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       Idempotency-Key header string false "Safe-retry key"
// @Param       payload body handlers.InitiateOrderRequest true "Order details"
// @Success     200 {object} handlers.InitiateOrderResponse
// @Failure     400 {object} handlers.ErrorResponse "Validation or stock error"
// @Failure     502 {object} handlers.ErrorResponse "Payment gateway failure"
// @Router      /orders/initiate [post]
func (h *Handlers) InitiateOrder(c *gin.Context) {
	ctx := c.Request.Context()

	var req InitiateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	// Idempotent replay: serve the previously created order for (phone, key).
	key, hasKey := middleware.GetIdempotencyKey(c)
	if hasKey && h.db != nil {
		if phone, err := utils.NormalizePhone(req.Phone, h.callingCode); err == nil {
			if rec, err := repo.GetIdempotency(ctx, h.db, phone, key, time.Now().UTC()); err == nil {
				if order, err := repo.GetOrder(ctx, h.db, rec.OrderID); err == nil {
					ok(c, http.StatusOK, InitiateOrderResponse{
						OrderID:   order.ID,
						Reference: order.Reference,
						Amount:    order.TotalAmount,
						Replayed:  true,
					})
					return
				}
			}
		}
	}

	res, err := h.orders.InitiateOrder(ctx, services.InitiateOrderInput{
		Category: req.Category,
		Quantity: req.Quantity,
		Phone:    req.Phone,
		Email:    req.Email,
	})
	switch {
	case errors.Is(err, services.ErrInvalidCategory),
		errors.Is(err, services.ErrInvalidQuantity),
		errors.Is(err, services.ErrInvalidPhone):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case errors.Is(err, services.ErrInsufficientStock):
		fail(c, http.StatusBadRequest, ErrCodeInsufficientStock, "not enough checkers in stock")
		return
	case errors.Is(err, services.ErrPaymentInit):
		fail(c, http.StatusBadGateway, ErrCodePaymentInit, "payment could not be initialized")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not initiate order")
		return
	}

	if hasKey && h.db != nil {
		if _, err := repo.CreateIdempotency(ctx, h.db, res.Order.Phone, key, res.Order.ID, http.StatusOK, h.idempotencyTTL); err != nil && !errors.Is(err, repo.ErrDuplicate) {
			middleware.LoggerFrom(c).Error().Err(err).Msg("idempotency record failed")
		}
	}

	ok(c, http.StatusOK, InitiateOrderResponse{
		OrderID:    res.Order.ID,
		Reference:  res.Order.Reference,
		Amount:     res.Order.TotalAmount,
		PaymentURL: res.AuthorizationURL,
	})
}

// VerifyOrder godoc
// @ID          verifyOrder
// @Summary     Verify a payment by reference
// @Description Resolves the order behind the payment reference. Safe to call repeatedly; terminal orders are returned unchanged.
// @Tags        Orders
// @Produce     json
// @Param       reference path string true "Payment reference"
// @Success     200 {object} handlers.VerifyOrderResponse
// @Failure     400 {object} handlers.ErrorResponse "Amount mismatch"
// @Failure     404 {object} handlers.ErrorResponse "Unknown reference"
// @Failure     409 {object} handlers.ErrorResponse "Stock ran out after payment"
// @Router      /orders/verify/{reference} [get]
func (h *Handlers) VerifyOrder(c *gin.Context) {
	ctx := c.Request.Context()
	reference := c.Param("reference")

	order, err := h.orders.VerifyPayment(ctx, reference)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
		return
	case errors.Is(err, services.ErrAmountMismatch):
		fail(c, http.StatusBadRequest, ErrCodeAmountMismatch, "paid amount does not match order total")
		return
	case errors.Is(err, services.ErrAllocationFailed):
		fail(c, http.StatusConflict, ErrCodeAllocationFailed, "checkers sold out after payment; a refund will be issued")
		return
	case errors.Is(err, paystack.ErrGatewayUnavailable):
		fail(c, http.StatusBadGateway, ErrCodeInternal, "payment gateway unavailable")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not verify payment")
		return
	}

	ok(c, http.StatusOK, VerifyOrderResponse{Status: string(order.Status), Order: order})
}

// webhookEvent is the slice of a gateway event this service cares about.
type webhookEvent struct {
	Event string `json:"event"`
	Data  struct {
		Reference string `json:"reference"`
		Amount    int64  `json:"amount"`
		Metadata  struct {
			OrderID string `json:"order_id"`
		} `json:"metadata"`
	} `json:"data"`
}

// Webhook godoc
// @ID          paymentWebhook
// @Summary     Receive payment gateway events
// @Description Verifies the HMAC signature over the raw body, then feeds charge.success events into payment verification. Unknown events are acknowledged and ignored.
// @Tags        Orders
// @Accept      json
// @Produce     json
// @Param       x-paystack-signature header string true "HMAC-SHA512 of the raw body"
// @Success     200 {object} map[string]string
// @Failure     400 {object} handlers.ErrorResponse "Bad signature or amount mismatch"
// @Failure     500 {object} handlers.ErrorResponse "Transient failure; gateway should retry"
// @Router      /orders/webhook [post]
func (h *Handlers) Webhook(c *gin.Context) {
	ctx := c.Request.Context()

	body, err := c.GetRawData()
	if err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unreadable body")
		return
	}

	// Signature check happens before any parsing: an unsigned or tampered
	// payload gets no further processing.
	sig := c.GetHeader("x-paystack-signature")
	if sig == "" || !paystack.VerifySignature(body, sig, h.webhookSecret) {
		fail(c, http.StatusBadRequest, ErrCodeBadSignature, "invalid signature")
		return
	}

	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "malformed event")
		return
	}

	// Only successful charges resolve orders; everything else is acknowledged
	// so the gateway stops retrying.
	if ev.Event != "charge.success" || ev.Data.Reference == "" {
		ok(c, http.StatusOK, gin.H{"status": "ignored"})
		return
	}

	_, err = h.orders.VerifyPayment(ctx, ev.Data.Reference)
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		// Not ours (e.g. another product on the same gateway account).
		ok(c, http.StatusOK, gin.H{"status": "ignored"})
		return
	case errors.Is(err, services.ErrAmountMismatch):
		fail(c, http.StatusBadRequest, ErrCodeAmountMismatch, "paid amount does not match order total")
		return
	case errors.Is(err, services.ErrAllocationFailed):
		// The order is resolved (failed); acknowledge so the gateway stops.
		ok(c, http.StatusOK, gin.H{"status": "processed"})
		return
	case err != nil:
		// Transient: let the gateway retry. Verification is idempotent so a
		// retry after partial progress is safe.
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "temporary failure")
		return
	}

	ok(c, http.StatusOK, gin.H{"status": "processed"})
}
