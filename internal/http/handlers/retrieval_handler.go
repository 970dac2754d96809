// Retrieval HTTP handlers.
//
// This file exposes the OTP-gated checker recovery endpoints:
//   - POST /retrieve/initiate  (send a one-time code to a buyer's phone)
//   - POST /retrieve/verify    (exchange the code for purchased checkers)
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youngpres/checker-backend/internal/services"
)

// InitiateRetrievalRequest is the JSON payload for requesting an OTP.
type InitiateRetrievalRequest struct {
	Phone string `json:"phone" binding:"required" example:"0241234567"`
}

// VerifyRetrievalRequest is the JSON payload for redeeming an OTP.
type VerifyRetrievalRequest struct {
	RequestID string `json:"request_id" binding:"required"`
	Code      string `json:"code"       binding:"required"`
}

// InitiateRetrieval godoc
// @ID          initiateRetrieval
// @Summary     Request an OTP for checker recovery
// @Description Sends a one-time code to the phone if it has at least one paid order.
// @Tags        Retrieval
// @Accept      json
// @Produce     json
// @Param       payload body handlers.InitiateRetrievalRequest true "Phone number"
// @Success     200 {object} services.OTPChallenge
// @Failure     400 {object} handlers.ErrorResponse "Invalid phone"
// @Failure     404 {object} handlers.ErrorResponse "No paid orders"
// @Failure     502 {object} handlers.ErrorResponse "OTP delivery failure"
// @Router      /retrieve/initiate [post]
func (h *Handlers) InitiateRetrieval(c *gin.Context) {
	var req InitiateRetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	challenge, err := h.retrieval.InitiateOTP(c.Request.Context(), req.Phone)
	switch {
	case errors.Is(err, services.ErrInvalidPhone):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid phone number")
		return
	case errors.Is(err, services.ErrNoPaidOrders):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "no paid orders for this phone number")
		return
	case errors.Is(err, services.ErrOTPDispatch):
		fail(c, http.StatusBadGateway, ErrCodeOTPDispatch, "could not send verification code")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not start retrieval")
		return
	}

	ok(c, http.StatusOK, challenge)
}

// VerifyRetrieval godoc
// @ID          verifyRetrieval
// @Summary     Redeem an OTP for purchased checkers
// @Description Verifies the code and returns every checker from the phone's paid orders. Expired and unknown sessions are indistinguishable.
// @Tags        Retrieval
// @Accept      json
// @Produce     json
// @Param       payload body handlers.VerifyRetrievalRequest true "Session and code"
// @Success     200 {object} services.RetrievedCheckers
// @Failure     400 {object} handlers.ErrorResponse "Bad code or unknown/expired session"
// @Router      /retrieve/verify [post]
func (h *Handlers) VerifyRetrieval(c *gin.Context) {
	var req VerifyRetrievalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	out, err := h.retrieval.VerifyOTP(c.Request.Context(), req.RequestID, req.Code)
	switch {
	case errors.Is(err, services.ErrSessionNotFound):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "session not found or expired")
		return
	case errors.Is(err, services.ErrInvalidOTP):
		fail(c, http.StatusBadRequest, ErrCodeInvalidOTP, "incorrect code")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not verify code")
		return
	}

	ok(c, http.StatusOK, out)
}
