// Auth HTTP handler.
//
// POST /auth/login exchanges admin credentials for a short-lived bearer token.
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youngpres/checker-backend/internal/services"
)

// LoginRequest is the JSON payload for admin login.
type LoginRequest struct {
	Email    string `json:"email"    binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// LoginResponse carries the signed JWT.
type LoginResponse struct {
	Token string `json:"token"`
}

// Login godoc
// @ID          adminLogin
// @Summary     Admin login
// @Description Verifies credentials and returns a bearer token for the admin routes.
// @Tags        Auth
// @Accept      json
// @Produce     json
// @Param       payload body handlers.LoginRequest true "Credentials"
// @Success     200 {object} handlers.LoginResponse
// @Failure     401 {object} handlers.ErrorResponse "Invalid credentials"
// @Router      /auth/login [post]
func (h *Handlers) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	token, err := h.auth.Login(c.Request.Context(), req.Email, req.Password)
	switch {
	case errors.Is(err, services.ErrInvalidCredentials):
		fail(c, http.StatusUnauthorized, ErrCodeUnauthorized, "invalid email or password")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not log in")
		return
	}

	ok(c, http.StatusOK, LoginResponse{Token: token})
}
