// Package middleware contains shared Gin middleware used by the HTTP layer.
//
// This file provides AdminAuth, the bearer-token guard for the back-office
// routes. It verifies an HS256 JWT issued by the auth service and stores the
// admin identity in the Gin context for handlers, logging, and rate limiting.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	// adminIDKey is the Gin context key under which the admin ID is stored.
	adminIDKey = "adminID"
	// adminEmailKey is the Gin context key for the admin email claim.
	adminEmailKey = "adminEmail"
)

// AdminIDFrom returns the authenticated admin's ID, or "" outside admin routes.
func AdminIDFrom(c *gin.Context) string {
	v, _ := c.Get(adminIDKey)
	s, _ := v.(string)
	return s
}

// AdminAuth returns a middleware that requires a valid Bearer JWT signed with
// secret. Missing, malformed, expired, or badly signed tokens all produce the
// same 401 envelope; nothing about the failure mode is leaked.
func AdminAuth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		auth := c.GetHeader("Authorization")
		const prefix = "Bearer "
		if !strings.HasPrefix(auth, prefix) {
			unauthorized(c)
			return
		}
		raw := strings.TrimSpace(auth[len(prefix):])

		token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
			if t.Method != jwt.SigningMethodHS256 {
				return nil, jwt.ErrSignatureInvalid
			}
			return secret, nil
		}, jwt.WithValidMethods([]string{"HS256"}), jwt.WithExpirationRequired())
		if err != nil || !token.Valid {
			unauthorized(c)
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			unauthorized(c)
			return
		}
		sub, _ := claims["sub"].(string)
		if sub == "" {
			unauthorized(c)
			return
		}

		c.Set(adminIDKey, sub)
		if eml, _ := claims["eml"].(string); eml != "" {
			c.Set(adminEmailKey, eml)
		}
		c.Next()
	}
}

func unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
		"request_id": c.Writer.Header().Get("X-Request-ID"),
		"code":       "unauthorized",
		"message":    "valid bearer token required",
	})
}
