// Package services – AuthService
//
// Admin login: bcrypt credential check followed by a short-lived HS256 JWT.
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/repo"
)

// AuthService issues admin tokens.
type AuthService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
	// Secret signs issued tokens.
	Secret []byte
	// TTL bounds token lifetime.
	TTL time.Duration
}

// NewAuthService constructs an AuthService.
func NewAuthService(db *gorm.DB, secret string, ttl time.Duration) *AuthService {
	return &AuthService{DB: db, Secret: []byte(secret), TTL: ttl}
}

// Login checks email+password against the stored bcrypt hash and returns a
// signed JWT. Wrong email and wrong password are indistinguishable.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	admin, err := repo.GetAdminByEmail(ctx, s.DB, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(password)) != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"sub": admin.ID,
		"eml": admin.Email,
		"iat": now.Unix(),
		"exp": now.Add(s.TTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.Secret)
}

// HashPassword produces a bcrypt hash for seeding admin accounts.
func HashPassword(password string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(b), err
}
