// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for OTP sessions:
// creation, lookup of still-active sessions, consumption, and the periodic
// sweep of expired rows.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
)

// CreateOTPSession inserts a new unverified OTP session.
func CreateOTPSession(ctx context.Context, db *gorm.DB, phone, requestID, prefix string, ttl time.Duration) (*domain.OTPSession, error) {
	now := time.Now().UTC()
	s := &domain.OTPSession{
		ID:        uuid.NewString(),
		Phone:     phone,
		RequestID: requestID,
		Prefix:    prefix,
		Verified:  false,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}
	if err := db.WithContext(ctx).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

// GetActiveOTPSession fetches the session for requestID provided it is still
// unverified and unexpired. An expired or already-consumed session is
// indistinguishable from a missing one: both return ErrNotFound.
func GetActiveOTPSession(ctx context.Context, db *gorm.DB, requestID string, now time.Time) (*domain.OTPSession, error) {
	var s domain.OTPSession
	err := db.WithContext(ctx).
		Where("request_id = ? AND verified = ? AND expires_at > ?", requestID, false, now).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// MarkOTPVerified consumes a session. The verified guard makes consumption
// single-shot: a second attempt matches no rows and returns ErrNotFound.
func MarkOTPVerified(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.OTPSession{}).
		Where("id = ? AND verified = ?", id, false).
		Update("verified", true)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteExpiredOTPSessions removes every session whose expiry is in the past
// and returns the number of rows removed.
func DeleteExpiredOTPSessions(ctx context.Context, db *gorm.DB, now time.Time) (int64, error) {
	res := db.WithContext(ctx).
		Where("expires_at <= ?", now).
		Delete(&domain.OTPSession{})
	return res.RowsAffected, res.Error
}

// OTPFilter narrows ListOTPSessions. Zero values mean "no filter".
type OTPFilter struct {
	Phone    string
	Verified *bool
}

// ListOTPSessions returns a paginated slice of sessions matching the filter,
// most recent first.
func ListOTPSessions(ctx context.Context, db *gorm.DB, f OTPFilter, offset, limit int) ([]domain.OTPSession, error) {
	q := db.WithContext(ctx)
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}
	if f.Verified != nil {
		q = q.Where("verified = ?", *f.Verified)
	}
	var out []domain.OTPSession
	err := q.Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
