// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for admin accounts
// and the audit log.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
)

// GetAdminByEmail fetches an admin account by email, or ErrNotFound.
func GetAdminByEmail(ctx context.Context, db *gorm.DB, email string) (*domain.AdminUser, error) {
	var a domain.AdminUser
	if err := db.WithContext(ctx).Where("email = ?", email).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAdmin inserts a new admin account with the given bcrypt hash.
func CreateAdmin(ctx context.Context, db *gorm.DB, email, passwordHash string) (*domain.AdminUser, error) {
	a := &domain.AdminUser{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := db.WithContext(ctx).Create(a).Error; err != nil {
		return nil, err
	}
	return a, nil
}

// AppendAudit records one administrative action.
func AppendAudit(ctx context.Context, db *gorm.DB, adminID, action, entity, entityID, detail string) error {
	e := &domain.AuditEntry{
		ID:        uuid.NewString(),
		AdminID:   adminID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		Detail:    detail,
		CreatedAt: time.Now().UTC(),
	}
	return db.WithContext(ctx).Create(e).Error
}

// ListAudit returns a paginated slice of audit entries, most recent first.
func ListAudit(ctx context.Context, db *gorm.DB, offset, limit int) ([]domain.AuditEntry, error) {
	var out []domain.AuditEntry
	err := db.WithContext(ctx).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}
