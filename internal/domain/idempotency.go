// Package domain defines the core persistence models for the application.
// These types are used by GORM for database schema mapping and are shared
// across the repository and service layers.
package domain

import "time"

// Idempotency records a previously initiated order, keyed by (phone, key).
// It lets a client retry POST /orders/initiate with the same Idempotency-Key
// without creating a second pending order and a second payment authorization.
type Idempotency struct {
	ID        string    `gorm:"type:char(36);primaryKey"`
	Phone     string    `gorm:"type:varchar(20);not null;uniqueIndex:ux_phone_key,priority:1"`
	Key       string    `gorm:"type:varchar(200);not null;uniqueIndex:ux_phone_key,priority:2"`
	OrderID   string    `gorm:"type:char(36);not null"`
	Status    int       `gorm:"not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
