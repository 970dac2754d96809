// Package domain defines the persistence models for checkers, orders, and
// OTP sessions. These types are mapped with GORM and form the core data layer
// of the checker shop.
package domain

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// Category is the examination type a checker unlocks.
type Category string

// Supported examination categories.
const (
	CategoryBECE   Category = "BECE"
	CategoryWASSCE Category = "WASSCE"
	CategoryNOVDEC Category = "NOVDEC"
	CategoryCSSPS  Category = "CSSPS"
	CategoryCTVET  Category = "CTVET"
)

// Categories lists every supported category in display order.
var Categories = []Category{CategoryBECE, CategoryWASSCE, CategoryNOVDEC, CategoryCSSPS, CategoryCTVET}

// Valid reports whether c is one of the supported categories.
func (c Category) Valid() bool {
	switch c {
	case CategoryBECE, CategoryWASSCE, CategoryNOVDEC, CategoryCSSPS, CategoryCTVET:
		return true
	}
	return false
}

// OrderStatus is the lifecycle state of an order. Transitions are monotonic:
// pending → paid or pending → failed, never back.
type OrderStatus string

const (
	OrderPending OrderStatus = "pending"
	OrderPaid    OrderStatus = "paid"
	OrderFailed  OrderStatus = "failed"
)

// Terminal reports whether the status admits no further transitions.
func (s OrderStatus) Terminal() bool { return s == OrderPaid || s == OrderFailed }

// Checker represents one purchasable serial+PIN credential. A checker is
// available while OrderID is null; assignment writes the owning order id
// exactly once and is never reversed.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Serial / Pin: the credential itself.
//   - Category: examination type, indexed together with OrderID so the
//     availability scan (category = ? AND order_id IS NULL) stays cheap.
//   - OrderID: owning order, nil while the checker is still in stock.
//   - CreatedAt: import time; assignment picks the oldest rows first.
type Checker struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Serial    string    `json:"serial"     gorm:"type:varchar(64);not null"`
	Pin       string    `json:"pin"        gorm:"type:varchar(64);not null"`
	Category  Category  `json:"category"   gorm:"type:varchar(16);not null;index:idx_checker_stock,priority:1"`
	OrderID   *string   `json:"order_id,omitempty" gorm:"type:char(36);index:idx_checker_stock,priority:2"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName returns the database table name for Checker.
func (Checker) TableName() string { return "checkers" }

// Available reports whether the checker can still be sold.
func (c Checker) Available() bool { return c.OrderID == nil }

// AssignedChecker is the slice element persisted on an order as the snapshot
// of what was delivered, so the paid order can be re-displayed without
// re-joining the checkers table.
type AssignedChecker struct {
	ID       string   `json:"id"`
	Serial   string   `json:"serial"`
	Pin      string   `json:"pin"`
	Category Category `json:"category"`
}

// CheckerSnapshot stores assigned checkers as a JSON text column. It keeps the
// schema portable across the SQLite test driver and Postgres in production.
type CheckerSnapshot []AssignedChecker

// Value implements driver.Valuer; empty snapshots are stored as NULL.
func (s CheckerSnapshot) Value() (driver.Value, error) {
	if len(s) == 0 {
		return nil, nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// Scan implements sql.Scanner for text and byte column representations.
func (s *CheckerSnapshot) Scan(src any) error {
	if src == nil {
		*s = nil
		return nil
	}
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return fmt.Errorf("checker snapshot: unsupported column type %T", src)
	}
}

// Order represents one purchase attempt.
//
// Fields:
//   - ID: stable UUID primary key (char(36)).
//   - Category / Quantity / Phone / Email: what the buyer asked for.
//   - TotalAmount: quantity × unit price, in pesewas (minor units).
//   - Reference: the payment transaction reference. Generated locally at
//     creation, overwritten with the gateway's own reference once known; the
//     gateway reference is authoritative from then on.
//   - Status: pending until verifyPayment resolves it to paid or failed.
//   - Checkers: snapshot of the assigned checkers, written together with the
//     paid transition.
type Order struct {
	ID          string          `json:"id"           gorm:"type:char(36);primaryKey"`
	Category    Category        `json:"category"     gorm:"type:varchar(16);not null"`
	Quantity    int             `json:"quantity"     gorm:"not null;check:quantity > 0"`
	Phone       string          `json:"phone"        gorm:"type:varchar(20);not null;index:idx_order_phone_status,priority:1"`
	Email       string          `json:"email,omitempty" gorm:"type:varchar(255)"`
	TotalAmount int64           `json:"total_amount" gorm:"not null"`
	Reference   string          `json:"reference"    gorm:"type:varchar(64);not null;uniqueIndex:ux_order_reference"`
	Status      OrderStatus     `json:"status"       gorm:"type:varchar(16);not null;default:'pending';index:idx_order_phone_status,priority:2"`
	Checkers    CheckerSnapshot `json:"checkers,omitempty" gorm:"type:text"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}

// TableName returns the database table name for Order.
func (Order) TableName() string { return "orders" }

// OTPSession represents one outstanding retrieval challenge. A session is
// usable only while Verified is false and ExpiresAt is in the future; expired
// rows are swept by the background cleanup, never reused.
type OTPSession struct {
	ID        string    `json:"id"         gorm:"type:char(36);primaryKey"`
	Phone     string    `json:"phone"      gorm:"type:varchar(20);not null;index"`
	RequestID string    `json:"request_id" gorm:"type:varchar(64);not null;uniqueIndex:ux_otp_request"`
	Prefix    string    `json:"prefix"     gorm:"type:varchar(16);not null"`
	Verified  bool      `json:"verified"   gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
}

// TableName returns the database table name for OTPSession.
func (OTPSession) TableName() string { return "otp_sessions" }

// Active reports whether the session can still be used for verification.
func (s OTPSession) Active(now time.Time) bool { return !s.Verified && now.Before(s.ExpiresAt) }

// AdminUser is a staff account for the administrative surface.
type AdminUser struct {
	ID           string    `json:"id"    gorm:"type:char(36);primaryKey"`
	Email        string    `json:"email" gorm:"type:varchar(255);not null;uniqueIndex:ux_admin_email"`
	PasswordHash string    `json:"-"     gorm:"type:varchar(128);not null"`
	CreatedAt    time.Time `json:"created_at"`
}

// TableName returns the database table name for AdminUser.
func (AdminUser) TableName() string { return "admins" }

// AuditEntry records one administrative action for later review.
type AuditEntry struct {
	ID        string    `json:"id"        gorm:"type:char(36);primaryKey"`
	AdminID   string    `json:"admin_id"  gorm:"type:char(36);not null;index"`
	Action    string    `json:"action"    gorm:"type:varchar(64);not null"`
	Entity    string    `json:"entity"    gorm:"type:varchar(32);not null"`
	EntityID  string    `json:"entity_id" gorm:"type:varchar(64)"`
	Detail    string    `json:"detail,omitempty" gorm:"type:text"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

// TableName returns the database table name for AuditEntry.
func (AuditEntry) TableName() string { return "audit_log" }

// ErrInvalidCategory is returned by ParseCategory for unknown values.
var ErrInvalidCategory = errors.New("invalid checker category")

// ParseCategory normalizes and validates a category string.
func ParseCategory(s string) (Category, error) {
	c := Category(s)
	if !c.Valid() {
		return "", ErrInvalidCategory
	}
	return c, nil
}
