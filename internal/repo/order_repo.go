// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Order
// model, including the conditional status transitions that keep the order
// lifecycle monotonic (pending → paid or pending → failed, never back).
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
)

// CreateOrder inserts a new pending order. The order ID is a randomly
// generated UUID and timestamps are set to UTC.
func CreateOrder(ctx context.Context, db *gorm.DB, o *domain.Order) (*domain.Order, error) {
	now := time.Now().UTC()
	o.ID = uuid.NewString()
	o.Status = domain.OrderPending
	o.CreatedAt = now
	o.UpdatedAt = now
	if err := db.WithContext(ctx).Create(o).Error; err != nil {
		return nil, err
	}
	return o, nil
}

// GetOrder fetches a single order by ID, or ErrNotFound if missing.
func GetOrder(ctx context.Context, db *gorm.DB, id string) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("id = ?", id).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// GetOrderByReference fetches a single order by its payment reference,
// or ErrNotFound if missing.
func GetOrderByReference(ctx context.Context, db *gorm.DB, reference string) (*domain.Order, error) {
	var o domain.Order
	if err := db.WithContext(ctx).Where("reference = ?", reference).First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateOrderReference replaces the locally generated reference with the
// gateway's authoritative one.
func UpdateOrderReference(ctx context.Context, db *gorm.DB, id, reference string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ?", id).
		Updates(map[string]any{"reference": reference, "updated_at": time.Now().UTC()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOrderPaid transitions an order from pending to paid and stores the
// checker snapshot in the same UPDATE. The status guard makes the transition
// conditional: if the order is no longer pending no rows match and
// ErrNotFound is returned, leaving terminal orders untouched.
func MarkOrderPaid(ctx context.Context, db *gorm.DB, id string, snapshot domain.CheckerSnapshot) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderPending).
		Updates(map[string]any{
			"status":     domain.OrderPaid,
			"checkers":   snapshot,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkOrderFailed transitions an order from pending to failed. Like
// MarkOrderPaid it is conditional on the order still being pending.
func MarkOrderFailed(ctx context.Context, db *gorm.DB, id string) error {
	res := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("id = ? AND status = ?", id, domain.OrderPending).
		Updates(map[string]any{
			"status":     domain.OrderFailed,
			"updated_at": time.Now().UTC(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOrder removes an order row. Used to undo a just-created pending order
// when payment initialization with the gateway fails.
func DeleteOrder(ctx context.Context, db *gorm.DB, id string) error {
	return db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Order{}).Error
}

// CountPaidByPhone returns the number of paid orders for a phone number.
func CountPaidByPhone(ctx context.Context, db *gorm.DB, phone string) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Order{}).
		Where("phone = ? AND status = ?", phone, domain.OrderPaid).
		Count(&total).Error
	return total, err
}

// ListPaidByPhone returns all paid orders for a phone number, most recent
// first. The checker snapshots on these rows are what OTP retrieval serves.
func ListPaidByPhone(ctx context.Context, db *gorm.DB, phone string) ([]domain.Order, error) {
	var out []domain.Order
	err := db.WithContext(ctx).
		Where("phone = ? AND status = ?", phone, domain.OrderPaid).
		Order("created_at desc").
		Find(&out).Error
	return out, err
}

// OrderFilter narrows ListOrders. Zero values mean "no filter".
type OrderFilter struct {
	Status domain.OrderStatus
	Phone  string
	From   time.Time
	To     time.Time
}

// CountOrders returns the number of orders matching the filter.
func CountOrders(ctx context.Context, db *gorm.DB, f OrderFilter) (int64, error) {
	var total int64
	err := orderQuery(db.WithContext(ctx), f).
		Model(&domain.Order{}).
		Count(&total).Error
	return total, err
}

// ListOrders returns a paginated slice of orders matching the filter, most
// recent first. Use CountOrders to obtain the total for pagination metadata.
func ListOrders(ctx context.Context, db *gorm.DB, f OrderFilter, offset, limit int) ([]domain.Order, error) {
	var out []domain.Order
	err := orderQuery(db.WithContext(ctx), f).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func orderQuery(q *gorm.DB, f OrderFilter) *gorm.DB {
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Phone != "" {
		q = q.Where("phone = ?", f.Phone)
	}
	if !f.From.IsZero() {
		q = q.Where("created_at >= ?", f.From)
	}
	if !f.To.IsZero() {
		q = q.Where("created_at <= ?", f.To)
	}
	return q
}
