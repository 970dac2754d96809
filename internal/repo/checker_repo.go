// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Checker
// model: stock counting, the atomic claim used by payment verification, and
// the admin import/list operations.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only CRUD
// persistence and query composition.
package repo

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// CountAvailable returns the number of unassigned checkers in a category.
func CountAvailable(ctx context.Context, db *gorm.DB, category domain.Category) (int64, error) {
	var total int64
	err := db.WithContext(ctx).
		Model(&domain.Checker{}).
		Where("category = ? AND order_id IS NULL", category).
		Count(&total).Error
	return total, err
}

// ClaimAvailable atomically assigns up to n available checkers of the given
// category to orderID and returns the rows it claimed. The claim is a
// conditional UPDATE guarded by order_id IS NULL, so two concurrent payments
// can never be handed the same checker: whichever UPDATE runs second simply
// matches fewer rows. When fewer than n rows could be claimed it returns the
// partial slice and the caller is expected to roll back its transaction.
//
// Call this inside a transaction so a short claim leaves no assignments
// behind.
func ClaimAvailable(ctx context.Context, db *gorm.DB, category domain.Category, orderID string, n int) ([]domain.Checker, error) {
	var ids []string
	err := db.WithContext(ctx).
		Model(&domain.Checker{}).
		Where("category = ? AND order_id IS NULL", category).
		Order("created_at asc").
		Limit(n).
		Pluck("id", &ids).Error
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}

	// The order_id IS NULL guard makes the assignment conditional: rows a
	// concurrent payment already claimed are skipped rather than overwritten.
	res := db.WithContext(ctx).
		Model(&domain.Checker{}).
		Where("id IN ? AND order_id IS NULL", ids).
		Update("order_id", orderID)
	if res.Error != nil {
		return nil, res.Error
	}

	var claimed []domain.Checker
	err = db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&claimed).Error
	return claimed, err
}

// ListByOrder returns the checkers assigned to an order, oldest first.
func ListByOrder(ctx context.Context, db *gorm.DB, orderID string) ([]domain.Checker, error) {
	var out []domain.Checker
	err := db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Order("created_at asc").
		Find(&out).Error
	return out, err
}

// InsertCheckers persists a batch of new checkers. IDs and timestamps are
// assigned here; the caller supplies serial, pin, and category.
func InsertCheckers(ctx context.Context, db *gorm.DB, rows []domain.Checker) ([]domain.Checker, error) {
	now := time.Now().UTC()
	for i := range rows {
		rows[i].ID = uuid.NewString()
		rows[i].OrderID = nil
		rows[i].CreatedAt = now
	}
	if err := db.WithContext(ctx).Create(&rows).Error; err != nil {
		return nil, err
	}
	return rows, nil
}

// CheckerFilter narrows ListCheckers. Zero values mean "no filter".
type CheckerFilter struct {
	Category domain.Category
	Assigned *bool
}

// CountCheckers returns the number of checkers matching the filter.
func CountCheckers(ctx context.Context, db *gorm.DB, f CheckerFilter) (int64, error) {
	var total int64
	err := checkerQuery(db.WithContext(ctx), f).
		Model(&domain.Checker{}).
		Count(&total).Error
	return total, err
}

// ListCheckers returns a paginated slice of checkers matching the filter,
// newest first. Use CountCheckers to obtain the total for pagination metadata.
func ListCheckers(ctx context.Context, db *gorm.DB, f CheckerFilter, offset, limit int) ([]domain.Checker, error) {
	var out []domain.Checker
	err := checkerQuery(db.WithContext(ctx), f).
		Order("created_at desc").
		Offset(offset).
		Limit(limit).
		Find(&out).Error
	return out, err
}

func checkerQuery(q *gorm.DB, f CheckerFilter) *gorm.DB {
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.Assigned != nil {
		if *f.Assigned {
			q = q.Where("order_id IS NOT NULL")
		} else {
			q = q.Where("order_id IS NULL")
		}
	}
	return q
}
