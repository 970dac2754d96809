// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate/statistics queries used
// primarily for conditional responses (e.g., ETag generation) in the HTTP
// layer. Each function is context-aware and safe to call from services or
// handlers.
package repo

import (
	"context"

	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
)

// CategoryCount pairs a category with its number of unassigned checkers.
type CategoryCount struct {
	Category domain.Category `json:"category"`
	Count    int64           `json:"count"`
}

// StockStats returns the per-category count of available checkers. Categories
// with zero stock are included so the availability response always lists
// every supported category.
func StockStats(ctx context.Context, db *gorm.DB) ([]CategoryCount, error) {
	var rows []CategoryCount
	err := db.WithContext(ctx).
		Model(&domain.Checker{}).
		Select("category, count(*) as count").
		Where("order_id IS NULL").
		Group("category").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	byCat := make(map[domain.Category]int64, len(rows))
	for _, r := range rows {
		byCat[r.Category] = r.Count
	}
	out := make([]CategoryCount, 0, len(domain.Categories))
	for _, c := range domain.Categories {
		out = append(out, CategoryCount{Category: c, Count: byCat[c]})
	}
	return out, nil
}
