package repo

import (
	"context"
	"testing"

	"github.com/youngpres/checker-backend/internal/domain"
)

func TestStockStats_ZeroFillsCategories(t *testing.T) {
	db := newRepoDB(t, &domain.Checker{})
	seedCheckers(t, db, domain.CategoryBECE, 3)
	seedCheckers(t, db, domain.CategoryWASSCE, 1)
	if _, err := ClaimAvailable(context.Background(), db, domain.CategoryBECE, "order-1", 1); err != nil {
		t.Fatalf("claim: %v", err)
	}

	stats, err := StockStats(context.Background(), db)
	if err != nil {
		t.Fatalf("StockStats: %v", err)
	}
	if len(stats) != len(domain.Categories) {
		t.Fatalf("got %d categories, want %d", len(stats), len(domain.Categories))
	}

	byCat := make(map[domain.Category]int64, len(stats))
	for _, s := range stats {
		byCat[s.Category] = s.Count
	}
	if byCat[domain.CategoryBECE] != 2 {
		t.Fatalf("BECE = %d, want 2", byCat[domain.CategoryBECE])
	}
	if byCat[domain.CategoryWASSCE] != 1 {
		t.Fatalf("WASSCE = %d, want 1", byCat[domain.CategoryWASSCE])
	}
	if byCat[domain.CategoryNOVDEC] != 0 || byCat[domain.CategoryCSSPS] != 0 || byCat[domain.CategoryCTVET] != 0 {
		t.Fatalf("empty categories not zero-filled: %+v", byCat)
	}
}
