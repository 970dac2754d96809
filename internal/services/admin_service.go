// Package services – AdminService
//
// Back-office operations: browsing orders, checkers, and OTP sessions,
// loading new checker stock (bulk add and CSV import with a dry-run preview),
// and the audit trail of who did what.
package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/repo"
)

// AdminService provides the JWT-guarded back-office surface.
type AdminService struct {
	// DB is the GORM handle used for persistence.
	DB *gorm.DB
}

// NewAdminService constructs an AdminService.
func NewAdminService(db *gorm.DB) *AdminService {
	return &AdminService{DB: db}
}

// ListOrders returns a page of orders matching the filter plus the total.
func (s *AdminService) ListOrders(ctx context.Context, f repo.OrderFilter, page, pageSize int) ([]domain.Order, int64, error) {
	total, err := repo.CountOrders(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Order{}, 0, nil
	}
	items, err := repo.ListOrders(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// GetOrderDetails returns one order together with its assigned checkers. For
// paid orders the checkers come from the stored snapshot; the live rows are
// consulted as a fallback for older data.
func (s *AdminService) GetOrderDetails(ctx context.Context, id string) (*domain.Order, []domain.Checker, error) {
	order, err := repo.GetOrder(ctx, s.DB, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrOrderNotFound
		}
		return nil, nil, err
	}
	checkers, err := repo.ListByOrder(ctx, s.DB, order.ID)
	if err != nil {
		return nil, nil, err
	}
	return order, checkers, nil
}

// ListCheckers returns a page of checkers matching the filter plus the total.
func (s *AdminService) ListCheckers(ctx context.Context, f repo.CheckerFilter, page, pageSize int) ([]domain.Checker, int64, error) {
	total, err := repo.CountCheckers(ctx, s.DB, f)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		return []domain.Checker{}, 0, nil
	}
	items, err := repo.ListCheckers(ctx, s.DB, f, (page-1)*pageSize, pageSize)
	return items, total, err
}

// NewCheckerInput is one credential to load into stock.
type NewCheckerInput struct {
	Serial   string `json:"serial"`
	Pin      string `json:"pin"`
	Category string `json:"category"`
}

// AddCheckers validates and persists a batch of new checkers and records the
// action in the audit log.
func (s *AdminService) AddCheckers(ctx context.Context, adminID string, inputs []NewCheckerInput) ([]domain.Checker, error) {
	rows, err := buildCheckerRows(inputs)
	if err != nil {
		return nil, err
	}
	created, err := repo.InsertCheckers(ctx, s.DB, rows)
	if err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, "checkers.add", "checker", "", fmt.Sprintf("added %d checkers", len(created)))
	return created, nil
}

// ImportSummary reports what a CSV import did (or would do, in preview mode).
type ImportSummary struct {
	Total      int            `json:"total"`
	ByCategory map[string]int `json:"by_category"`
	Preview    bool           `json:"preview"`
}

// ImportCheckersCSV parses a CSV stream with columns serial,pin,waec_type
// (header optional) and loads the rows into stock. With preview=true nothing
// is written; the summary describes what a real run would insert. Any
// malformed row aborts the whole import.
func (s *AdminService) ImportCheckersCSV(ctx context.Context, adminID string, r io.Reader, preview bool) (*ImportSummary, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var inputs []NewCheckerInput
	line := 0
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadImportRow, line+1, err)
		}
		line++
		if line == 1 && looksLikeHeader(rec) {
			continue
		}
		if len(rec) < 3 {
			return nil, fmt.Errorf("%w: line %d: want serial,pin,waec_type", ErrBadImportRow, line)
		}
		inputs = append(inputs, NewCheckerInput{
			Serial:   strings.TrimSpace(rec[0]),
			Pin:      strings.TrimSpace(rec[1]),
			Category: strings.TrimSpace(rec[2]),
		})
	}

	rows, err := buildCheckerRows(inputs)
	if err != nil {
		return nil, err
	}

	summary := &ImportSummary{
		Total:      len(rows),
		ByCategory: map[string]int{},
		Preview:    preview,
	}
	for _, c := range rows {
		summary.ByCategory[string(c.Category)]++
	}
	if preview {
		return summary, nil
	}

	if _, err := repo.InsertCheckers(ctx, s.DB, rows); err != nil {
		return nil, err
	}
	s.audit(ctx, adminID, "checkers.import", "checker", "", fmt.Sprintf("imported %d checkers", len(rows)))
	return summary, nil
}

// ListOTPSessions returns a page of OTP sessions matching the filter.
func (s *AdminService) ListOTPSessions(ctx context.Context, f repo.OTPFilter, page, pageSize int) ([]domain.OTPSession, error) {
	return repo.ListOTPSessions(ctx, s.DB, f, (page-1)*pageSize, pageSize)
}

// StockSummary returns the per-category availability counts plus a coarse
// last-modified hint for conditional responses.
func (s *AdminService) StockSummary(ctx context.Context) ([]repo.CategoryCount, error) {
	return repo.StockStats(ctx, s.DB)
}

// ListAudit returns a page of audit entries, most recent first.
func (s *AdminService) ListAudit(ctx context.Context, page, pageSize int) ([]domain.AuditEntry, error) {
	return repo.ListAudit(ctx, s.DB, (page-1)*pageSize, pageSize)
}

// audit records an admin action; failures are logged, never surfaced.
func (s *AdminService) audit(ctx context.Context, adminID, action, entity, entityID, detail string) {
	if err := repo.AppendAudit(ctx, s.DB, adminID, action, entity, entityID, detail); err != nil {
		log.Ctx(ctx).Error().Err(err).Str("action", action).Msg("audit append failed")
	}
}

func buildCheckerRows(inputs []NewCheckerInput) ([]domain.Checker, error) {
	if len(inputs) == 0 {
		return nil, ErrEmptyImport
	}
	rows := make([]domain.Checker, 0, len(inputs))
	for i, in := range inputs {
		category, err := domain.ParseCategory(strings.ToUpper(strings.TrimSpace(in.Category)))
		if err != nil {
			return nil, fmt.Errorf("%w: row %d: %q", ErrBadImportRow, i+1, in.Category)
		}
		serial := strings.TrimSpace(in.Serial)
		pin := strings.TrimSpace(in.Pin)
		if serial == "" || pin == "" {
			return nil, fmt.Errorf("%w: row %d: empty serial or pin", ErrBadImportRow, i+1)
		}
		rows = append(rows, domain.Checker{Serial: serial, Pin: pin, Category: category})
	}
	return rows, nil
}

func looksLikeHeader(rec []string) bool {
	if len(rec) == 0 {
		return false
	}
	first := strings.ToLower(strings.TrimSpace(rec[0]))
	return first == "serial" || first == "serial_number"
}
