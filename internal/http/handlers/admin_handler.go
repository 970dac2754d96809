// Admin HTTP handlers.
//
// The back-office surface, mounted under /admin behind AdminAuth:
//   - GET  /admin/orders            (filterable order list)
//   - GET  /admin/orders/{id}       (order + assigned checkers)
//   - GET  /admin/checkers          (filterable stock list)
//   - POST /admin/checkers          (bulk add)
//   - POST /admin/checkers/import   (CSV import, ?preview=true dry-run)
//   - GET  /admin/otp-sessions      (retrieval session list)
//   - GET  /admin/audit             (who did what)
package handlers

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/youngpres/checker-backend/internal/domain"
	"github.com/youngpres/checker-backend/internal/http/middleware"
	"github.com/youngpres/checker-backend/internal/repo"
	"github.com/youngpres/checker-backend/internal/services"
	"github.com/youngpres/checker-backend/internal/utils"
)

// Pagination carries pagination metadata for list responses.
type Pagination struct {
	Page       int   `json:"page"`
	PageSize   int   `json:"page_size"`
	TotalItems int64 `json:"total_items"`
}

// ListOrdersResponse is a page of orders plus pagination metadata.
type ListOrdersResponse struct {
	Items      []domain.Order `json:"items"`
	Pagination Pagination     `json:"pagination"`
}

// OrderDetailsResponse is one order with its live checker rows.
type OrderDetailsResponse struct {
	Order    *domain.Order    `json:"order"`
	Checkers []domain.Checker `json:"checkers"`
}

// ListCheckersResponse is a page of checkers plus pagination metadata.
type ListCheckersResponse struct {
	Items      []domain.Checker `json:"items"`
	Pagination Pagination       `json:"pagination"`
}

// AddCheckersRequest is the JSON payload for bulk stock loading.
type AddCheckersRequest struct {
	Checkers []services.NewCheckerInput `json:"checkers" binding:"required"`
}

const maxPageSize = 100

// clampPagination reads page/page_size query params with sane bounds.
func clampPagination(c *gin.Context) (int, int) {
	page := utils.AtoiDefault(c.Query("page"), 1)
	size := utils.AtoiDefault(c.Query("page_size"), 20)
	return utils.ClampPage(page, size, maxPageSize)
}

// AdminListOrders godoc
// @ID          adminListOrders
// @Summary     List orders
// @Description Returns a page of orders. Filters: status, phone, from, to (RFC 3339).
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} handlers.ListOrdersResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /admin/orders [get]
func (h *Handlers) AdminListOrders(c *gin.Context) {
	page, pageSize := clampPagination(c)

	f := repo.OrderFilter{}
	if s := c.Query("status"); s != "" {
		st := domain.OrderStatus(s)
		if st != domain.OrderPending && !st.Terminal() {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown status filter")
			return
		}
		f.Status = st
	}
	if p := c.Query("phone"); p != "" {
		normalized, err := utils.NormalizePhone(p, h.callingCode)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid phone filter")
			return
		}
		f.Phone = normalized
	}
	for _, bound := range []struct {
		param string
		dst   *time.Time
	}{{"from", &f.From}, {"to", &f.To}} {
		if v := c.Query(bound.param); v != "" {
			t, err := time.Parse(time.RFC3339, v)
			if err != nil {
				fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid "+bound.param+" timestamp")
				return
			}
			*bound.dst = t
		}
	}

	items, total, err := h.admin.ListOrders(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list orders")
		return
	}
	ok(c, http.StatusOK, ListOrdersResponse{
		Items:      items,
		Pagination: Pagination{Page: page, PageSize: pageSize, TotalItems: total},
	})
}

// AdminGetOrder godoc
// @ID          adminGetOrder
// @Summary     Order details
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Order ID"
// @Success     200 {object} handlers.OrderDetailsResponse
// @Failure     404 {object} handlers.ErrorResponse
// @Router      /admin/orders/{id} [get]
func (h *Handlers) AdminGetOrder(c *gin.Context) {
	order, checkers, err := h.admin.GetOrderDetails(c.Request.Context(), c.Param("id"))
	switch {
	case errors.Is(err, services.ErrOrderNotFound):
		fail(c, http.StatusNotFound, ErrCodeNotFound, "order not found")
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not load order")
		return
	}
	ok(c, http.StatusOK, OrderDetailsResponse{Order: order, Checkers: checkers})
}

// AdminListCheckers godoc
// @ID          adminListCheckers
// @Summary     List checkers
// @Description Returns a page of checkers. Filters: category, assigned (true/false).
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} handlers.ListCheckersResponse
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /admin/checkers [get]
func (h *Handlers) AdminListCheckers(c *gin.Context) {
	page, pageSize := clampPagination(c)

	f := repo.CheckerFilter{}
	if s := c.Query("category"); s != "" {
		category, err := domain.ParseCategory(s)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "unknown category filter")
			return
		}
		f.Category = category
	}
	if s := c.Query("assigned"); s != "" {
		assigned := s == "true" || s == "1"
		f.Assigned = &assigned
	}

	items, total, err := h.admin.ListCheckers(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list checkers")
		return
	}
	ok(c, http.StatusOK, ListCheckersResponse{
		Items:      items,
		Pagination: Pagination{Page: page, PageSize: pageSize, TotalItems: total},
	})
}

// AdminAddCheckers godoc
// @ID          adminAddCheckers
// @Summary     Add checkers to stock
// @Tags        Admin
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       payload body handlers.AddCheckersRequest true "New checkers"
// @Success     201 {object} map[string]int
// @Failure     400 {object} handlers.ErrorResponse
// @Router      /admin/checkers [post]
func (h *Handlers) AdminAddCheckers(c *gin.Context) {
	var req AddCheckersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid request payload")
		return
	}

	created, err := h.admin.AddCheckers(c.Request.Context(), middleware.AdminIDFrom(c), req.Checkers)
	switch {
	case errors.Is(err, services.ErrEmptyImport), errors.Is(err, services.ErrBadImportRow):
		fail(c, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not add checkers")
		return
	}
	ok(c, http.StatusCreated, gin.H{"added": len(created)})
}

// AdminImportCheckers godoc
// @ID          adminImportCheckers
// @Summary     Import checkers from CSV
// @Description Body is CSV with columns serial,pin,waec_type (header optional). Pass ?preview=true for a dry-run that writes nothing.
// @Tags        Admin
// @Accept      text/csv
// @Produce     json
// @Security    BearerAuth
// @Param       preview query bool false "Dry-run"
// @Success     200 {object} services.ImportSummary
// @Failure     400 {object} handlers.ErrorResponse "Malformed CSV; nothing imported"
// @Router      /admin/checkers/import [post]
func (h *Handlers) AdminImportCheckers(c *gin.Context) {
	preview := c.Query("preview") == "true"

	summary, err := h.admin.ImportCheckersCSV(c.Request.Context(), middleware.AdminIDFrom(c), c.Request.Body, preview)
	switch {
	case errors.Is(err, services.ErrEmptyImport), errors.Is(err, services.ErrBadImportRow):
		fail(c, http.StatusBadRequest, ErrCodeImportFailed, err.Error())
		return
	case err != nil:
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not import checkers")
		return
	}
	ok(c, http.StatusOK, summary)
}

// AdminListOTPSessions godoc
// @ID          adminListOTPSessions
// @Summary     List OTP sessions
// @Description Returns a page of retrieval sessions. Filters: phone, verified (true/false).
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.OTPSession
// @Router      /admin/otp-sessions [get]
func (h *Handlers) AdminListOTPSessions(c *gin.Context) {
	page, pageSize := clampPagination(c)

	f := repo.OTPFilter{}
	if p := c.Query("phone"); p != "" {
		normalized, err := utils.NormalizePhone(p, h.callingCode)
		if err != nil {
			fail(c, http.StatusBadRequest, ErrCodeBadRequest, "invalid phone filter")
			return
		}
		f.Phone = normalized
	}
	if s := c.Query("verified"); s != "" {
		verified := s == "true" || s == "1"
		f.Verified = &verified
	}

	items, err := h.admin.ListOTPSessions(c.Request.Context(), f, page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list sessions")
		return
	}
	ok(c, http.StatusOK, items)
}

// AdminListAudit godoc
// @ID          adminListAudit
// @Summary     List admin audit entries
// @Tags        Admin
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array} domain.AuditEntry
// @Router      /admin/audit [get]
func (h *Handlers) AdminListAudit(c *gin.Context) {
	page, pageSize := clampPagination(c)
	items, err := h.admin.ListAudit(c.Request.Context(), page, pageSize)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not list audit entries")
		return
	}
	ok(c, http.StatusOK, items)
}
