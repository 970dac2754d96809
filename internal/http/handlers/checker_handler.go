// Availability HTTP handler.
//
// GET /checkers/availability returns per-category counts of unsold checkers.
// Storefronts poll this to grey out sold-out categories, so the endpoint
// supports weak ETags to keep the polling cheap.
package handlers

import (
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/youngpres/checker-backend/internal/repo"
)

// AvailabilityResponse lists the sellable stock per category.
type AvailabilityResponse struct {
	Categories []repo.CategoryCount `json:"categories"`
}

// Availability godoc
// @ID          checkerAvailability
// @Summary     Available checkers per category
// @Description Returns per-category counts of unsold checkers. Supports weak ETag via If-None-Match and may return 304.
// @Tags        Checkers
// @Produce     json
// @Param       If-None-Match header string false "Return 304 if ETag matches"
// @Success     200 {object} handlers.AvailabilityResponse
// @Header      200 {string} ETag "Weak ETag for current stock"
// @Success     304 {string} string "Not Modified"
// @Failure     500 {object} handlers.ErrorResponse
// @Router      /checkers/availability [get]
func (h *Handlers) Availability(c *gin.Context) {
	ctx := c.Request.Context()

	counts, err := repo.StockStats(ctx, h.db)
	if err != nil {
		fail(c, http.StatusInternalServerError, ErrCodeInternal, "could not read stock")
		return
	}

	// ETag over the full count vector: any sale or import changes it.
	sig := ""
	for _, cc := range counts {
		sig += fmt.Sprintf("%s:%d;", cc.Category, cc.Count)
	}
	hash := fnv.New32a()
	hash.Write([]byte(sig))
	etag := fmt.Sprintf(`W/"stock:%x"`, hash.Sum32())
	c.Header("ETag", etag)
	if inm := c.GetHeader("If-None-Match"); inm != "" && inm == etag {
		c.Status(http.StatusNotModified)
		return
	}

	ok(c, http.StatusOK, AvailabilityResponse{Categories: counts})
}
