package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-ops-backend/internal/parse"
)

// GetSummary handles GET /api/summaries/:month/:user_id.
func (h *Handler) GetSummary(c *gin.Context) {
	month, err := parse.Month(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	sum, err := h.Billing.MonthlySummary(c.Request.Context(), actor(c), c.Param("user_id"), month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sum)
}

// GetFleetSummary handles GET /api/summaries/:month. Staff get every resident,
// residents get their own row.
func (h *Handler) GetFleetSummary(c *gin.Context) {
	month, err := parse.Month(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	fleet, err := h.Billing.Residents(c.Request.Context(), actor(c), month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, fleet)
}
