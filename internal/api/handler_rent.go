package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
)

type putRentRequest struct {
	Amount   *decimal.Decimal `json:"amount"`
	PaidDate string           `json:"paidDate"`
}

// PutRent handles PUT /api/rent/:user_id/:month.
func (h *Handler) PutRent(c *gin.Context) {
	var req putRentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if req.Amount == nil {
		respondError(c, fmt.Errorf("%w: amount is required", model.ErrInvalidInput))
		return
	}
	month, err := parse.Month(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	var paidDate *model.Day
	if req.PaidDate != "" {
		d, err := parse.Day(req.PaidDate)
		if err != nil {
			respondError(c, err)
			return
		}
		paidDate = &d
	}

	p, err := h.Rent.RecordPayment(c.Request.Context(), actor(c), c.Param("user_id"), month, *req.Amount, paidDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetRent handles GET /api/rent/:user_id/:month.
func (h *Handler) GetRent(c *gin.Context) {
	userID := c.Param("user_id")
	if err := actor(c).RequireAccess(identity.ViewAllFinances, userID); err != nil {
		respondError(c, err)
		return
	}
	month, err := parse.Month(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	p, ok, err := h.Rent.Payment(c.Request.Context(), userID, month)
	if err != nil {
		respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": fmt.Sprintf("no rent payment recorded for %s", month)})
		return
	}
	c.JSON(http.StatusOK, p)
}

// RentOverview handles GET /api/rent?month=.
func (h *Handler) RentOverview(c *gin.Context) {
	month := h.today().Month()
	if raw := c.Query("month"); raw != "" {
		m, err := parse.Month(raw)
		if err != nil {
			respondError(c, err)
			return
		}
		month = m
	}
	ov, err := h.Rent.Overview(c.Request.Context(), actor(c), month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ov)
}
