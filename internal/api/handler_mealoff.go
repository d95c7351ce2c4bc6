package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
)

type submitMealOffRequest struct {
	UserID string              `json:"userId"`
	Date   string              `json:"date" binding:"required"`
	Meals  model.MealSelection `json:"meals"`
}

type reviewMealOffRequest struct {
	Decision model.RequestStatus `json:"decision" binding:"required"`
}

// SubmitMealOff handles POST /api/meal-off. The request is filed for the
// caller unless userId names someone else.
func (h *Handler) SubmitMealOff(c *gin.Context) {
	var req submitMealOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	day, err := parse.Day(req.Date)
	if err != nil {
		respondError(c, err)
		return
	}
	a := actor(c)
	userID := req.UserID
	if userID == "" {
		userID = a.UserID
	}

	out, err := h.MealOff.Submit(c.Request.Context(), a, userID, day, req.Meals)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// ReviewMealOff handles POST /api/meal-off/:id/review.
func (h *Handler) ReviewMealOff(c *gin.Context) {
	var req reviewMealOffRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	out, err := h.MealOff.Review(c.Request.Context(), c.Param("id"), actor(c).UserID, req.Decision)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListMealOff handles GET /api/meal-off.
func (h *Handler) ListMealOff(c *gin.Context) {
	out, err := h.MealOff.ListAll(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListPendingMealOff handles GET /api/meal-off/pending.
func (h *Handler) ListPendingMealOff(c *gin.Context) {
	out, err := h.MealOff.ListPending(c.Request.Context(), actor(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// ListUserMealOff handles GET /api/users/:user_id/meal-off.
func (h *Handler) ListUserMealOff(c *gin.Context) {
	out, err := h.MealOff.ListForUser(c.Request.Context(), actor(c), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}
