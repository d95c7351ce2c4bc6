package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/parse"
)

type putRateRequest struct {
	RatePerMeal decimal.Decimal `json:"ratePerMeal"`
}

func (h *Handler) today() model.Day {
	if h.MealOff != nil {
		return h.MealOff.Today()
	}
	return model.DayOf(time.Now())
}

// dayRange reads ?from= and ?to=, defaulting to the current month.
func (h *Handler) dayRange(c *gin.Context) (model.Day, model.Day, error) {
	month := h.today().Month()
	from, to := month.FirstDay(), month.LastDay()
	if raw := c.Query("from"); raw != "" {
		d, err := parse.Day(raw)
		if err != nil {
			return "", "", err
		}
		from = d
	}
	if raw := c.Query("to"); raw != "" {
		d, err := parse.Day(raw)
		if err != nil {
			return "", "", err
		}
		to = d
	}
	return from, to, nil
}

// PutMeal handles PUT /api/meals/:user_id/:date.
func (h *Handler) PutMeal(c *gin.Context) {
	var sel model.MealSelection
	if err := c.ShouldBindJSON(&sel); err != nil {
		badRequest(c, err)
		return
	}
	day, err := parse.Day(c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	rec, err := h.Meals.RecordMeal(c.Request.Context(), actor(c), c.Param("user_id"), day, sel)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rec)
}

// ListMeals handles GET /api/meals/:user_id.
func (h *Handler) ListMeals(c *gin.Context) {
	from, to, err := h.dayRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	records, err := h.Meals.MealsForUser(c.Request.Context(), actor(c), c.Param("user_id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// MealStats handles GET /api/meals/:user_id/stats.
func (h *Handler) MealStats(c *gin.Context) {
	from, to, err := h.dayRange(c)
	if err != nil {
		respondError(c, err)
		return
	}
	stats, err := h.Meals.Stats(c.Request.Context(), actor(c), c.Param("user_id"), from, to)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DailyMeals handles GET /api/daily-meals/:date.
func (h *Handler) DailyMeals(c *gin.Context) {
	day, err := parse.Day(c.Param("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	board, err := h.Meals.DailyBoard(c.Request.Context(), actor(c), day)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, board)
}

// PutRate handles PUT /api/rates/:month.
func (h *Handler) PutRate(c *gin.Context) {
	var req putRateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	month, err := parse.Month(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	rate, err := h.Meals.SetRate(c.Request.Context(), actor(c), month, req.RatePerMeal)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}

// GetRate handles GET /api/rates/:month.
func (h *Handler) GetRate(c *gin.Context) {
	month, err := parse.Month(c.Param("month"))
	if err != nil {
		respondError(c, err)
		return
	}
	rate, err := h.Meals.Rate(c.Request.Context(), month)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, rate)
}
