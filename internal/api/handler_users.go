package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/model"
)

type createUserRequest struct {
	Name        string          `json:"name" binding:"required"`
	Email       string          `json:"email" binding:"required"`
	Password    string          `json:"password" binding:"required"`
	Role        model.Role      `json:"role" binding:"required"`
	Room        string          `json:"room"`
	MonthlyRent decimal.Decimal `json:"monthlyRent"`
}

// ListUsers handles GET /api/users, optionally filtered by ?role=.
func (h *Handler) ListUsers(c *gin.Context) {
	var roles []model.Role
	if r := c.Query("role"); r != "" {
		roles = append(roles, model.Role(r))
	}
	users, err := h.Directory.List(c.Request.Context(), actor(c), roles...)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, users)
}

// CreateUser handles POST /api/users.
func (h *Handler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	user, err := h.Directory.Create(c.Request.Context(), actor(c), identity.NewUser{
		Name:        req.Name,
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		Room:        req.Room,
		MonthlyRent: req.MonthlyRent,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, user)
}

// GetUser handles GET /api/users/:user_id.
func (h *Handler) GetUser(c *gin.Context) {
	user, err := h.Directory.Get(c.Request.Context(), actor(c), c.Param("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}
