package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"hostel-ops-backend/internal/billing"
	"hostel-ops-backend/internal/identity"
	"hostel-ops-backend/internal/ledger"
	"hostel-ops-backend/internal/mealoff"
	"hostel-ops-backend/internal/model"
	"hostel-ops-backend/internal/mw"
	"hostel-ops-backend/internal/store"
)

// Deps are the services the HTTP adapter exposes.
type Deps struct {
	Store          store.Store
	Directory      *identity.Directory
	Tokens         *identity.TokenManager
	Meals          *ledger.MealLedger
	Rent           *ledger.RentLedger
	Billing        *billing.Guard
	MealOff        *mealoff.Workflow
	VAPIDPublicKey string
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	Deps
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{Deps: d}
}

func actor(c *gin.Context) identity.Actor {
	a, _ := mw.ActorFrom(c)
	return a
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "detail": err.Error()})
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, model.ErrDuplicateRequest),
		errors.Is(err, model.ErrInvalidState),
		errors.Is(err, identity.ErrEmailExists):
		return http.StatusConflict
	case errors.Is(err, model.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, model.ErrRateNotConfigured):
		return http.StatusUnprocessableEntity
	case errors.Is(err, identity.ErrInvalidCredentials),
		errors.Is(err, identity.ErrInvalidToken),
		errors.Is(err, identity.ErrMissingToken):
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
		slog.Error("Request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}
