package store

import (
	"errors"

	"hostel-ops-backend/internal/model"
)

// ErrConflict is returned when a write violates a unique constraint.
var ErrConflict = errors.New("unique constraint violated")

// UserFilter narrows ListUsers. Zero values match everything.
type UserFilter struct {
	Roles []model.Role
}

// MealOffFilter narrows ListMealOffRequests. Zero values match everything.
type MealOffFilter struct {
	UserID string
	Status model.RequestStatus
	From   model.Day
	To     model.Day
}
