package identity

import (
	"fmt"

	"hostel-ops-backend/internal/model"
)

// Capability is a permission granted to one or more roles.
type Capability string

const (
	ManageUsers     Capability = "manage_users"
	ViewDirectory   Capability = "view_directory"
	RecordMeals     Capability = "record_meals"
	SetMealRate     Capability = "set_meal_rate"
	ViewAllMeals    Capability = "view_all_meals"
	RecordRent      Capability = "record_rent"
	ViewAllFinances Capability = "view_all_finances"
	ReviewMealOff   Capability = "review_meal_off"
	ViewAllMealOff  Capability = "view_all_meal_off"
)

var staff = []model.Role{model.RoleAdmin, model.RoleManager, model.RoleMealManager}

var grants = map[Capability][]model.Role{
	ManageUsers:     {model.RoleAdmin, model.RoleManager},
	ViewDirectory:   staff,
	RecordMeals:     {model.RoleAdmin, model.RoleMealManager},
	SetMealRate:     {model.RoleAdmin, model.RoleMealManager},
	ViewAllMeals:    staff,
	RecordRent:      {model.RoleAdmin, model.RoleManager},
	ViewAllFinances: staff,
	ReviewMealOff:   {model.RoleAdmin, model.RoleMealManager},
	ViewAllMealOff:  staff,
}

// Allows reports whether role holds capability c.
func Allows(role model.Role, c Capability) bool {
	for _, r := range grants[c] {
		if r == role {
			return true
		}
	}
	return false
}

// Actor is the authenticated user on whose behalf an operation runs.
type Actor struct {
	UserID string
	Role   model.Role
}

// System is the actor used by trusted callers such as the admin CLI.
var System = Actor{UserID: "system", Role: model.RoleAdmin}

// ActorOf returns the actor for u.
func ActorOf(u model.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}

// Can reports whether the actor holds capability c.
func (a Actor) Can(c Capability) bool {
	return Allows(a.Role, c)
}

// CanAccess reports whether the actor may act on userID's data, either
// because it is their own or because the actor holds c.
func (a Actor) CanAccess(c Capability, userID string) bool {
	return (a.UserID != "" && a.UserID == userID) || a.Can(c)
}

// Require returns model.ErrUnauthorized unless the actor holds c.
func (a Actor) Require(c Capability) error {
	if !a.Can(c) {
		return fmt.Errorf("%w: role %q lacks %s", model.ErrUnauthorized, a.Role, c)
	}
	return nil
}

// RequireAccess returns model.ErrUnauthorized unless CanAccess(c, userID).
func (a Actor) RequireAccess(c Capability, userID string) error {
	if !a.CanAccess(c, userID) {
		return fmt.Errorf("%w: role %q may not access user %s", model.ErrUnauthorized, a.Role, userID)
	}
	return nil
}
