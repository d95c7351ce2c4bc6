package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Role is the access level of a user.
type Role string

const (
	RoleAdmin       Role = "admin"
	RoleManager     Role = "manager"
	RoleMealManager Role = "meal_manager"
	RoleResident    Role = "resident"
)

// Roles lists every role in display order.
var Roles = []Role{RoleAdmin, RoleManager, RoleMealManager, RoleResident}

// Valid reports whether r is one of the four known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleMealManager, RoleResident:
		return true
	}
	return false
}

// Label is the human readable name of the role.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Admin"
	case RoleManager:
		return "Manager"
	case RoleMealManager:
		return "Meal Manager"
	case RoleResident:
		return "Resident"
	}
	return string(r)
}

// User is a resident or staff member of the hostel.
type User struct {
	ID           string          `gorm:"primaryKey;size:36" json:"id"`
	Name         string          `gorm:"size:128;not null" json:"name"`
	Email        string          `gorm:"uniqueIndex;size:255;not null" json:"email"`
	PasswordHash string          `gorm:"size:255" json:"-"`
	Role         Role            `gorm:"size:16;index;not null" json:"role"`
	Room         string          `gorm:"size:32" json:"room"`
	Block        string          `gorm:"size:16;index" json:"block"`
	Floor        int             `json:"floor"`
	MonthlyRent  decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"monthlyRent"`
	CreatedAt    time.Time       `gorm:"not null" json:"createdAt"`
	UpdatedAt    time.Time       `json:"-"`
}
