package model

import "time"

// RequestStatus is the state of a meal-off request.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// IsTerminal reports whether no further transition may leave the status.
func (s RequestStatus) IsTerminal() bool {
	switch s {
	case RequestApproved, RequestRejected:
		return true
	case RequestPending:
		return false
	}
	return false
}

// IsDecision reports whether s is a valid outcome of a review.
func (s RequestStatus) IsDecision() bool {
	switch s {
	case RequestApproved, RequestRejected:
		return true
	}
	return false
}

// MealOffRequest asks for one or more meals of a day to be switched off.
type MealOffRequest struct {
	ID          string        `gorm:"primaryKey;size:36" json:"id"`
	UserID      string        `gorm:"size:36;not null;index" json:"userId"`
	Date        Day           `gorm:"size:10;not null;index" json:"date"`
	RequestedAt time.Time     `gorm:"not null" json:"requestedAt"`
	Status      RequestStatus `gorm:"size:16;not null;index" json:"status"`
	ReviewedBy  *string       `gorm:"size:36" json:"reviewedBy,omitempty"`
	ReviewedAt  *time.Time    `json:"reviewedAt,omitempty"`
	Meals       MealSelection `gorm:"embedded;embeddedPrefix:meal_" json:"meals"`
}
