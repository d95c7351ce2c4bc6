package model

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// MealSelection is a set of the three daily meals.
type MealSelection struct {
	Breakfast bool `gorm:"not null" json:"breakfast"`
	Lunch     bool `gorm:"not null" json:"lunch"`
	Dinner    bool `gorm:"not null" json:"dinner"`
}

// Count returns how many meals are selected.
func (s MealSelection) Count() int {
	n := 0
	for _, on := range []bool{s.Breakfast, s.Lunch, s.Dinner} {
		if on {
			n++
		}
	}
	return n
}

// IsEmpty reports whether no meal is selected.
func (s MealSelection) IsEmpty() bool {
	return s.Count() == 0
}

// Without returns the meals of s that are not in other.
func (s MealSelection) Without(other MealSelection) MealSelection {
	return MealSelection{
		Breakfast: s.Breakfast && !other.Breakfast,
		Lunch:     s.Lunch && !other.Lunch,
		Dinner:    s.Dinner && !other.Dinner,
	}
}

// Union returns the meals selected in either s or other.
func (s MealSelection) Union(other MealSelection) MealSelection {
	return MealSelection{
		Breakfast: s.Breakfast || other.Breakfast,
		Lunch:     s.Lunch || other.Lunch,
		Dinner:    s.Dinner || other.Dinner,
	}
}

// MealRecord holds the meals a user took on one day.
type MealRecord struct {
	UserID string `gorm:"primaryKey;size:36" json:"userId"`
	Date   Day    `gorm:"primaryKey;size:10" json:"date"`
	MealSelection
	// MealCount always equals MealSelection.Count(); it is rewritten on every save.
	MealCount  int       `gorm:"not null" json:"mealCount"`
	RecordedBy string    `gorm:"size:36" json:"recordedBy,omitempty"`
	CreatedAt  time.Time `json:"-"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// BeforeSave keeps MealCount in step with the flags.
func (r *MealRecord) BeforeSave(tx *gorm.DB) error {
	r.MealCount = r.MealSelection.Count()
	return nil
}

// MealRate is the price of one meal for a month.
type MealRate struct {
	Month       Month           `gorm:"primaryKey;size:7" json:"month"`
	RatePerMeal decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"ratePerMeal"`
	SetBy       string          `gorm:"size:36" json:"setBy,omitempty"`
	CreatedAt   time.Time       `json:"-"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}
