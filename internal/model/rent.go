package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus describes how much of a month's rent has been paid.
type PaymentStatus string

const (
	PaymentUnpaid  PaymentStatus = "unpaid"
	PaymentPartial PaymentStatus = "partial"
	PaymentPaid    PaymentStatus = "paid"
)

// DerivePaymentStatus classifies amount against the rent owed for the month.
// When no rent is owed the month counts as paid, even with nothing recorded.
func DerivePaymentStatus(amount, rent decimal.Decimal) PaymentStatus {
	switch {
	case amount.GreaterThanOrEqual(rent):
		return PaymentPaid
	case amount.IsZero():
		return PaymentUnpaid
	default:
		return PaymentPartial
	}
}

// RentPayment is the rent paid by a user for a month.
type RentPayment struct {
	UserID     string          `gorm:"primaryKey;size:36" json:"userId"`
	Month      Month           `gorm:"primaryKey;size:7" json:"month"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Status     PaymentStatus   `gorm:"size:16;index;not null" json:"status"`
	PaidDate   *Day            `gorm:"size:10" json:"paidDate,omitempty"`
	RecordedBy string          `gorm:"size:36" json:"recordedBy,omitempty"`
	CreatedAt  time.Time       `json:"-"`
	UpdatedAt  time.Time       `json:"updatedAt"`
}
