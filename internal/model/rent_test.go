package model

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestDerivePaymentStatus(t *testing.T) {
	testCases := []struct {
		name   string
		amount string
		rent   string
		want   PaymentStatus
	}{
		{"full", "3500", "3500", PaymentPaid},
		{"overpaid", "4000", "3500", PaymentPaid},
		{"partial", "2000", "3500", PaymentPartial},
		{"one cent short", "3499.99", "3500", PaymentPartial},
		{"nothing", "0", "3500", PaymentUnpaid},
		// Nothing is owed, so nothing paid settles the month.
		{"no rent", "0", "0", PaymentPaid},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := DerivePaymentStatus(decimal.RequireFromString(tc.amount), decimal.RequireFromString(tc.rent))
			assert.Equal(t, tc.want, got)
		})
	}
}
