package parse

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"hostel-ops-backend/internal/model"
)

// Day parses a YYYY-MM-DD date. Only real calendar dates are accepted.
func Day(raw string) (model.Day, error) {
	s := strings.TrimSpace(raw)
	t, err := time.Parse(model.DayLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: date %q must be YYYY-MM-DD", model.ErrInvalidInput, raw)
	}
	return model.DayOf(t), nil
}

// Month parses a YYYY-MM month.
func Month(raw string) (model.Month, error) {
	s := strings.TrimSpace(raw)
	t, err := time.Parse(model.MonthLayout, s)
	if err != nil {
		return "", fmt.Errorf("%w: month %q must be YYYY-MM", model.ErrInvalidInput, raw)
	}
	return model.MonthOf(t), nil
}

// Amount parses a non-negative money amount with at most two decimal places.
func Amount(raw string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: amount %q is not a number", model.ErrInvalidInput, raw)
	}
	if err := ValidAmount(d); err != nil {
		return decimal.Zero, err
	}
	return d, nil
}

// ValidAmount checks that d is a non-negative amount that fits the two
// decimal places of the money columns without rounding.
func ValidAmount(d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%w: amount %s must not be negative", model.ErrInvalidInput, d)
	}
	if !d.Equal(d.Round(2)) {
		return fmt.Errorf("%w: amount %s has more than two decimal places", model.ErrInvalidInput, d)
	}
	return nil
}
