package model

import "errors"

// Error kinds shared by the ledgers, the billing aggregator and the meal-off
// workflow. Callers wrap them with context and match them with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrDuplicateRequest  = errors.New("an active meal-off request already exists for this date")
	ErrInvalidState      = errors.New("invalid state transition")
	ErrUnauthorized      = errors.New("unauthorized")
	ErrRateNotConfigured = errors.New("meal rate not configured for month")
)
