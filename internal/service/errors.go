package service

import "errors"

var (
	// ErrPurchaseNotFound is returned when a purchase id does not resolve
	ErrPurchaseNotFound = errors.New("purchase not found")
	// ErrCheckoutUnavailable is returned when no payment gateway is configured
	ErrCheckoutUnavailable = errors.New("checkout is not configured")
	// ErrInvalidWebhook is returned when a payment webhook fails verification
	ErrInvalidWebhook = errors.New("invalid payment webhook")
)

// ValidationError carries a user-facing explanation of rejected input
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(msg string) error {
	return &ValidationError{Message: msg}
}
