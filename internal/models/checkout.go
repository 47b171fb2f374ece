package models

import "time"

// CheckoutSessionPlaceholder is substituted by the payment processor with the real session id
const CheckoutSessionPlaceholder = "{CHECKOUT_SESSION_ID}"

// CheckoutSessionParams is what the checkout gateway needs to open a subscription session
type CheckoutSessionParams struct {
	PurchaseID      string
	PricingTierName string
	CustomerName    string
	CustomerEmail   string
	AmountMinor     int64
	Currency        string
	Interval        string
	SuccessURL      string
	CancelURL       string
}

// CheckoutSession is a snapshot of a payment processor session
type CheckoutSession struct {
	ID            string `json:"id"`
	URL           string `json:"url,omitempty"`
	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`
	CustomerEmail string `json:"customer_email,omitempty"`
	AmountTotal   int64  `json:"amount_total"`
	Currency      string `json:"currency"`
	PurchaseID    string `json:"purchase_id,omitempty"`
}

// Payment event types forwarded by the processor webhook
const (
	PaymentEventCheckoutCompleted     = "checkout.session.completed"
	PaymentEventCheckoutExpired       = "checkout.session.expired"
	PaymentEventAsyncPaymentFailed    = "checkout.session.async_payment_failed"
	PaymentEventAsyncPaymentSucceeded = "checkout.session.async_payment_succeeded"
)

// PaymentEvent is a verified webhook event reduced to what the purchase record needs
type PaymentEvent struct {
	ID         string
	Type       string
	SessionID  string
	PurchaseID string
	Paid       bool
	OccurredAt time.Time
}
