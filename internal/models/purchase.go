package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment status constants
const (
	PaymentStatusPending   = "pending"
	PaymentStatusCompleted = "completed"
	PaymentStatusFailed    = "failed"
)

// Entity type constants
const (
	EntityTypeMSP        = "msp"
	EntityTypeEnterprise = "enterprise"
	EntityTypeSMB        = "smb"
	EntityTypeStartup    = "startup"
)

// Data volume constants
const (
	DataVolumeSmall  = "small"
	DataVolumeMedium = "medium"
	DataVolumeLarge  = "large"
)

// Terms flag values, stored as text like the rest of the record
const (
	TermsAcceptedTrue  = "true"
	TermsAcceptedFalse = "false"
)

// DefaultCurrency is used when neither the record nor the config names one
const DefaultCurrency = "USD"

// Purchase is one customer's progress through the purchase wizard.
// Columns fill in phase by phase and are never cleared.
type Purchase struct {
	ID        string
	Timestamp time.Time

	// Phase 1: integration selection and contact
	HubVendorID          string
	HubVendorName        string
	SpokeIntegrationID   string
	SpokeIntegrationName string
	CustomerName         string
	CustomerEmail        string

	// Phase 2: business details
	CompanyName     *string
	EntityType      *string
	SyncFrequency   *string
	DataVolume      *string
	PricingTier     *string
	AdditionalNotes *string

	// Phase 3: terms
	TermsAccepted   string
	TermsAcceptedAt *time.Time

	// Phase 4: payment
	StripeSessionID *string
	PaymentStatus   string
	PaymentAmount   *string
	PaymentCurrency string
	PaidAt          *time.Time

	// Metadata
	TemplateID            string
	NotificationEmailSent string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Amount returns the snapshotted tier price, zero when phase 2 has not run
func (p *Purchase) Amount() decimal.Decimal {
	if p.PaymentAmount == nil || *p.PaymentAmount == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(*p.PaymentAmount)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Currency returns the record currency, falling back to USD
func (p *Purchase) Currency() string {
	if p.PaymentCurrency == "" {
		return DefaultCurrency
	}
	return p.PaymentCurrency
}

// PurchaseFilter narrows admin listings; empty fields match everything
type PurchaseFilter struct {
	PaymentStatus string
	CustomerEmail string
	Limit         int
}

// PaymentUpdate is written only by the checkout flow and the payment webhook
type PaymentUpdate struct {
	Status string
	PaidAt *time.Time
}

// Purchase event actions
const (
	EventActionCreated         = "created"
	EventActionBusinessDetails = "business_details"
	EventActionTermsAccepted   = "terms_accepted"
	EventActionNotification    = "notification"
	EventActionCheckoutSession = "checkout_session"
	EventActionPaymentStatus   = "payment_status"
)

// Purchase event statuses
const (
	EventStatusSuccess = "success"
	EventStatusFailed  = "failed"
)

// PurchaseEvent is an audit log entry attached to a purchase
type PurchaseEvent struct {
	ID         string
	PurchaseID string
	Action     string
	Status     string
	Message    string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}
