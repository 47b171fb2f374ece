package models

import "time"

// ==================== Purchase DTOs ====================

// CreatePurchaseResponse is returned by POST /api/v1/purchases
type CreatePurchaseResponse struct {
	Success    bool   `json:"success"`
	PurchaseID string `json:"purchase_id"`
}

// UpdateBusinessRequest is the body of PATCH /api/v1/purchases/:id/business
type UpdateBusinessRequest struct {
	CompanyName     string `json:"company_name" binding:"required"`
	EntityType      string `json:"entity_type" binding:"required"`
	SyncFrequency   string `json:"sync_frequency" binding:"required"`
	DataVolume      string `json:"data_volume" binding:"required"`
	PricingTier     string `json:"pricing_tier" binding:"required"`
	AdditionalNotes string `json:"additional_notes"`
	PaymentAmount   string `json:"payment_amount"`
}

// UpdateTermsRequest is the body of PATCH /api/v1/purchases/:id/terms
type UpdateTermsRequest struct {
	TermsAccepted   bool       `json:"terms_accepted"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at"`
}

// PurchaseResponse is the JSON view of a purchase record
type PurchaseResponse struct {
	ID                    string  `json:"id"`
	Timestamp             string  `json:"timestamp"`
	HubVendorID           string  `json:"hub_vendor_id"`
	HubVendorName         string  `json:"hub_vendor_name"`
	SpokeIntegrationID    string  `json:"spoke_integration_id"`
	SpokeIntegrationName  string  `json:"spoke_integration_name"`
	CustomerName          string  `json:"customer_name"`
	CustomerEmail         string  `json:"customer_email"`
	CompanyName           *string `json:"company_name"`
	EntityType            *string `json:"entity_type"`
	SyncFrequency         *string `json:"sync_frequency"`
	DataVolume            *string `json:"data_volume"`
	PricingTier           *string `json:"pricing_tier"`
	AdditionalNotes       *string `json:"additional_notes"`
	TermsAccepted         string  `json:"terms_accepted"`
	TermsAcceptedAt       *string `json:"terms_accepted_at"`
	StripeSessionID       *string `json:"stripe_session_id"`
	PaymentStatus         string  `json:"payment_status"`
	PaymentAmount         *string `json:"payment_amount"`
	PaymentCurrency       string  `json:"payment_currency"`
	PaidAt                *string `json:"paid_at"`
	TemplateID            string  `json:"template_id"`
	NotificationEmailSent string  `json:"notification_email_sent"`
	CreatedAt             string  `json:"created_at"`
	UpdatedAt             string  `json:"updated_at"`
}

// NewPurchaseResponse converts a purchase record into its JSON view
func NewPurchaseResponse(p *Purchase) *PurchaseResponse {
	return &PurchaseResponse{
		ID:                    p.ID,
		Timestamp:             p.Timestamp.Format(time.RFC3339),
		HubVendorID:           p.HubVendorID,
		HubVendorName:         p.HubVendorName,
		SpokeIntegrationID:    p.SpokeIntegrationID,
		SpokeIntegrationName:  p.SpokeIntegrationName,
		CustomerName:          p.CustomerName,
		CustomerEmail:         p.CustomerEmail,
		CompanyName:           p.CompanyName,
		EntityType:            p.EntityType,
		SyncFrequency:         p.SyncFrequency,
		DataVolume:            p.DataVolume,
		PricingTier:           p.PricingTier,
		AdditionalNotes:       p.AdditionalNotes,
		TermsAccepted:         p.TermsAccepted,
		TermsAcceptedAt:       formatTimePtr(p.TermsAcceptedAt),
		StripeSessionID:       p.StripeSessionID,
		PaymentStatus:         p.PaymentStatus,
		PaymentAmount:         p.PaymentAmount,
		PaymentCurrency:       p.PaymentCurrency,
		PaidAt:                formatTimePtr(p.PaidAt),
		TemplateID:            p.TemplateID,
		NotificationEmailSent: p.NotificationEmailSent,
		CreatedAt:             p.CreatedAt.Format(time.RFC3339),
		UpdatedAt:             p.UpdatedAt.Format(time.RFC3339),
	}
}

// PurchaseEventInfo is the admin view of a purchase event
type PurchaseEventInfo struct {
	ID        string                 `json:"id"`
	Action    string                 `json:"action"`
	Status    string                 `json:"status"`
	Message   string                 `json:"message"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt string                 `json:"created_at"`
}

// NewPurchaseEventInfo converts an event into its admin view
func NewPurchaseEventInfo(e *PurchaseEvent) PurchaseEventInfo {
	return PurchaseEventInfo{
		ID:        e.ID,
		Action:    e.Action,
		Status:    e.Status,
		Message:   e.Message,
		Metadata:  e.Metadata,
		CreatedAt: e.CreatedAt.Format(time.RFC3339),
	}
}

// ==================== Checkout DTOs ====================

// CreateCheckoutSessionRequest is the body of POST /api/v1/checkout/sessions
type CreateCheckoutSessionRequest struct {
	PurchaseID      string `json:"purchase_id" binding:"required"`
	PricingTierName string `json:"pricing_tier_name"`
	SuccessURL      string `json:"success_url" binding:"required"`
	CancelURL       string `json:"cancel_url" binding:"required"`
}

// CreateCheckoutSessionResponse carries the redirect target
type CreateCheckoutSessionResponse struct {
	SessionID string `json:"session_id"`
	URL       string `json:"url"`
}

// ==================== Notification DTOs ====================

// SendNotificationResponse is returned by POST /api/v1/notifications/purchase
type SendNotificationResponse struct {
	Success bool `json:"success"`
}

// ==================== Wizard DTOs ====================

// StartWizardRequest is the body of POST /api/v1/wizard/sessions
type StartWizardRequest struct {
	HubVendorID          string `json:"hub" binding:"required"`
	HubVendorName        string `json:"hub_name"`
	SpokeIntegrationID   string `json:"spoke" binding:"required"`
	SpokeIntegrationName string `json:"spoke_name"`
}

// EditWizardRequest is the body of PATCH /api/v1/wizard/sessions/:id.
// Nil fields are left untouched.
type EditWizardRequest struct {
	CustomerName    *string `json:"customer_name"`
	CustomerEmail   *string `json:"customer_email"`
	CompanyName     *string `json:"company_name"`
	EntityType      *string `json:"entity_type"`
	SyncFrequency   *string `json:"sync_frequency"`
	DataVolume      *string `json:"data_volume"`
	AdditionalNotes *string `json:"additional_notes"`
	TermsAccepted   *bool   `json:"terms_accepted"`
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}
