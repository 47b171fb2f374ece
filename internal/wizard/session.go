package wizard

import (
	"time"

	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

// Session is one customer's in-progress wizard. It lives in a SessionStore and
// is lost when the store forgets it; the purchase record keeps whatever phase it reached.
type Session struct {
	ID   string `json:"id"`
	Step int    `json:"step"`

	HubVendorID          string `json:"hub_vendor_id"`
	HubVendorName        string `json:"hub_vendor_name"`
	SpokeIntegrationID   string `json:"spoke_integration_id"`
	SpokeIntegrationName string `json:"spoke_integration_name"`

	PurchaseID string `json:"purchase_id,omitempty"`

	CustomerName  string `json:"customer_name"`
	CustomerEmail string `json:"customer_email"`

	CompanyName     string              `json:"company_name"`
	EntityType      string              `json:"entity_type"`
	SyncFrequency   string              `json:"sync_frequency"`
	DataVolume      string              `json:"data_volume"`
	AdditionalNotes string              `json:"additional_notes"`
	Tier            *models.PricingTier `json:"tier,omitempty"`

	TermsAccepted   bool       `json:"terms_accepted"`
	TermsAcceptedAt *time.Time `json:"terms_accepted_at,omitempty"`

	CheckoutSessionID string `json:"checkout_session_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (s *Session) contact() models.ContactDetails {
	return models.ContactDetails{
		HubVendorID:          s.HubVendorID,
		HubVendorName:        s.HubVendorName,
		SpokeIntegrationID:   s.SpokeIntegrationID,
		SpokeIntegrationName: s.SpokeIntegrationName,
		CustomerName:         s.CustomerName,
		CustomerEmail:        s.CustomerEmail,
	}
}

func (s *Session) business() models.BusinessDetails {
	d := models.BusinessDetails{
		CompanyName:     s.CompanyName,
		EntityType:      s.EntityType,
		SyncFrequency:   s.SyncFrequency,
		DataVolume:      s.DataVolume,
		AdditionalNotes: s.AdditionalNotes,
	}
	if s.Tier != nil {
		d.PricingTierID = s.Tier.ID
		d.PaymentAmount = s.Tier.Price
	}
	return d
}

// notification builds the owner notification for step from what the session has collected
func (s *Session) notification(step int) models.StepNotification {
	n := models.StepNotification{
		PurchaseID:       s.PurchaseID,
		Step:             step,
		HubVendor:        s.HubVendorName,
		SpokeIntegration: s.SpokeIntegrationName,
		Contact:          s.contact(),
	}
	if step >= models.StepBusinessDetails {
		b := s.business()
		n.Business = &b
		if s.Tier != nil {
			price := s.Tier.Price
			n.PricingTierName = s.Tier.Name
			n.Price = &price
			n.Interval = s.Tier.Interval
		}
	}
	if step >= models.StepTerms && s.TermsAccepted && s.TermsAcceptedAt != nil {
		n.Terms = &models.TermsAcceptance{AcceptedAt: *s.TermsAcceptedAt}
	}
	return n
}
