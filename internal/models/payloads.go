package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Wizard step numbers
const (
	StepContactInfo     = 1
	StepBusinessDetails = 2
	StepTerms           = 3
	StepPayment         = 4
)

// StepPayload is the typed set of fields one wizard step writes to a purchase.
// The concrete shapes are ContactDetails, BusinessDetails and TermsAcceptance.
type StepPayload interface {
	Step() int
	stepPayload()
}

// ContactDetails creates the purchase record (step 1)
type ContactDetails struct {
	HubVendorID          string `json:"hub_vendor_id"`
	HubVendorName        string `json:"hub_vendor_name"`
	SpokeIntegrationID   string `json:"spoke_integration_id"`
	SpokeIntegrationName string `json:"spoke_integration_name"`
	CustomerName         string `json:"customer_name" validate:"required"`
	CustomerEmail        string `json:"customer_email" validate:"required,contact_email"`
}

// BusinessDetails is written by step 2 together with the tier price snapshot
type BusinessDetails struct {
	CompanyName     string          `json:"company_name" validate:"required"`
	EntityType      string          `json:"entity_type" validate:"required,oneof=msp enterprise smb startup"`
	SyncFrequency   string          `json:"sync_frequency" validate:"required"`
	DataVolume      string          `json:"data_volume" validate:"required,oneof=small medium large"`
	PricingTierID   string          `json:"pricing_tier" validate:"required"`
	AdditionalNotes string          `json:"additional_notes"`
	PaymentAmount   decimal.Decimal `json:"payment_amount"`
}

// TermsAcceptance is written by step 3
type TermsAcceptance struct {
	AcceptedAt time.Time `json:"terms_accepted_at" validate:"required"`
}

func (ContactDetails) Step() int  { return StepContactInfo }
func (BusinessDetails) Step() int { return StepBusinessDetails }
func (TermsAcceptance) Step() int { return StepTerms }

func (ContactDetails) stepPayload()  {}
func (BusinessDetails) stepPayload() {}
func (TermsAcceptance) stepPayload() {}

// StepNotification is everything the owner notification for one step reports
type StepNotification struct {
	PurchaseID       string           `json:"purchase_id" validate:"required"`
	Step             int              `json:"step" validate:"min=1,max=4"`
	HubVendor        string           `json:"hub_vendor"`
	SpokeIntegration string           `json:"spoke_integration"`
	Contact          ContactDetails   `json:"contact"`
	Business         *BusinessDetails `json:"business,omitempty"`
	PricingTierName  string           `json:"pricing_tier_name,omitempty"`
	Price            *decimal.Decimal `json:"price,omitempty"`
	Interval         string           `json:"interval,omitempty"`
	Terms            *TermsAcceptance `json:"terms,omitempty"`
}
