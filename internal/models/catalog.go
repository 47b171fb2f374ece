package models

import "github.com/shopspring/decimal"

// HubVendor is the central platform every spoke integration connects to
type HubVendor struct {
	ID                string             `json:"id" yaml:"id"`
	Name              string             `json:"name" yaml:"name"`
	Logo              string             `json:"logo" yaml:"logo"`
	Description       string             `json:"description" yaml:"description"`
	Website           string             `json:"website,omitempty" yaml:"website"`
	Categories        []string           `json:"categories" yaml:"categories"`
	DataPoints        []string           `json:"dataPoints" yaml:"dataPoints"`
	Features          []string           `json:"features" yaml:"features"`
	SpokeIntegrations []SpokeIntegration `json:"spokeIntegrations" yaml:"spokeIntegrations"`
}

// SpokeIntegration is a third-party tool that can be connected to the hub
type SpokeIntegration struct {
	ID          string   `json:"id" yaml:"id"`
	Name        string   `json:"name" yaml:"name"`
	Logo        string   `json:"logo" yaml:"logo"`
	Description string   `json:"description" yaml:"description"`
	Website     string   `json:"website,omitempty" yaml:"website"`
	Categories  []string `json:"categories" yaml:"categories"`
	Features    []string `json:"features,omitempty" yaml:"features"`
	DataPoints  []string `json:"dataPoints,omitempty" yaml:"dataPoints"`
	Available   bool     `json:"available" yaml:"available"`
}

// IntegrationSummary is the lightweight listing shape used by the catalog page
type IntegrationSummary struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Logo        string   `json:"logo"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
	Available   bool     `json:"available"`
}

// RelatedIntegration is returned by the related-integrations lookup
type RelatedIntegration struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Logo        string   `json:"logo"`
	Description string   `json:"description"`
	Categories  []string `json:"categories"`
}

// Summary returns the lightweight listing view of the integration
func (s SpokeIntegration) Summary() IntegrationSummary {
	return IntegrationSummary{
		ID:          s.ID,
		Name:        s.Name,
		Logo:        s.Logo,
		Description: s.Description,
		Categories:  append([]string(nil), s.Categories...),
		Available:   s.Available,
	}
}

// Related returns the related-integration view of the integration
func (s SpokeIntegration) Related() RelatedIntegration {
	return RelatedIntegration{
		ID:          s.ID,
		Name:        s.Name,
		Logo:        s.Logo,
		Description: s.Description,
		Categories:  append([]string(nil), s.Categories...),
	}
}

// SharesCategoryWith reports whether both integrations have at least one category in common
func (s SpokeIntegration) SharesCategoryWith(other SpokeIntegration) bool {
	for _, a := range s.Categories {
		for _, b := range other.Categories {
			if a == b {
				return true
			}
		}
	}
	return false
}

// Branding holds the marketplace operator's contact and brand details
type Branding struct {
	CompanyName    string      `json:"companyName" yaml:"companyName"`
	Logo           string      `json:"logo" yaml:"logo"`
	Tagline        string      `json:"tagline,omitempty" yaml:"tagline"`
	ContactEmail   string      `json:"contactEmail" yaml:"contactEmail"`
	ContactPhoneUK string      `json:"contactPhoneUK" yaml:"contactPhoneUK"`
	ContactPhoneUS string      `json:"contactPhoneUS" yaml:"contactPhoneUS"`
	Website        string      `json:"website,omitempty" yaml:"website"`
	Social         SocialLinks `json:"social" yaml:"social"`
}

type SocialLinks struct {
	Twitter  string `json:"twitter,omitempty" yaml:"twitter"`
	LinkedIn string `json:"linkedin,omitempty" yaml:"linkedin"`
}

// Sync frequency codes offered by the business details form
const (
	SyncFrequencyHourly = "hourly"
	SyncFrequency15Min  = "15min"
	SyncFrequency10Min  = "10min"
	SyncFrequency5Min   = "5min"
)

// TierCriteria lists the attribute values a tier accepts
type TierCriteria struct {
	SyncFrequency []string `json:"syncFrequency" yaml:"syncFrequency"`
}

// Accepts reports whether the tier accepts the given sync frequency
func (c TierCriteria) Accepts(syncFrequency string) bool {
	for _, f := range c.SyncFrequency {
		if f == syncFrequency {
			return true
		}
	}
	return false
}

// PricingTier is a named plan with a price, billing interval and eligibility criteria
type PricingTier struct {
	ID          string          `json:"id" yaml:"id"`
	Name        string          `json:"name" yaml:"name"`
	Description string          `json:"description" yaml:"description"`
	Price       decimal.Decimal `json:"price" yaml:"price"`
	Interval    string          `json:"interval" yaml:"interval"`
	Features    []string        `json:"features" yaml:"features"`
	Criteria    TierCriteria    `json:"criteria" yaml:"criteria"`
}

// PricingConfig is the ordered tier list plus the currency prices are quoted in
type PricingConfig struct {
	Currency string        `json:"currency" yaml:"currency"`
	Tiers    []PricingTier `json:"tiers" yaml:"tiers"`
}
