package catalog

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"strings"

	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"gopkg.in/yaml.v3"
)

//go:embed data
var embedded embed.FS

// DefaultRelatedLimit is used when a caller asks for related integrations without a positive limit
const DefaultRelatedLimit = 3

// DefaultFS returns the catalog shipped with the binary
func DefaultFS() fs.FS {
	sub, err := fs.Sub(embedded, "data")
	if err != nil {
		panic(err)
	}
	return sub
}

// OpenFS returns the on-disk catalog at dir, or the embedded one when dir is empty
func OpenFS(dir string) fs.FS {
	if dir == "" {
		return DefaultFS()
	}
	return os.DirFS(dir)
}

// Provider serves the read-only vendor, branding and pricing configuration.
// It is built once at startup and safe for concurrent use.
type Provider struct {
	hub      models.HubVendor
	branding models.Branding
	pricing  models.PricingConfig
	index    map[string]int
}

// Load reads hub_vendors/<hubVendorID>.yaml, branding.yaml and pricing.yaml from fsys
func Load(fsys fs.FS, hubVendorID string) (*Provider, error) {
	if hubVendorID == "" {
		return nil, errors.New("hub vendor id is required")
	}

	var hub models.HubVendor
	if err := readYAML(fsys, path.Join("hub_vendors", hubVendorID+".yaml"), &hub); err != nil {
		return nil, err
	}
	var branding models.Branding
	if err := readYAML(fsys, "branding.yaml", &branding); err != nil {
		return nil, err
	}
	var pricing models.PricingConfig
	if err := readYAML(fsys, "pricing.yaml", &pricing); err != nil {
		return nil, err
	}

	return New(hub, branding, pricing)
}

// New validates already-decoded configuration and builds a provider from it
func New(hub models.HubVendor, branding models.Branding, pricing models.PricingConfig) (*Provider, error) {
	if hub.ID == "" || hub.Name == "" {
		return nil, errors.New("hub vendor must have an id and a name")
	}

	index := make(map[string]int, len(hub.SpokeIntegrations))
	for i, spoke := range hub.SpokeIntegrations {
		if spoke.ID == "" {
			return nil, fmt.Errorf("spoke integration #%d has no id", i+1)
		}
		if _, dup := index[spoke.ID]; dup {
			return nil, fmt.Errorf("duplicate spoke integration id %q", spoke.ID)
		}
		if len(spoke.Categories) == 0 {
			return nil, fmt.Errorf("spoke integration %q has no categories", spoke.ID)
		}
		index[spoke.ID] = i
	}

	seenTiers := make(map[string]bool, len(pricing.Tiers))
	for i, tier := range pricing.Tiers {
		if tier.ID == "" || tier.Name == "" {
			return nil, fmt.Errorf("pricing tier #%d must have an id and a name", i+1)
		}
		if seenTiers[tier.ID] {
			return nil, fmt.Errorf("duplicate pricing tier id %q", tier.ID)
		}
		if tier.Price.IsNegative() {
			return nil, fmt.Errorf("pricing tier %q has a negative price", tier.ID)
		}
		seenTiers[tier.ID] = true
	}
	if pricing.Currency == "" {
		pricing.Currency = models.DefaultCurrency
	}
	pricing.Currency = strings.ToUpper(pricing.Currency)

	return &Provider{
		hub:      hub,
		branding: branding,
		pricing:  pricing,
		index:    index,
	}, nil
}

// HubVendor returns the hub vendor profile including its full integration list
func (p *Provider) HubVendor() models.HubVendor {
	hub := p.hub
	hub.Categories = cloneStrings(p.hub.Categories)
	hub.DataPoints = cloneStrings(p.hub.DataPoints)
	hub.Features = cloneStrings(p.hub.Features)
	hub.SpokeIntegrations = p.SpokeIntegrations()
	return hub
}

// SpokeIntegrations returns every integration with all fields, in configuration order
func (p *Provider) SpokeIntegrations() []models.SpokeIntegration {
	out := make([]models.SpokeIntegration, 0, len(p.hub.SpokeIntegrations))
	for _, s := range p.hub.SpokeIntegrations {
		out = append(out, cloneSpoke(s))
	}
	return out
}

// SpokeIntegrationsList returns the lightweight listing of every integration
func (p *Provider) SpokeIntegrationsList() []models.IntegrationSummary {
	out := make([]models.IntegrationSummary, 0, len(p.hub.SpokeIntegrations))
	for _, s := range p.hub.SpokeIntegrations {
		out = append(out, s.Summary())
	}
	return out
}

// SpokeIntegration returns one integration by id
func (p *Provider) SpokeIntegration(id string) (models.SpokeIntegration, bool) {
	i, ok := p.index[id]
	if !ok {
		return models.SpokeIntegration{}, false
	}
	return cloneSpoke(p.hub.SpokeIntegrations[i]), true
}

// RelatedIntegrations returns up to limit integrations sharing a category with id,
// in configuration order and never including id itself. Unknown ids yield an empty list.
func (p *Provider) RelatedIntegrations(id string, limit int) []models.RelatedIntegration {
	if limit <= 0 {
		limit = DefaultRelatedLimit
	}

	related := []models.RelatedIntegration{}
	i, ok := p.index[id]
	if !ok {
		return related
	}
	current := p.hub.SpokeIntegrations[i]

	for _, s := range p.hub.SpokeIntegrations {
		if len(related) >= limit {
			break
		}
		if s.ID == id || !s.SharesCategoryWith(current) {
			continue
		}
		related = append(related, s.Related())
	}
	return related
}

// Search filters the listing by a free-text query and an exact category.
// Both are optional; configuration order is kept.
func (p *Provider) Search(query, category string) []models.IntegrationSummary {
	q := strings.ToLower(strings.TrimSpace(query))
	category = strings.TrimSpace(category)

	out := []models.IntegrationSummary{}
	for _, s := range p.hub.SpokeIntegrations {
		if category != "" && !containsFold(s.Categories, category) {
			continue
		}
		if q != "" && !matchesQuery(s, q) {
			continue
		}
		out = append(out, s.Summary())
	}
	return out
}

// Categories returns every integration category once, in first-seen order
func (p *Provider) Categories() []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, s := range p.hub.SpokeIntegrations {
		for _, c := range s.Categories {
			if !seen[c] {
				seen[c] = true
				out = append(out, c)
			}
		}
	}
	return out
}

// Branding returns the operator's branding and contact details
func (p *Provider) Branding() models.Branding {
	return p.branding
}

// Pricing returns the currency and the ordered tier list
func (p *Provider) Pricing() models.PricingConfig {
	return models.PricingConfig{
		Currency: p.pricing.Currency,
		Tiers:    p.PricingTiers(),
	}
}

// PricingTiers returns the tiers in configuration order
func (p *Provider) PricingTiers() []models.PricingTier {
	out := make([]models.PricingTier, 0, len(p.pricing.Tiers))
	for _, t := range p.pricing.Tiers {
		t.Features = cloneStrings(t.Features)
		t.Criteria.SyncFrequency = cloneStrings(t.Criteria.SyncFrequency)
		out = append(out, t)
	}
	return out
}

func readYAML(fsys fs.FS, name string, out interface{}) error {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return fmt.Errorf("read %s: %w", name, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse %s: %w", name, err)
	}
	return nil
}

func matchesQuery(s models.SpokeIntegration, q string) bool {
	if strings.Contains(strings.ToLower(s.Name), q) || strings.Contains(strings.ToLower(s.Description), q) {
		return true
	}
	for _, c := range s.Categories {
		if strings.Contains(strings.ToLower(c), q) {
			return true
		}
	}
	return false
}

func containsFold(values []string, want string) bool {
	for _, v := range values {
		if strings.EqualFold(v, want) {
			return true
		}
	}
	return false
}

func cloneSpoke(s models.SpokeIntegration) models.SpokeIntegration {
	s.Categories = cloneStrings(s.Categories)
	s.Features = cloneStrings(s.Features)
	s.DataPoints = cloneStrings(s.DataPoints)
	return s
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}
