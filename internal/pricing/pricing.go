package pricing

import (
	"strings"

	"github.com/shopspring/decimal"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

var hundred = decimal.NewFromInt(100)

// Resolve returns the first tier, in list order, whose criteria accept syncFrequency.
// An empty frequency or a frequency no tier accepts resolves to nothing.
func Resolve(tiers []models.PricingTier, syncFrequency string) (*models.PricingTier, bool) {
	if syncFrequency == "" {
		return nil, false
	}
	for i := range tiers {
		if tiers[i].Criteria.Accepts(syncFrequency) {
			tier := tiers[i]
			return &tier, true
		}
	}
	return nil, false
}

// FindByID returns the tier with the given id
func FindByID(tiers []models.PricingTier, id string) (*models.PricingTier, bool) {
	for i := range tiers {
		if tiers[i].ID == id {
			tier := tiers[i]
			return &tier, true
		}
	}
	return nil, false
}

// MinorUnits converts a major-unit price into integer minor units (cents), rounding half away from zero
func MinorUnits(price decimal.Decimal) int64 {
	return price.Mul(hundred).Round(0).IntPart()
}

// FormatPrice renders a price for humans, e.g. "$149.00/month"
func FormatPrice(price decimal.Decimal, interval string) string {
	s := "$" + price.StringFixed(2)
	if interval = strings.TrimSpace(interval); interval != "" {
		s += "/" + interval
	}
	return s
}
