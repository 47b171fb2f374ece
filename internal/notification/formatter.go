package notification

import (
	"fmt"
	"strings"
	"time"

	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/pricing"
)

const notAvailable = "N/A"

var stepNames = map[int]string{
	models.StepContactInfo:     "Integration Details",
	models.StepBusinessDetails: "Business Details",
	models.StepTerms:           "Terms & Conditions",
	models.StepPayment:         "Payment",
}

// StepName returns the display name of a wizard step
func StepName(step int) string {
	if name, ok := stepNames[step]; ok {
		return name
	}
	return "Unknown"
}

// Formatter renders step notifications as a title plus markdown body
type Formatter struct {
	recipient string
	now       func() time.Time
}

func NewFormatter(recipient string) *Formatter {
	return &Formatter{
		recipient: recipient,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// Format builds the owner-facing message for one completed step
func (f *Formatter) Format(n models.StepNotification) *models.NotificationMessage {
	now := f.now()
	return &models.NotificationMessage{
		PurchaseID: n.PurchaseID,
		Step:       n.Step,
		Recipient:  f.recipient,
		Title:      fmt.Sprintf("Purchase Step %d Completed: %s", n.Step, StepName(n.Step)),
		Body:       f.body(n, now),
		SentAt:     now,
	}
}

func (f *Formatter) body(n models.StepNotification, now time.Time) string {
	var b strings.Builder

	b.WriteString("**Purchase Progress Update**\n\n---\n\n")
	fmt.Fprintf(&b, "**Purchase ID:** %s\n", n.PurchaseID)
	fmt.Fprintf(&b, "**Step:** %d - %s\n", n.Step, StepName(n.Step))
	fmt.Fprintf(&b, "**Timestamp:** %s\n", now.Format(time.RFC3339))
	fmt.Fprintf(&b, "**Notification Email:** %s\n", orNA(f.recipient))
	b.WriteString("\n---\n")

	switch n.Step {
	case models.StepContactInfo:
		writeIntegration(&b, "Integration Selection", n)
		writeCustomer(&b, n, false)
	case models.StepBusinessDetails:
		writeIntegration(&b, "Integration", n)
		writeCustomer(&b, n, false)
		writeBusiness(&b, n, true)
		writePricing(&b, n)
		writeNotes(&b, n)
	case models.StepTerms, models.StepPayment:
		writeIntegration(&b, "Integration", n)
		writeCustomer(&b, n, true)
		writeBusiness(&b, n, false)
		writePricing(&b, n)
		writeTerms(&b, n)
		writeNotes(&b, n)
	}

	b.WriteString("\n---\n\n**Next Steps:**\n")
	b.WriteString(nextSteps(n.Step))
	return b.String()
}

func writeIntegration(b *strings.Builder, heading string, n models.StepNotification) {
	fmt.Fprintf(b, "\n**%s:**\n", heading)
	fmt.Fprintf(b, "- Hub Vendor: %s\n", orNA(n.HubVendor))
	fmt.Fprintf(b, "- Spoke Integration: %s\n", orNA(n.SpokeIntegration))
}

func writeCustomer(b *strings.Builder, n models.StepNotification, withCompany bool) {
	b.WriteString("\n**Customer Information:**\n")
	fmt.Fprintf(b, "- Name: %s\n", orNA(n.Contact.CustomerName))
	fmt.Fprintf(b, "- Email: %s\n", orNA(n.Contact.CustomerEmail))
	if withCompany {
		fmt.Fprintf(b, "- Company: %s\n", orNA(business(n).CompanyName))
	}
}

func writeBusiness(b *strings.Builder, n models.StepNotification, withCompany bool) {
	d := business(n)
	b.WriteString("\n**Business Details:**\n")
	if withCompany {
		fmt.Fprintf(b, "- Company Name: %s\n", orNA(d.CompanyName))
	}
	fmt.Fprintf(b, "- Entity Type: %s\n", orNA(d.EntityType))
	fmt.Fprintf(b, "- Sync Frequency: %s\n", orNA(d.SyncFrequency))
	fmt.Fprintf(b, "- Data Volume: %s\n", orNA(d.DataVolume))
}

func writePricing(b *strings.Builder, n models.StepNotification) {
	price := notAvailable
	if n.Price != nil {
		price = pricing.FormatPrice(*n.Price, n.Interval)
	}
	b.WriteString("\n**Pricing:**\n")
	fmt.Fprintf(b, "- Selected Tier: %s\n", orNA(n.PricingTierName))
	fmt.Fprintf(b, "- Price: %s\n", price)
}

func writeTerms(b *strings.Builder, n models.StepNotification) {
	accepted, at := "No", notAvailable
	if n.Terms != nil && !n.Terms.AcceptedAt.IsZero() {
		accepted = "Yes"
		at = n.Terms.AcceptedAt.UTC().Format(time.RFC3339)
	}
	b.WriteString("\n**Terms & Conditions:**\n")
	fmt.Fprintf(b, "- Accepted: %s\n", accepted)
	fmt.Fprintf(b, "- Accepted At: %s\n", at)
}

func writeNotes(b *strings.Builder, n models.StepNotification) {
	notes := business(n).AdditionalNotes
	if notes == "" {
		notes = "None"
	}
	b.WriteString("\n**Additional Notes:**\n")
	b.WriteString(notes + "\n")
}

func nextSteps(step int) string {
	switch step {
	case models.StepContactInfo:
		return "- Customer will provide business details in the next step"
	case models.StepBusinessDetails:
		return "- Customer will review and accept terms & conditions"
	case models.StepTerms:
		return "- Customer will proceed to payment"
	default:
		return "- Purchase process complete"
	}
}

func business(n models.StepNotification) models.BusinessDetails {
	if n.Business == nil {
		return models.BusinessDetails{}
	}
	return *n.Business
}

func orNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return notAvailable
	}
	return s
}
