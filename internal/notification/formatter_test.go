package notification

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

func fixedFormatter() *Formatter {
	f := NewFormatter("owner@example.com")
	f.now = func() time.Time { return time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC) }
	return f
}

func contact() models.ContactDetails {
	return models.ContactDetails{CustomerName: "Jane Doe", CustomerEmail: "jane@example.com"}
}

func TestFormatTitles(t *testing.T) {
	f := fixedFormatter()
	tests := []struct {
		step int
		want string
	}{
		{1, "Purchase Step 1 Completed: Integration Details"},
		{2, "Purchase Step 2 Completed: Business Details"},
		{3, "Purchase Step 3 Completed: Terms & Conditions"},
		{4, "Purchase Step 4 Completed: Payment"},
		{7, "Purchase Step 7 Completed: Unknown"},
	}
	for _, tt := range tests {
		msg := f.Format(models.StepNotification{PurchaseID: "p1", Step: tt.step})
		assert.Equal(t, tt.want, msg.Title)
		assert.Equal(t, "owner@example.com", msg.Recipient)
	}
}

func TestFormatStepOne(t *testing.T) {
	msg := fixedFormatter().Format(models.StepNotification{
		PurchaseID:       "p1",
		Step:             1,
		HubVendor:        "Zendesk",
		SpokeIntegration: "Jira",
		Contact:          contact(),
	})

	assert.Contains(t, msg.Body, "**Purchase ID:** p1")
	assert.Contains(t, msg.Body, "**Timestamp:** 2026-05-04T10:00:00Z")
	assert.Contains(t, msg.Body, "**Integration Selection:**")
	assert.Contains(t, msg.Body, "- Hub Vendor: Zendesk")
	assert.Contains(t, msg.Body, "- Email: jane@example.com")
	assert.Contains(t, msg.Body, "Customer will provide business details in the next step")
	assert.NotContains(t, msg.Body, "**Pricing:**")
}

func TestFormatStepTwoWithFallbacks(t *testing.T) {
	price := decimal.RequireFromString("149")
	msg := fixedFormatter().Format(models.StepNotification{
		PurchaseID: "p1",
		Step:       2,
		Contact:    contact(),
		Business: &models.BusinessDetails{
			CompanyName:   "Acme",
			EntityType:    "smb",
			SyncFrequency: "hourly",
		},
		PricingTierName: "Standard",
		Price:           &price,
		Interval:        "month",
	})

	assert.Contains(t, msg.Body, "- Company Name: Acme")
	assert.Contains(t, msg.Body, "- Data Volume: N/A")
	assert.Contains(t, msg.Body, "- Spoke Integration: N/A")
	assert.Contains(t, msg.Body, "- Price: $149.00/month")
	assert.Contains(t, msg.Body, "**Additional Notes:**\nNone")
	assert.Contains(t, msg.Body, "review and accept terms & conditions")
}

func TestFormatStepThree(t *testing.T) {
	msg := fixedFormatter().Format(models.StepNotification{
		PurchaseID: "p1",
		Step:       3,
		Contact:    contact(),
		Business:   &models.BusinessDetails{CompanyName: "Acme", AdditionalNotes: "call first"},
		Terms:      &models.TermsAcceptance{AcceptedAt: time.Date(2026, 5, 4, 9, 59, 0, 0, time.UTC)},
	})

	assert.Contains(t, msg.Body, "- Company: Acme")
	assert.Contains(t, msg.Body, "- Accepted: Yes")
	assert.Contains(t, msg.Body, "- Accepted At: 2026-05-04T09:59:00Z")
	assert.Contains(t, msg.Body, "- Price: N/A")
	assert.Contains(t, msg.Body, "call first")
	assert.Contains(t, msg.Body, "Customer will proceed to payment")
}

func TestFormatStepFour(t *testing.T) {
	msg := fixedFormatter().Format(models.StepNotification{PurchaseID: "p1", Step: 4, Contact: contact()})
	assert.Contains(t, msg.Body, "- Accepted: No")
	assert.Contains(t, msg.Body, "Purchase process complete")
}
