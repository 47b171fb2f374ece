package wizard

import (
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/notification"
	"github.com/wenwu/saas-platform/marketplace-service/internal/pricing"
)

// View is the client-facing state of a session
type View struct {
	*Session
	StepName        string `json:"step_name"`
	Price           string `json:"price,omitempty"`
	CheckoutEnabled bool   `json:"checkout_enabled"`
	CheckoutMessage string `json:"checkout_message,omitempty"`
	PublishableKey  string `json:"publishable_key,omitempty"`
	ContactNotice   string `json:"contact_notice,omitempty"`
}

// View renders sess for the client
func (s *Service) View(sess *Session) *View {
	v := &View{
		Session:         sess,
		StepName:        notification.StepName(sess.Step),
		CheckoutEnabled: s.CheckoutEnabled(),
	}
	if sess.Tier != nil {
		v.Price = pricing.FormatPrice(sess.Tier.Price, sess.Tier.Interval)
	}
	if v.CheckoutEnabled {
		v.PublishableKey = s.opts.PublishableKey
	} else {
		v.CheckoutMessage = msgCheckoutDisabled
	}
	if sess.Step == models.StepPayment && sess.CustomerEmail != "" {
		v.ContactNotice = "Your information has been saved. Our team will contact you at " + sess.CustomerEmail + " to complete the setup."
	}
	return v
}
