package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stripe/stripe-go/v81"
	stripeclient "github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

// ErrWebhookSecretMissing is returned when webhook verification is attempted without a signing secret
var ErrWebhookSecretMissing = errors.New("stripe webhook secret is not configured")

// StripeClient opens and inspects Stripe Checkout sessions
type StripeClient struct {
	api           *stripeclient.API
	webhookSecret string
}

// StripeOption customizes a StripeClient
type StripeOption func(*stripeOptions)

type stripeOptions struct {
	backends *stripe.Backends
}

// WithBackends routes API calls through the given backends instead of api.stripe.com
func WithBackends(backends *stripe.Backends) StripeOption {
	return func(o *stripeOptions) {
		o.backends = backends
	}
}

// NewStripeClient creates a Stripe client. An empty secret key is a construction error.
func NewStripeClient(secretKey, webhookSecret string, opts ...StripeOption) (*StripeClient, error) {
	if secretKey == "" {
		return nil, errors.New("stripe secret key is required")
	}

	var o stripeOptions
	for _, opt := range opts {
		opt(&o)
	}

	api := &stripeclient.API{}
	api.Init(secretKey, o.backends)

	return &StripeClient{
		api:           api,
		webhookSecret: webhookSecret,
	}, nil
}

// CreateCheckoutSession opens a subscription-mode session with one recurring line item
func (c *StripeClient) CreateCheckoutSession(ctx context.Context, p models.CheckoutSessionParams) (*models.CheckoutSession, error) {
	interval := p.Interval
	if interval == "" {
		interval = string(stripe.PriceRecurringIntervalMonth)
	}

	params := &stripe.CheckoutSessionParams{
		Mode:              stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		CustomerEmail:     stripe.String(p.CustomerEmail),
		ClientReferenceID: stripe.String(p.PurchaseID),
		SuccessURL:        stripe.String(p.SuccessURL),
		CancelURL:         stripe.String(p.CancelURL),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
					Currency: stripe.String(strings.ToLower(p.Currency)),
					ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
						Name:        stripe.String(p.PricingTierName + " Integration Plan"),
						Description: stripe.String("Monthly subscription for " + p.PricingTierName + " integration plan"),
					},
					UnitAmount: stripe.Int64(p.AmountMinor),
					Recurring: &stripe.CheckoutSessionLineItemPriceDataRecurringParams{
						Interval: stripe.String(interval),
					},
				},
				Quantity: stripe.Int64(1),
			},
		},
		Metadata: map[string]string{
			"purchaseId":   p.PurchaseID,
			"customerName": p.CustomerName,
		},
	}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.New(params)
	if err != nil {
		return nil, fmt.Errorf("create checkout session: %w", err)
	}
	return toCheckoutSession(s), nil
}

// GetCheckoutSession returns the current state of a session
func (c *StripeClient) GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	s, err := c.api.CheckoutSessions.Get(sessionID, params)
	if err != nil {
		return nil, fmt.Errorf("get checkout session: %w", err)
	}
	return toCheckoutSession(s), nil
}

// ParseWebhook verifies the Stripe-Signature header and reduces the event to a PaymentEvent
func (c *StripeClient) ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error) {
	if c.webhookSecret == "" {
		return nil, ErrWebhookSecretMissing
	}

	event, err := webhook.ConstructEventWithOptions(payload, signature, c.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("verify webhook: %w", err)
	}

	out := &models.PaymentEvent{
		ID:         event.ID,
		Type:       string(event.Type),
		OccurredAt: time.Unix(event.Created, 0).UTC(),
	}
	if !strings.HasPrefix(out.Type, "checkout.session.") || event.Data == nil {
		return out, nil
	}

	var s stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &s); err != nil {
		return nil, fmt.Errorf("decode checkout session: %w", err)
	}
	out.SessionID = s.ID
	out.PurchaseID = purchaseIDOf(&s)
	out.Paid = s.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid ||
		s.PaymentStatus == stripe.CheckoutSessionPaymentStatusNoPaymentRequired
	return out, nil
}

func toCheckoutSession(s *stripe.CheckoutSession) *models.CheckoutSession {
	out := &models.CheckoutSession{
		ID:            s.ID,
		URL:           s.URL,
		Status:        string(s.Status),
		PaymentStatus: string(s.PaymentStatus),
		CustomerEmail: s.CustomerEmail,
		AmountTotal:   s.AmountTotal,
		Currency:      string(s.Currency),
		PurchaseID:    purchaseIDOf(s),
	}
	if out.CustomerEmail == "" && s.CustomerDetails != nil {
		out.CustomerEmail = s.CustomerDetails.Email
	}
	return out
}

func purchaseIDOf(s *stripe.CheckoutSession) string {
	if s.ClientReferenceID != "" {
		return s.ClientReferenceID
	}
	return s.Metadata["purchaseId"]
}
