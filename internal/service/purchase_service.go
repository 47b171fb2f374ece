package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/pricing"
	"github.com/wenwu/saas-platform/marketplace-service/internal/repository"
	"github.com/wenwu/saas-platform/marketplace-service/internal/validation"
	"go.uber.org/zap"
)

// PurchaseService creates purchase records and applies wizard step payloads to them
type PurchaseService struct {
	purchases repository.PurchaseRepository
	events    repository.PurchaseEventRepository
	catalog   *catalog.Provider
	currency  string
	validate  *validator.Validate
	now       func() time.Time
	logger    *zap.Logger
}

// NewPurchaseService creates a new purchase service
func NewPurchaseService(
	purchases repository.PurchaseRepository,
	events repository.PurchaseEventRepository,
	provider *catalog.Provider,
	currency string,
	logger *zap.Logger,
) *PurchaseService {
	if currency == "" {
		currency = models.DefaultCurrency
	}
	return &PurchaseService{
		purchases: purchases,
		events:    events,
		catalog:   provider,
		currency:  currency,
		validate:  validation.New(),
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("purchase"),
	}
}

// Create validates contact details and writes a new pending purchase
func (s *PurchaseService) Create(ctx context.Context, d models.ContactDetails) (string, error) {
	if err := s.validate.Struct(d); err != nil {
		return "", invalid(validation.Message(err))
	}
	if d.HubVendorID == "" || d.SpokeIntegrationID == "" {
		return "", invalid("an integration must be selected")
	}

	now := s.now()
	p := &models.Purchase{
		ID:                    uuid.New().String(),
		Timestamp:             now,
		HubVendorID:           d.HubVendorID,
		HubVendorName:         d.HubVendorName,
		SpokeIntegrationID:    d.SpokeIntegrationID,
		SpokeIntegrationName:  d.SpokeIntegrationName,
		CustomerName:          d.CustomerName,
		CustomerEmail:         d.CustomerEmail,
		TermsAccepted:         models.TermsAcceptedFalse,
		PaymentStatus:         models.PaymentStatusPending,
		PaymentCurrency:       s.currency,
		TemplateID:            s.catalog.HubVendor().ID,
		NotificationEmailSent: "false",
	}
	if err := s.purchases.Create(ctx, p); err != nil {
		return "", fmt.Errorf("create purchase: %w", err)
	}

	s.logEvent(ctx, p.ID, models.EventActionCreated, "purchase created", map[string]interface{}{
		"hub_vendor":        d.HubVendorID,
		"spoke_integration": d.SpokeIntegrationID,
	})
	s.logger.Info("purchase created",
		zap.String("purchase_id", p.ID),
		zap.String("spoke_integration", d.SpokeIntegrationID),
	)
	return p.ID, nil
}

// Update applies one step payload to an existing purchase. Only the columns of
// that step are written.
func (s *PurchaseService) Update(ctx context.Context, id string, payload models.StepPayload) error {
	var err error
	switch p := payload.(type) {
	case models.BusinessDetails:
		err = s.applyBusinessDetails(ctx, id, p)
	case models.TermsAcceptance:
		err = s.applyTermsAcceptance(ctx, id, p)
	case models.ContactDetails:
		return invalid("contact details start a new purchase and cannot be applied to an existing one")
	default:
		return fmt.Errorf("unsupported step payload %T", payload)
	}

	if errors.Is(err, repository.ErrNotFound) {
		return ErrPurchaseNotFound
	}
	return err
}

func (s *PurchaseService) applyBusinessDetails(ctx context.Context, id string, d models.BusinessDetails) error {
	if err := s.validate.Struct(d); err != nil {
		return invalid(validation.Message(err))
	}
	tier, ok := pricing.Resolve(s.catalog.PricingTiers(), d.SyncFrequency)
	if !ok {
		return invalid(fmt.Sprintf("no pricing tier offers %q sync", d.SyncFrequency))
	}
	if d.PricingTierID != tier.ID {
		return invalid(fmt.Sprintf("sync frequency %q belongs to pricing tier %q, not %q", d.SyncFrequency, tier.ID, d.PricingTierID))
	}
	if !d.PaymentAmount.IsZero() && !d.PaymentAmount.Equal(tier.Price) {
		return invalid(fmt.Sprintf("payment amount must be the %s tier price of %s", tier.Name, tier.Price.StringFixed(2)))
	}
	d.PaymentAmount = tier.Price

	if err := s.purchases.ApplyBusinessDetails(ctx, id, d); err != nil {
		return err
	}
	s.logEvent(ctx, id, models.EventActionBusinessDetails, "business details saved", map[string]interface{}{
		"pricing_tier":   d.PricingTierID,
		"payment_amount": d.PaymentAmount.StringFixed(2),
	})
	return nil
}

func (s *PurchaseService) applyTermsAcceptance(ctx context.Context, id string, t models.TermsAcceptance) error {
	if err := s.validate.Struct(t); err != nil {
		return invalid(validation.Message(err))
	}
	if err := s.purchases.ApplyTermsAcceptance(ctx, id, t); err != nil {
		return err
	}
	s.logEvent(ctx, id, models.EventActionTermsAccepted, "terms accepted", nil)
	return nil
}

// Get returns one purchase
func (s *PurchaseService) Get(ctx context.Context, id string) (*models.Purchase, error) {
	p, err := s.purchases.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrPurchaseNotFound
	}
	return p, err
}

// List returns purchases matching filter, newest first
func (s *PurchaseService) List(ctx context.Context, filter models.PurchaseFilter) ([]*models.Purchase, error) {
	return s.purchases.List(ctx, filter)
}

// Events returns the audit trail of one purchase
func (s *PurchaseService) Events(ctx context.Context, id string, limit int) ([]*models.PurchaseEvent, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	return s.events.ListByPurchase(ctx, id, limit)
}

func (s *PurchaseService) logEvent(ctx context.Context, purchaseID, action, message string, meta map[string]interface{}) {
	err := s.events.LogActionWithMetadata(ctx, purchaseID, action, models.EventStatusSuccess, message, meta)
	if err != nil {
		s.logger.Warn("failed to record purchase event",
			zap.String("purchase_id", purchaseID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
