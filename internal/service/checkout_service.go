package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/pricing"
	"github.com/wenwu/saas-platform/marketplace-service/internal/repository"
	"go.uber.org/zap"
)

// CheckoutGateway is the external payment processor
type CheckoutGateway interface {
	CreateCheckoutSession(ctx context.Context, p models.CheckoutSessionParams) (*models.CheckoutSession, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error)
	ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error)
}

// CheckoutRequest asks for a payment session for one purchase
type CheckoutRequest struct {
	PurchaseID      string
	PricingTierName string
	SuccessURL      string
	CancelURL       string
}

// CheckoutService hands purchases off to the payment processor and is the only
// writer of the payment columns.
type CheckoutService struct {
	gateway   CheckoutGateway
	purchases repository.PurchaseRepository
	events    repository.PurchaseEventRepository
	catalog   *catalog.Provider
	now       func() time.Time
	logger    *zap.Logger
}

// NewCheckoutService creates a checkout service. A nil gateway disables checkout.
func NewCheckoutService(
	gateway CheckoutGateway,
	purchases repository.PurchaseRepository,
	events repository.PurchaseEventRepository,
	provider *catalog.Provider,
	logger *zap.Logger,
) *CheckoutService {
	return &CheckoutService{
		gateway:   gateway,
		purchases: purchases,
		events:    events,
		catalog:   provider,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("checkout"),
	}
}

// Enabled reports whether a payment gateway is configured
func (s *CheckoutService) Enabled() bool {
	return s.gateway != nil
}

// CreateSession opens a checkout session charging the purchase's price snapshot
func (s *CheckoutService) CreateSession(ctx context.Context, req CheckoutRequest) (*models.CheckoutSession, error) {
	if !s.Enabled() {
		return nil, ErrCheckoutUnavailable
	}

	p, err := s.purchases.GetByID(ctx, req.PurchaseID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrPurchaseNotFound
		}
		return nil, fmt.Errorf("load purchase: %w", err)
	}

	if p.PaymentStatus == models.PaymentStatusCompleted {
		return nil, invalid("purchase is already paid")
	}

	amount := pricing.MinorUnits(p.Amount())
	if amount <= 0 {
		return nil, invalid("purchase has no price yet; complete the business details first")
	}

	// the stored tier names what the stored amount pays for
	interval := "month"
	tierName := req.PricingTierName
	if p.PricingTier != nil {
		if tier, ok := pricing.FindByID(s.catalog.PricingTiers(), *p.PricingTier); ok {
			if tier.Interval != "" {
				interval = tier.Interval
			}
			tierName = tier.Name
		}
	}

	session, err := s.gateway.CreateCheckoutSession(ctx, models.CheckoutSessionParams{
		PurchaseID:      p.ID,
		PricingTierName: tierName,
		CustomerName:    p.CustomerName,
		CustomerEmail:   p.CustomerEmail,
		AmountMinor:     amount,
		Currency:        p.Currency(),
		Interval:        interval,
		SuccessURL:      req.SuccessURL,
		CancelURL:       req.CancelURL,
	})
	if err != nil {
		s.logEvent(ctx, p.ID, models.EventActionCheckoutSession, models.EventStatusFailed, err.Error(), nil)
		return nil, err
	}

	if err := s.purchases.SetCheckoutSession(ctx, p.ID, session.ID); err != nil {
		return nil, fmt.Errorf("record checkout session: %w", err)
	}
	s.logEvent(ctx, p.ID, models.EventActionCheckoutSession, models.EventStatusSuccess, "checkout session created",
		map[string]interface{}{"session_id": session.ID, "amount": amount, "currency": p.Currency()})
	s.logger.Info("checkout session created",
		zap.String("purchase_id", p.ID),
		zap.String("session_id", session.ID),
		zap.Int64("amount", amount),
	)
	return session, nil
}

// GetSession returns the processor's view of a session
func (s *CheckoutService) GetSession(ctx context.Context, sessionID string) (*models.CheckoutSession, error) {
	if !s.Enabled() {
		return nil, ErrCheckoutUnavailable
	}
	return s.gateway.GetCheckoutSession(ctx, sessionID)
}

// HandleWebhook verifies a processor event and moves the purchase's payment status.
// Events for unknown purchases and unrelated event types are acknowledged and ignored.
func (s *CheckoutService) HandleWebhook(ctx context.Context, payload []byte, signature string) (*models.PaymentEvent, error) {
	if !s.Enabled() {
		return nil, ErrCheckoutUnavailable
	}

	ev, err := s.gateway.ParseWebhook(payload, signature)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidWebhook, err)
	}
	log := s.logger.With(zap.String("event_id", ev.ID), zap.String("event_type", ev.Type))

	var update models.PaymentUpdate
	switch ev.Type {
	case models.PaymentEventCheckoutCompleted, models.PaymentEventAsyncPaymentSucceeded:
		if !ev.Paid {
			log.Info("checkout completed with payment still processing")
			return ev, nil
		}
		paidAt := ev.OccurredAt
		if paidAt.IsZero() {
			paidAt = s.now()
		}
		update = models.PaymentUpdate{Status: models.PaymentStatusCompleted, PaidAt: &paidAt}
	case models.PaymentEventCheckoutExpired, models.PaymentEventAsyncPaymentFailed:
		update = models.PaymentUpdate{Status: models.PaymentStatusFailed}
	default:
		log.Debug("ignoring payment event")
		return ev, nil
	}

	purchaseID, err := s.resolvePurchase(ctx, ev)
	if err != nil {
		if errors.Is(err, ErrPurchaseNotFound) {
			log.Warn("payment event for unknown purchase", zap.String("session_id", ev.SessionID))
			return ev, nil
		}
		return nil, err
	}

	if err := s.purchases.ApplyPaymentStatus(ctx, purchaseID, update); err != nil {
		return nil, fmt.Errorf("apply payment status: %w", err)
	}
	s.logEvent(ctx, purchaseID, models.EventActionPaymentStatus, models.EventStatusSuccess, "payment "+update.Status,
		map[string]interface{}{"event_id": ev.ID, "event_type": ev.Type, "session_id": ev.SessionID})
	log.Info("payment status updated", zap.String("purchase_id", purchaseID), zap.String("status", update.Status))
	return ev, nil
}

func (s *CheckoutService) resolvePurchase(ctx context.Context, ev *models.PaymentEvent) (string, error) {
	var (
		p   *models.Purchase
		err error
	)
	if ev.PurchaseID != "" {
		p, err = s.purchases.GetByID(ctx, ev.PurchaseID)
	} else {
		p, err = s.purchases.GetByCheckoutSession(ctx, ev.SessionID)
	}
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrPurchaseNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load purchase: %w", err)
	}
	return p.ID, nil
}

func (s *CheckoutService) logEvent(ctx context.Context, purchaseID, action, status, message string, meta map[string]interface{}) {
	if err := s.events.LogActionWithMetadata(ctx, purchaseID, action, status, message, meta); err != nil {
		s.logger.Warn("failed to record checkout event", zap.String("purchase_id", purchaseID), zap.Error(err))
	}
}
