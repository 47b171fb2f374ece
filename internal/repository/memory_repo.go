package repository

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

// MemoryPurchaseRepository keeps purchases in process memory. Used for
// STORAGE_DRIVER=memory and in tests.
type MemoryPurchaseRepository struct {
	mu        sync.RWMutex
	purchases map[string]*models.Purchase
	order     []string
	now       func() time.Time
}

func NewMemoryPurchaseRepository() *MemoryPurchaseRepository {
	return &MemoryPurchaseRepository{
		purchases: make(map[string]*models.Purchase),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryPurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now()
	p.CreatedAt = now
	p.UpdatedAt = now

	stored := *p
	r.purchases[p.ID] = &stored
	r.order = append(r.order, p.ID)
	return nil
}

func (r *MemoryPurchaseRepository) ApplyBusinessDetails(ctx context.Context, id string, d models.BusinessDetails) error {
	return r.update(id, func(p *models.Purchase) {
		amount := d.PaymentAmount.StringFixed(2)
		p.CompanyName = strPtr(d.CompanyName)
		p.EntityType = strPtr(d.EntityType)
		p.SyncFrequency = strPtr(d.SyncFrequency)
		p.DataVolume = strPtr(d.DataVolume)
		p.PricingTier = strPtr(d.PricingTierID)
		p.AdditionalNotes = strPtr(d.AdditionalNotes)
		p.PaymentAmount = &amount
	})
}

func (r *MemoryPurchaseRepository) ApplyTermsAcceptance(ctx context.Context, id string, t models.TermsAcceptance) error {
	return r.update(id, func(p *models.Purchase) {
		at := t.AcceptedAt
		p.TermsAccepted = models.TermsAcceptedTrue
		p.TermsAcceptedAt = &at
	})
}

func (r *MemoryPurchaseRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	return r.update(id, func(p *models.Purchase) {
		p.StripeSessionID = strPtr(sessionID)
	})
}

func (r *MemoryPurchaseRepository) ApplyPaymentStatus(ctx context.Context, id string, u models.PaymentUpdate) error {
	return r.update(id, func(p *models.Purchase) {
		if p.PaymentStatus == models.PaymentStatusCompleted {
			return
		}
		p.PaymentStatus = u.Status
		if u.PaidAt != nil {
			at := *u.PaidAt
			p.PaidAt = &at
		}
	})
}

func (r *MemoryPurchaseRepository) MarkNotificationSent(ctx context.Context, id string) error {
	return r.update(id, func(p *models.Purchase) {
		p.NotificationEmailSent = "true"
	})
}

func (r *MemoryPurchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.purchases[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := *p
	return &out, nil
}

func (r *MemoryPurchaseRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, p := range r.purchases {
		if p.StripeSessionID != nil && *p.StripeSessionID == sessionID {
			out := *p
			return &out, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryPurchaseRepository) List(ctx context.Context, filter models.PurchaseFilter) ([]*models.Purchase, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit := normalizeLimit(filter.Limit)
	out := []*models.Purchase{}
	for i := len(r.order) - 1; i >= 0 && len(out) < limit; i-- {
		p := r.purchases[r.order[i]]
		if filter.PaymentStatus != "" && p.PaymentStatus != filter.PaymentStatus {
			continue
		}
		if filter.CustomerEmail != "" && !strings.EqualFold(p.CustomerEmail, filter.CustomerEmail) {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *MemoryPurchaseRepository) update(id string, apply func(p *models.Purchase)) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.purchases[id]
	if !ok {
		return ErrNotFound
	}
	apply(p)
	p.UpdatedAt = r.now()
	return nil
}

// MemoryPurchaseEventRepository keeps the audit trail in process memory
type MemoryPurchaseEventRepository struct {
	mu     sync.RWMutex
	events []*models.PurchaseEvent
}

func NewMemoryPurchaseEventRepository() *MemoryPurchaseEventRepository {
	return &MemoryPurchaseEventRepository{}
}

func (r *MemoryPurchaseEventRepository) Create(ctx context.Context, e *models.PurchaseEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.CreatedAt = time.Now().UTC()

	r.mu.Lock()
	defer r.mu.Unlock()
	stored := *e
	r.events = append(r.events, &stored)
	return nil
}

func (r *MemoryPurchaseEventRepository) LogAction(ctx context.Context, purchaseID, action, status, message string) error {
	return r.LogActionWithMetadata(ctx, purchaseID, action, status, message, nil)
}

func (r *MemoryPurchaseEventRepository) LogActionWithMetadata(ctx context.Context, purchaseID, action, status, message string, metadata map[string]interface{}) error {
	return r.Create(ctx, &models.PurchaseEvent{
		PurchaseID: purchaseID,
		Action:     action,
		Status:     status,
		Message:    message,
		Metadata:   metadata,
	})
}

func (r *MemoryPurchaseEventRepository) ListByPurchase(ctx context.Context, purchaseID string, limit int) ([]*models.PurchaseEvent, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	limit = normalizeLimit(limit)
	out := []*models.PurchaseEvent{}
	for i := len(r.events) - 1; i >= 0 && len(out) < limit; i-- {
		if r.events[i].PurchaseID == purchaseID {
			cp := *r.events[i]
			out = append(out, &cp)
		}
	}
	return out, nil
}

func strPtr(s string) *string {
	return &s
}

var (
	_ PurchaseRepository      = (*MemoryPurchaseRepository)(nil)
	_ PurchaseRepository      = (*PostgresPurchaseRepository)(nil)
	_ PurchaseEventRepository = (*MemoryPurchaseEventRepository)(nil)
	_ PurchaseEventRepository = (*PostgresPurchaseEventRepository)(nil)
)
