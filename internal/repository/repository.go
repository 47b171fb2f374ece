package repository

import (
	"context"
	"errors"

	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

// ErrNotFound is returned when a purchase does not exist
var ErrNotFound = errors.New("not found")

// DefaultListLimit caps admin listings when no limit is given
const DefaultListLimit = 50

// PurchaseRepository persists purchase records. Every write touches only the
// columns of its own phase; records are never deleted.
type PurchaseRepository interface {
	Create(ctx context.Context, p *models.Purchase) error
	ApplyBusinessDetails(ctx context.Context, id string, d models.BusinessDetails) error
	ApplyTermsAcceptance(ctx context.Context, id string, t models.TermsAcceptance) error
	SetCheckoutSession(ctx context.Context, id, sessionID string) error
	ApplyPaymentStatus(ctx context.Context, id string, u models.PaymentUpdate) error
	MarkNotificationSent(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*models.Purchase, error)
	GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Purchase, error)
	List(ctx context.Context, filter models.PurchaseFilter) ([]*models.Purchase, error)
}

// PurchaseEventRepository stores the audit trail of a purchase
type PurchaseEventRepository interface {
	Create(ctx context.Context, e *models.PurchaseEvent) error
	LogAction(ctx context.Context, purchaseID, action, status, message string) error
	LogActionWithMetadata(ctx context.Context, purchaseID, action, status, message string, metadata map[string]interface{}) error
	ListByPurchase(ctx context.Context, purchaseID string, limit int) ([]*models.PurchaseEvent, error)
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultListLimit
	}
	return limit
}
