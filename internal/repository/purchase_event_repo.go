package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

type PostgresPurchaseEventRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPurchaseEventRepository(pool *pgxpool.Pool) *PostgresPurchaseEventRepository {
	return &PostgresPurchaseEventRepository{pool: pool}
}

// Create appends an event to a purchase's audit trail
func (r *PostgresPurchaseEventRepository) Create(ctx context.Context, e *models.PurchaseEvent) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}

	query := `
		INSERT INTO marketplace.purchase_events (id, purchase_id, action, status, message, metadata)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		e.ID, e.PurchaseID, e.Action, e.Status, e.Message, e.Metadata,
	).Scan(&e.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase event: %w", err)
	}
	return nil
}

// ListByPurchase returns a purchase's events, newest first
func (r *PostgresPurchaseEventRepository) ListByPurchase(ctx context.Context, purchaseID string, limit int) ([]*models.PurchaseEvent, error) {
	query := `
		SELECT id, purchase_id, action, status, message, metadata, created_at
		FROM marketplace.purchase_events
		WHERE purchase_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, purchaseID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query purchase events: %w", err)
	}
	defer rows.Close()

	events := []*models.PurchaseEvent{}
	for rows.Next() {
		e := &models.PurchaseEvent{}
		if err := rows.Scan(&e.ID, &e.PurchaseID, &e.Action, &e.Status, &e.Message, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan purchase event: %w", err)
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

// LogAction records an event without metadata
func (r *PostgresPurchaseEventRepository) LogAction(ctx context.Context, purchaseID, action, status, message string) error {
	return r.LogActionWithMetadata(ctx, purchaseID, action, status, message, nil)
}

// LogActionWithMetadata records an event with structured metadata
func (r *PostgresPurchaseEventRepository) LogActionWithMetadata(ctx context.Context, purchaseID, action, status, message string, metadata map[string]interface{}) error {
	return r.Create(ctx, &models.PurchaseEvent{
		PurchaseID: purchaseID,
		Action:     action,
		Status:     status,
		Message:    message,
		Metadata:   metadata,
	})
}
