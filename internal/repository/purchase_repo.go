package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

const purchaseColumns = `
	id, "timestamp",
	hub_vendor_id, hub_vendor_name, spoke_integration_id, spoke_integration_name,
	customer_name, customer_email,
	company_name, entity_type, sync_frequency, data_volume, pricing_tier, additional_notes,
	terms_accepted, terms_accepted_at,
	stripe_session_id, payment_status, payment_amount, payment_currency, paid_at,
	template_id, notification_email_sent, created_at, updated_at`

type PostgresPurchaseRepository struct {
	pool *pgxpool.Pool
}

func NewPostgresPurchaseRepository(pool *pgxpool.Pool) *PostgresPurchaseRepository {
	return &PostgresPurchaseRepository{pool: pool}
}

// Create inserts the phase 1 columns of a new purchase
func (r *PostgresPurchaseRepository) Create(ctx context.Context, p *models.Purchase) error {
	query := `
		INSERT INTO marketplace.purchases (
			id, "timestamp",
			hub_vendor_id, hub_vendor_name, spoke_integration_id, spoke_integration_name,
			customer_name, customer_email,
			terms_accepted, payment_status, payment_currency,
			template_id, notification_email_sent
		) VALUES (
			$1, $2,
			$3, $4, $5, $6,
			$7, $8,
			$9, $10, $11,
			$12, $13
		)
		RETURNING created_at, updated_at
	`
	err := r.pool.QueryRow(ctx, query,
		p.ID, p.Timestamp,
		p.HubVendorID, p.HubVendorName, p.SpokeIntegrationID, p.SpokeIntegrationName,
		p.CustomerName, p.CustomerEmail,
		p.TermsAccepted, p.PaymentStatus, p.PaymentCurrency,
		p.TemplateID, p.NotificationEmailSent,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert purchase: %w", err)
	}
	return nil
}

// ApplyBusinessDetails writes the phase 2 columns and the price snapshot
func (r *PostgresPurchaseRepository) ApplyBusinessDetails(ctx context.Context, id string, d models.BusinessDetails) error {
	query := `
		UPDATE marketplace.purchases
		SET company_name = $2, entity_type = $3, sync_frequency = $4, data_volume = $5,
		    pricing_tier = $6, additional_notes = $7, payment_amount = $8,
		    updated_at = NOW()
		WHERE id = $1
	`
	amount := d.PaymentAmount.StringFixed(2)
	return r.exec(ctx, "update business details", query,
		id, d.CompanyName, d.EntityType, d.SyncFrequency, d.DataVolume,
		d.PricingTierID, d.AdditionalNotes, amount,
	)
}

// ApplyTermsAcceptance writes the phase 3 columns
func (r *PostgresPurchaseRepository) ApplyTermsAcceptance(ctx context.Context, id string, t models.TermsAcceptance) error {
	query := `
		UPDATE marketplace.purchases
		SET terms_accepted = $2, terms_accepted_at = $3, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "update terms", query, id, models.TermsAcceptedTrue, t.AcceptedAt)
}

// SetCheckoutSession records the payment processor session for a purchase
func (r *PostgresPurchaseRepository) SetCheckoutSession(ctx context.Context, id, sessionID string) error {
	query := `
		UPDATE marketplace.purchases
		SET stripe_session_id = $2, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "set checkout session", query, id, sessionID)
}

// ApplyPaymentStatus moves the payment status. A completed payment is never downgraded.
func (r *PostgresPurchaseRepository) ApplyPaymentStatus(ctx context.Context, id string, u models.PaymentUpdate) error {
	query := `
		UPDATE marketplace.purchases
		SET payment_status = $2, paid_at = COALESCE($3, paid_at), updated_at = NOW()
		WHERE id = $1 AND payment_status <> 'completed'
	`
	tag, err := r.pool.Exec(ctx, query, id, u.Status, u.PaidAt)
	if err != nil {
		return fmt.Errorf("update payment status: %w", err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	var exists bool
	err = r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM marketplace.purchases WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check purchase: %w", err)
	}
	if !exists {
		return ErrNotFound
	}
	return nil
}

// MarkNotificationSent flags that at least one step notification was delivered
func (r *PostgresPurchaseRepository) MarkNotificationSent(ctx context.Context, id string) error {
	query := `
		UPDATE marketplace.purchases
		SET notification_email_sent = 'true', updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "mark notification sent", query, id)
}

// GetByID retrieves a purchase by ID
func (r *PostgresPurchaseRepository) GetByID(ctx context.Context, id string) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM marketplace.purchases WHERE id = $1`
	return r.scanPurchase(r.pool.QueryRow(ctx, query, id))
}

// GetByCheckoutSession retrieves the purchase a payment session was opened for
func (r *PostgresPurchaseRepository) GetByCheckoutSession(ctx context.Context, sessionID string) (*models.Purchase, error) {
	query := `SELECT ` + purchaseColumns + ` FROM marketplace.purchases WHERE stripe_session_id = $1`
	return r.scanPurchase(r.pool.QueryRow(ctx, query, sessionID))
}

// List returns purchases newest first
func (r *PostgresPurchaseRepository) List(ctx context.Context, filter models.PurchaseFilter) ([]*models.Purchase, error) {
	var (
		where []string
		args  []interface{}
	)
	if filter.PaymentStatus != "" {
		args = append(args, filter.PaymentStatus)
		where = append(where, fmt.Sprintf("payment_status = $%d", len(args)))
	}
	if filter.CustomerEmail != "" {
		args = append(args, filter.CustomerEmail)
		where = append(where, fmt.Sprintf("LOWER(customer_email) = LOWER($%d)", len(args)))
	}

	query := `SELECT ` + purchaseColumns + ` FROM marketplace.purchases`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	args = append(args, normalizeLimit(filter.Limit))
	query += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query purchases: %w", err)
	}
	defer rows.Close()

	purchases := []*models.Purchase{}
	for rows.Next() {
		p, err := r.scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

func (r *PostgresPurchaseRepository) exec(ctx context.Context, op, query string, args ...interface{}) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PostgresPurchaseRepository) scanPurchase(row pgx.Row) (*models.Purchase, error) {
	p := &models.Purchase{}
	err := row.Scan(
		&p.ID, &p.Timestamp,
		&p.HubVendorID, &p.HubVendorName, &p.SpokeIntegrationID, &p.SpokeIntegrationName,
		&p.CustomerName, &p.CustomerEmail,
		&p.CompanyName, &p.EntityType, &p.SyncFrequency, &p.DataVolume, &p.PricingTier, &p.AdditionalNotes,
		&p.TermsAccepted, &p.TermsAcceptedAt,
		&p.StripeSessionID, &p.PaymentStatus, &p.PaymentAmount, &p.PaymentCurrency, &p.PaidAt,
		&p.TemplateID, &p.NotificationEmailSent, &p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scan purchase: %w", err)
	}
	return p, nil
}
