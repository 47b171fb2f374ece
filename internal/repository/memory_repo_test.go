package repository

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

func newPurchase(id, email string) *models.Purchase {
	return &models.Purchase{
		ID:                    id,
		Timestamp:             time.Now().UTC(),
		HubVendorID:           "zendesk",
		HubVendorName:         "Zendesk",
		SpokeIntegrationID:    "jira",
		SpokeIntegrationName:  "Jira",
		CustomerName:          "Jane Doe",
		CustomerEmail:         email,
		TermsAccepted:         models.TermsAcceptedFalse,
		PaymentStatus:         models.PaymentStatusPending,
		PaymentCurrency:       models.DefaultCurrency,
		TemplateID:            "zendesk",
		NotificationEmailSent: "false",
	}
}

func TestMemoryPurchaseRepository_PhasesAreAdditive(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	require.NoError(t, repo.Create(ctx, newPurchase("p1", "jane@example.com")))

	require.NoError(t, repo.ApplyBusinessDetails(ctx, "p1", models.BusinessDetails{
		CompanyName:   "Acme",
		EntityType:    models.EntityTypeSMB,
		SyncFrequency: "hourly",
		DataVolume:    models.DataVolumeSmall,
		PricingTierID: "standard",
		PaymentAmount: decimal.RequireFromString("149"),
	}))

	acceptedAt := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	require.NoError(t, repo.ApplyTermsAcceptance(ctx, "p1", models.TermsAcceptance{AcceptedAt: acceptedAt}))

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.CustomerName)
	assert.Equal(t, "jane@example.com", p.CustomerEmail)
	require.NotNil(t, p.CompanyName)
	assert.Equal(t, "Acme", *p.CompanyName)
	require.NotNil(t, p.PricingTier)
	assert.Equal(t, "standard", *p.PricingTier)
	require.NotNil(t, p.PaymentAmount)
	assert.Equal(t, "149.00", *p.PaymentAmount)
	assert.Equal(t, models.TermsAcceptedTrue, p.TermsAccepted)
	require.NotNil(t, p.TermsAcceptedAt)
	assert.True(t, acceptedAt.Equal(*p.TermsAcceptedAt))
	assert.Equal(t, models.PaymentStatusPending, p.PaymentStatus)
	assert.Nil(t, p.StripeSessionID)
}

func TestMemoryPurchaseRepository_UnknownID(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()

	_, err := repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, repo.ApplyTermsAcceptance(ctx, "missing", models.TermsAcceptance{AcceptedAt: time.Now()}), ErrNotFound)
	assert.ErrorIs(t, repo.ApplyPaymentStatus(ctx, "missing", models.PaymentUpdate{Status: models.PaymentStatusFailed}), ErrNotFound)
	assert.ErrorIs(t, repo.MarkNotificationSent(ctx, "missing"), ErrNotFound)
}

func TestMemoryPurchaseRepository_CompletedPaymentIsNeverDowngraded(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	require.NoError(t, repo.Create(ctx, newPurchase("p1", "jane@example.com")))
	require.NoError(t, repo.SetCheckoutSession(ctx, "p1", "cs_test_1"))

	paidAt := time.Now().UTC()
	require.NoError(t, repo.ApplyPaymentStatus(ctx, "p1", models.PaymentUpdate{Status: models.PaymentStatusCompleted, PaidAt: &paidAt}))
	require.NoError(t, repo.ApplyPaymentStatus(ctx, "p1", models.PaymentUpdate{Status: models.PaymentStatusFailed}))

	p, err := repo.GetByCheckoutSession(ctx, "cs_test_1")
	require.NoError(t, err)
	assert.Equal(t, "p1", p.ID)
	assert.Equal(t, models.PaymentStatusCompleted, p.PaymentStatus)
	require.NotNil(t, p.PaidAt)
}

func TestMemoryPurchaseRepository_GetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	require.NoError(t, repo.Create(ctx, newPurchase("p1", "jane@example.com")))

	p, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	p.CustomerName = "changed"

	again, err := repo.GetByID(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", again.CustomerName)
}

func TestMemoryPurchaseRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseRepository()
	require.NoError(t, repo.Create(ctx, newPurchase("p1", "jane@example.com")))
	require.NoError(t, repo.Create(ctx, newPurchase("p2", "bob@example.com")))
	require.NoError(t, repo.Create(ctx, newPurchase("p3", "JANE@example.com")))
	require.NoError(t, repo.ApplyPaymentStatus(ctx, "p2", models.PaymentUpdate{Status: models.PaymentStatusFailed}))

	tests := []struct {
		name   string
		filter models.PurchaseFilter
		want   []string
	}{
		{name: "all newest first", filter: models.PurchaseFilter{}, want: []string{"p3", "p2", "p1"}},
		{name: "by email ignores case", filter: models.PurchaseFilter{CustomerEmail: "jane@example.com"}, want: []string{"p3", "p1"}},
		{name: "by status", filter: models.PurchaseFilter{PaymentStatus: models.PaymentStatusFailed}, want: []string{"p2"}},
		{name: "limit", filter: models.PurchaseFilter{Limit: 1}, want: []string{"p3"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			list, err := repo.List(ctx, tt.filter)
			require.NoError(t, err)
			ids := make([]string, 0, len(list))
			for _, p := range list {
				ids = append(ids, p.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryPurchaseEventRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewMemoryPurchaseEventRepository()

	require.NoError(t, repo.LogAction(ctx, "p1", models.EventActionCreated, models.EventStatusSuccess, "created"))
	require.NoError(t, repo.LogActionWithMetadata(ctx, "p1", models.EventActionNotification, models.EventStatusFailed, "smtp down",
		map[string]interface{}{"step": 1}))
	require.NoError(t, repo.LogAction(ctx, "p2", models.EventActionCreated, models.EventStatusSuccess, "created"))

	events, err := repo.ListByPurchase(ctx, "p1", 0)
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, models.EventActionNotification, events[0].Action)
	assert.Equal(t, 1, events[0].Metadata["step"])
	assert.NotEmpty(t, events[0].ID)
	assert.Equal(t, models.EventActionCreated, events[1].Action)

	limited, err := repo.ListByPurchase(ctx, "p1", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	none, err := repo.ListByPurchase(ctx, "unknown", 10)
	require.NoError(t, err)
	assert.NotNil(t, none)
	assert.Empty(t, none)
}
