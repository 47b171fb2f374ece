package wizard

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/repository"
	"github.com/wenwu/saas-platform/marketplace-service/internal/service"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	sent []models.StepNotification
	ok   bool
}

func (n *recordingNotifier) Send(ctx context.Context, note models.StepNotification) bool {
	n.sent = append(n.sent, note)
	return n.ok
}

type fakeGateway struct {
	params []models.CheckoutSessionParams
	err    error
}

func (g *fakeGateway) CreateCheckoutSession(ctx context.Context, p models.CheckoutSessionParams) (*models.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.params = append(g.params, p)
	return &models.CheckoutSession{ID: "cs_test_42", URL: "https://checkout.example.com/cs_test_42"}, nil
}

func (g *fakeGateway) GetCheckoutSession(ctx context.Context, id string) (*models.CheckoutSession, error) {
	return &models.CheckoutSession{ID: id}, nil
}

func (g *fakeGateway) ParseWebhook(payload []byte, signature string) (*models.PaymentEvent, error) {
	return nil, errors.New("not implemented")
}

type failingPurchases struct {
	err error
}

func (f *failingPurchases) Create(ctx context.Context, d models.ContactDetails) (string, error) {
	return "", f.err
}

func (f *failingPurchases) Update(ctx context.Context, id string, payload models.StepPayload) error {
	return f.err
}

type harness struct {
	wizard    *Service
	purchases *repository.MemoryPurchaseRepository
	notifier  *recordingNotifier
	gateway   *fakeGateway
}

func newHarness(t *testing.T, publishableKey string) *harness {
	t.Helper()
	provider, err := catalog.Load(catalog.DefaultFS(), "zendesk")
	require.NoError(t, err)

	h := &harness{
		purchases: repository.NewMemoryPurchaseRepository(),
		notifier:  &recordingNotifier{ok: true},
		gateway:   &fakeGateway{},
	}
	events := repository.NewMemoryPurchaseEventRepository()
	purchaseSvc := service.NewPurchaseService(h.purchases, events, provider, "USD", zap.NewNop())
	checkoutSvc := service.NewCheckoutService(h.gateway, h.purchases, events, provider, zap.NewNop())

	h.wizard = NewService(NewMemorySessionStore(time.Hour), provider, purchaseSvc, h.notifier, checkoutSvc,
		Options{PublishableKey: publishableKey, PublicBaseURL: "https://market.example.com/"}, zap.NewNop())
	return h
}

func strp(s string) *string { return &s }
func boolp(b bool) *bool    { return &b }

func stepKind(t *testing.T, err error) ErrorKind {
	t.Helper()
	var se *StepError
	require.ErrorAs(t, err, &se)
	return se.Kind
}

func (h *harness) start(t *testing.T) *Session {
	t.Helper()
	sess, err := h.wizard.Start(context.Background(), StartRequest{HubVendorID: "zendesk", SpokeIntegrationID: "jira"})
	require.NoError(t, err)
	return sess
}

func (h *harness) completeStepOne(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.wizard.Edit(ctx, id, models.EditWizardRequest{CustomerName: strp("Jane Doe"), CustomerEmail: strp("jane@example.com")})
	require.NoError(t, err)
	sess, err := h.wizard.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.StepBusinessDetails, sess.Step)
}

func (h *harness) completeStepTwo(t *testing.T, id string) {
	t.Helper()
	ctx := context.Background()
	_, err := h.wizard.Edit(ctx, id, models.EditWizardRequest{
		CompanyName:   strp("Acme"),
		EntityType:    strp("smb"),
		SyncFrequency: strp("hourly"),
		DataVolume:    strp("small"),
	})
	require.NoError(t, err)
	sess, err := h.wizard.Next(ctx, id)
	require.NoError(t, err)
	require.Equal(t, models.StepTerms, sess.Step)
}

func TestStartFillsNamesFromCatalog(t *testing.T) {
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	assert.Equal(t, models.StepContactInfo, sess.Step)
	assert.Equal(t, "Zendesk", sess.HubVendorName)
	assert.Equal(t, "Jira", sess.SpokeIntegrationName)

	_, err := h.wizard.Start(context.Background(), StartRequest{HubVendorID: "zendesk"})
	assert.Equal(t, KindValidation, stepKind(t, err))
}

func TestStepOneValidation(t *testing.T) {
	tests := []struct {
		name, customer, email string
		wantErr               string
	}{
		{name: "empty name", email: "jane@example.com", wantErr: msgRequiredFields},
		{name: "empty email", customer: "Jane Doe", wantErr: msgRequiredFields},
		{name: "no at sign", customer: "Jane Doe", email: "jane.example.com", wantErr: msgInvalidEmail},
		{name: "no tld", customer: "Jane Doe", email: "jane@example", wantErr: msgInvalidEmail},
		{name: "whitespace", customer: "Jane Doe", email: "jane doe@example.com", wantErr: msgInvalidEmail},
		{name: "double at", customer: "Jane Doe", email: "jane@@example.com", wantErr: msgInvalidEmail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t, "pk_test")
			ctx := context.Background()
			sess := h.start(t)

			_, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{CustomerName: strp(tt.customer), CustomerEmail: strp(tt.email)})
			require.NoError(t, err)

			got, err := h.wizard.Next(ctx, sess.ID)
			var se *StepError
			require.ErrorAs(t, err, &se)
			assert.Equal(t, KindValidation, se.Kind)
			assert.Equal(t, tt.wantErr, se.Message)
			assert.Equal(t, models.StepContactInfo, got.Step)
			assert.Empty(t, got.PurchaseID)
			assert.Empty(t, h.notifier.sent)

			list, err := h.purchases.List(ctx, models.PurchaseFilter{})
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestStepOneCreatesPurchaseAndNotifies(t *testing.T) {
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)

	got, err := h.wizard.Get(context.Background(), sess.ID)
	require.NoError(t, err)
	require.NotEmpty(t, got.PurchaseID)

	p, err := h.purchases.GetByID(context.Background(), got.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", p.CustomerName)
	assert.Equal(t, "Jira", p.SpokeIntegrationName)
	assert.Equal(t, models.PaymentStatusPending, p.PaymentStatus)
	assert.Nil(t, p.CompanyName)
	assert.Nil(t, p.EntityType)
	assert.Nil(t, p.SyncFrequency)
	assert.Nil(t, p.DataVolume)
	assert.Nil(t, p.PricingTier)
	assert.Nil(t, p.PaymentAmount)
	assert.Equal(t, models.TermsAcceptedFalse, p.TermsAccepted)

	require.Len(t, h.notifier.sent, 1)
	assert.Equal(t, models.StepContactInfo, h.notifier.sent[0].Step)
	assert.Equal(t, got.PurchaseID, h.notifier.sent[0].PurchaseID)
}

func TestStepTwoRequiresFieldsAndTier(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)

	inputs := []models.EditWizardRequest{
		{CompanyName: strp("Acme")},
		{EntityType: strp("smb")},
		{SyncFrequency: strp("hourly")},
	}
	for _, in := range inputs {
		_, err := h.wizard.Edit(ctx, sess.ID, in)
		require.NoError(t, err)
		got, err := h.wizard.Next(ctx, sess.ID)
		assert.Equal(t, KindValidation, stepKind(t, err))
		assert.Equal(t, models.StepBusinessDetails, got.Step)
	}

	_, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{DataVolume: strp("small"), SyncFrequency: strp("daily")})
	require.NoError(t, err)
	got, err := h.wizard.Next(ctx, sess.ID)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, msgNoTier, se.Message)
	assert.Nil(t, got.Tier)

	_, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{SyncFrequency: strp("hourly")})
	require.NoError(t, err)
	got, err = h.wizard.Next(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepTerms, got.Step)

	p, err := h.purchases.GetByID(ctx, got.PurchaseID)
	require.NoError(t, err)
	require.NotNil(t, p.PricingTier)
	assert.Equal(t, "standard", *p.PricingTier)
	require.NotNil(t, p.PaymentAmount)
	assert.Equal(t, "149.00", *p.PaymentAmount)
}

func TestSyncFrequencyRederivesTier(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)

	got, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{SyncFrequency: strp("hourly")})
	require.NoError(t, err)
	require.NotNil(t, got.Tier)
	assert.Equal(t, "standard", got.Tier.ID)

	got, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{SyncFrequency: strp("10min")})
	require.NoError(t, err)
	require.NotNil(t, got.Tier)
	assert.Equal(t, "professional", got.Tier.ID)

	got, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{SyncFrequency: strp("weekly")})
	require.NoError(t, err)
	assert.Nil(t, got.Tier)

	got, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{CompanyName: strp("Acme")})
	require.NoError(t, err)
	assert.Nil(t, got.Tier)
	assert.Equal(t, "weekly", got.SyncFrequency)
}

func TestBackKeepsInputs(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)
	h.completeStepTwo(t, sess.ID)

	got, err := h.wizard.Back(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepBusinessDetails, got.Step)
	assert.Equal(t, "Jane Doe", got.CustomerName)
	assert.Equal(t, "jane@example.com", got.CustomerEmail)
	assert.Equal(t, "Acme", got.CompanyName)
	assert.Equal(t, "smb", got.EntityType)
	assert.Equal(t, "hourly", got.SyncFrequency)
	assert.Equal(t, "small", got.DataVolume)
	require.NotNil(t, got.Tier)
	assert.Equal(t, "standard", got.Tier.ID)

	got, err = h.wizard.Back(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepContactInfo, got.Step)

	_, err = h.wizard.Back(ctx, sess.ID)
	assert.Equal(t, KindValidation, stepKind(t, err))
}

func TestStepThreeRequiresTerms(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)
	h.completeStepTwo(t, sess.ID)

	got, err := h.wizard.Next(ctx, sess.ID)
	assert.Equal(t, KindValidation, stepKind(t, err))
	assert.Equal(t, models.StepTerms, got.Step)

	_, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{TermsAccepted: boolp(true)})
	require.NoError(t, err)
	got, err = h.wizard.Next(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StepPayment, got.Step)
	require.NotNil(t, got.TermsAcceptedAt)

	p, err := h.purchases.GetByID(ctx, got.PurchaseID)
	require.NoError(t, err)
	assert.Equal(t, models.TermsAcceptedTrue, p.TermsAccepted)
	require.NotNil(t, p.TermsAcceptedAt)

	_, err = h.wizard.Next(ctx, sess.ID)
	assert.Equal(t, KindValidation, stepKind(t, err))
}

func TestMissingPurchaseIsSessionError(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	store := h.wizard.store

	sess := &Session{
		ID:            "orphan",
		Step:          models.StepBusinessDetails,
		CompanyName:   "Acme",
		EntityType:    "smb",
		SyncFrequency: "hourly",
		DataVolume:    "small",
		Tier:          &models.PricingTier{ID: "standard", Name: "Standard"},
	}
	require.NoError(t, store.Save(ctx, sess))
	_, err := h.wizard.Next(ctx, "orphan")
	assert.Equal(t, KindSession, stepKind(t, err))

	sess.PurchaseID = "deleted-purchase"
	require.NoError(t, store.Save(ctx, sess))
	_, err = h.wizard.Next(ctx, "orphan")
	assert.Equal(t, KindSession, stepKind(t, err))
}

func TestCollaboratorFailureStaysOnStep(t *testing.T) {
	ctx := context.Background()
	provider, err := catalog.Load(catalog.DefaultFS(), "zendesk")
	require.NoError(t, err)
	notifier := &recordingNotifier{ok: true}
	w := NewService(NewMemorySessionStore(time.Hour), provider, &failingPurchases{err: errors.New("db down")}, notifier, nil, Options{}, zap.NewNop())

	sess, err := w.Start(ctx, StartRequest{HubVendorID: "zendesk", SpokeIntegrationID: "jira"})
	require.NoError(t, err)
	_, err = w.Edit(ctx, sess.ID, models.EditWizardRequest{CustomerName: strp("Jane Doe"), CustomerEmail: strp("jane@example.com")})
	require.NoError(t, err)

	got, err := w.Next(ctx, sess.ID)
	var se *StepError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, KindCollaborator, se.Kind)
	assert.Equal(t, msgCreateFailed, se.Message)
	assert.Equal(t, models.StepContactInfo, got.Step)
	assert.Equal(t, "Jane Doe", got.CustomerName)
	assert.Empty(t, notifier.sent)
}

func TestNotificationFailureDoesNotBlock(t *testing.T) {
	h := newHarness(t, "pk_test")
	h.notifier.ok = false
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)
	assert.Len(t, h.notifier.sent, 1)
}

func TestCheckout(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	sess := h.start(t)

	_, _, err := h.wizard.Checkout(ctx, sess.ID)
	assert.Equal(t, KindValidation, stepKind(t, err))

	h.completeStepOne(t, sess.ID)
	h.completeStepTwo(t, sess.ID)
	_, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{TermsAccepted: boolp(true)})
	require.NoError(t, err)
	_, err = h.wizard.Next(ctx, sess.ID)
	require.NoError(t, err)

	got, cs, err := h.wizard.Checkout(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, "cs_test_42", cs.ID)
	assert.Equal(t, "cs_test_42", got.CheckoutSessionID)

	last := h.notifier.sent[len(h.notifier.sent)-1]
	assert.Equal(t, models.StepPayment, last.Step)

	require.Len(t, h.gateway.params, 1)
	params := h.gateway.params[0]
	assert.Equal(t, int64(14900), params.AmountMinor)
	assert.Equal(t, "Standard", params.PricingTierName)
	assert.Equal(t, "https://market.example.com/purchase-success?session_id={CHECKOUT_SESSION_ID}", params.SuccessURL)
	assert.True(t, strings.HasPrefix(params.CancelURL, "https://market.example.com/purchase?"))
	cancel, err := url.Parse(params.CancelURL)
	require.NoError(t, err)
	assert.Equal(t, "jira", cancel.Query().Get("spoke"))
	assert.Equal(t, "Zendesk", cancel.Query().Get("hubName"))

	p, err := h.purchases.GetByID(ctx, got.PurchaseID)
	require.NoError(t, err)
	require.NotNil(t, p.StripeSessionID)
	assert.Equal(t, "cs_test_42", *p.StripeSessionID)
}

func TestEditRejectsFieldsOfOtherSteps(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	sess := h.start(t)

	_, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{SyncFrequency: strp("hourly")})
	assert.Equal(t, KindValidation, stepKind(t, err))

	h.completeStepOne(t, sess.ID)
	got, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{CustomerEmail: strp("other@example.com")})
	assert.Equal(t, KindValidation, stepKind(t, err))
	assert.Equal(t, "jane@example.com", got.CustomerEmail)

	h.completeStepTwo(t, sess.ID)
	_, err = h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{TermsAccepted: boolp(true)})
	require.NoError(t, err)
	_, err = h.wizard.Next(ctx, sess.ID)
	require.NoError(t, err)

	edits := []models.EditWizardRequest{
		{SyncFrequency: strp("5min")},
		{CustomerEmail: strp("other@example.com")},
		{CompanyName: strp("Globex")},
		{TermsAccepted: boolp(false)},
	}
	for _, in := range edits {
		got, err = h.wizard.Edit(ctx, sess.ID, in)
		var se *StepError
		require.ErrorAs(t, err, &se)
		assert.Equal(t, KindValidation, se.Kind)
		assert.Equal(t, models.StepPayment, se.Step)
		assert.Equal(t, msgFieldsLocked, se.Message)
	}

	stored, err := h.wizard.Get(ctx, sess.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Tier)
	assert.Equal(t, "standard", stored.Tier.ID)
	assert.Equal(t, "hourly", stored.SyncFrequency)
	assert.Equal(t, "jane@example.com", stored.CustomerEmail)
	assert.True(t, stored.TermsAccepted)

	_, _, err = h.wizard.Checkout(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, h.gateway.params, 1)
	params := h.gateway.params[0]
	assert.Equal(t, "Standard", params.PricingTierName)
	assert.Equal(t, int64(14900), params.AmountMinor)
	assert.Equal(t, "jane@example.com", params.CustomerEmail)
}

func TestCheckoutDisabledWithoutPublishableKey(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)
	h.completeStepTwo(t, sess.ID)
	_, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{TermsAccepted: boolp(true)})
	require.NoError(t, err)
	got, err := h.wizard.Next(ctx, sess.ID)
	require.NoError(t, err)

	view := h.wizard.View(got)
	assert.False(t, view.CheckoutEnabled)
	assert.Equal(t, msgCheckoutDisabled, view.CheckoutMessage)
	assert.Empty(t, view.PublishableKey)
	assert.Contains(t, view.ContactNotice, "jane@example.com")

	_, _, err = h.wizard.Checkout(ctx, sess.ID)
	assert.ErrorIs(t, err, ErrCheckoutDisabled)
	assert.Empty(t, h.gateway.params)
}

func TestCheckoutGatewayFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t, "pk_test")
	h.gateway.err = errors.New("stripe unavailable")
	sess := h.start(t)
	h.completeStepOne(t, sess.ID)
	h.completeStepTwo(t, sess.ID)
	_, err := h.wizard.Edit(ctx, sess.ID, models.EditWizardRequest{TermsAccepted: boolp(true)})
	require.NoError(t, err)
	_, err = h.wizard.Next(ctx, sess.ID)
	require.NoError(t, err)

	got, cs, err := h.wizard.Checkout(ctx, sess.ID)
	assert.Nil(t, cs)
	assert.Equal(t, KindCollaborator, stepKind(t, err))
	assert.Equal(t, models.StepPayment, got.Step)
}

func TestViewWithCheckoutEnabled(t *testing.T) {
	h := newHarness(t, "pk_test")
	sess := h.start(t)
	sess.Tier = &models.PricingTier{ID: "standard"}
	view := h.wizard.View(sess)
	assert.True(t, view.CheckoutEnabled)
	assert.Equal(t, "pk_test", view.PublishableKey)
	assert.Empty(t, view.CheckoutMessage)
	assert.Equal(t, "Integration Details", view.StepName)
}

func TestUnknownSession(t *testing.T) {
	h := newHarness(t, "pk_test")
	_, err := h.wizard.Next(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)
}
