package wizard

import (
	"context"
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/pricing"
	"github.com/wenwu/saas-platform/marketplace-service/internal/service"
	"github.com/wenwu/saas-platform/marketplace-service/internal/validation"
	"go.uber.org/zap"
)

// PurchaseStore creates and updates purchase records
type PurchaseStore interface {
	Create(ctx context.Context, d models.ContactDetails) (string, error)
	Update(ctx context.Context, id string, payload models.StepPayload) error
}

// Notifier reports completed steps to the operator
type Notifier interface {
	Send(ctx context.Context, n models.StepNotification) bool
}

// Checkout opens payment sessions
type Checkout interface {
	Enabled() bool
	CreateSession(ctx context.Context, req service.CheckoutRequest) (*models.CheckoutSession, error)
}

// Options carries the client-facing checkout settings
type Options struct {
	PublishableKey string
	PublicBaseURL  string
}

// StartRequest names the integration pair the customer picked in the catalog
type StartRequest struct {
	HubVendorID          string
	HubVendorName        string
	SpokeIntegrationID   string
	SpokeIntegrationName string
}

// Service drives the four-step purchase wizard
type Service struct {
	store     SessionStore
	catalog   *catalog.Provider
	purchases PurchaseStore
	notifier  Notifier
	checkout  Checkout
	opts      Options
	now       func() time.Time
	logger    *zap.Logger
}

func NewService(
	store SessionStore,
	provider *catalog.Provider,
	purchases PurchaseStore,
	notifier Notifier,
	checkout Checkout,
	opts Options,
	logger *zap.Logger,
) *Service {
	opts.PublicBaseURL = strings.TrimRight(opts.PublicBaseURL, "/")
	return &Service{
		store:     store,
		catalog:   provider,
		purchases: purchases,
		notifier:  notifier,
		checkout:  checkout,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		logger:    logger.Named("wizard"),
	}
}

// CheckoutEnabled reports whether the client may be sent to payment
func (s *Service) CheckoutEnabled() bool {
	return s.opts.PublishableKey != "" && s.checkout != nil && s.checkout.Enabled()
}

// Start opens a new session at step 1
func (s *Service) Start(ctx context.Context, req StartRequest) (*Session, error) {
	if strings.TrimSpace(req.HubVendorID) == "" || strings.TrimSpace(req.SpokeIntegrationID) == "" {
		return nil, validationError(models.StepContactInfo, "Please select an integration to purchase")
	}

	if req.HubVendorName == "" {
		if hub := s.catalog.HubVendor(); hub.ID == req.HubVendorID {
			req.HubVendorName = hub.Name
		}
	}
	if req.SpokeIntegrationName == "" {
		if spoke, ok := s.catalog.SpokeIntegration(req.SpokeIntegrationID); ok {
			req.SpokeIntegrationName = spoke.Name
		}
	}

	now := s.now()
	sess := &Session{
		ID:                   uuid.New().String(),
		Step:                 models.StepContactInfo,
		HubVendorID:          req.HubVendorID,
		HubVendorName:        req.HubVendorName,
		SpokeIntegrationID:   req.SpokeIntegrationID,
		SpokeIntegrationName: req.SpokeIntegrationName,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := s.store.Save(ctx, sess); err != nil {
		return nil, err
	}
	return sess, nil
}

// Get loads a session
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	return s.store.Get(ctx, id)
}

// Edit merges form input for the current step into the session without
// validating or advancing. Fields of other steps are rejected; earlier answers
// change only by going back. A new sync frequency re-derives the pricing tier
// and no match clears it.
func (s *Service) Edit(ctx context.Context, id string, in models.EditWizardRequest) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !editableAt(sess.Step, in) {
		return sess, validationError(sess.Step, msgFieldsLocked)
	}

	assign(&sess.CustomerName, in.CustomerName)
	assign(&sess.CustomerEmail, in.CustomerEmail)
	assign(&sess.CompanyName, in.CompanyName)
	assign(&sess.EntityType, in.EntityType)
	assign(&sess.DataVolume, in.DataVolume)
	assign(&sess.AdditionalNotes, in.AdditionalNotes)
	if in.SyncFrequency != nil {
		sess.SyncFrequency = *in.SyncFrequency
		sess.Tier, _ = pricing.Resolve(s.catalog.PricingTiers(), sess.SyncFrequency)
	}
	if in.TermsAccepted != nil {
		sess.TermsAccepted = *in.TermsAccepted
	}

	return sess, s.save(ctx, sess)
}

// Next validates the current step, performs its writes and advances
func (s *Service) Next(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	switch sess.Step {
	case models.StepContactInfo:
		err = s.submitContact(ctx, sess)
	case models.StepBusinessDetails:
		err = s.submitBusiness(ctx, sess)
	case models.StepTerms:
		err = s.submitTerms(ctx, sess)
	default:
		err = validationError(sess.Step, msgLastStep)
	}
	if err != nil {
		return sess, err
	}

	sess.Step++
	return sess, s.save(ctx, sess)
}

// Back returns to the previous step keeping every input
func (s *Service) Back(ctx context.Context, id string) (*Session, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if sess.Step <= models.StepContactInfo {
		return sess, validationError(sess.Step, msgFirstStep)
	}
	sess.Step--
	return sess, s.save(ctx, sess)
}

// Checkout fires the payment notification and opens a payment session
func (s *Service) Checkout(ctx context.Context, id string) (*Session, *models.CheckoutSession, error) {
	sess, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if sess.Step != models.StepPayment || sess.Tier == nil {
		return sess, nil, validationError(sess.Step, msgNotReady)
	}
	if sess.PurchaseID == "" {
		return sess, nil, sessionError(sess.Step)
	}
	if !s.CheckoutEnabled() {
		return sess, nil, ErrCheckoutDisabled
	}

	s.notify(ctx, sess, models.StepPayment)

	cs, err := s.checkout.CreateSession(ctx, service.CheckoutRequest{
		PurchaseID:      sess.PurchaseID,
		PricingTierName: sess.Tier.Name,
		SuccessURL:      s.successURL(),
		CancelURL:       s.cancelURL(sess),
	})
	if err != nil {
		if errors.Is(err, service.ErrPurchaseNotFound) {
			return sess, nil, sessionError(sess.Step)
		}
		s.logger.Warn("checkout session failed", zap.String("purchase_id", sess.PurchaseID), zap.Error(err))
		return sess, nil, collaboratorError(sess.Step, msgCheckoutFailed, err)
	}

	sess.CheckoutSessionID = cs.ID
	return sess, cs, s.save(ctx, sess)
}

func (s *Service) submitContact(ctx context.Context, sess *Session) error {
	if strings.TrimSpace(sess.CustomerName) == "" || strings.TrimSpace(sess.CustomerEmail) == "" {
		return validationError(sess.Step, msgRequiredFields)
	}
	if !validation.IsContactEmail(sess.CustomerEmail) {
		return validationError(sess.Step, msgInvalidEmail)
	}

	id, err := s.purchases.Create(ctx, sess.contact())
	if err != nil {
		s.logger.Warn("failed to create purchase", zap.String("session_id", sess.ID), zap.Error(err))
		return collaboratorError(sess.Step, msgCreateFailed, err)
	}
	sess.PurchaseID = id
	s.notify(ctx, sess, models.StepContactInfo)
	return nil
}

func (s *Service) submitBusiness(ctx context.Context, sess *Session) error {
	if sess.CompanyName == "" || sess.EntityType == "" || sess.SyncFrequency == "" || sess.DataVolume == "" {
		return validationError(sess.Step, msgRequiredFields)
	}
	if sess.Tier == nil {
		return validationError(sess.Step, msgNoTier)
	}
	if sess.PurchaseID == "" {
		return sessionError(sess.Step)
	}

	if err := s.purchases.Update(ctx, sess.PurchaseID, sess.business()); err != nil {
		return s.updateError(sess, msgBusinessFailed, err)
	}
	s.notify(ctx, sess, models.StepBusinessDetails)
	return nil
}

func (s *Service) submitTerms(ctx context.Context, sess *Session) error {
	if !sess.TermsAccepted {
		return validationError(sess.Step, msgTermsRequired)
	}
	if sess.PurchaseID == "" {
		return sessionError(sess.Step)
	}

	at := s.now()
	if err := s.purchases.Update(ctx, sess.PurchaseID, models.TermsAcceptance{AcceptedAt: at}); err != nil {
		return s.updateError(sess, msgTermsFailed, err)
	}
	sess.TermsAcceptedAt = &at
	s.notify(ctx, sess, models.StepTerms)
	return nil
}

func (s *Service) updateError(sess *Session, msg string, err error) error {
	if errors.Is(err, service.ErrPurchaseNotFound) {
		return sessionError(sess.Step)
	}
	var verr *service.ValidationError
	if errors.As(err, &verr) {
		return validationError(sess.Step, verr.Message)
	}
	s.logger.Warn("failed to update purchase",
		zap.String("purchase_id", sess.PurchaseID),
		zap.Int("step", sess.Step),
		zap.Error(err),
	)
	return collaboratorError(sess.Step, msg, err)
}

// notify never blocks advancement; the notifier logs its own failures
func (s *Service) notify(ctx context.Context, sess *Session, step int) {
	if s.notifier == nil {
		return
	}
	s.notifier.Send(ctx, sess.notification(step))
}

func (s *Service) save(ctx context.Context, sess *Session) error {
	sess.UpdatedAt = s.now()
	return s.store.Save(ctx, sess)
}

func (s *Service) successURL() string {
	return s.opts.PublicBaseURL + "/purchase-success?session_id=" + models.CheckoutSessionPlaceholder
}

func (s *Service) cancelURL(sess *Session) string {
	q := url.Values{}
	q.Set("hub", sess.HubVendorID)
	q.Set("spoke", sess.SpokeIntegrationID)
	q.Set("hubName", sess.HubVendorName)
	q.Set("spokeName", sess.SpokeIntegrationName)
	return s.opts.PublicBaseURL + "/purchase?" + q.Encode()
}

// editableAt reports whether in only carries fields owned by step
func editableAt(step int, in models.EditWizardRequest) bool {
	contact := in.CustomerName != nil || in.CustomerEmail != nil
	business := in.CompanyName != nil || in.EntityType != nil || in.SyncFrequency != nil ||
		in.DataVolume != nil || in.AdditionalNotes != nil
	terms := in.TermsAccepted != nil

	switch step {
	case models.StepContactInfo:
		return !business && !terms
	case models.StepBusinessDetails:
		return !contact && !terms
	case models.StepTerms:
		return !contact && !business
	default:
		return !contact && !business && !terms
	}
}

func assign(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
