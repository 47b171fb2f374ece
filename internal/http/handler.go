package http

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/wenwu/saas-platform/marketplace-service/internal/catalog"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/notification"
	"github.com/wenwu/saas-platform/marketplace-service/internal/service"
	"go.uber.org/zap"
)

const maxWebhookBody = 64 << 10

type Handler struct {
	catalog         *catalog.Provider
	purchaseService *service.PurchaseService
	checkoutService *service.CheckoutService
	notifier        *notification.Notifier
	logger          *zap.Logger
}

func NewHandler(
	provider *catalog.Provider,
	purchaseService *service.PurchaseService,
	checkoutService *service.CheckoutService,
	notifier *notification.Notifier,
	logger *zap.Logger,
) *Handler {
	return &Handler{
		catalog:         provider,
		purchaseService: purchaseService,
		checkoutService: checkoutService,
		notifier:        notifier,
		logger:          logger,
	}
}

// ==================== Catalog Handlers ====================

// GetHubVendor returns the hub vendor with its full integration list
func (h *Handler) GetHubVendor(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.HubVendor())
}

// ListIntegrations returns the lightweight listing, optionally filtered by q and category
func (h *Handler) ListIntegrations(c *gin.Context) {
	q := c.Query("q")
	category := c.Query("category")
	if q == "" && category == "" {
		c.JSON(http.StatusOK, h.catalog.SpokeIntegrationsList())
		return
	}
	c.JSON(http.StatusOK, h.catalog.Search(q, category))
}

// ListIntegrationsFull returns every integration with all fields
func (h *Handler) ListIntegrationsFull(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.SpokeIntegrations())
}

func (h *Handler) GetIntegration(c *gin.Context) {
	spoke, ok := h.catalog.SpokeIntegration(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "integration not found"})
		return
	}
	c.JSON(http.StatusOK, spoke)
}

func (h *Handler) GetRelatedIntegrations(c *gin.Context) {
	limit := catalog.DefaultRelatedLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
		limit = n
	}
	c.JSON(http.StatusOK, h.catalog.RelatedIntegrations(c.Param("id"), limit))
}

func (h *Handler) GetCategories(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Categories())
}

func (h *Handler) GetBranding(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Branding())
}

func (h *Handler) GetPricing(c *gin.Context) {
	c.JSON(http.StatusOK, h.catalog.Pricing())
}

// ==================== Purchase Handlers ====================

// CreatePurchase writes the phase 1 record
func (h *Handler) CreatePurchase(c *gin.Context) {
	var req models.ContactDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	id, err := h.purchaseService.Create(c.Request.Context(), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, models.CreatePurchaseResponse{Success: true, PurchaseID: id})
}

func (h *Handler) GetPurchase(c *gin.Context) {
	p, err := h.purchaseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPurchaseResponse(p))
}

// UpdateBusinessDetails writes the phase 2 columns
func (h *Handler) UpdateBusinessDetails(c *gin.Context) {
	var req models.UpdateBusinessRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	details := models.BusinessDetails{
		CompanyName:     req.CompanyName,
		EntityType:      req.EntityType,
		SyncFrequency:   req.SyncFrequency,
		DataVolume:      req.DataVolume,
		PricingTierID:   req.PricingTier,
		AdditionalNotes: req.AdditionalNotes,
	}
	if req.PaymentAmount != "" {
		amount, err := decimal.NewFromString(req.PaymentAmount)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "payment_amount must be a decimal number"})
			return
		}
		details.PaymentAmount = amount
	}

	if err := h.purchaseService.Update(c.Request.Context(), c.Param("id"), details); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// UpdateTerms writes the phase 3 columns
func (h *Handler) UpdateTerms(c *gin.Context) {
	var req models.UpdateTermsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.TermsAccepted {
		c.JSON(http.StatusBadRequest, gin.H{"error": "terms must be accepted"})
		return
	}

	at := time.Now().UTC()
	if req.TermsAcceptedAt != nil {
		at = req.TermsAcceptedAt.UTC()
	}

	if err := h.purchaseService.Update(c.Request.Context(), c.Param("id"), models.TermsAcceptance{AcceptedAt: at}); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ==================== Checkout Handlers ====================

func (h *Handler) CreateCheckoutSession(c *gin.Context) {
	var req models.CreateCheckoutSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	session, err := h.checkoutService.CreateSession(c.Request.Context(), service.CheckoutRequest{
		PurchaseID:      req.PurchaseID,
		PricingTierName: req.PricingTierName,
		SuccessURL:      req.SuccessURL,
		CancelURL:       req.CancelURL,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.CreateCheckoutSessionResponse{SessionID: session.ID, URL: session.URL})
}

func (h *Handler) GetCheckoutSession(c *gin.Context) {
	session, err := h.checkoutService.GetSession(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// CheckoutWebhook receives payment processor events
func (h *Handler) CheckoutWebhook(c *gin.Context) {
	payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxWebhookBody))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unreadable webhook body"})
		return
	}

	event, err := h.checkoutService.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		if errors.Is(err, service.ErrInvalidWebhook) {
			h.logger.Warn("rejected payment webhook", zap.Error(err))
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid webhook signature"})
			return
		}
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "type": event.Type})
}

// ==================== Notification Handlers ====================

// SendPurchaseNotification reports a completed step to the operator
func (h *Handler) SendPurchaseNotification(c *gin.Context) {
	var req models.StepNotification
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	ok := h.notifier.Send(c.Request.Context(), req)
	c.JSON(http.StatusOK, models.SendNotificationResponse{Success: ok})
}

// respondError maps service errors onto status codes
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message})
	case errors.Is(err, service.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "purchase not found"})
	case errors.Is(err, service.ErrCheckoutUnavailable):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "checkout is not configured"})
	default:
		logger.Error("request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"error": "upstream service failed, please try again"})
	}
}
