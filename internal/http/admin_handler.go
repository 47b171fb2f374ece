package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/service"
	"go.uber.org/zap"
)

const maxAdminLimit = 500

var errInvalidLimit = errors.New("limit must be a non-negative integer")

// AdminHandler serves the operator's purchase browser
type AdminHandler struct {
	purchaseService *service.PurchaseService
	logger          *zap.Logger
}

func NewAdminHandler(purchaseService *service.PurchaseService, logger *zap.Logger) *AdminHandler {
	return &AdminHandler{
		purchaseService: purchaseService,
		logger:          logger,
	}
}

// ListPurchases GET /api/admin/purchases?status=&email=&limit=
func (h *AdminHandler) ListPurchases(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	purchases, err := h.purchaseService.List(c.Request.Context(), models.PurchaseFilter{
		PaymentStatus: c.Query("status"),
		CustomerEmail: c.Query("email"),
		Limit:         limit,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]*models.PurchaseResponse, 0, len(purchases))
	for _, p := range purchases {
		out = append(out, models.NewPurchaseResponse(p))
	}
	c.JSON(http.StatusOK, gin.H{
		"purchases": out,
		"count":     len(out),
	})
}

func (h *AdminHandler) GetPurchase(c *gin.Context) {
	p, err := h.purchaseService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, models.NewPurchaseResponse(p))
}

// ListPurchaseEvents returns the audit trail of one purchase
func (h *AdminHandler) ListPurchaseEvents(c *gin.Context) {
	limit, err := parseLimit(c.Query("limit"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	events, err := h.purchaseService.Events(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	out := make([]models.PurchaseEventInfo, 0, len(events))
	for _, e := range events {
		out = append(out, models.NewPurchaseEventInfo(e))
	}
	c.JSON(http.StatusOK, gin.H{"events": out})
}

func parseLimit(raw string) (int, error) {
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errInvalidLimit
	}
	if n > maxAdminLimit {
		n = maxAdminLimit
	}
	return n, nil
}
