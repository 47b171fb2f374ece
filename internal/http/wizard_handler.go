package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/wizard"
	"go.uber.org/zap"
)

type WizardHandler struct {
	wizard *wizard.Service
	logger *zap.Logger
}

func NewWizardHandler(w *wizard.Service, logger *zap.Logger) *WizardHandler {
	return &WizardHandler{wizard: w, logger: logger}
}

// Start opens a wizard session for the chosen integration
func (h *WizardHandler) Start(c *gin.Context) {
	var req models.StartWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.wizard.Start(c.Request.Context(), wizard.StartRequest{
		HubVendorID:          req.HubVendorID,
		HubVendorName:        req.HubVendorName,
		SpokeIntegrationID:   req.SpokeIntegrationID,
		SpokeIntegrationName: req.SpokeIntegrationName,
	})
	if err != nil {
		h.respondError(c, sess, err)
		return
	}
	c.JSON(http.StatusCreated, h.wizard.View(sess))
}

func (h *WizardHandler) Get(c *gin.Context) {
	sess, err := h.wizard.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, nil, err)
		return
	}
	c.JSON(http.StatusOK, h.wizard.View(sess))
}

// Edit merges form input without advancing
func (h *WizardHandler) Edit(c *gin.Context) {
	var req models.EditWizardRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sess, err := h.wizard.Edit(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		h.respondError(c, sess, err)
		return
	}
	c.JSON(http.StatusOK, h.wizard.View(sess))
}

func (h *WizardHandler) Next(c *gin.Context) {
	sess, err := h.wizard.Next(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, sess, err)
		return
	}
	c.JSON(http.StatusOK, h.wizard.View(sess))
}

func (h *WizardHandler) Back(c *gin.Context) {
	sess, err := h.wizard.Back(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, sess, err)
		return
	}
	c.JSON(http.StatusOK, h.wizard.View(sess))
}

// Checkout returns the payment redirect for a session on the last step
func (h *WizardHandler) Checkout(c *gin.Context) {
	sess, cs, err := h.wizard.Checkout(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, sess, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"session":  h.wizard.View(sess),
		"checkout": models.CreateCheckoutSessionResponse{SessionID: cs.ID, URL: cs.URL},
	})
}

func (h *WizardHandler) respondError(c *gin.Context, sess *wizard.Session, err error) {
	var stepErr *wizard.StepError
	switch {
	case errors.Is(err, wizard.ErrSessionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "wizard session not found or expired, please start over"})
	case errors.Is(err, wizard.ErrCheckoutDisabled):
		body := gin.H{"error": err.Error()}
		if sess != nil {
			view := h.wizard.View(sess)
			body["error"] = view.CheckoutMessage
			body["session"] = view
		}
		c.JSON(http.StatusServiceUnavailable, body)
	case errors.As(err, &stepErr):
		body := gin.H{
			"error": stepErr.Message,
			"kind":  stepErr.Kind,
			"step":  stepErr.Step,
		}
		if sess != nil {
			body["session"] = h.wizard.View(sess)
		}
		c.JSON(stepStatus(stepErr.Kind), body)
	default:
		h.logger.Error("wizard request failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

func stepStatus(kind wizard.ErrorKind) int {
	switch kind {
	case wizard.KindValidation:
		return http.StatusUnprocessableEntity
	case wizard.KindSession:
		return http.StatusConflict
	default:
		return http.StatusBadGateway
	}
}
