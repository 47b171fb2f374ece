package notification

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"github.com/wenwu/saas-platform/marketplace-service/internal/repository"
	"github.com/wenwu/saas-platform/marketplace-service/internal/validation"
	"go.uber.org/zap"
)

// Notifier formats and delivers step notifications. Delivery failures are
// logged and reported as false, never as errors.
type Notifier struct {
	formatter *Formatter
	sender    Sender
	purchases repository.PurchaseRepository
	events    repository.PurchaseEventRepository
	validate  *validator.Validate
	logger    *zap.Logger
}

func NewNotifier(
	formatter *Formatter,
	sender Sender,
	purchases repository.PurchaseRepository,
	events repository.PurchaseEventRepository,
	logger *zap.Logger,
) *Notifier {
	return &Notifier{
		formatter: formatter,
		sender:    sender,
		purchases: purchases,
		events:    events,
		validate:  validation.New(),
		logger:    logger.Named("notification"),
	}
}

// Send reports whether the notification for one step was delivered
func (n *Notifier) Send(ctx context.Context, note models.StepNotification) bool {
	log := n.logger.With(zap.String("purchase_id", note.PurchaseID), zap.Int("step", note.Step))

	if err := n.validate.StructPartial(note, "PurchaseID", "Step"); err != nil {
		log.Warn("invalid step notification", zap.String("reason", validation.Message(err)))
		return false
	}

	msg := n.formatter.Format(note)
	meta := map[string]interface{}{"step": note.Step, "title": msg.Title}

	if err := n.sender.Send(ctx, msg); err != nil {
		log.Warn("failed to send step notification", zap.Error(err))
		n.logEvent(ctx, note.PurchaseID, models.EventStatusFailed, err.Error(), meta)
		return false
	}

	if err := n.purchases.MarkNotificationSent(ctx, note.PurchaseID); err != nil {
		log.Warn("failed to flag notification as sent", zap.Error(err))
	}
	n.logEvent(ctx, note.PurchaseID, models.EventStatusSuccess, "notification sent", meta)
	log.Info("step notification sent")
	return true
}

func (n *Notifier) logEvent(ctx context.Context, purchaseID, status, message string, meta map[string]interface{}) {
	err := n.events.LogActionWithMetadata(ctx, purchaseID, models.EventActionNotification, status, message, meta)
	if err != nil {
		n.logger.Warn("failed to record notification event", zap.String("purchase_id", purchaseID), zap.Error(err))
	}
}
