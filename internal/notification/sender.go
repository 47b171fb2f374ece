package notification

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"

	"github.com/wenwu/saas-platform/marketplace-service/internal/client"
	"github.com/wenwu/saas-platform/marketplace-service/internal/config"
	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
	"go.uber.org/zap"
)

// Sender delivers a formatted notification
type Sender interface {
	Send(ctx context.Context, msg *models.NotificationMessage) error
}

// NewSender picks the delivery channel from configuration: SMTP when a host and
// recipient are set, then the webhook, then the log.
func NewSender(cfg config.NotificationConfig, logger *zap.Logger) Sender {
	switch {
	case cfg.SMTP.Host != "" && cfg.Recipient != "":
		return NewSMTPSender(cfg.SMTP, cfg.Recipient)
	case cfg.WebhookURL != "":
		return NewWebhookSender(client.NewNotifyClient(cfg.WebhookURL))
	default:
		return NewLogSender(logger)
	}
}

type sendMailFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPSender mails notifications to the operator's inbox
type SMTPSender struct {
	cfg       config.SMTPConfig
	recipient string
	sendMail  sendMailFunc
}

func NewSMTPSender(cfg config.SMTPConfig, recipient string) *SMTPSender {
	return &SMTPSender{cfg: cfg, recipient: recipient, sendMail: smtp.SendMail}
}

func (s *SMTPSender) Send(ctx context.Context, msg *models.NotificationMessage) error {
	if s.recipient == "" {
		return errors.New("notification recipient is not configured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	sender := s.cfg.Sender
	if sender == "" {
		sender = "no-reply@" + s.cfg.Host
	}

	var auth smtp.Auth
	if s.cfg.Username != "" && s.cfg.Password != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	body := []byte(
		fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n", sender, s.recipient, msg.Title) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/plain; charset=UTF-8\r\n\r\n" +
			strings.ReplaceAll(msg.Body, "\n", "\r\n"),
	)

	addr := s.cfg.Host + ":" + s.cfg.Port
	if err := s.sendMail(addr, auth, sender, []string{s.recipient}, body); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// WebhookSender forwards notifications to an HTTP endpoint
type WebhookSender struct {
	client *client.NotifyClient
}

func NewWebhookSender(c *client.NotifyClient) *WebhookSender {
	return &WebhookSender{client: c}
}

func (s *WebhookSender) Send(ctx context.Context, msg *models.NotificationMessage) error {
	return s.client.Deliver(ctx, msg)
}

// LogSender writes notifications to the service log
type LogSender struct {
	logger *zap.Logger
}

func NewLogSender(logger *zap.Logger) *LogSender {
	return &LogSender{logger: logger}
}

func (s *LogSender) Send(ctx context.Context, msg *models.NotificationMessage) error {
	s.logger.Info(msg.Title,
		zap.String("purchase_id", msg.PurchaseID),
		zap.Int("step", msg.Step),
		zap.String("body", msg.Body),
	)
	return nil
}
