package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/wenwu/saas-platform/marketplace-service/internal/models"
)

// NotifyClient posts step notifications to an operator webhook (chat, ticketing, mail relay)
type NotifyClient struct {
	webhookURL string
	httpClient *http.Client
}

// NewNotifyClient creates a new notification webhook client
func NewNotifyClient(webhookURL string) *NotifyClient {
	return &NotifyClient{
		webhookURL: webhookURL,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Deliver sends one formatted notification as JSON
func (c *NotifyClient) Deliver(ctx context.Context, msg *models.NotificationMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal notification: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("notification webhook returned status %d", resp.StatusCode)
	}
	return nil
}
