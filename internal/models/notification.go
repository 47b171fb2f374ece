package models

import "time"

// NotificationMessage is a formatted step notification ready for delivery
type NotificationMessage struct {
	PurchaseID string    `json:"purchase_id"`
	Step       int       `json:"step"`
	Recipient  string    `json:"recipient,omitempty"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	SentAt     time.Time `json:"sent_at"`
}
