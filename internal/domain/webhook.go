package domain

import "time"

// Webhook events emitted by the ledger.
const (
	EventOrderFilled    = "order.filled"
	EventAccountReset   = "account.reset"
	EventAccountUpdated = "account.updated"
)

// Webhook represents an account's subscription to an event notification.
type Webhook struct {
	WebhookID string
	AccountID string
	Event     string
	URL       string
	CreatedAt time.Time
	UpdatedAt time.Time
}
