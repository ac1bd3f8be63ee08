package domain

import "time"

// Event is a committed account change, published to stream subscribers
// and webhook receivers.
type Event struct {
	Type      string    `json:"event"`
	AccountID string    `json:"account_id"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// OrderFilledData is the payload of an order.filled event.
type OrderFilledData struct {
	Order   Order    `json:"order"`
	Account *Account `json:"account"`
}
