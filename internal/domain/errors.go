package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrAccountNotFound         = errors.New("account_not_found")
	ErrAccountAlreadyExists    = errors.New("account_already_exists")
	ErrInsufficientBuyingPower = errors.New("insufficient_buying_power")
	ErrInsufficientShares      = errors.New("insufficient_shares")
	ErrNoSuchPosition          = errors.New("no_such_position")
	ErrPriceUnavailable        = errors.New("price_unavailable")
	ErrCannotDeleteActive      = errors.New("cannot_delete_active")
	ErrCannotDeleteOnlyAccount = errors.New("cannot_delete_only_account")
	ErrWebhookNotFound         = errors.New("webhook_not_found")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
