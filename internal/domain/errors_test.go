package domain

import (
	"errors"
	"fmt"
	"testing"
)

func TestValidationError_Error(t *testing.T) {
	err := &ValidationError{Message: "quantity must be > 0"}
	if err.Error() != "quantity must be > 0" {
		t.Errorf("Error() = %q, want %q", err.Error(), "quantity must be > 0")
	}
}

func TestValidationError_As(t *testing.T) {
	wrapped := fmt.Errorf("execute order: %w", &ValidationError{Message: "symbol is required"})

	var vErr *ValidationError
	if !errors.As(wrapped, &vErr) {
		t.Fatal("errors.As should find the wrapped ValidationError")
	}
	if vErr.Message != "symbol is required" {
		t.Errorf("Message = %q, want %q", vErr.Message, "symbol is required")
	}
}

func TestSentinelErrors_AreDistinct(t *testing.T) {
	errs := []error{
		ErrAccountNotFound,
		ErrAccountAlreadyExists,
		ErrInsufficientBuyingPower,
		ErrInsufficientShares,
		ErrNoSuchPosition,
		ErrPriceUnavailable,
		ErrCannotDeleteActive,
		ErrCannotDeleteOnlyAccount,
		ErrWebhookNotFound,
	}
	for i := 0; i < len(errs); i++ {
		for j := i + 1; j < len(errs); j++ {
			if errors.Is(errs[i], errs[j]) {
				t.Errorf("sentinel errors %d and %d should be distinct", i, j)
			}
		}
	}
}
