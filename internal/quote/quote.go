// Package quote provides execution prices and symbol metadata from
// external market data providers.
package quote

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrUnknownSymbol is returned when a provider has nothing for a symbol.
var ErrUnknownSymbol = errors.New("unknown_symbol")

// Quote is the latest trade price observed for a symbol.
type Quote struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   time.Time       `json:"as_of"`
	Source string          `json:"source"`
}

// Source returns the current price of a symbol.
type Source interface {
	Quote(ctx context.Context, symbol string) (Quote, error)
}

// Directory resolves the display name of a symbol.
type Directory interface {
	Name(ctx context.Context, symbol string) (string, error)
}

// Provider is a Source that can also resolve symbol names.
type Provider interface {
	Source
	Directory
}

// validPrice rejects the zero and negative prices some providers return
// for symbols with no trades.
func validPrice(symbol string, p decimal.Decimal) error {
	if !p.IsPositive() {
		return fmt.Errorf("no positive last trade for %s: %w", symbol, ErrUnknownSymbol)
	}
	return nil
}

// call runs fn in its own goroutine so that SDK calls without context
// support still honor ctx cancellation.
func call[T any](ctx context.Context, fn func() (T, error)) (T, error) {
	type result struct {
		v   T
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := fn()
		ch <- result{v, err}
	}()
	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}
