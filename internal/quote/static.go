package quote

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/shopspring/decimal"
)

// Static serves prices from a fixed table. It is used offline and in
// tests. Prices can be changed at runtime with Set.
type Static struct {
	mu     sync.RWMutex
	prices map[string]decimal.Decimal
	names  map[string]string
}

var _ Provider = (*Static)(nil)

// NewStatic creates a Static provider with a copy of prices.
func NewStatic(prices map[string]decimal.Decimal) *Static {
	s := &Static{
		prices: make(map[string]decimal.Decimal, len(prices)),
		names:  make(map[string]string),
	}
	for sym, p := range prices {
		s.prices[domain.NormalizeSymbol(sym)] = p
	}
	return s
}

// ParseStatic parses a table of the form "AAPL=189.5,MSFT=410".
// Empty input yields an empty table.
func ParseStatic(s string) (map[string]decimal.Decimal, error) {
	prices := make(map[string]decimal.Decimal)
	for _, entry := range strings.Split(s, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		sym, raw, ok := strings.Cut(entry, "=")
		if !ok {
			return nil, fmt.Errorf("invalid quote entry %q: want SYMBOL=PRICE", entry)
		}
		sym = domain.NormalizeSymbol(sym)
		if !domain.ValidSymbol(sym) {
			return nil, fmt.Errorf("invalid quote entry %q: bad symbol", entry)
		}
		price, err := decimal.NewFromString(strings.TrimSpace(raw))
		if err != nil || !price.IsPositive() {
			return nil, fmt.Errorf("invalid quote entry %q: price must be a positive number", entry)
		}
		prices[sym] = price
	}
	return prices, nil
}

// Set changes the price of a symbol.
func (s *Static) Set(symbol string, price decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.prices[domain.NormalizeSymbol(symbol)] = price
}

// SetName records a display name for a symbol.
func (s *Static) SetName(symbol, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.names[domain.NormalizeSymbol(symbol)] = name
}

// Quote returns the table price for symbol.
func (s *Static) Quote(ctx context.Context, symbol string) (Quote, error) {
	if err := ctx.Err(); err != nil {
		return Quote{}, err
	}
	s.mu.RLock()
	price, ok := s.prices[symbol]
	s.mu.RUnlock()
	if !ok {
		return Quote{}, fmt.Errorf("static quote %s: %w", symbol, ErrUnknownSymbol)
	}
	return Quote{Symbol: symbol, Price: price, AsOf: time.Now().UTC(), Source: "static"}, nil
}

// Name returns the recorded display name for symbol.
func (s *Static) Name(_ context.Context, symbol string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	name, ok := s.names[symbol]
	if !ok {
		return "", ErrUnknownSymbol
	}
	return name, nil
}
