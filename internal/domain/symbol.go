package domain

import (
	"regexp"
	"strings"
	"sync"
)

var symbolRegex = regexp.MustCompile(`^[A-Z][A-Z0-9.]{0,9}$`)

// NormalizeSymbol upper-cases and trims a ticker symbol.
func NormalizeSymbol(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// ValidSymbol reports whether a normalized symbol looks like a ticker.
func ValidSymbol(s string) bool {
	return symbolRegex.MatchString(s)
}

// SymbolDirectory caches display names for symbols in a thread-safe
// manner. Names are cosmetic and only consulted when opening a position.
type SymbolDirectory struct {
	mu    sync.RWMutex
	names map[string]string
}

// NewSymbolDirectory creates an empty SymbolDirectory.
func NewSymbolDirectory() *SymbolDirectory {
	return &SymbolDirectory{
		names: make(map[string]string),
	}
}

// Register records the display name of a symbol. Safe for concurrent use.
func (d *SymbolDirectory) Register(symbol, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.names[symbol] = name
}

// Name returns the cached display name. Safe for concurrent use.
func (d *SymbolDirectory) Name(symbol string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	name, ok := d.names[symbol]
	return name, ok
}
