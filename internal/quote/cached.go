package quote

import (
	"context"
	"sync"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
)

type cacheEntry struct {
	quote     Quote
	fetchedAt time.Time
}

// Cached wraps a Source and reuses quotes younger than ttl. Failed
// lookups are not cached.
type Cached struct {
	src Source
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewCached wraps src. A non-positive ttl disables caching.
func NewCached(src Source, ttl time.Duration) *Cached {
	return &Cached{
		src:     src,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

// Quote returns a cached quote when fresh, otherwise asks the wrapped source.
func (c *Cached) Quote(ctx context.Context, symbol string) (Quote, error) {
	if c.ttl <= 0 {
		return c.src.Quote(ctx, symbol)
	}

	c.mu.Lock()
	e, ok := c.entries[symbol]
	c.mu.Unlock()
	if ok && c.now().Sub(e.fetchedAt) < c.ttl {
		return e.quote, nil
	}

	q, err := c.src.Quote(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	c.mu.Lock()
	c.entries[symbol] = cacheEntry{quote: q, fetchedAt: c.now()}
	c.mu.Unlock()
	return q, nil
}

// Names resolves symbol names through a Directory and remembers every
// successful answer for the life of the process.
type Names struct {
	dir   Directory
	cache *domain.SymbolDirectory
}

// NewNames wraps dir with a name cache.
func NewNames(dir Directory) *Names {
	return &Names{dir: dir, cache: domain.NewSymbolDirectory()}
}

// Name returns the cached name or asks the wrapped directory.
func (n *Names) Name(ctx context.Context, symbol string) (string, error) {
	if name, ok := n.cache.Name(symbol); ok {
		return name, nil
	}
	name, err := n.dir.Name(ctx, symbol)
	if err != nil {
		return "", err
	}
	n.cache.Register(symbol, name)
	return name, nil
}
