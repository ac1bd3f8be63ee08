package quote

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

type countingSource struct {
	calls atomic.Int32
	price decimal.Decimal
	err   error
}

func (c *countingSource) Quote(_ context.Context, symbol string) (Quote, error) {
	c.calls.Add(1)
	if c.err != nil {
		return Quote{}, c.err
	}
	return Quote{Symbol: symbol, Price: c.price}, nil
}

type countingDirectory struct {
	calls atomic.Int32
	err   error
}

func (c *countingDirectory) Name(_ context.Context, symbol string) (string, error) {
	c.calls.Add(1)
	if c.err != nil {
		return "", c.err
	}
	return symbol + " Corp", nil
}

func TestCached_ReusesFreshQuotes(t *testing.T) {
	src := &countingSource{price: decimal.NewFromInt(100)}
	c := NewCached(src, time.Minute)
	now := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if _, err := c.Quote(ctx, "AAPL"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if n := src.calls.Load(); n != 1 {
		t.Fatalf("expected 1 upstream call, got %d", n)
	}

	now = now.Add(time.Minute)
	src.price = decimal.NewFromInt(101)
	q, _ := c.Quote(ctx, "AAPL")
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("expected refetch after ttl, got %d calls", n)
	}
	if !q.Price.Equal(decimal.NewFromInt(101)) {
		t.Fatalf("expected refreshed price 101, got %s", q.Price)
	}
}

func TestCached_DoesNotCacheErrors(t *testing.T) {
	boom := errors.New("boom")
	src := &countingSource{err: boom}
	c := NewCached(src, time.Minute)

	for i := 0; i < 2; i++ {
		if _, err := c.Quote(context.Background(), "AAPL"); !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
	}
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("expected errors to be retried, got %d calls", n)
	}
}

func TestCached_ZeroTTLPassesThrough(t *testing.T) {
	src := &countingSource{price: decimal.NewFromInt(1)}
	c := NewCached(src, 0)
	c.Quote(context.Background(), "AAPL")
	c.Quote(context.Background(), "AAPL")
	if n := src.calls.Load(); n != 2 {
		t.Fatalf("expected 2 upstream calls, got %d", n)
	}
}

func TestNames_CachesSuccessOnly(t *testing.T) {
	dir := &countingDirectory{}
	n := NewNames(dir)

	for i := 0; i < 2; i++ {
		name, err := n.Name(context.Background(), "AAPL")
		if err != nil || name != "AAPL Corp" {
			t.Fatalf("got %q, %v", name, err)
		}
	}
	if c := dir.calls.Load(); c != 1 {
		t.Fatalf("expected 1 lookup, got %d", c)
	}

	failing := NewNames(&countingDirectory{err: ErrUnknownSymbol})
	if _, err := failing.Name(context.Background(), "ZZZ"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestCall_HonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	release := make(chan struct{})
	defer close(release)

	cancel()
	_, err := call(ctx, func() (int, error) {
		<-release
		return 1, nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}

	v, err := call(context.Background(), func() (int, error) { return 7, nil })
	if err != nil || v != 7 {
		t.Fatalf("got %d, %v", v, err)
	}
}
