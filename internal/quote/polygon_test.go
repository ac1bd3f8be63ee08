package quote

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	polygonrest "github.com/polygon-io/client-go/rest"
	"github.com/shopspring/decimal"
)

func newTestPolygon(t *testing.T, h http.HandlerFunc) *Polygon {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	// Route the SDK's requests to the test server.
	client := &http.Client{
		Timeout:   5 * time.Second,
		Transport: rewriteTransport{target: srv.URL},
	}
	return &Polygon{rest: polygonrest.NewWithClient("test-key", client)}
}

type rewriteTransport struct {
	target string
}

func (rt rewriteTransport) RoundTrip(r *http.Request) (*http.Response, error) {
	u := *r.URL
	target := strings.TrimPrefix(rt.target, "http://")
	u.Scheme = "http"
	u.Host = target
	r2 := r.Clone(r.Context())
	r2.URL = &u
	r2.Host = target
	return http.DefaultTransport.RoundTrip(r2)
}

func TestPolygon_Quote(t *testing.T) {
	p := newTestPolygon(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v2/last/trade/AAPL") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","request_id":"r1","results":{"T":"AAPL","p":189.5,"s":10,"t":1700000000000000000}}`))
	})

	q, err := p.Quote(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !q.Price.Equal(decimal.RequireFromString("189.5")) {
		t.Fatalf("price = %s, want 189.5", q.Price)
	}
	if q.Source != "polygon" || q.AsOf.IsZero() {
		t.Fatalf("unexpected quote %+v", q)
	}
}

func TestPolygon_QuoteWithoutTrade(t *testing.T) {
	p := newTestPolygon(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","request_id":"r1","results":{}}`))
	})

	if _, err := p.Quote(context.Background(), "ZZZ"); !errors.Is(err, ErrUnknownSymbol) {
		t.Fatalf("expected ErrUnknownSymbol, got %v", err)
	}
}

func TestPolygon_Name(t *testing.T) {
	p := newTestPolygon(t, func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, "/v3/reference/tickers/AAPL") {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"OK","request_id":"r2","results":{"ticker":"AAPL","name":"Apple Inc."}}`))
	})

	name, err := p.Name(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != "Apple Inc." {
		t.Fatalf("name = %q, want Apple Inc.", name)
	}
}
