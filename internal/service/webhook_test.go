package service

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/store"
)

func newTestWebhookService(t *testing.T) (*WebhookService, *store.AccountStore, string) {
	t.Helper()
	as := store.NewAccountStore()
	ws := store.NewWebhookStore()
	svc := NewWebhookService(ws, as, 5*time.Second, discardLogger)

	acctSvc := NewAccountService(as, ws, nil, nil, dec("1000"), discardLogger)
	acct, err := acctSvc.Create(CreateAccountRequest{})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return svc, as, acct.ID
}

// --- Upsert tests ---

func TestUpsert_Success_NewSubscriptions(t *testing.T) {
	svc, _, accountID := newTestWebhookService(t)

	webhooks, created, err := svc.Upsert(UpsertWebhookRequest{
		AccountID: accountID,
		URL:       "https://example.com/hooks",
		Events:    []string{"order.filled", "account.reset"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !created {
		t.Error("expected created=true for new subscriptions")
	}
	if len(webhooks) != 2 {
		t.Fatalf("got %d webhooks, want 2", len(webhooks))
	}
	if webhooks[0].Event != "order.filled" || webhooks[1].Event != "account.reset" {
		t.Errorf("events out of request order: %s, %s", webhooks[0].Event, webhooks[1].Event)
	}
	if !strings.HasPrefix(webhooks[0].WebhookID, "wh_") {
		t.Errorf("got webhook id %q, want wh_ prefix", webhooks[0].WebhookID)
	}
}

func TestUpsert_Success_UpdateExistingURL(t *testing.T) {
	svc, _, accountID := newTestWebhookService(t)

	first, _, err := svc.Upsert(UpsertWebhookRequest{
		AccountID: accountID,
		URL:       "https://example.com/old",
		Events:    []string{"order.filled"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	second, created, err := svc.Upsert(UpsertWebhookRequest{
		AccountID: accountID,
		URL:       "https://example.com/new",
		Events:    []string{"order.filled", "order.filled"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created {
		t.Error("expected created=false when updating")
	}
	if len(second) != 1 {
		t.Fatalf("duplicate events should be collapsed, got %d", len(second))
	}
	if second[0].WebhookID != first[0].WebhookID {
		t.Errorf("webhook id changed on update: %s -> %s", first[0].WebhookID, second[0].WebhookID)
	}
	if second[0].URL != "https://example.com/new" {
		t.Errorf("got URL %q, want the new URL", second[0].URL)
	}
}

func TestUpsert_Validation(t *testing.T) {
	tests := []struct {
		name   string
		url    string
		events []string
	}{
		{"empty url", "", []string{"order.filled"}},
		{"http scheme", "http://example.com/hooks", []string{"order.filled"}},
		{"relative url", "/hooks", []string{"order.filled"}},
		{"url too long", "https://example.com/" + strings.Repeat("a", 2048), []string{"order.filled"}},
		{"no events", "https://example.com/hooks", nil},
		{"unknown event", "https://example.com/hooks", []string{"trade.executed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, _, accountID := newTestWebhookService(t)
			_, _, err := svc.Upsert(UpsertWebhookRequest{AccountID: accountID, URL: tt.url, Events: tt.events})
			var ve *domain.ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("expected ValidationError, got %v", err)
			}
		})
	}
}

func TestUpsert_AccountNotFound(t *testing.T) {
	svc, _, _ := newTestWebhookService(t)
	_, _, err := svc.Upsert(UpsertWebhookRequest{
		AccountID: "missing",
		URL:       "https://example.com/hooks",
		Events:    []string{"order.filled"},
	})
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

// --- List / Delete tests ---

func TestList(t *testing.T) {
	svc, _, accountID := newTestWebhookService(t)

	list, err := svc.List(accountID)
	if err != nil || len(list) != 0 {
		t.Fatalf("expected empty list, got %v, %v", list, err)
	}

	svc.Upsert(UpsertWebhookRequest{AccountID: accountID, URL: "https://example.com/a", Events: []string{"order.filled"}})
	list, _ = svc.List(accountID)
	if len(list) != 1 {
		t.Fatalf("got %d webhooks, want 1", len(list))
	}

	if _, err := svc.List("missing"); !errors.Is(err, domain.ErrAccountNotFound) {
		t.Fatalf("expected ErrAccountNotFound, got %v", err)
	}
}

func TestDelete(t *testing.T) {
	svc, _, accountID := newTestWebhookService(t)
	webhooks, _, _ := svc.Upsert(UpsertWebhookRequest{AccountID: accountID, URL: "https://example.com/a", Events: []string{"order.filled"}})

	if err := svc.Delete(webhooks[0].WebhookID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := svc.Delete(webhooks[0].WebhookID); !errors.Is(err, domain.ErrWebhookNotFound) {
		t.Fatalf("expected ErrWebhookNotFound, got %v", err)
	}
}

// --- Dispatch tests ---

func TestDispatch_SendsPayloadAndHeaders(t *testing.T) {
	var mu sync.Mutex
	var received []map[string]interface{}
	var headers []http.Header
	done := make(chan struct{}, 1)

	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload map[string]interface{}
		json.Unmarshal(body, &payload)
		mu.Lock()
		received = append(received, payload)
		headers = append(headers, r.Header.Clone())
		mu.Unlock()
		w.WriteHeader(http.StatusOK)
		done <- struct{}{}
	}))
	defer server.Close()

	svc, _, accountID := newTestWebhookService(t)
	svc.client = server.Client()

	webhooks, _, err := svc.Upsert(UpsertWebhookRequest{
		AccountID: accountID,
		URL:       server.URL + "/hooks",
		Events:    []string{"account.reset"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	svc.Dispatch(domain.Event{
		Type:      domain.EventAccountReset,
		AccountID: accountID,
		Timestamp: time.Date(2026, 2, 16, 16, 29, 0, 0, time.UTC),
		Data:      map[string]string{"id": accountID},
	})
	// No subscription for this event: nothing is sent.
	svc.Dispatch(domain.Event{Type: domain.EventOrderFilled, AccountID: accountID})

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("webhook was not delivered")
	}
	time.Sleep(50 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()

	if len(received) != 1 {
		t.Fatalf("got %d requests, want 1", len(received))
	}
	payload := received[0]
	if payload["event"] != "account.reset" || payload["account_id"] != accountID {
		t.Errorf("unexpected payload %v", payload)
	}
	if payload["timestamp"] != "2026-02-16T16:29:00Z" {
		t.Errorf("got timestamp %v", payload["timestamp"])
	}

	h := headers[0]
	if h.Get("Content-Type") != "application/json" {
		t.Errorf("got Content-Type %q", h.Get("Content-Type"))
	}
	if h.Get("X-Webhook-Id") != webhooks[0].WebhookID {
		t.Errorf("got X-Webhook-Id %q, want %q", h.Get("X-Webhook-Id"), webhooks[0].WebhookID)
	}
	if h.Get("X-Event-Type") != "account.reset" {
		t.Errorf("got X-Event-Type %q", h.Get("X-Event-Type"))
	}
	if h.Get("X-Delivery-Id") == "" {
		t.Error("missing X-Delivery-Id")
	}
}

func TestDispatch_FailureDoesNotPanic(t *testing.T) {
	server := httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	server.Close()

	svc, _, accountID := newTestWebhookService(t)
	svc.client = server.Client()
	svc.Upsert(UpsertWebhookRequest{AccountID: accountID, URL: server.URL, Events: []string{"order.filled"}})

	svc.Dispatch(domain.Event{Type: domain.EventOrderFilled, AccountID: accountID})
	time.Sleep(100 * time.Millisecond)
}
