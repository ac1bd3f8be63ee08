package store

import (
	"sort"
	"sync"

	"github.com/efreitasn/simledger/internal/domain"
)

// WebhookStore is a thread-safe in-memory store for webhooks.
// Primary index: webhook_id → webhook.
// Secondary index: account_id → event → webhook.
// Lookups return copies; stored subscriptions are only changed under mu.
type WebhookStore struct {
	mu        sync.RWMutex
	webhooks  map[string]*domain.Webhook            // webhook_id → webhook
	byAccount map[string]map[string]*domain.Webhook // account_id → event → webhook
}

// NewWebhookStore creates an empty WebhookStore.
func NewWebhookStore() *WebhookStore {
	return &WebhookStore{
		webhooks:  make(map[string]*domain.Webhook),
		byAccount: make(map[string]map[string]*domain.Webhook),
	}
}

// Upsert inserts or updates a subscription keyed by (account_id, event).
// An existing subscription keeps its webhook_id and only has URL and
// UpdatedAt refreshed when the URL changed. It returns the stored
// subscription and whether it was newly created.
func (s *WebhookStore) Upsert(w *domain.Webhook) (domain.Webhook, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.byAccount[w.AccountID][w.Event]; ok {
		if existing.URL != w.URL {
			existing.URL = w.URL
			existing.UpdatedAt = w.UpdatedAt
		}
		return *existing, false
	}

	stored := *w
	s.webhooks[stored.WebhookID] = &stored
	if s.byAccount[stored.AccountID] == nil {
		s.byAccount[stored.AccountID] = make(map[string]*domain.Webhook)
	}
	s.byAccount[stored.AccountID][stored.Event] = &stored
	return stored, true
}

// Get retrieves a webhook by ID. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Get(id string) (domain.Webhook, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.Webhook{}, domain.ErrWebhookNotFound
	}
	return *w, nil
}

// ListByAccount returns an account's subscriptions ordered by event name.
// Returns an empty slice if the account has none.
func (s *WebhookStore) ListByAccount(accountID string) []domain.Webhook {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.byAccount[accountID]
	result := make([]domain.Webhook, 0, len(events))
	for _, w := range events {
		result = append(result, *w)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Event < result[j].Event })
	return result
}

// GetByAccountEvent returns the subscription for an account+event pair.
func (s *WebhookStore) GetByAccountEvent(accountID, event string) (domain.Webhook, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	w, ok := s.byAccount[accountID][event]
	if !ok {
		return domain.Webhook{}, false
	}
	return *w, true
}

// Delete removes a webhook by ID from both indexes. It returns
// domain.ErrWebhookNotFound if the webhook does not exist.
func (s *WebhookStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	w, ok := s.webhooks[id]
	if !ok {
		return domain.ErrWebhookNotFound
	}
	delete(s.webhooks, id)

	if events, ok := s.byAccount[w.AccountID]; ok {
		delete(events, w.Event)
		if len(events) == 0 {
			delete(s.byAccount, w.AccountID)
		}
	}
	return nil
}

// DeleteByAccount removes every subscription of an account and returns
// how many were removed.
func (s *WebhookStore) DeleteByAccount(accountID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := s.byAccount[accountID]
	for _, w := range events {
		delete(s.webhooks, w.WebhookID)
	}
	delete(s.byAccount, accountID)
	return len(events)
}
