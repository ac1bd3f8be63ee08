package service

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/store"
	"github.com/google/uuid"
)

// Valid webhook event types.
var validWebhookEvents = map[string]bool{
	domain.EventOrderFilled:    true,
	domain.EventAccountReset:   true,
	domain.EventAccountUpdated: true,
}

// UpsertWebhookRequest represents the input for webhook registration.
type UpsertWebhookRequest struct {
	AccountID string
	URL       string
	Events    []string
}

// WebhookService handles webhook CRUD and event dispatch.
type WebhookService struct {
	store        *store.WebhookStore
	accountStore *store.AccountStore
	client       *http.Client
	logger       *slog.Logger
}

// NewWebhookService creates a new WebhookService with the given dependencies.
func NewWebhookService(
	webhookStore *store.WebhookStore,
	accountStore *store.AccountStore,
	webhookTimeout time.Duration,
	logger *slog.Logger,
) *WebhookService {
	return &WebhookService{
		store:        webhookStore,
		accountStore: accountStore,
		client: &http.Client{
			Timeout: webhookTimeout,
		},
		logger: logger,
	}
}

// Upsert validates the request and creates or updates webhook subscriptions.
// Returns the resulting webhooks, whether any new subscriptions were created, and any error.
func (s *WebhookService) Upsert(req UpsertWebhookRequest) ([]domain.Webhook, bool, error) {
	if _, err := s.accountStore.Get(req.AccountID); err != nil {
		return nil, false, err
	}

	// Validate URL.
	if req.URL == "" {
		return nil, false, &domain.ValidationError{Message: "url is required"}
	}
	if len(req.URL) > 2048 {
		return nil, false, &domain.ValidationError{Message: "url must be at most 2048 characters"}
	}
	parsed, err := url.ParseRequestURI(req.URL)
	if err != nil || !parsed.IsAbs() || parsed.Host == "" {
		return nil, false, &domain.ValidationError{Message: "url must be a valid absolute URL"}
	}
	if parsed.Scheme != "https" {
		return nil, false, &domain.ValidationError{Message: "url must use https scheme"}
	}

	// Validate events.
	if len(req.Events) == 0 {
		return nil, false, &domain.ValidationError{Message: "events must be a non-empty array"}
	}

	// Deduplicate events while preserving order and validating.
	seen := make(map[string]bool, len(req.Events))
	dedupedEvents := make([]string, 0, len(req.Events))
	for _, event := range req.Events {
		if !validWebhookEvents[event] {
			return nil, false, &domain.ValidationError{
				Message: "Unknown event type: " + event + ". Must be one of: " +
					strings.Join([]string{domain.EventOrderFilled, domain.EventAccountReset, domain.EventAccountUpdated}, ", "),
			}
		}
		if !seen[event] {
			seen[event] = true
			dedupedEvents = append(dedupedEvents, event)
		}
	}

	// Upsert each (account_id, event) pair.
	now := time.Now().UTC().Truncate(time.Second)
	anyCreated := false
	webhooks := make([]domain.Webhook, 0, len(dedupedEvents))

	for _, event := range dedupedEvents {
		stored, created := s.store.Upsert(&domain.Webhook{
			WebhookID: "wh_" + uuid.NewString(),
			AccountID: req.AccountID,
			Event:     event,
			URL:       req.URL,
			CreatedAt: now,
			UpdatedAt: now,
		})
		anyCreated = anyCreated || created
		webhooks = append(webhooks, stored)
	}

	return webhooks, anyCreated, nil
}

// List validates the account exists and returns all webhook subscriptions.
func (s *WebhookService) List(accountID string) ([]domain.Webhook, error) {
	if _, err := s.accountStore.Get(accountID); err != nil {
		return nil, err
	}
	return s.store.ListByAccount(accountID), nil
}

// Delete removes a webhook subscription by ID.
func (s *WebhookService) Delete(webhookID string) error {
	return s.store.Delete(webhookID)
}

// Dispatch sends e to the account's subscriber for e.Type, if any.
// Fire-and-forget: delivery runs in its own goroutine and failures are
// only logged.
func (s *WebhookService) Dispatch(e domain.Event) {
	wh, ok := s.store.GetByAccountEvent(e.AccountID, e.Type)
	if !ok {
		return
	}
	go s.deliver(wh, e)
}

// deliver sends the webhook payload via HTTP POST with the required headers.
func (s *WebhookService) deliver(wh domain.Webhook, e domain.Event) {
	body, err := json.Marshal(e)
	if err != nil {
		s.logger.Error("webhook encode failed",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("error", err.Error()),
		)
		return
	}

	req, err := http.NewRequest(http.MethodPost, wh.URL, bytes.NewReader(body))
	if err != nil {
		return
	}

	deliveryID := uuid.New().String()
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Delivery-Id", deliveryID)
	req.Header.Set("X-Webhook-Id", wh.WebhookID)
	req.Header.Set("X-Event-Type", e.Type)

	resp, err := s.client.Do(req)
	if err != nil {
		s.logger.Warn("webhook delivery failed",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("delivery_id", deliveryID),
			slog.String("error", err.Error()),
		)
		return
	}
	resp.Body.Close()

	if resp.StatusCode >= 300 {
		s.logger.Warn("webhook delivery rejected",
			slog.String("webhook_id", wh.WebhookID),
			slog.String("delivery_id", deliveryID),
			slog.Int("status", resp.StatusCode),
		)
	}
}
