package handler

import (
	"net/http"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/service"
	"github.com/efreitasn/simledger/internal/stream"
	"github.com/go-chi/chi/v5"
)

// snapshotEvent is the first message on a new stream: the account as it
// stands when the client connects.
const snapshotEvent = "account.snapshot"

// StreamHandler upgrades requests to websocket event streams.
type StreamHandler struct {
	hub        *stream.Hub
	accountSvc *service.AccountService
}

// NewStreamHandler creates a new StreamHandler.
func NewStreamHandler(hub *stream.Hub, accountSvc *service.AccountService) *StreamHandler {
	return &StreamHandler{
		hub:        hub,
		accountSvc: accountSvc,
	}
}

// Serve handles GET /accounts/{account_id}/stream. The snapshot is read
// once the client is subscribed, so no committed change falls between it
// and the first streamed event.
func (h *StreamHandler) Serve(w http.ResponseWriter, r *http.Request) {
	accountID := chi.URLParam(r, "account_id")
	if _, err := h.accountSvc.Get(accountID); err != nil {
		mapError(w, err)
		return
	}

	h.hub.Serve(w, r, accountID, func() any {
		acct, err := h.accountSvc.Get(accountID)
		if err != nil {
			return nil
		}
		return domain.Event{
			Type:      snapshotEvent,
			AccountID: accountID,
			Timestamp: time.Now().UTC(),
			Data:      acct,
		}
	})
}
