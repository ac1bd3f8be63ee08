package handler

import (
	"net/http"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// AccountHandler handles HTTP requests for account endpoints.
type AccountHandler struct {
	accountSvc *service.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountSvc *service.AccountService) *AccountHandler {
	return &AccountHandler{accountSvc: accountSvc}
}

// createAccountRequest is the JSON request body for POST /accounts.
type createAccountRequest struct {
	Name           string           `json:"name"`
	InitialCapital *decimal.Decimal `json:"initial_capital"`
	Notes          string           `json:"notes"`
	BotStrategy    string           `json:"bot_strategy"`
}

// updateAccountRequest is the JSON request body for PATCH /accounts/{account_id}.
type updateAccountRequest struct {
	Name        *string `json:"name"`
	Notes       *string `json:"notes"`
	BotStrategy *string `json:"bot_strategy"`
}

// setActiveRequest is the JSON request body for PUT /active-account.
type setActiveRequest struct {
	AccountID string `json:"account_id"`
}

// positionResponse is a single holding in the account response.
type positionResponse struct {
	ID      string          `json:"id"`
	Symbol  string          `json:"symbol"`
	Name    string          `json:"name"`
	Shares  decimal.Decimal `json:"shares"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// accountResponse is the JSON representation of an account. The trade
// history is served separately by GET /accounts/{account_id}/orders.
type accountResponse struct {
	ID             string             `json:"id"`
	Name           string             `json:"name"`
	Type           string             `json:"type"`
	Notes          string             `json:"notes"`
	BotStrategy    string             `json:"bot_strategy"`
	CreatedAt      string             `json:"created_at"`
	InitialCapital decimal.Decimal    `json:"initial_capital"`
	BuyingPower    decimal.Decimal    `json:"buying_power"`
	PortfolioValue decimal.Decimal    `json:"portfolio_value"`
	Holdings       []positionResponse `json:"holdings"`
	TradeCount     int                `json:"trade_count"`
	Active         bool               `json:"active"`
}

// accountListResponse is the JSON response for GET /accounts.
type accountListResponse struct {
	Accounts        []accountResponse `json:"accounts"`
	ActiveAccountID string            `json:"active_account_id"`
}

// Create handles POST /accounts. An empty body creates an account with
// default name and capital.
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createAccountRequest
	if r.ContentLength != 0 {
		if err := ParseJSON(r, &req); err != nil {
			WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
	}

	acct, err := h.accountSvc.Create(service.CreateAccountRequest{
		Name:           req.Name,
		InitialCapital: req.InitialCapital,
		Notes:          req.Notes,
		BotStrategy:    req.BotStrategy,
	})
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, h.buildAccountResponse(acct))
}

// List handles GET /accounts.
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	accounts := h.accountSvc.List()
	resp := accountListResponse{
		Accounts:        make([]accountResponse, len(accounts)),
		ActiveAccountID: h.accountSvc.ActiveID(),
	}
	for i, a := range accounts {
		resp.Accounts[i] = buildAccountResponse(a, a.ID == resp.ActiveAccountID)
	}

	WriteJSON(w, http.StatusOK, resp)
}

// Get handles GET /accounts/{account_id}.
func (h *AccountHandler) Get(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accountSvc.Get(chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.buildAccountResponse(acct))
}

// Update handles PATCH /accounts/{account_id}.
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req updateAccountRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	acct, err := h.accountSvc.Update(chi.URLParam(r, "account_id"), service.UpdateAccountRequest{
		Name:        req.Name,
		Notes:       req.Notes,
		BotStrategy: req.BotStrategy,
	})
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.buildAccountResponse(acct))
}

// Delete handles DELETE /accounts/{account_id}.
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.accountSvc.Delete(chi.URLParam(r, "account_id")); err != nil {
		mapError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset handles POST /accounts/{account_id}/reset.
func (h *AccountHandler) Reset(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accountSvc.Reset(chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, h.buildAccountResponse(acct))
}

// GetActive handles GET /active-account.
func (h *AccountHandler) GetActive(w http.ResponseWriter, r *http.Request) {
	acct, err := h.accountSvc.Active()
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildAccountResponse(acct, true))
}

// SetActive handles PUT /active-account.
func (h *AccountHandler) SetActive(w http.ResponseWriter, r *http.Request) {
	var req setActiveRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.AccountID == "" {
		WriteError(w, http.StatusBadRequest, "validation_error", "account_id is required")
		return
	}

	acct, err := h.accountSvc.SetActive(req.AccountID)
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildAccountResponse(acct, true))
}

func (h *AccountHandler) buildAccountResponse(a *domain.Account) accountResponse {
	return buildAccountResponse(a, h.accountSvc.ActiveID() == a.ID)
}

func buildAccountResponse(a *domain.Account, active bool) accountResponse {
	holdings := make([]positionResponse, len(a.Holdings))
	for i, p := range a.Holdings {
		holdings[i] = positionResponse{
			ID:      p.ID,
			Symbol:  p.Symbol,
			Name:    p.Name,
			Shares:  p.Shares,
			AvgCost: p.AvgCost,
		}
	}
	return accountResponse{
		ID:             a.ID,
		Name:           a.Name,
		Type:           a.Type,
		Notes:          a.Notes,
		BotStrategy:    a.BotStrategy,
		CreatedAt:      formatTime(a.CreatedAt),
		InitialCapital: a.InitialCapital,
		BuyingPower:    a.BuyingPower,
		PortfolioValue: a.PortfolioValue,
		Holdings:       holdings,
		TradeCount:     len(a.TradeHistory),
		Active:         active,
	}
}
