package handler

import (
	"net/http"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/ledger"
	"github.com/efreitasn/simledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// OrderHandler handles HTTP requests for order execution, trade history
// and valuation.
type OrderHandler struct {
	tradeSvc   *service.TradeService
	accountSvc *service.AccountService
}

// NewOrderHandler creates a new OrderHandler.
func NewOrderHandler(tradeSvc *service.TradeService, accountSvc *service.AccountService) *OrderHandler {
	return &OrderHandler{
		tradeSvc:   tradeSvc,
		accountSvc: accountSvc,
	}
}

// executeOrderRequest is the JSON request body for POST /accounts/{account_id}/orders.
// Price is optional; without it the order fills at the current quote.
type executeOrderRequest struct {
	Symbol      string           `json:"symbol"`
	Side        string           `json:"side"`
	Type        string           `json:"type"`
	Quantity    *decimal.Decimal `json:"quantity"`
	TimeInForce string           `json:"time_in_force"`
	Price       *decimal.Decimal `json:"price"`
}

// orderResponse is a single trade-history record.
type orderResponse struct {
	ID          string           `json:"id"`
	Timestamp   string           `json:"timestamp"`
	Symbol      string           `json:"symbol"`
	Side        string           `json:"side"`
	Type        string           `json:"type"`
	Quantity    decimal.Decimal  `json:"quantity"`
	Status      string           `json:"status"`
	LimitPrice  decimal.Decimal  `json:"limit_price"`
	TimeInForce string           `json:"time_in_force"`
	RealizedPL  *decimal.Decimal `json:"realized_pl,omitempty"`
}

// executeOrderResponse is the JSON response for a filled order.
type executeOrderResponse struct {
	Order   orderResponse   `json:"order"`
	Account accountResponse `json:"account"`
}

// orderListResponse is the JSON response for GET /accounts/{account_id}/orders.
type orderListResponse struct {
	Orders []orderResponse `json:"orders"`
	Total  int             `json:"total"`
	Page   int             `json:"page"`
	Limit  int             `json:"limit"`
}

// positionValueResponse is a single holding in the valuation response.
type positionValueResponse struct {
	Symbol       string           `json:"symbol"`
	Name         string           `json:"name"`
	Shares       decimal.Decimal  `json:"shares"`
	AvgCost      decimal.Decimal  `json:"avg_cost"`
	CostBasis    decimal.Decimal  `json:"cost_basis"`
	Price        *decimal.Decimal `json:"price"`
	MarketValue  *decimal.Decimal `json:"market_value"`
	UnrealizedPL *decimal.Decimal `json:"unrealized_pl"`
}

// valuationResponse is the JSON response for GET /accounts/{account_id}/valuation.
type valuationResponse struct {
	AccountID      string                  `json:"account_id"`
	BuyingPower    decimal.Decimal         `json:"buying_power"`
	PortfolioValue decimal.Decimal         `json:"portfolio_value"`
	CostBasis      decimal.Decimal         `json:"cost_basis"`
	MarketValue    decimal.Decimal         `json:"market_value"`
	UnrealizedPL   decimal.Decimal         `json:"unrealized_pl"`
	NetWorth       decimal.Decimal         `json:"net_worth"`
	Unpriced       []string                `json:"unpriced"`
	Positions      []positionValueResponse `json:"positions"`
}

// Execute handles POST /accounts/{account_id}/orders.
func (h *OrderHandler) Execute(w http.ResponseWriter, r *http.Request) {
	var req executeOrderRequest
	if err := ParseJSON(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}
	if req.Quantity == nil {
		WriteError(w, http.StatusBadRequest, "validation_error", "quantity is required")
		return
	}

	acct, order, err := h.tradeSvc.ExecuteOrder(r.Context(), chi.URLParam(r, "account_id"), domain.OrderRequest{
		Symbol:      req.Symbol,
		Side:        domain.OrderSide(req.Side),
		Type:        domain.OrderType(req.Type),
		Quantity:    *req.Quantity,
		TimeInForce: domain.TimeInForce(req.TimeInForce),
	}, req.Price)
	if err != nil {
		mapError(w, err)
		return
	}

	WriteJSON(w, http.StatusCreated, executeOrderResponse{
		Order:   buildOrderResponse(order),
		Account: buildAccountResponse(acct, h.accountSvc.ActiveID() == acct.ID),
	})
}

// List handles GET /accounts/{account_id}/orders.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	var sideFilter *domain.OrderSide
	if s := r.URL.Query().Get("side"); s != "" {
		side := domain.OrderSide(s)
		sideFilter = &side
	}

	page, err := queryInt(r, "page", 1)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	orders, total, err := h.tradeSvc.ListOrders(chi.URLParam(r, "account_id"), sideFilter, page, limit)
	if err != nil {
		mapError(w, err)
		return
	}

	resp := orderListResponse{
		Orders: make([]orderResponse, len(orders)),
		Total:  total,
		Page:   page,
		Limit:  limit,
	}
	for i, o := range orders {
		resp.Orders[i] = buildOrderResponse(o)
	}
	WriteJSON(w, http.StatusOK, resp)
}

// Valuation handles GET /accounts/{account_id}/valuation.
func (h *OrderHandler) Valuation(w http.ResponseWriter, r *http.Request) {
	v, err := h.tradeSvc.Valuation(r.Context(), chi.URLParam(r, "account_id"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, buildValuationResponse(v))
}

func buildOrderResponse(o domain.Order) orderResponse {
	return orderResponse{
		ID:          o.ID,
		Timestamp:   formatTime(o.Timestamp),
		Symbol:      o.Symbol,
		Side:        string(o.Side),
		Type:        string(o.Type),
		Quantity:    o.Quantity,
		Status:      string(o.Status),
		LimitPrice:  o.LimitPrice,
		TimeInForce: string(o.TimeInForce),
		RealizedPL:  o.RealizedPL,
	}
}

func buildValuationResponse(v ledger.Valuation) valuationResponse {
	resp := valuationResponse{
		AccountID:      v.AccountID,
		BuyingPower:    v.BuyingPower,
		PortfolioValue: v.PortfolioValue,
		CostBasis:      v.CostBasis,
		MarketValue:    v.MarketValue,
		UnrealizedPL:   v.UnrealizedPL,
		NetWorth:       v.NetWorth,
		Unpriced:       v.Unpriced,
		Positions:      make([]positionValueResponse, len(v.Positions)),
	}
	if resp.Unpriced == nil {
		resp.Unpriced = []string{}
	}
	for i, p := range v.Positions {
		resp.Positions[i] = positionValueResponse{
			Symbol:       p.Symbol,
			Name:         p.Name,
			Shares:       p.Shares,
			AvgCost:      p.AvgCost,
			CostBasis:    p.CostBasis,
			Price:        p.Price,
			MarketValue:  p.MarketValue,
			UnrealizedPL: p.UnrealizedPL,
		}
	}
	return resp
}
