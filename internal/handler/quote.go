package handler

import (
	"net/http"

	"github.com/efreitasn/simledger/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// QuoteHandler handles HTTP requests for quote lookups.
type QuoteHandler struct {
	tradeSvc *service.TradeService
}

// NewQuoteHandler creates a new QuoteHandler.
func NewQuoteHandler(tradeSvc *service.TradeService) *QuoteHandler {
	return &QuoteHandler{tradeSvc: tradeSvc}
}

// quoteResponse is the JSON response for GET /quotes/{symbol}.
type quoteResponse struct {
	Symbol string          `json:"symbol"`
	Price  decimal.Decimal `json:"price"`
	AsOf   string          `json:"as_of"`
	Source string          `json:"source"`
}

// Get handles GET /quotes/{symbol}.
func (h *QuoteHandler) Get(w http.ResponseWriter, r *http.Request) {
	q, err := h.tradeSvc.Quote(r.Context(), chi.URLParam(r, "symbol"))
	if err != nil {
		mapError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, quoteResponse{
		Symbol: q.Symbol,
		Price:  q.Price,
		AsOf:   formatTime(q.AsOf),
		Source: q.Source,
	})
}
