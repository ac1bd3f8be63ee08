package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/ledger"
	"github.com/efreitasn/simledger/internal/quote"
	"github.com/efreitasn/simledger/internal/store"
	"github.com/shopspring/decimal"
)

// TradeService executes orders against simulated accounts and serves
// trade history, valuations and quotes.
type TradeService struct {
	store        *store.AccountStore
	quotes       quote.Source
	names        quote.Directory
	events       EventPublisher
	hooks        Dispatcher
	quoteTimeout time.Duration
	logger       *slog.Logger
	now          func() time.Time
}

// NewTradeService creates a new TradeService. names, events and hooks may
// be nil.
func NewTradeService(
	accountStore *store.AccountStore,
	quotes quote.Source,
	names quote.Directory,
	events EventPublisher,
	hooks Dispatcher,
	quoteTimeout time.Duration,
	logger *slog.Logger,
) *TradeService {
	if events == nil {
		events = nopPublisher{}
	}
	if hooks == nil {
		hooks = nopDispatcher{}
	}
	return &TradeService{
		store:        accountStore,
		quotes:       quotes,
		names:        names,
		events:       events,
		hooks:        hooks,
		quoteTimeout: quoteTimeout,
		logger:       logger,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// ExecuteOrder fills req against the account. When price is nil the
// execution price is the current quote for the symbol.
//
// External lookups happen before the account lock is taken; the lock then
// covers read, validate and commit so concurrent orders on one account
// cannot lose updates. On any error the account is unchanged.
func (s *TradeService) ExecuteOrder(ctx context.Context, accountID string, req domain.OrderRequest, price *decimal.Decimal) (*domain.Account, domain.Order, error) {
	if _, err := s.store.Get(accountID); err != nil {
		return nil, domain.Order{}, err
	}

	req, err := ledger.ValidateOrder(req)
	if err != nil {
		return nil, domain.Order{}, err
	}

	fill := ledger.Fill{}
	if price != nil {
		if !price.IsPositive() {
			return nil, domain.Order{}, &domain.ValidationError{Message: "price must be > 0"}
		}
		if err := domain.ValidateAmount("price", *price, domain.MaxPriceDecimals); err != nil {
			return nil, domain.Order{}, err
		}
		fill.Price = *price
	} else {
		q, err := s.Quote(ctx, req.Symbol)
		if err != nil {
			return nil, domain.Order{}, err
		}
		fill.Price = q.Price
	}

	if req.Side == domain.OrderSideBuy {
		fill.SymbolName = s.lookupName(ctx, req.Symbol)
	}

	unlock, err := s.store.Lock(accountID)
	if err != nil {
		return nil, domain.Order{}, err
	}
	defer unlock()

	acct, err := s.store.Get(accountID)
	if err != nil {
		return nil, domain.Order{}, err
	}

	fill.At = s.now()
	next, order, err := ledger.Execute(acct, req, fill)
	if err != nil {
		return nil, domain.Order{}, err
	}
	if err := s.store.Replace(next); err != nil {
		return nil, domain.Order{}, err
	}

	s.logger.Info("order filled",
		slog.String("account_id", accountID),
		slog.String("order_id", order.ID),
		slog.String("symbol", order.Symbol),
		slog.String("side", string(order.Side)),
		slog.String("quantity", order.Quantity.String()),
		slog.String("price", order.LimitPrice.String()),
	)
	notify(s.events, s.hooks, domain.Event{
		Type:      domain.EventOrderFilled,
		AccountID: accountID,
		Timestamp: order.Timestamp,
		Data:      domain.OrderFilledData{Order: order, Account: next.Clone()},
	})
	return next, order, nil
}

// Quote returns the current price of a symbol. Any provider failure is
// reported as domain.ErrPriceUnavailable.
func (s *TradeService) Quote(ctx context.Context, symbol string) (quote.Quote, error) {
	symbol = domain.NormalizeSymbol(symbol)
	if !domain.ValidSymbol(symbol) {
		return quote.Quote{}, &domain.ValidationError{Message: fmt.Sprintf("invalid symbol %q", symbol)}
	}

	ctx, cancel := s.withQuoteTimeout(ctx)
	defer cancel()

	q, err := s.quotes.Quote(ctx, symbol)
	if err != nil {
		s.logger.Warn("quote unavailable",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return quote.Quote{}, fmt.Errorf("%w: %s: %v", domain.ErrPriceUnavailable, symbol, err)
	}
	if !q.Price.IsPositive() {
		return quote.Quote{}, fmt.Errorf("%w: %s", domain.ErrPriceUnavailable, symbol)
	}
	return q, nil
}

// ListOrders returns a page of an account's trade history, newest first,
// optionally filtered by side, and the number of matching records.
func (s *TradeService) ListOrders(accountID string, side *domain.OrderSide, page, limit int) ([]domain.Order, int, error) {
	acct, err := s.store.Get(accountID)
	if err != nil {
		return nil, 0, err
	}

	if side != nil && *side != domain.OrderSideBuy && *side != domain.OrderSideSell {
		return nil, 0, &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}
	if page < 1 {
		return nil, 0, &domain.ValidationError{Message: "page must be >= 1"}
	}
	if limit < 1 || limit > 100 {
		return nil, 0, &domain.ValidationError{Message: "limit must be between 1 and 100"}
	}

	matching := acct.TradeHistory
	if side != nil {
		matching = make([]domain.Order, 0, len(acct.TradeHistory))
		for _, o := range acct.TradeHistory {
			if o.Side == *side {
				matching = append(matching, o)
			}
		}
	}

	total := len(matching)
	start := (page - 1) * limit
	if start >= total {
		return []domain.Order{}, total, nil
	}
	end := min(start+limit, total)
	return matching[start:end], total, nil
}

// Valuation marks an account's holdings to current quotes. Holdings whose
// quote cannot be fetched are reported as unpriced rather than failing the
// whole view.
func (s *TradeService) Valuation(ctx context.Context, accountID string) (ledger.Valuation, error) {
	acct, err := s.store.Get(accountID)
	if err != nil {
		return ledger.Valuation{}, err
	}

	prices := make(map[string]decimal.Decimal, len(acct.Holdings))
	for _, h := range acct.Holdings {
		q, err := s.Quote(ctx, h.Symbol)
		if err != nil {
			if ctx.Err() != nil {
				return ledger.Valuation{}, ctx.Err()
			}
			continue
		}
		prices[h.Symbol] = q.Price
	}
	return ledger.Value(acct, prices), nil
}

// lookupName resolves a display name for a newly opened position. Names
// are cosmetic, so failures yield "" and the ledger falls back to the
// symbol.
func (s *TradeService) lookupName(ctx context.Context, symbol string) string {
	if s.names == nil {
		return ""
	}
	ctx, cancel := s.withQuoteTimeout(ctx)
	defer cancel()

	name, err := s.names.Name(ctx, symbol)
	if err != nil {
		s.logger.Debug("symbol name lookup failed",
			slog.String("symbol", symbol),
			slog.String("error", err.Error()),
		)
		return ""
	}
	return name
}

func (s *TradeService) withQuoteTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.quoteTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.quoteTimeout)
}
