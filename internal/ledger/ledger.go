// Package ledger implements the simulated brokerage ledger: pure functions
// that take an account value and return a new one. Nothing here locks,
// performs I/O or mutates its inputs; callers serialize and commit.
package ledger

import (
	"fmt"
	"strings"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Fill carries the externally resolved inputs of an execution.
type Fill struct {
	Price      decimal.Decimal
	At         time.Time
	SymbolName string // display name for a newly opened position; optional
}

// NewAccount produces a fresh account with empty holdings and history and
// buying power and portfolio value equal to the initial capital.
func NewAccount(name string, initialCapital decimal.Decimal, at time.Time) (*domain.Account, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &domain.ValidationError{Message: "name is required"}
	}
	if initialCapital.IsNegative() {
		return nil, &domain.ValidationError{Message: "initial_capital must be >= 0"}
	}

	return &domain.Account{
		ID:             "sim_" + uuid.NewString(),
		Name:           name,
		Type:           domain.AccountTypeSimulated,
		CreatedAt:      at,
		InitialCapital: initialCapital,
		BuyingPower:    initialCapital,
		PortfolioValue: initialCapital,
		Holdings:       []domain.Position{},
		TradeHistory:   []domain.Order{},
	}, nil
}

// Execute fills req against acct at fill.Price. On success it returns the
// updated account and the trade-history record that was prepended to it.
// On failure acct is returned untouched alongside the error.
func Execute(acct *domain.Account, req domain.OrderRequest, fill Fill) (*domain.Account, domain.Order, error) {
	req, err := ValidateOrder(req)
	if err != nil {
		return acct, domain.Order{}, err
	}
	if !fill.Price.IsPositive() || !domain.WithinBounds(fill.Price) {
		return acct, domain.Order{}, &domain.ValidationError{Message: "execution price must be > 0 and within bounds"}
	}

	next := acct.Clone()
	totalCost := fill.Price.Mul(req.Quantity)

	order := domain.Order{
		ID:          "ord_" + uuid.NewString(),
		Timestamp:   fill.At,
		Symbol:      req.Symbol,
		Side:        req.Side,
		Type:        req.Type,
		Quantity:    req.Quantity,
		Status:      domain.OrderStatusFilled,
		LimitPrice:  fill.Price,
		TimeInForce: req.TimeInForce,
	}

	switch req.Side {
	case domain.OrderSideBuy:
		if next.BuyingPower.LessThan(totalCost) {
			return acct, domain.Order{}, domain.ErrInsufficientBuyingPower
		}
		next.BuyingPower = next.BuyingPower.Sub(totalCost)

		if pos, idx, ok := next.Holding(req.Symbol); ok {
			newShares := pos.Shares.Add(req.Quantity)
			pos.AvgCost = pos.AvgCost.Mul(pos.Shares).Add(totalCost).Div(newShares)
			pos.Shares = newShares
			next.Holdings[idx] = pos
		} else {
			name := fill.SymbolName
			if name == "" {
				name = req.Symbol
			}
			next.Holdings = append(next.Holdings, domain.Position{
				ID:      "pos_" + uuid.NewString(),
				Symbol:  req.Symbol,
				Name:    name,
				Shares:  req.Quantity,
				AvgCost: fill.Price,
			})
		}

	case domain.OrderSideSell:
		pos, idx, ok := next.Holding(req.Symbol)
		if !ok {
			return acct, domain.Order{}, domain.ErrNoSuchPosition
		}
		if pos.Shares.LessThan(req.Quantity) {
			return acct, domain.Order{}, domain.ErrInsufficientShares
		}

		realized := fill.Price.Sub(pos.AvgCost).Mul(req.Quantity)
		order.RealizedPL = &realized
		next.BuyingPower = next.BuyingPower.Add(totalCost)
		next.PortfolioValue = next.PortfolioValue.Add(realized)

		pos.Shares = pos.Shares.Sub(req.Quantity)
		if pos.Shares.IsZero() {
			next.Holdings = append(next.Holdings[:idx], next.Holdings[idx+1:]...)
		} else {
			next.Holdings[idx] = pos
		}
	}

	next.TradeHistory = append([]domain.Order{order}, next.TradeHistory...)
	return next, order, nil
}

// Reset restores an account to its initial-capital baseline, clearing
// holdings and history together. Applying it twice equals applying it once.
func Reset(acct *domain.Account) *domain.Account {
	next := acct.Clone()
	next.BuyingPower = acct.InitialCapital
	next.PortfolioValue = acct.InitialCapital
	next.Holdings = []domain.Position{}
	next.TradeHistory = []domain.Order{}
	return next
}

// ValidateOrder validates req and fills in the recorded defaults
// (market, day) for omitted type and time in force. Quantities are bounded
// before any arithmetic touches them.
func ValidateOrder(req domain.OrderRequest) (domain.OrderRequest, error) {
	req.Symbol = domain.NormalizeSymbol(req.Symbol)
	if req.Symbol == "" {
		return req, &domain.ValidationError{Message: "symbol is required"}
	}
	if !domain.ValidSymbol(req.Symbol) {
		return req, &domain.ValidationError{Message: fmt.Sprintf("invalid symbol %q", req.Symbol)}
	}
	if req.Side != domain.OrderSideBuy && req.Side != domain.OrderSideSell {
		return req, &domain.ValidationError{Message: "side must be 'buy' or 'sell'"}
	}
	if !req.Quantity.IsPositive() {
		return req, &domain.ValidationError{Message: "quantity must be > 0"}
	}
	if err := domain.ValidateAmount("quantity", req.Quantity, domain.MaxQuantityDecimals); err != nil {
		return req, err
	}

	if req.Type == "" {
		req.Type = domain.OrderTypeMarket
	}
	if !domain.ValidOrderTypes[req.Type] {
		return req, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown order type: %s. Must be one of: market, limit, stop, stop_limit", req.Type),
		}
	}
	if req.TimeInForce == "" {
		req.TimeInForce = domain.TimeInForceDay
	}
	if !domain.ValidTimeInForce[req.TimeInForce] {
		return req, &domain.ValidationError{
			Message: fmt.Sprintf("Unknown time_in_force: %s. Must be one of: day, gtc", req.TimeInForce),
		}
	}
	return req, nil
}
