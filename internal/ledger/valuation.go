package ledger

import (
	"github.com/efreitasn/simledger/internal/domain"
	"github.com/shopspring/decimal"
)

// PositionValue is a holding marked against a current price.
type PositionValue struct {
	Symbol       string
	Name         string
	Shares       decimal.Decimal
	AvgCost      decimal.Decimal
	CostBasis    decimal.Decimal
	Price        *decimal.Decimal // nil when no price was available
	MarketValue  *decimal.Decimal
	UnrealizedPL *decimal.Decimal
}

// Valuation is a read-only mark-to-market view of an account.
// It never feeds back into Account.PortfolioValue, which stays realized-only.
type Valuation struct {
	AccountID      string
	BuyingPower    decimal.Decimal
	PortfolioValue decimal.Decimal
	CostBasis      decimal.Decimal
	MarketValue    decimal.Decimal // priced positions only
	UnrealizedPL   decimal.Decimal // priced positions only
	NetWorth       decimal.Decimal // buying power + market value
	Unpriced       []string
	Positions      []PositionValue
}

// Value marks acct's holdings against prices. Symbols missing from prices
// are reported in Unpriced and excluded from the market totals.
func Value(acct *domain.Account, prices map[string]decimal.Decimal) Valuation {
	v := Valuation{
		AccountID:      acct.ID,
		BuyingPower:    acct.BuyingPower,
		PortfolioValue: acct.PortfolioValue,
		Positions:      make([]PositionValue, 0, len(acct.Holdings)),
		Unpriced:       []string{},
	}

	for _, h := range acct.Holdings {
		pv := PositionValue{
			Symbol:    h.Symbol,
			Name:      h.Name,
			Shares:    h.Shares,
			AvgCost:   h.AvgCost,
			CostBasis: h.AvgCost.Mul(h.Shares),
		}
		v.CostBasis = v.CostBasis.Add(pv.CostBasis)

		price, ok := prices[h.Symbol]
		if !ok {
			v.Unpriced = append(v.Unpriced, h.Symbol)
			v.Positions = append(v.Positions, pv)
			continue
		}
		mv := price.Mul(h.Shares)
		upl := mv.Sub(pv.CostBasis)
		pv.Price, pv.MarketValue, pv.UnrealizedPL = &price, &mv, &upl

		v.MarketValue = v.MarketValue.Add(mv)
		v.UnrealizedPL = v.UnrealizedPL.Add(upl)
		v.Positions = append(v.Positions, pv)
	}

	v.NetWorth = v.BuyingPower.Add(v.MarketValue)
	return v
}
