package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// AccountTypeSimulated is the only account type the ledger manages.
const AccountTypeSimulated = "simulated"

// Bot strategies an account can be tagged with. The ledger records the
// choice but never trades on it.
const (
	StrategyJeremiah   = "Jeremiah"
	StrategyScalper    = "Scalper"
	StrategySwing      = "Swing"
	StrategyMomentum   = "Momentum"
	StrategyContrarian = "Contrarian"
)

// DefaultBotStrategy is assigned to accounts created without one.
const DefaultBotStrategy = StrategyJeremiah

var botStrategies = map[string]bool{
	StrategyJeremiah:   true,
	StrategyScalper:    true,
	StrategySwing:      true,
	StrategyMomentum:   true,
	StrategyContrarian: true,
}

// ValidBotStrategy reports whether s names a known bot strategy.
func ValidBotStrategy(s string) bool {
	return botStrategies[s]
}

// Position is a symbol's aggregated share count and average cost basis
// within one account. A position exists only while Shares > 0.
type Position struct {
	ID      string          `json:"id"`
	Symbol  string          `json:"symbol"`
	Name    string          `json:"name"`
	Shares  decimal.Decimal `json:"shares"`
	AvgCost decimal.Decimal `json:"avg_cost"`
}

// Account is a simulated trading account: cash, a position book and an
// append-only trade history (newest first).
type Account struct {
	ID             string          `json:"id"`
	Name           string          `json:"name"`
	Type           string          `json:"type"`
	Notes          string          `json:"notes,omitempty"`
	BotStrategy    string          `json:"bot_strategy,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	InitialCapital decimal.Decimal `json:"initial_capital"`
	BuyingPower    decimal.Decimal `json:"buying_power"`
	PortfolioValue decimal.Decimal `json:"portfolio_value"` // adjusted by realized P/L only
	Holdings       []Position      `json:"holdings"`
	TradeHistory   []Order         `json:"trade_history"`
}

// Holding returns the position for symbol and its index in Holdings,
// or ok=false when the account holds no shares of it.
func (a *Account) Holding(symbol string) (Position, int, bool) {
	for i, p := range a.Holdings {
		if p.Symbol == symbol {
			return p, i, true
		}
	}
	return Position{}, -1, false
}

// Clone returns a deep copy. Callers that hand accounts across goroutines
// or store boundaries always pass clones so no two owners share slices.
func (a *Account) Clone() *Account {
	if a == nil {
		return nil
	}
	c := *a
	c.Holdings = make([]Position, len(a.Holdings))
	copy(c.Holdings, a.Holdings)
	c.TradeHistory = make([]Order, len(a.TradeHistory))
	for i, o := range a.TradeHistory {
		c.TradeHistory[i] = o.clone()
	}
	return &c
}
