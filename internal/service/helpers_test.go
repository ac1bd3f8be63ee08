package service

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/quote"
	"github.com/efreitasn/simledger/internal/store"
	"github.com/shopspring/decimal"
)

var discardLogger = slog.New(slog.NewTextHandler(io.Discard, nil))

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

// recorder captures published and dispatched events.
type recorder struct {
	mu     sync.Mutex
	events []domain.Event
}

func (r *recorder) Publish(e domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
}

func (r *recorder) Dispatch(e domain.Event) { r.Publish(e) }

func (r *recorder) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

type testEnv struct {
	accounts *store.AccountStore
	webhooks *store.WebhookStore
	quotes   *quote.Static
	events   *recorder
	acctSvc  *AccountService
	tradeSvc *TradeService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		accounts: store.NewAccountStore(),
		webhooks: store.NewWebhookStore(),
		quotes: quote.NewStatic(map[string]decimal.Decimal{
			"AAPL": dec("150"),
			"MSFT": dec("400"),
		}),
		events: &recorder{},
	}
	env.acctSvc = NewAccountService(env.accounts, env.webhooks, env.events, nil, dec("100000"), discardLogger)
	env.tradeSvc = NewTradeService(env.accounts, env.quotes, env.quotes, env.events, nil, time.Second, discardLogger)
	return env
}

func (env *testEnv) createAccount(t *testing.T, capital string) *domain.Account {
	t.Helper()
	acct, err := env.acctSvc.Create(CreateAccountRequest{InitialCapital: decPtr(capital)})
	if err != nil {
		t.Fatalf("failed to create account: %v", err)
	}
	return acct
}

func buy(symbol, qty string) domain.OrderRequest {
	return domain.OrderRequest{Symbol: symbol, Side: domain.OrderSideBuy, Quantity: dec(qty)}
}

func sell(symbol, qty string) domain.OrderRequest {
	return domain.OrderRequest{Symbol: symbol, Side: domain.OrderSideSell, Quantity: dec(qty)}
}
