package service

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/efreitasn/simledger/internal/ledger"
	"github.com/efreitasn/simledger/internal/store"
	"github.com/shopspring/decimal"
)

// DefaultAccountName is the name of the account created on first launch.
const DefaultAccountName = "My First Simulation"

const (
	maxNameLength  = 100
	maxNotesLength = 2000
)

// CreateAccountRequest represents the input for account creation. Zero
// values select the defaults.
type CreateAccountRequest struct {
	Name           string
	InitialCapital *decimal.Decimal
	Notes          string
	BotStrategy    string
}

// UpdateAccountRequest carries the editable account fields. Nil fields are
// left unchanged.
type UpdateAccountRequest struct {
	Name        *string
	Notes       *string
	BotStrategy *string
}

// AccountService handles account lifecycle operations.
type AccountService struct {
	store          *store.AccountStore
	webhooks       *store.WebhookStore
	events         EventPublisher
	hooks          Dispatcher
	defaultCapital decimal.Decimal
	logger         *slog.Logger
	now            func() time.Time
}

// NewAccountService creates a new AccountService. events and hooks may be
// nil.
func NewAccountService(
	accountStore *store.AccountStore,
	webhookStore *store.WebhookStore,
	events EventPublisher,
	hooks Dispatcher,
	defaultCapital decimal.Decimal,
	logger *slog.Logger,
) *AccountService {
	if events == nil {
		events = nopPublisher{}
	}
	if hooks == nil {
		hooks = nopDispatcher{}
	}
	return &AccountService{
		store:          accountStore,
		webhooks:       webhookStore,
		events:         events,
		hooks:          hooks,
		defaultCapital: defaultCapital,
		logger:         logger,
		now:            func() time.Time { return time.Now().UTC() },
	}
}

// Create validates the request and adds a new account. The name defaults
// to "Simulation N" and the capital to the configured default.
func (s *AccountService) Create(req CreateAccountRequest) (*domain.Account, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = fmt.Sprintf("Simulation %d", s.store.Len()+1)
	}
	if err := validateName(name); err != nil {
		return nil, err
	}
	if err := validateNotes(req.Notes); err != nil {
		return nil, err
	}
	strategy := req.BotStrategy
	if strategy == "" {
		strategy = domain.DefaultBotStrategy
	}
	if err := validateBotStrategy(strategy); err != nil {
		return nil, err
	}

	capital := s.defaultCapital
	if req.InitialCapital != nil {
		capital = *req.InitialCapital
	}
	if err := domain.ValidateAmount("initial_capital", capital, domain.MaxPriceDecimals); err != nil {
		return nil, err
	}

	acct, err := ledger.NewAccount(name, capital, s.now())
	if err != nil {
		return nil, err
	}
	acct.Notes = req.Notes
	acct.BotStrategy = strategy

	if err := s.store.Create(acct); err != nil {
		return nil, err
	}
	s.logger.Info("account created",
		slog.String("account_id", acct.ID),
		slog.String("initial_capital", capital.String()),
	)
	return acct, nil
}

// Bootstrap creates the default account when none exist. It reports
// whether an account was created.
func (s *AccountService) Bootstrap() (*domain.Account, bool, error) {
	if s.store.Len() > 0 {
		acct, err := s.Active()
		return acct, false, err
	}
	acct, err := s.Create(CreateAccountRequest{Name: DefaultAccountName})
	if err != nil {
		return nil, false, err
	}
	return acct, true, nil
}

// List returns all accounts in creation order.
func (s *AccountService) List() []*domain.Account {
	return s.store.List()
}

// Get returns a snapshot of an account.
func (s *AccountService) Get(id string) (*domain.Account, error) {
	return s.store.Get(id)
}

// Update changes an account's name, notes and bot strategy under the
// account lock.
func (s *AccountService) Update(id string, req UpdateAccountRequest) (*domain.Account, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		if err := validateName(trimmed); err != nil {
			return nil, err
		}
		req.Name = &trimmed
	}
	if req.Notes != nil {
		if err := validateNotes(*req.Notes); err != nil {
			return nil, err
		}
	}
	if req.BotStrategy != nil {
		if err := validateBotStrategy(*req.BotStrategy); err != nil {
			return nil, err
		}
	}

	unlock, err := s.store.Lock(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		acct.Name = *req.Name
	}
	if req.Notes != nil {
		acct.Notes = *req.Notes
	}
	if req.BotStrategy != nil {
		acct.BotStrategy = *req.BotStrategy
	}
	if err := s.store.Replace(acct); err != nil {
		return nil, err
	}

	notify(s.events, s.hooks, domain.Event{
		Type:      domain.EventAccountUpdated,
		AccountID: id,
		Timestamp: s.now(),
		Data:      acct.Clone(),
	})
	return acct, nil
}

// Delete removes an account and its webhook subscriptions. The active
// account and the only remaining account cannot be deleted.
func (s *AccountService) Delete(id string) error {
	if err := s.store.Delete(id); err != nil {
		return err
	}
	removed := s.webhooks.DeleteByAccount(id)
	s.logger.Info("account deleted",
		slog.String("account_id", id),
		slog.Int("webhooks_removed", removed),
	)
	return nil
}

// Reset restores an account to its initial capital, clearing holdings and
// trade history.
func (s *AccountService) Reset(id string) (*domain.Account, error) {
	unlock, err := s.store.Lock(id)
	if err != nil {
		return nil, err
	}
	defer unlock()

	acct, err := s.store.Get(id)
	if err != nil {
		return nil, err
	}
	next := ledger.Reset(acct)
	if err := s.store.Replace(next); err != nil {
		return nil, err
	}

	s.logger.Info("account reset", slog.String("account_id", id))
	notify(s.events, s.hooks, domain.Event{
		Type:      domain.EventAccountReset,
		AccountID: id,
		Timestamp: s.now(),
		Data:      next.Clone(),
	})
	return next, nil
}

// ActiveID returns the ID of the currently selected account, or "" when
// there are no accounts.
func (s *AccountService) ActiveID() string {
	return s.store.Active()
}

// Active returns the currently selected account.
func (s *AccountService) Active() (*domain.Account, error) {
	id := s.store.Active()
	if id == "" {
		return nil, domain.ErrAccountNotFound
	}
	return s.store.Get(id)
}

// SetActive selects the active account and returns it.
func (s *AccountService) SetActive(id string) (*domain.Account, error) {
	if err := s.store.SetActive(id); err != nil {
		return nil, err
	}
	return s.store.Get(id)
}

func validateName(name string) error {
	if name == "" {
		return &domain.ValidationError{Message: "name must not be empty"}
	}
	if utf8.RuneCountInString(name) > maxNameLength {
		return &domain.ValidationError{
			Message: fmt.Sprintf("name must be at most %d characters", maxNameLength),
		}
	}
	return nil
}

func validateNotes(notes string) error {
	if utf8.RuneCountInString(notes) > maxNotesLength {
		return &domain.ValidationError{
			Message: fmt.Sprintf("notes must be at most %d characters", maxNotesLength),
		}
	}
	return nil
}

func validateBotStrategy(strategy string) error {
	if !domain.ValidBotStrategy(strategy) {
		return &domain.ValidationError{
			Message: fmt.Sprintf("unknown bot_strategy %q", strategy),
		}
	}
	return nil
}
