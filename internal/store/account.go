package store

import (
	"sync"
	"time"

	"github.com/efreitasn/simledger/internal/domain"
	"github.com/google/btree"
)

// accountKey orders accounts by creation time, then ID.
type accountKey struct {
	CreatedAt time.Time
	ID        string
}

func accountLess(a, b accountKey) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ID < b.ID
}

// State is the persisted form of the account collection.
type State struct {
	Accounts        []*domain.Account `json:"accounts"`
	ActiveAccountID string            `json:"active_account_id"`
}

// AccountStore is the thread-safe owning collection of simulated accounts,
// keyed by account ID with a B-tree index in creation order.
//
// Stored accounts are never mutated in place: Create and Replace store a
// private copy and Get/List hand out copies, so readers always observe a
// whole committed value. Writers that read-modify-write an account hold
// the account's lock (see Lock) for the whole cycle.
type AccountStore struct {
	mu       sync.RWMutex
	accounts map[string]*domain.Account
	index    *btree.BTreeG[accountKey]
	locks    map[string]*sync.Mutex
	activeID string
	version  uint64
}

// NewAccountStore creates an empty AccountStore.
func NewAccountStore() *AccountStore {
	const degree = 16
	return &AccountStore{
		accounts: make(map[string]*domain.Account),
		index:    btree.NewG[accountKey](degree, accountLess),
		locks:    make(map[string]*sync.Mutex),
	}
}

// Create adds an account. The first account created becomes the active
// one. It returns domain.ErrAccountAlreadyExists for a duplicate ID.
func (s *AccountStore) Create(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.accounts[a.ID]; exists {
		return domain.ErrAccountAlreadyExists
	}
	s.put(a.Clone())
	if s.activeID == "" {
		s.activeID = a.ID
	}
	s.version++
	return nil
}

// Get returns a copy of the account. It returns
// domain.ErrAccountNotFound if the account does not exist.
func (s *AccountStore) Get(id string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.accounts[id]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	return a.Clone(), nil
}

// List returns copies of all accounts in creation order.
func (s *AccountStore) List() []*domain.Account {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Account, 0, len(s.accounts))
	s.index.Ascend(func(k accountKey) bool {
		result = append(result, s.accounts[k.ID].Clone())
		return true
	})
	return result
}

// Len returns the number of accounts.
func (s *AccountStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.accounts)
}

// Replace swaps the stored account for a copy of a in one step. It returns
// domain.ErrAccountNotFound if the account was deleted in the meantime.
func (s *AccountStore) Replace(a *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.accounts[a.ID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	s.index.Delete(accountKey{CreatedAt: old.CreatedAt, ID: old.ID})
	s.put(a.Clone())
	s.version++
	return nil
}

// Delete removes an account. The sole remaining account cannot be deleted,
// nor can the active one.
func (s *AccountStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	if len(s.accounts) <= 1 {
		return domain.ErrCannotDeleteOnlyAccount
	}
	if id == s.activeID {
		return domain.ErrCannotDeleteActive
	}

	delete(s.accounts, id)
	delete(s.locks, id)
	s.index.Delete(accountKey{CreatedAt: a.CreatedAt, ID: a.ID})
	s.version++
	return nil
}

// Active returns the ID of the currently selected account, or "" if the
// store is empty.
func (s *AccountStore) Active() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.activeID
}

// SetActive selects the active account.
func (s *AccountStore) SetActive(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	if s.activeID != id {
		s.activeID = id
		s.version++
	}
	return nil
}

// Lock acquires the per-account mutex guarding read-modify-write cycles
// and returns the matching unlock function.
func (s *AccountStore) Lock(id string) (func(), error) {
	s.mu.Lock()
	if _, ok := s.accounts[id]; !ok {
		s.mu.Unlock()
		return nil, domain.ErrAccountNotFound
	}
	m, ok := s.locks[id]
	if !ok {
		m = &sync.Mutex{}
		s.locks[id] = m
	}
	s.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

// Version is a counter bumped by every committed change.
func (s *AccountStore) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Snapshot returns a copy of the whole collection and the version it
// corresponds to.
func (s *AccountStore) Snapshot() (State, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := State{
		Accounts:        make([]*domain.Account, 0, len(s.accounts)),
		ActiveAccountID: s.activeID,
	}
	s.index.Ascend(func(k accountKey) bool {
		st.Accounts = append(st.Accounts, s.accounts[k.ID].Clone())
		return true
	})
	return st, s.version
}

// Restore replaces the whole collection with st. An active ID that does
// not name a restored account falls back to the oldest account.
func (s *AccountStore) Restore(st State) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.accounts = make(map[string]*domain.Account, len(st.Accounts))
	s.index.Clear(false)
	s.locks = make(map[string]*sync.Mutex)
	for _, a := range st.Accounts {
		s.put(a.Clone())
	}

	s.activeID = ""
	if _, ok := s.accounts[st.ActiveAccountID]; ok {
		s.activeID = st.ActiveAccountID
	} else if k, ok := s.index.Min(); ok {
		s.activeID = k.ID
	}
	s.version++
}

// put stores a and indexes it. Callers hold s.mu.
func (s *AccountStore) put(a *domain.Account) {
	s.accounts[a.ID] = a
	s.index.ReplaceOrInsert(accountKey{CreatedAt: a.CreatedAt, ID: a.ID})
}
