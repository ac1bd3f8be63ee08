// Package persist keeps the account collection in sync with the state
// store.
package persist

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/efreitasn/simledger/internal/store"
)

// StateKey is the state store key holding the account collection.
const StateKey = "appData"

// Flusher loads the account collection at startup and periodically writes
// it back when it has changed.
type Flusher struct {
	interval time.Duration
	accounts *store.AccountStore
	state    *store.StateStore
	logger   *slog.Logger

	mu      sync.Mutex // serializes flushes
	flushed uint64     // store version last written
}

// NewFlusher creates a new Flusher with the given dependencies.
func NewFlusher(
	interval time.Duration,
	accounts *store.AccountStore,
	state *store.StateStore,
	logger *slog.Logger,
) *Flusher {
	return &Flusher{
		interval: interval,
		accounts: accounts,
		state:    state,
		logger:   logger,
	}
}

// Load restores the saved collection into the account store. It reports
// false when nothing was saved yet.
func (f *Flusher) Load(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var st store.State
	found, err := f.state.Get(ctx, StateKey, &st)
	if err != nil {
		return false, fmt.Errorf("load accounts: %w", err)
	}
	if !found {
		return false, nil
	}

	f.accounts.Restore(st)
	f.flushed = f.accounts.Version()
	f.logger.Info("accounts restored",
		slog.Int("accounts", len(st.Accounts)),
		slog.String("active_account_id", f.accounts.Active()),
	)
	return true, nil
}

// Flush writes the collection if it changed since the last write.
func (f *Flusher) Flush(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.accounts.Version() == f.flushed {
		return nil
	}
	st, version := f.accounts.Snapshot()
	if err := f.state.Set(ctx, StateKey, st); err != nil {
		return fmt.Errorf("save accounts: %w", err)
	}
	f.flushed = version
	f.logger.Debug("accounts saved",
		slog.Int("accounts", len(st.Accounts)),
		slog.Uint64("version", version),
	)
	return nil
}

// Start launches a background goroutine that flushes at the configured
// interval. It stops when ctx is cancelled; callers flush once more on
// shutdown.
func (f *Flusher) Start(ctx context.Context) {
	go func() {
		ticker := time.NewTicker(f.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := f.Flush(ctx); err != nil {
					f.logger.Error("flush failed", slog.String("error", err.Error()))
				}
			}
		}
	}()
}
