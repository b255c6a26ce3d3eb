package ledger

import (
	"log/slog"
	"sync"
)

// Store owns the current snapshot. Dispatch applies one intent at a time, so
// no partially applied state is ever visible to readers.
type Store struct {
	current     *Snapshot
	subscribers []func(*Snapshot)
	mu          sync.Mutex
}

// NewStore creates a store starting from the given snapshot.
func NewStore(initial *Snapshot) *Store {
	if initial == nil {
		initial = Empty()
	}
	return &Store{current: initial}
}

// Snapshot returns the current snapshot. It is safe to keep and read after
// later dispatches.
func (s *Store) Snapshot() *Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

// Dispatch applies an intent to the current snapshot. A rejected intent leaves
// the store unchanged and returns the rule error.
func (s *Store) Dispatch(intent Intent) (*Snapshot, error) {
	s.mu.Lock()
	prev := s.current
	next, err := intent.Apply(prev)
	if err != nil {
		s.mu.Unlock()
		slog.Debug("intent rejected", "intent", intentName(intent), "error", err)
		return prev, err
	}
	s.current = next
	subs := s.subscribers
	s.mu.Unlock()

	if next != prev {
		slog.Debug("intent applied", "intent", intentName(intent), "version", next.Version())
		for _, fn := range subs {
			fn(next)
		}
	}
	return next, nil
}

// Replace swaps in a whole new snapshot, e.g. after hydrating from storage.
func (s *Store) Replace(snapshot *Snapshot) {
	s.mu.Lock()
	snapshot.version = s.current.version + 1
	s.current = snapshot
	subs := s.subscribers
	s.mu.Unlock()

	for _, fn := range subs {
		fn(snapshot)
	}
}

// Subscribe registers fn to be called with every new snapshot. Calls happen on
// the dispatching goroutine after the store lock is released.
func (s *Store) Subscribe(fn func(*Snapshot)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subscribers = append(s.subscribers, fn)
}

func intentName(intent Intent) string {
	switch intent.(type) {
	case AddAccount:
		return "add_account"
	case UpdateAccount:
		return "update_account"
	case DeleteAccount:
		return "delete_account"
	case AdjustBalance:
		return "adjust_balance"
	case AddTransaction:
		return "add_transaction"
	case UpdateTransaction:
		return "update_transaction"
	case DeleteTransaction:
		return "delete_transaction"
	case ExecuteTransfer:
		return "execute_transfer"
	case AddCategory:
		return "add_category"
	case RenameCategory:
		return "rename_category"
	case DeleteCategory:
		return "delete_category"
	case AddBudget:
		return "add_budget"
	case UpdateBudget:
		return "update_budget"
	case DeleteBudget:
		return "delete_budget"
	case RecordBudgetSpending:
		return "record_budget_spending"
	case SetBudgetSpent:
		return "set_budget_spent"
	case Batch:
		return "batch"
	}
	return "unknown"
}
