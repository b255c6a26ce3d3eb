package ledger

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Veraticus/ledgerflow/internal/model"
)

func TestStore_DispatchBumpsVersion(t *testing.T) {
	store := NewStore(nil)

	snap, err := store.Dispatch(AddAccount{At: testTime, Account: account("a1", "Checking", model.AccountTypeChecking, "0")})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version())
	assert.Same(t, snap, store.Snapshot())
}

func TestStore_RejectedIntentLeavesStateUnchanged(t *testing.T) {
	store := NewStore(cascadeSnapshot())
	before := store.Snapshot()
	housing, _ := before.Category("c-default")

	var notified int
	store.Subscribe(func(*Snapshot) { notified++ })

	snap, err := store.Dispatch(DeleteCategory{Deletion: CategoryDeletion{ID: housing.ID, Category: housing}})
	assert.ErrorIs(t, err, ErrCategoryReadOnly)
	assert.Same(t, before, snap)
	assert.Same(t, before, store.Snapshot())
	assert.Zero(t, notified)
}

func TestStore_SubscribersSeeEveryChange(t *testing.T) {
	store := NewStore(nil)
	var versions []uint64
	store.Subscribe(func(s *Snapshot) { versions = append(versions, s.Version()) })

	_, err := store.Dispatch(AddAccount{At: testTime, Account: account("a1", "Checking", model.AccountTypeChecking, "0")})
	require.NoError(t, err)
	_, err = store.Dispatch(AdjustBalance{At: testTime, AccountID: "a1", Delta: d("5")})
	require.NoError(t, err)
	// Unknown ID: no new snapshot, no notification.
	_, err = store.Dispatch(DeleteTransaction{ID: "missing"})
	require.NoError(t, err)

	assert.Equal(t, []uint64{1, 2}, versions)
}

func TestBatch_AppliesAllOrNothing(t *testing.T) {
	s := cascadeSnapshot()
	food, _ := s.Category("c-food")

	t.Run("success", func(t *testing.T) {
		n, err := Batch{
			AddTransaction{Transaction: expense("t9", "a1", "Food", "5")},
			AdjustBalance{At: testTime, AccountID: "a1", Delta: d("-5")},
		}.Apply(s)
		require.NoError(t, err)
		assert.Equal(t, s.Version()+1, n.Version())
		acct, _ := n.Account("a1")
		assert.True(t, acct.Balance.Equal(d("995")))
	})

	t.Run("failure", func(t *testing.T) {
		n, err := Batch{
			AddTransaction{Transaction: expense("t9", "a1", "Food", "5")},
			RenameCategory{Update: CategoryUpdate{ID: "c-food", Previous: food, Updates: model.CategoryInput{Name: "Groceries"}}},
		}.Apply(s)
		assert.ErrorIs(t, err, ErrCategoryDuplicate)
		assert.Same(t, s, n)
	})
}

func TestStore_ConcurrentDispatch(t *testing.T) {
	store := NewStore(NewSnapshot(
		[]model.Account{account("a1", "Checking", model.AccountTypeChecking, "0")},
		nil, nil, nil,
	))

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = store.Dispatch(AdjustBalance{At: testTime, AccountID: "a1", Delta: d("1")})
		}()
	}
	wg.Wait()

	acct, _ := store.Snapshot().Account("a1")
	assert.True(t, acct.Balance.Equal(d("50")))
	assert.Equal(t, uint64(50), store.Snapshot().Version())
}
