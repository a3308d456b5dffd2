package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

const testUser = "user-1"

func seedAccounts(t *testing.T, store *Store) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, store.Accounts().Save(ctx, domain.Account{
		ID: "acc-a", UserID: testUser, Name: "Checking", Type: domain.AccountBank, Balance: 1000,
	}))
	require.NoError(t, store.Accounts().Save(ctx, domain.Account{
		ID: "acc-b", UserID: testUser, Name: "Savings", Type: domain.AccountBank, Balance: 500,
	}))
}

func balance(t *testing.T, store *Store, accountID string) int64 {
	t.Helper()
	account, err := store.Accounts().FindByID(context.Background(), testUser, accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestStore_SaveWithDeltasAppliesAtomically(t *testing.T) {
	store := New()
	seedAccounts(t, store)
	ctx := context.Background()

	transaction := domain.Transaction{
		ID: "tx-1", UserID: testUser, Type: domain.TypeTransfer,
		Date: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), Amount: 100,
		SourceAccountID: "acc-a", TargetAccountID: "acc-b",
	}
	require.NoError(t, store.Transactions().SaveWithDeltas(ctx, transaction,
		map[string]int64{"acc-a": -100, "acc-b": 100}))

	assert.Equal(t, int64(900), balance(t, store, "acc-a"))
	assert.Equal(t, int64(600), balance(t, store, "acc-b"))

	stored, err := store.Transactions().FindByID(ctx, testUser, "tx-1")
	require.NoError(t, err)
	assert.Equal(t, int64(100), stored.Amount)
}

func TestStore_MissingAccountRejectsWholeCommit(t *testing.T) {
	store := New()
	seedAccounts(t, store)
	ctx := context.Background()

	transaction := domain.Transaction{
		ID: "tx-1", UserID: testUser, Type: domain.TypeTransfer,
		Date: time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC), Amount: 100,
		SourceAccountID: "acc-a", TargetAccountID: "acc-missing",
	}
	err := store.Transactions().SaveWithDeltas(ctx, transaction,
		map[string]int64{"acc-a": -100, "acc-missing": 100})
	assert.True(t, ledgerErrors.IsReferenceError(err))

	// Nothing moved, nothing written.
	assert.Equal(t, int64(1000), balance(t, store, "acc-a"))
	_, err = store.Transactions().FindByID(ctx, testUser, "tx-1")
	assert.True(t, ledgerErrors.IsReferenceError(err))
}

func TestStore_AccountsAreUserScoped(t *testing.T) {
	store := New()
	seedAccounts(t, store)
	ctx := context.Background()

	_, err := store.Accounts().FindByID(ctx, "someone-else", "acc-a")
	assert.True(t, ledgerErrors.IsReferenceError(err))

	err = store.Transactions().SaveWithDeltas(ctx, domain.Transaction{
		ID: "tx-1", UserID: "someone-else", Type: domain.TypeExpense, Amount: 50,
		SourceAccountID: "acc-a",
	}, map[string]int64{"acc-a": -50})
	assert.True(t, ledgerErrors.IsReferenceError(err))
	assert.Equal(t, int64(1000), balance(t, store, "acc-a"))
}

func TestStore_WatchDeliversChanges(t *testing.T) {
	store := New()
	seedAccounts(t, store)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	events := store.Watch(ctx)

	require.NoError(t, store.Transactions().SaveWithDeltas(context.Background(), domain.Transaction{
		ID: "tx-1", UserID: testUser, Type: domain.TypeExpense, Amount: 100,
		SourceAccountID: "acc-a",
	}, map[string]int64{"acc-a": -100}))

	select {
	case change := <-events:
		assert.Equal(t, "transactions", change.Collection)
		assert.Equal(t, "tx-1", change.ID)
		assert.Equal(t, ChangeCreated, change.Kind)
	case <-time.After(time.Second):
		t.Fatal("expected a change event")
	}

	cancel()
	// Channel closes once the context is done.
	for {
		if _, open := <-events; !open {
			break
		}
	}
}

func TestStore_UpdateNextDueDate(t *testing.T) {
	store := New()
	ctx := context.Background()
	require.NoError(t, store.Recurring().Save(ctx, domain.RecurringRule{
		ID: "rule-1", UserID: testUser, Amount: 100, CategoryID: "cat",
		SourceAccountID: "acc-a", Frequency: domain.FreqMonthly, Day: 5,
		CreatedAt: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}))

	next := time.Date(2026, 2, 5, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.Recurring().UpdateNextDueDate(ctx, testUser, "rule-1", next))

	rule, err := store.Recurring().FindByID(ctx, testUser, "rule-1")
	require.NoError(t, err)
	require.NotNil(t, rule.NextDueDate)
	assert.Equal(t, next, *rule.NextDueDate)

	err = store.Recurring().UpdateNextDueDate(ctx, testUser, "rule-unknown", next)
	assert.True(t, ledgerErrors.IsReferenceError(err))
}

func TestStore_ListUserIDs(t *testing.T) {
	store := New()
	ctx := context.Background()
	for i, userID := range []string{"user-b", "user-a", "user-b"} {
		require.NoError(t, store.Recurring().Save(ctx, domain.RecurringRule{
			ID: string(rune('r'+i)), UserID: userID, Amount: 100, CategoryID: "cat",
			SourceAccountID: "acc", Frequency: domain.FreqMonthly, Day: 1,
			CreatedAt: time.Now(),
		}))
	}

	userIDs, err := store.Recurring().ListUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"user-a", "user-b"}, userIDs)
}
