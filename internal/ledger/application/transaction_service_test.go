package application

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/infrastructure/memstore"
)

const testUser = "user-1"

type testLedger struct {
	store        *memstore.Store
	accounts     *AccountService
	categories   *CategoryService
	transactions *TransactionService
}

func newTestLedger(t *testing.T) *testLedger {
	t.Helper()
	store := memstore.New()
	accounts := NewAccountService(store.Accounts())
	categories := NewCategoryService(store.Categories())
	transactions := NewTransactionService(store.Transactions(), accounts, categories)
	return &testLedger{
		store:        store,
		accounts:     accounts,
		categories:   categories,
		transactions: transactions,
	}
}

func (l *testLedger) seedAccount(t *testing.T, id, name string, balance int64) {
	t.Helper()
	require.NoError(t, l.store.Accounts().Save(context.Background(), domain.Account{
		ID:      id,
		UserID:  testUser,
		Name:    name,
		Type:    domain.AccountBank,
		Scope:   domain.ScopePrivate,
		Balance: balance,
	}))
}

func (l *testLedger) seedCategory(t *testing.T, id, name string) {
	t.Helper()
	require.NoError(t, l.store.Categories().Save(context.Background(), domain.Category{
		ID:     id,
		UserID: testUser,
		Name:   name,
		Type:   domain.CategoryExpense,
	}))
}

func (l *testLedger) balance(t *testing.T, accountID string) int64 {
	t.Helper()
	account, err := l.accounts.GetAccount(context.Background(), testUser, accountID)
	require.NoError(t, err)
	return account.Balance
}

func TestTransactionService_Lifecycle(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	ledger.seedAccount(t, "acc-a", "Checking", 1000)
	ledger.seedAccount(t, "acc-b", "Savings", 500)
	ledger.seedCategory(t, "cat-food", "Food")

	expense := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeExpense,
		Date:            time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Amount:          200,
		CategoryID:      "cat-food",
		SourceAccountID: "acc-a",
	}
	require.NoError(t, ledger.transactions.SaveTransaction(ctx, expense))
	require.NotEmpty(t, expense.ID)
	assert.Equal(t, int64(800), ledger.balance(t, "acc-a"))
	assert.Equal(t, "Food", expense.CategoryName)
	assert.Equal(t, domain.ScopePrivate, expense.Scope)
	assert.Equal(t, domain.ApprovalConfirmed, expense.ApprovalStatus)

	// Edit the amount: the old deltas reverse and the new ones apply in one go.
	edited := *expense
	edited.Amount = 300
	require.NoError(t, ledger.transactions.UpdateTransaction(ctx, &edited))
	assert.Equal(t, int64(700), ledger.balance(t, "acc-a"))
	assert.Equal(t, expense.CreatedAt, edited.CreatedAt)

	// Delete restores the original balance exactly.
	require.NoError(t, ledger.transactions.DeleteTransaction(ctx, testUser, expense.ID))
	assert.Equal(t, int64(1000), ledger.balance(t, "acc-a"))

	// Transfer conserves the two-account sum.
	transfer := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeTransfer,
		Date:            time.Date(2026, 5, 11, 0, 0, 0, 0, time.UTC),
		Amount:          100,
		SourceAccountID: "acc-a",
		TargetAccountID: "acc-b",
	}
	require.NoError(t, ledger.transactions.SaveTransaction(ctx, transfer))
	assert.Equal(t, int64(900), ledger.balance(t, "acc-a"))
	assert.Equal(t, int64(600), ledger.balance(t, "acc-b"))
	assert.Equal(t, int64(1500), ledger.balance(t, "acc-a")+ledger.balance(t, "acc-b"))
}

func TestTransactionService_EditMatchesDeleteAndRecreate(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	ledger.seedAccount(t, "acc-a", "Checking", 1000)
	ledger.seedCategory(t, "cat-food", "Food")

	base := domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeExpense,
		Date:            time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Amount:          250,
		CategoryID:      "cat-food",
		SourceAccountID: "acc-a",
	}

	viaEdit := base
	require.NoError(t, ledger.transactions.SaveTransaction(ctx, &viaEdit))
	changed := viaEdit
	changed.Amount = 400
	require.NoError(t, ledger.transactions.UpdateTransaction(ctx, &changed))
	editBalance := ledger.balance(t, "acc-a")

	require.NoError(t, ledger.transactions.DeleteTransaction(ctx, testUser, viaEdit.ID))
	recreated := base
	recreated.Amount = 400
	require.NoError(t, ledger.transactions.SaveTransaction(ctx, &recreated))

	assert.Equal(t, editBalance, ledger.balance(t, "acc-a"))
}

func TestTransactionService_StartDateFloor(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	start := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, ledger.store.Accounts().Save(ctx, domain.Account{
		ID:        "acc-new",
		UserID:    testUser,
		Name:      "New Bank",
		Type:      domain.AccountBank,
		Scope:     domain.ScopePrivate,
		StartDate: &start,
	}))
	ledger.seedAccount(t, "acc-old", "Old Bank", 0)
	ledger.seedCategory(t, "cat-food", "Food")

	tooEarly := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeExpense,
		Date:            start.AddDate(0, 0, -1),
		Amount:          100,
		CategoryID:      "cat-food",
		SourceAccountID: "acc-new",
	}
	err := ledger.transactions.SaveTransaction(ctx, tooEarly)
	assert.True(t, ledgerErrors.IsValidationError(err))
	assert.Equal(t, int64(0), ledger.balance(t, "acc-new"))

	// The floor also guards the receiving side of a transfer.
	transfer := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeTransfer,
		Date:            start.AddDate(0, 0, -1),
		Amount:          100,
		SourceAccountID: "acc-old",
		TargetAccountID: "acc-new",
	}
	err = ledger.transactions.SaveTransaction(ctx, transfer)
	assert.True(t, ledgerErrors.IsValidationError(err))

	onStart := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeExpense,
		Date:            start,
		Amount:          100,
		CategoryID:      "cat-food",
		SourceAccountID: "acc-new",
	}
	assert.NoError(t, ledger.transactions.SaveTransaction(ctx, onStart))
}

func TestTransactionService_UnknownAccountLeavesStoreUntouched(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	ledger.seedAccount(t, "acc-a", "Checking", 1000)
	ledger.seedCategory(t, "cat-food", "Food")

	expense := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeExpense,
		Date:            time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Amount:          100,
		CategoryID:      "cat-food",
		SourceAccountID: "acc-missing",
	}
	err := ledger.transactions.SaveTransaction(ctx, expense)
	assert.True(t, ledgerErrors.IsReferenceError(err))

	transactions, err := ledger.transactions.GetRecentTransactions(ctx, testUser, 10)
	require.NoError(t, err)
	assert.Empty(t, transactions)
	assert.Equal(t, int64(1000), ledger.balance(t, "acc-a"))
}

func TestTransactionService_CategorySnapshotGoesStale(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	ledger.seedAccount(t, "acc-a", "Checking", 1000)
	ledger.seedCategory(t, "cat-food", "Food")

	expense := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeExpense,
		Date:            time.Date(2026, 5, 10, 0, 0, 0, 0, time.UTC),
		Amount:          100,
		CategoryID:      "cat-food",
		SourceAccountID: "acc-a",
	}
	require.NoError(t, ledger.transactions.SaveTransaction(ctx, expense))

	renamed := domain.Category{ID: "cat-food", UserID: testUser, Name: "Groceries", Type: domain.CategoryExpense}
	require.NoError(t, ledger.categories.UpdateCategory(ctx, &renamed))

	stored, err := ledger.store.Transactions().FindByID(ctx, testUser, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "Food", stored.CategoryName)
}

func TestTransactionService_MonthlyExpenseBreakdown(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	ledger.seedAccount(t, "acc-a", "Checking", 10000)
	ledger.seedCategory(t, "cat-food", "Food")
	ledger.seedCategory(t, "cat-rent", "Rent")

	save := func(amount int64, categoryID string, day int) {
		t.Helper()
		expense := &domain.Transaction{
			UserID:          testUser,
			Type:            domain.TypeExpense,
			Date:            time.Date(2026, 5, day, 0, 0, 0, 0, time.UTC),
			Amount:          amount,
			CategoryID:      categoryID,
			SourceAccountID: "acc-a",
		}
		require.NoError(t, ledger.transactions.SaveTransaction(ctx, expense))
	}
	save(300, "cat-food", 5)
	save(200, "cat-food", 12)
	save(1500, "cat-rent", 1)

	// Income must not appear in the expense pie.
	income := &domain.Transaction{
		UserID:          testUser,
		Type:            domain.TypeIncome,
		Date:            time.Date(2026, 5, 25, 0, 0, 0, 0, time.UTC),
		Amount:          5000,
		CategoryID:      "cat-food",
		TargetAccountID: "acc-a",
	}
	require.NoError(t, ledger.transactions.SaveTransaction(ctx, income))

	breakdown, err := ledger.transactions.GetMonthlyExpenseBreakdown(ctx, testUser, 2026, time.May)
	require.NoError(t, err)
	require.Len(t, breakdown, 2)

	assert.Equal(t, "Rent", breakdown[0].CategoryName)
	assert.Equal(t, int64(1500), breakdown[0].Amount)
	assert.Equal(t, "Food", breakdown[1].CategoryName)
	assert.Equal(t, int64(500), breakdown[1].Amount)
	assert.InDelta(t, 75.0, breakdown[0].Percentage, 0.001)
	assert.InDelta(t, 25.0, breakdown[1].Percentage, 0.001)
}

func TestAccountService_UpdateNeverMovesBalance(t *testing.T) {
	ledger := newTestLedger(t)
	ctx := context.Background()
	ledger.seedAccount(t, "acc-a", "Checking", 1234)

	edited := domain.Account{
		ID:      "acc-a",
		UserID:  testUser,
		Name:    "Renamed",
		Type:    domain.AccountBank,
		Scope:   domain.ScopePrivate,
		Balance: 999999,
	}
	require.NoError(t, ledger.accounts.UpdateAccount(ctx, &edited))
	assert.Equal(t, int64(1234), ledger.balance(t, "acc-a"))
}
