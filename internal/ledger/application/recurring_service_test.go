package application

import (
	"context"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	"github.com/annieworksdev-rgb/OurStack/internal/ledger/infrastructure/memstore"
)

func newRecurringFixture(t *testing.T) (*testLedger, *RecurringService) {
	t.Helper()
	ledger := newTestLedger(t)
	ledger.seedAccount(t, "acc-a", "Checking", 100000)
	ledger.seedCategory(t, "cat-rent", "Rent")
	recurring := NewRecurringService(ledger.store.Recurring(), ledger.transactions)
	return ledger, recurring
}

func seedRule(t *testing.T, store *memstore.Store, rule domain.RecurringRule) {
	t.Helper()
	require.NoError(t, store.Recurring().Save(context.Background(), rule))
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func TestNextOccurrence(t *testing.T) {
	assert.Equal(t, day(2026, 2, 25), nextOccurrence(day(2026, 1, 25), domain.FreqMonthly, 25))
	assert.Equal(t, day(2026, 4, 25), nextOccurrence(day(2026, 1, 25), domain.FreqThreeMonths, 25))
	assert.Equal(t, day(2027, 1, 25), nextOccurrence(day(2026, 1, 25), domain.FreqYearly, 25))

	// Short months roll the date into the following month.
	assert.Equal(t, day(2026, 3, 3), nextOccurrence(day(2026, 1, 31), domain.FreqMonthly, 31))
}

func TestShiftForHoliday(t *testing.T) {
	saturday := day(2026, 1, 31)
	require.Equal(t, time.Saturday, saturday.Weekday())
	sunday := day(2026, 2, 1)

	assert.Equal(t, day(2026, 1, 30), shiftForHoliday(saturday, domain.HolidayBefore))
	assert.Equal(t, day(2026, 2, 2), shiftForHoliday(saturday, domain.HolidayAfter))
	assert.Equal(t, day(2026, 1, 30), shiftForHoliday(sunday, domain.HolidayBefore))
	assert.Equal(t, day(2026, 2, 2), shiftForHoliday(sunday, domain.HolidayAfter))
	assert.Equal(t, saturday, shiftForHoliday(saturday, domain.HolidayNone))

	// Weekdays pass through untouched.
	monday := day(2026, 2, 2)
	assert.Equal(t, monday, shiftForHoliday(monday, domain.HolidayAfter))
}

func TestRecurringService_BackfillsMissedOccurrences(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-1",
		UserID:          testUser,
		Amount:          700,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             25,
		HolidayAction:   domain.HolidayNone,
		CreatedAt:       day(2026, 1, 10),
	})

	created, err := recurring.ProcessDueOccurrences(ctx, testUser, day(2026, 3, 30))
	require.NoError(t, err)
	assert.Equal(t, 3, created)

	transactions, err := ledger.transactions.GetTransactionsInRange(ctx, testUser, day(2026, 1, 1), day(2026, 12, 31))
	require.NoError(t, err)
	require.Len(t, transactions, 3)
	dates := make([]time.Time, 0, 3)
	for _, transaction := range transactions {
		assert.Equal(t, domain.TypeExpense, transaction.Type)
		assert.Equal(t, AutoEntryMemo, transaction.Memo)
		assert.Equal(t, int64(700), transaction.Amount)
		dates = append(dates, transaction.Date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	assert.Equal(t, []time.Time{day(2026, 1, 25), day(2026, 2, 25), day(2026, 3, 25)}, dates)

	// 3 materialized occurrences of 700 each.
	assert.Equal(t, int64(100000-3*700), ledger.balance(t, "acc-a"))

	rule, err := ledger.store.Recurring().FindByID(ctx, testUser, "rule-1")
	require.NoError(t, err)
	require.NotNil(t, rule.NextDueDate)
	assert.Equal(t, day(2026, 4, 25), *rule.NextDueDate)
}

func TestRecurringService_ReplayCreatesNothing(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-1",
		UserID:          testUser,
		Amount:          700,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             25,
		HolidayAction:   domain.HolidayNone,
		CreatedAt:       day(2026, 1, 10),
	})

	now := day(2026, 3, 30)
	created, err := recurring.ProcessDueOccurrences(ctx, testUser, now)
	require.NoError(t, err)
	require.Equal(t, 3, created)
	balanceAfterFirstRun := ledger.balance(t, "acc-a")

	for i := 0; i < 3; i++ {
		created, err = recurring.ProcessDueOccurrences(ctx, testUser, now)
		require.NoError(t, err)
		assert.Zero(t, created)
	}
	assert.Equal(t, balanceAfterFirstRun, ledger.balance(t, "acc-a"))
}

func TestRecurringService_HolidayShiftWithoutCursorDrift(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-1",
		UserID:          testUser,
		Amount:          500,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             31,
		HolidayAction:   domain.HolidayAfter,
		CreatedAt:       day(2026, 1, 5),
	})

	created, err := recurring.ProcessDueOccurrences(ctx, testUser, day(2026, 2, 10))
	require.NoError(t, err)
	require.Equal(t, 1, created)

	// Jan 31 2026 is a Saturday, so the transaction lands on Monday Feb 2.
	transactions, err := ledger.transactions.GetTransactionsInRange(ctx, testUser, day(2026, 1, 1), day(2026, 12, 31))
	require.NoError(t, err)
	require.Len(t, transactions, 1)
	assert.Equal(t, day(2026, 2, 2), transactions[0].Date)

	// The cursor advanced from the un-shifted Jan 31 due date; day 31 rolls
	// over February into March 3.
	rule, err := ledger.store.Recurring().FindByID(ctx, testUser, "rule-1")
	require.NoError(t, err)
	require.NotNil(t, rule.NextDueDate)
	assert.Equal(t, day(2026, 3, 3), *rule.NextDueDate)
}

func TestRecurringService_FutureFirstDueOnlyPersistsCursor(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-1",
		UserID:          testUser,
		Amount:          500,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             15,
		HolidayAction:   domain.HolidayNone,
		CreatedAt:       day(2026, 5, 1),
	})

	created, err := recurring.ProcessDueOccurrences(ctx, testUser, day(2026, 5, 10))
	require.NoError(t, err)
	assert.Zero(t, created)
	assert.Equal(t, int64(100000), ledger.balance(t, "acc-a"))

	rule, err := ledger.store.Recurring().FindByID(ctx, testUser, "rule-1")
	require.NoError(t, err)
	require.NotNil(t, rule.NextDueDate)
	assert.Equal(t, day(2026, 5, 15), *rule.NextDueDate)
}

func TestRecurringService_EndDateStopsMaterialization(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	end := day(2026, 2, 28)
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-1",
		UserID:          testUser,
		Amount:          500,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             25,
		HolidayAction:   domain.HolidayNone,
		EndDate:         &end,
		CreatedAt:       day(2026, 1, 1),
	})

	created, err := recurring.ProcessDueOccurrences(ctx, testUser, day(2026, 4, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, created)

	transactions, err := ledger.transactions.GetTransactionsInRange(ctx, testUser, day(2026, 1, 1), day(2026, 12, 31))
	require.NoError(t, err)
	assert.Len(t, transactions, 2)
}

func TestRecurringService_RuleFailureDoesNotAbortOthers(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	// rule-bad references a missing account; its occurrences can never commit.
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-bad",
		UserID:          testUser,
		Amount:          500,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-missing",
		Frequency:       domain.FreqMonthly,
		Day:             10,
		HolidayAction:   domain.HolidayNone,
		CreatedAt:       day(2026, 1, 1),
	})
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-good",
		UserID:          testUser,
		Amount:          300,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             10,
		HolidayAction:   domain.HolidayNone,
		CreatedAt:       day(2026, 1, 5),
	})

	created, err := recurring.ProcessDueOccurrences(ctx, testUser, day(2026, 1, 20))
	require.NoError(t, err)
	assert.Equal(t, 1, created)
	assert.Equal(t, int64(100000-300), ledger.balance(t, "acc-a"))

	// The failed rule's cursor is untouched and gets retried next trigger.
	bad, err := ledger.store.Recurring().FindByID(ctx, testUser, "rule-bad")
	require.NoError(t, err)
	assert.Nil(t, bad.NextDueDate)
}

func TestRecurringService_ProcessAllUsers(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()

	// Second user with their own account, category and rule.
	require.NoError(t, ledger.store.Accounts().Save(ctx, domain.Account{
		ID: "acc-u2", UserID: "user-2", Name: "Checking", Type: domain.AccountBank,
		Scope: domain.ScopePrivate, Balance: 5000,
	}))
	require.NoError(t, ledger.store.Categories().Save(ctx, domain.Category{
		ID: "cat-u2", UserID: "user-2", Name: "Rent", Type: domain.CategoryExpense,
	}))
	seedRule(t, ledger.store, domain.RecurringRule{
		ID: "rule-u1", UserID: testUser, Amount: 100, CategoryID: "cat-rent",
		SourceAccountID: "acc-a", Frequency: domain.FreqMonthly, Day: 5,
		HolidayAction: domain.HolidayNone, CreatedAt: day(2026, 1, 1),
	})
	seedRule(t, ledger.store, domain.RecurringRule{
		ID: "rule-u2", UserID: "user-2", Amount: 200, CategoryID: "cat-u2",
		SourceAccountID: "acc-u2", Frequency: domain.FreqMonthly, Day: 5,
		HolidayAction: domain.HolidayNone, CreatedAt: day(2026, 1, 1),
	})

	total, err := recurring.ProcessAllUsers(ctx, day(2026, 1, 10))
	require.NoError(t, err)
	assert.Equal(t, 2, total)

	other, err := ledger.store.Accounts().FindByID(ctx, "user-2", "acc-u2")
	require.NoError(t, err)
	assert.Equal(t, int64(4800), other.Balance)
}

func TestRecurringService_UpdateRuleResetsCursorOnScheduleChange(t *testing.T) {
	ledger, recurring := newRecurringFixture(t)
	ctx := context.Background()
	seedRule(t, ledger.store, domain.RecurringRule{
		ID:              "rule-1",
		UserID:          testUser,
		Amount:          500,
		CategoryID:      "cat-rent",
		SourceAccountID: "acc-a",
		Frequency:       domain.FreqMonthly,
		Day:             25,
		HolidayAction:   domain.HolidayNone,
		CreatedAt:       day(2026, 1, 10),
	})
	_, err := recurring.ProcessDueOccurrences(ctx, testUser, day(2026, 1, 30))
	require.NoError(t, err)

	// Amount-only edit keeps the cursor.
	edited := domain.RecurringRule{
		ID: "rule-1", UserID: testUser, Amount: 900, CategoryID: "cat-rent",
		SourceAccountID: "acc-a", Frequency: domain.FreqMonthly, Day: 25,
		HolidayAction: domain.HolidayNone,
	}
	require.NoError(t, recurring.UpdateRule(ctx, &edited))
	rule, err := ledger.store.Recurring().FindByID(ctx, testUser, "rule-1")
	require.NoError(t, err)
	require.NotNil(t, rule.NextDueDate)
	assert.Equal(t, day(2026, 2, 25), *rule.NextDueDate)

	// Changing the day resets the cursor for re-derivation.
	edited.Day = 1
	require.NoError(t, recurring.UpdateRule(ctx, &edited))
	rule, err = ledger.store.Recurring().FindByID(ctx, testUser, "rule-1")
	require.NoError(t, err)
	assert.Nil(t, rule.NextDueDate)
}
