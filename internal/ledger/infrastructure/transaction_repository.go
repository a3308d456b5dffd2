package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sort"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

const transactionColumns = `id, user_id, type, date, amount, memo, category_id, category_name, sub_category,
	source_account_id, target_account_id, scope, created_by, approval_status, funding_source, image_url,
	created_at, updated_at`

func scanTransaction(row interface{ Scan(...interface{}) error }) (*domain.Transaction, error) {
	var t domain.Transaction
	if err := row.Scan(&t.ID, &t.UserID, &t.Type, &t.Date, &t.Amount, &t.Memo,
		&t.CategoryID, &t.CategoryName, &t.SubCategory,
		&t.SourceAccountID, &t.TargetAccountID, &t.Scope, &t.CreatedBy,
		&t.ApprovalStatus, &t.FundingSource, &t.ImageURL, &t.CreatedAt, &t.UpdatedAt); err != nil {
		return nil, err
	}
	t.Date = t.Date.UTC()
	return &t, nil
}

func safeRollback(tx *sql.Tx) {
	if err := tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		log.Printf("Error rolling back transaction: %v", err)
	}
}

func (r *TransactionRepository) FindByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = $1 AND user_id = $2`,
		transactionID, userID)
	transaction, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewReferenceErrorf("Transaction %s not found", transactionID)
	}
	if err != nil {
		return nil, err
	}
	return transaction, nil
}

func (r *TransactionRepository) FindRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1
		 ORDER BY date DESC, created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func (r *TransactionRepository) FindInDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions
		 WHERE user_id = $1 AND date >= $2 AND date <= $3
		 ORDER BY date ASC, created_at ASC`,
		userID, domain.TruncateToDay(startDate), domain.TruncateToDay(endDate))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectTransactions(rows)
}

func collectTransactions(rows *sql.Rows) ([]domain.Transaction, error) {
	var transactions []domain.Transaction
	for rows.Next() {
		transaction, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		transactions = append(transactions, *transaction)
	}
	return transactions, rows.Err()
}

// applyDeltas adjusts account balances inside the open transaction. Accounts
// are touched in sorted order so two concurrent commits over the same pair
// cannot deadlock each other.
func applyDeltas(ctx context.Context, tx *sql.Tx, userID string, deltas map[string]int64) error {
	accountIDs := make([]string, 0, len(deltas))
	for accountID := range deltas {
		accountIDs = append(accountIDs, accountID)
	}
	sort.Strings(accountIDs)

	for _, accountID := range accountIDs {
		result, err := tx.ExecContext(ctx,
			`UPDATE accounts SET balance = balance + $1 WHERE id = $2 AND user_id = $3`,
			deltas[accountID], accountID, userID)
		if err != nil {
			return ledgerErrors.NewCommitError(err)
		}
		if n, _ := result.RowsAffected(); n == 0 {
			return ledgerErrors.NewReferenceErrorf("Account %s not found", accountID)
		}
	}
	return nil
}

func (r *TransactionRepository) SaveWithDeltas(ctx context.Context, transaction domain.Transaction, deltas map[string]int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	defer safeRollback(tx)

	if err := applyDeltas(ctx, tx, transaction.UserID, deltas); err != nil {
		return err
	}
	_, err = tx.ExecContext(ctx,
		`INSERT INTO transactions (id, user_id, type, date, amount, memo, category_id, category_name, sub_category,
		    source_account_id, target_account_id, scope, created_by, approval_status, funding_source, image_url,
		    created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)`,
		transaction.ID, transaction.UserID, transaction.Type, domain.TruncateToDay(transaction.Date),
		transaction.Amount, transaction.Memo, transaction.CategoryID, transaction.CategoryName,
		transaction.SubCategory, transaction.SourceAccountID, transaction.TargetAccountID,
		transaction.Scope, transaction.CreatedBy, transaction.ApprovalStatus, transaction.FundingSource,
		transaction.ImageURL, transaction.CreatedAt, transaction.UpdatedAt)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}

	if err := tx.Commit(); err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	return nil
}

func (r *TransactionRepository) UpdateWithDeltas(ctx context.Context, transaction domain.Transaction, deltas map[string]int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	defer safeRollback(tx)

	if err := applyDeltas(ctx, tx, transaction.UserID, deltas); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE transactions SET type = $1, date = $2, amount = $3, memo = $4, category_id = $5,
		        category_name = $6, sub_category = $7, source_account_id = $8, target_account_id = $9,
		        scope = $10, approval_status = $11, funding_source = $12, image_url = $13, updated_at = $14
		 WHERE id = $15 AND user_id = $16`,
		transaction.Type, domain.TruncateToDay(transaction.Date), transaction.Amount, transaction.Memo,
		transaction.CategoryID, transaction.CategoryName, transaction.SubCategory,
		transaction.SourceAccountID, transaction.TargetAccountID, transaction.Scope,
		transaction.ApprovalStatus, transaction.FundingSource, transaction.ImageURL,
		transaction.UpdatedAt, transaction.ID, transaction.UserID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Transaction %s not found", transaction.ID)
	}

	if err := tx.Commit(); err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	return nil
}

func (r *TransactionRepository) DeleteWithDeltas(ctx context.Context, userID, transactionID string, deltas map[string]int64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	defer safeRollback(tx)

	if err := applyDeltas(ctx, tx, userID, deltas); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx,
		`DELETE FROM transactions WHERE id = $1 AND user_id = $2`, transactionID, userID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Transaction %s not found", transactionID)
	}

	if err := tx.Commit(); err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	return nil
}
