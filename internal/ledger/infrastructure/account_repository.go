package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

const accountColumns = `id, user_id, name, type, scope, balance, start_date, closing_day, payment_day, is_credit, is_archived`

func scanAccount(row interface{ Scan(...interface{}) error }) (*domain.Account, error) {
	var account domain.Account
	var startDate sql.NullTime
	if err := row.Scan(&account.ID, &account.UserID, &account.Name, &account.Type, &account.Scope,
		&account.Balance, &startDate, &account.ClosingDay, &account.PaymentDay, &account.IsCredit, &account.IsArchived); err != nil {
		return nil, err
	}
	if startDate.Valid {
		d := startDate.Time.UTC()
		account.StartDate = &d
	}
	return &account, nil
}

func (r *AccountRepository) FindByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var accounts []domain.Account
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, *account)
	}
	return accounts, rows.Err()
}

func (r *AccountRepository) FindByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	account, err := scanAccount(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewReferenceErrorf("Account %s not found", accountID)
	}
	if err != nil {
		return nil, err
	}
	return account, nil
}

func (r *AccountRepository) Save(ctx context.Context, account domain.Account) error {
	var startDate *time.Time
	if account.StartDate != nil {
		d := domain.TruncateToDay(*account.StartDate)
		startDate = &d
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, user_id, name, type, scope, balance, start_date, closing_day, payment_day, is_credit, is_archived)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		account.ID, account.UserID, account.Name, account.Type, account.Scope,
		account.Balance, startDate, account.ClosingDay, account.PaymentDay, account.IsCredit, account.IsArchived)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	return nil
}

func (r *AccountRepository) Update(ctx context.Context, account domain.Account) error {
	var startDate *time.Time
	if account.StartDate != nil {
		d := domain.TruncateToDay(*account.StartDate)
		startDate = &d
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET name = $1, type = $2, scope = $3, start_date = $4, closing_day = $5,
		        payment_day = $6, is_credit = $7, is_archived = $8
		 WHERE id = $9 AND user_id = $10`,
		account.Name, account.Type, account.Scope, startDate, account.ClosingDay,
		account.PaymentDay, account.IsCredit, account.IsArchived, account.ID, account.UserID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Account %s not found", account.ID)
	}
	return nil
}

func (r *AccountRepository) Delete(ctx context.Context, userID, accountID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM accounts WHERE id = $1 AND user_id = $2`, accountID, userID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Account %s not found", accountID)
	}
	return nil
}
