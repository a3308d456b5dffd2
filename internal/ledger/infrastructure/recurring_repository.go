package infrastructure

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type RecurringRepository struct {
	db *sql.DB
}

func NewRecurringRepository(db *sql.DB) *RecurringRepository {
	return &RecurringRepository{db: db}
}

const recurringColumns = `id, user_id, amount, category_id, sub_category, source_account_id,
	frequency, day, holiday_action, end_date, next_due_date, created_at`

func scanRecurringRule(row interface{ Scan(...interface{}) error }) (*domain.RecurringRule, error) {
	var rule domain.RecurringRule
	var endDate, nextDueDate sql.NullTime
	if err := row.Scan(&rule.ID, &rule.UserID, &rule.Amount, &rule.CategoryID, &rule.SubCategory,
		&rule.SourceAccountID, &rule.Frequency, &rule.Day, &rule.HolidayAction,
		&endDate, &nextDueDate, &rule.CreatedAt); err != nil {
		return nil, err
	}
	if endDate.Valid {
		d := endDate.Time.UTC()
		rule.EndDate = &d
	}
	if nextDueDate.Valid {
		d := nextDueDate.Time.UTC()
		rule.NextDueDate = &d
	}
	return &rule, nil
}

func (r *RecurringRepository) FindByUser(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_rules WHERE user_id = $1 ORDER BY created_at`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RecurringRule
	for rows.Next() {
		rule, err := scanRecurringRule(rows)
		if err != nil {
			return nil, err
		}
		rules = append(rules, *rule)
	}
	return rules, rows.Err()
}

func (r *RecurringRepository) FindByID(ctx context.Context, userID, ruleID string) (*domain.RecurringRule, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+recurringColumns+` FROM recurring_rules WHERE id = $1 AND user_id = $2`, ruleID, userID)
	rule, err := scanRecurringRule(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", ruleID)
	}
	if err != nil {
		return nil, err
	}
	return rule, nil
}

func (r *RecurringRepository) Save(ctx context.Context, rule domain.RecurringRule) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO recurring_rules (id, user_id, amount, category_id, sub_category, source_account_id,
		    frequency, day, holiday_action, end_date, next_due_date, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		rule.ID, rule.UserID, rule.Amount, rule.CategoryID, rule.SubCategory, rule.SourceAccountID,
		rule.Frequency, rule.Day, rule.HolidayAction, rule.EndDate, rule.NextDueDate, rule.CreatedAt)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	return nil
}

func (r *RecurringRepository) Update(ctx context.Context, rule domain.RecurringRule) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET amount = $1, category_id = $2, sub_category = $3,
		        source_account_id = $4, frequency = $5, day = $6, holiday_action = $7,
		        end_date = $8, next_due_date = $9
		 WHERE id = $10 AND user_id = $11`,
		rule.Amount, rule.CategoryID, rule.SubCategory, rule.SourceAccountID,
		rule.Frequency, rule.Day, rule.HolidayAction, rule.EndDate, rule.NextDueDate,
		rule.ID, rule.UserID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", rule.ID)
	}
	return nil
}

func (r *RecurringRepository) Delete(ctx context.Context, userID, ruleID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM recurring_rules WHERE id = $1 AND user_id = $2`, ruleID, userID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", ruleID)
	}
	return nil
}

func (r *RecurringRepository) UpdateNextDueDate(ctx context.Context, userID, ruleID string, next time.Time) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE recurring_rules SET next_due_date = $1 WHERE id = $2 AND user_id = $3`,
		domain.TruncateToDay(next), ruleID, userID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", ruleID)
	}
	return nil
}

func (r *RecurringRepository) ListUserIDs(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT DISTINCT user_id FROM recurring_rules`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var userID string
		if err := rows.Scan(&userID); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, userID)
	}
	return userIDs, rows.Err()
}
