package domain

import (
	"context"
	"time"

	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type AccountType string

const (
	AccountCash       AccountType = "cash"
	AccountBank       AccountType = "bank"
	AccountCreditCard AccountType = "credit_card"
	AccountEMoney     AccountType = "e_money"
	AccountInvestment AccountType = "investment"
)

func IsValidAccountType(t string) bool {
	switch AccountType(t) {
	case AccountCash, AccountBank, AccountCreditCard, AccountEMoney, AccountInvestment:
		return true
	}
	return false
}

// Account holds the authoritative current balance. The balance is never
// derived at read time; it only moves by signed deltas applied together with
// the transaction write that caused them.
type Account struct {
	ID         string      `json:"id"`
	UserID     string      `json:"-"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	Scope      Scope       `json:"scope"`
	Balance    int64       `json:"balance"`
	StartDate  *time.Time  `json:"start_date,omitempty"`
	ClosingDay int         `json:"closing_day,omitempty"` // 1..31, or 99 for end of month
	PaymentDay int         `json:"payment_day,omitempty"`
	IsCredit   bool        `json:"is_credit"`
	IsArchived bool        `json:"is_archived"`
}

func (a *Account) Validate() error {
	if a.Name == "" {
		return ledgerErrors.NewValidationError("Account name is required")
	}
	if !IsValidAccountType(string(a.Type)) {
		return ledgerErrors.NewValidationErrorf("Invalid account type %q", a.Type)
	}
	if a.ClosingDay != 0 && a.ClosingDay != 99 && (a.ClosingDay < 1 || a.ClosingDay > 31) {
		return ledgerErrors.NewValidationError("Closing day must be 1..31 or 99")
	}
	if a.PaymentDay != 0 && (a.PaymentDay < 1 || a.PaymentDay > 31) {
		return ledgerErrors.NewValidationError("Payment day must be 1..31")
	}
	return nil
}

// AcceptsDate reports whether a transaction dated on day may touch this
// account. StartDate, when set, is a hard floor at day granularity.
func (a *Account) AcceptsDate(day time.Time) bool {
	if a.StartDate == nil {
		return true
	}
	return !TruncateToDay(day).Before(TruncateToDay(*a.StartDate))
}

type AccountRepository interface {
	FindByUser(ctx context.Context, userID string) ([]Account, error)
	FindByID(ctx context.Context, userID, accountID string) (*Account, error)
	Save(ctx context.Context, account Account) error
	Update(ctx context.Context, account Account) error
	Delete(ctx context.Context, userID, accountID string) error
}
