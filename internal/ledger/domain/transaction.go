package domain

import (
	"context"
	"time"

	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type TransactionType string

const (
	TypeIncome   TransactionType = "income"
	TypeExpense  TransactionType = "expense"
	TypeTransfer TransactionType = "transfer"
	TypeCharge   TransactionType = "charge"
)

func IsValidTransactionType(t string) bool {
	switch TransactionType(t) {
	case TypeIncome, TypeExpense, TypeTransfer, TypeCharge:
		return true
	}
	return false
}

type Scope string

const (
	ScopeShared  Scope = "shared"
	ScopePrivate Scope = "private"
	ScopeFamily  Scope = "family"
)

type ApprovalStatus string

const (
	ApprovalConfirmed ApprovalStatus = "confirmed"
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalRejected  ApprovalStatus = "rejected"
)

type FundingSource string

const (
	FundingShared  FundingSource = "shared_fund"
	FundingPrivate FundingSource = "private_fund"
)

// Transaction is the flat storage shape. Amount is always positive; direction
// comes from Type and the populated account roles. CategoryName is a snapshot
// taken at save time and may go stale when the category is renamed later.
type Transaction struct {
	ID              string          `json:"id"`
	UserID          string          `json:"-"`
	Type            TransactionType `json:"type"`
	Date            time.Time       `json:"date"`
	Amount          int64           `json:"amount"`
	Memo            string          `json:"memo,omitempty"`
	CategoryID      string          `json:"category_id,omitempty"`
	CategoryName    string          `json:"category_name,omitempty"`
	SubCategory     string          `json:"sub_category,omitempty"`
	SourceAccountID string          `json:"source_account_id,omitempty"`
	TargetAccountID string          `json:"target_account_id,omitempty"`
	Scope           Scope           `json:"scope"`
	CreatedBy       string          `json:"created_by"`
	ApprovalStatus  ApprovalStatus  `json:"approval_status"`
	FundingSource   FundingSource   `json:"funding_source"`
	ImageURL        string          `json:"image_url,omitempty"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// Flow is the typed view of a transaction's account roles. The storage shape
// keeps two generic account fields whose meaning depends on Type; consumers
// work against one of the three variants instead of re-deriving that mapping.
type Flow interface {
	// Deltas returns the signed balance adjustment per account for the given
	// amount. sign is +1 to apply the transaction and -1 to reverse it.
	Deltas(amount, sign int64) map[string]int64
}

// Outflow: money leaves one account (expense).
type Outflow struct {
	From string
}

func (f Outflow) Deltas(amount, sign int64) map[string]int64 {
	return map[string]int64{f.From: -amount * sign}
}

// Inflow: money arrives at one account (income). The single account reference
// of an income transaction is always the receiving account.
type Inflow struct {
	To string
}

func (f Inflow) Deltas(amount, sign int64) map[string]int64 {
	return map[string]int64{f.To: amount * sign}
}

// Movement: money moves between two accounts (transfer, card charge). The
// two-account sum is invariant under a movement.
type Movement struct {
	From string
	To   string
}

func (f Movement) Deltas(amount, sign int64) map[string]int64 {
	return map[string]int64{
		f.From: -amount * sign,
		f.To:   amount * sign,
	}
}

// Flow validates the role fields for the transaction's type and returns the
// matching variant.
func (t *Transaction) Flow() (Flow, error) {
	switch t.Type {
	case TypeExpense:
		if t.SourceAccountID == "" {
			return nil, ledgerErrors.NewValidationError("Expense requires a source account")
		}
		if t.TargetAccountID != "" {
			return nil, ledgerErrors.NewValidationError("Expense must not have a target account")
		}
		return Outflow{From: t.SourceAccountID}, nil
	case TypeIncome:
		if t.TargetAccountID == "" {
			return nil, ledgerErrors.NewValidationError("Income requires a receiving account")
		}
		return Inflow{To: t.TargetAccountID}, nil
	case TypeTransfer, TypeCharge:
		if t.SourceAccountID == "" || t.TargetAccountID == "" {
			return nil, ledgerErrors.NewValidationErrorf("%s requires both source and target accounts", t.Type)
		}
		if t.SourceAccountID == t.TargetAccountID {
			return nil, ledgerErrors.ErrSameAccountTransfer
		}
		return Movement{From: t.SourceAccountID, To: t.TargetAccountID}, nil
	default:
		return nil, ledgerErrors.NewValidationErrorf("Invalid transaction type %q", t.Type)
	}
}

// Deltas computes the balance adjustments this transaction implies. Reversing
// an edit or delete uses sign=-1 with the exact same magnitudes.
func (t *Transaction) Deltas(sign int64) (map[string]int64, error) {
	flow, err := t.Flow()
	if err != nil {
		return nil, err
	}
	return flow.Deltas(t.Amount, sign), nil
}

func (t *Transaction) Validate() error {
	if t.Amount <= 0 {
		return ledgerErrors.ErrInvalidAmount
	}
	if _, err := t.Flow(); err != nil {
		return err
	}
	if (t.Type == TypeExpense || t.Type == TypeIncome) && t.CategoryID == "" {
		return ledgerErrors.NewValidationErrorf("%s requires a category", t.Type)
	}
	return nil
}

// MergeDeltas folds several delta maps into one, dropping accounts whose net
// adjustment is zero. An edit commit merges the old deltas at sign -1 with the
// new deltas at sign +1 so the whole change is one atomic write.
func MergeDeltas(maps ...map[string]int64) map[string]int64 {
	merged := make(map[string]int64)
	for _, m := range maps {
		for accountID, delta := range m {
			merged[accountID] += delta
		}
	}
	for accountID, delta := range merged {
		if delta == 0 {
			delete(merged, accountID)
		}
	}
	return merged
}

// TruncateToDay drops the time-of-day component in UTC. All ledger date
// comparisons happen at day granularity.
func TruncateToDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// TransactionRepository write methods take the delta map computed by the
// caller and must apply document change and balance deltas as one atomic
// commit. A missing account inside the commit is a reference error and leaves
// the store untouched.
type TransactionRepository interface {
	FindByID(ctx context.Context, userID, transactionID string) (*Transaction, error)
	// FindRecent returns transactions ordered by date descending (display order).
	FindRecent(ctx context.Context, userID string, limit int) ([]Transaction, error)
	// FindInDateRange returns transactions with startDate <= date <= endDate
	// ordered by date ascending (chronological order for the scheduler and the
	// asset reconstructor).
	FindInDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]Transaction, error)
	SaveWithDeltas(ctx context.Context, transaction Transaction, deltas map[string]int64) error
	UpdateWithDeltas(ctx context.Context, transaction Transaction, deltas map[string]int64) error
	DeleteWithDeltas(ctx context.Context, userID, transactionID string, deltas map[string]int64) error
}
