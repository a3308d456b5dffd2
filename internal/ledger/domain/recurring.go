package domain

import (
	"context"
	"time"

	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type Frequency string

const (
	FreqMonthly     Frequency = "monthly"
	FreqTwoMonths   Frequency = "2months"
	FreqThreeMonths Frequency = "3months"
	FreqSixMonths   Frequency = "6months"
	FreqYearly      Frequency = "yearly"
)

// Months returns the interval length in months.
func (f Frequency) Months() int {
	switch f {
	case FreqMonthly:
		return 1
	case FreqTwoMonths:
		return 2
	case FreqThreeMonths:
		return 3
	case FreqSixMonths:
		return 6
	case FreqYearly:
		return 12
	}
	return 0
}

type HolidayAction string

const (
	HolidayNone   HolidayAction = "none"
	HolidayBefore HolidayAction = "before"
	HolidayAfter  HolidayAction = "after"
)

// RecurringRule materializes into one expense transaction per due occurrence.
// NextDueDate is the cursor to the next un-materialized occurrence. Once set,
// it only ever advances by Frequency+Day calendar arithmetic from the previous
// due date; holiday shifting changes the materialized transaction's date, never
// the cursor.
type RecurringRule struct {
	ID              string        `json:"id"`
	UserID          string        `json:"-"`
	Amount          int64         `json:"amount"`
	CategoryID      string        `json:"category_id"`
	SubCategory     string        `json:"sub_category,omitempty"`
	SourceAccountID string        `json:"source_account_id"`
	Frequency       Frequency     `json:"frequency"`
	Day             int           `json:"day"`
	HolidayAction   HolidayAction `json:"holiday_action"`
	EndDate         *time.Time    `json:"end_date,omitempty"`
	NextDueDate     *time.Time    `json:"next_due_date,omitempty"`
	CreatedAt       time.Time     `json:"created_at"`
}

func (r *RecurringRule) Validate() error {
	if r.Amount <= 0 {
		return ledgerErrors.ErrInvalidAmount
	}
	if r.CategoryID == "" {
		return ledgerErrors.NewValidationError("Recurring rule requires a category")
	}
	if r.SourceAccountID == "" {
		return ledgerErrors.NewValidationError("Recurring rule requires a source account")
	}
	if r.Frequency.Months() == 0 {
		return ledgerErrors.NewValidationErrorf("Invalid frequency %q", r.Frequency)
	}
	if r.Day < 1 || r.Day > 31 {
		return ledgerErrors.NewValidationError("Day must be 1..31")
	}
	switch r.HolidayAction {
	case HolidayNone, HolidayBefore, HolidayAfter:
	default:
		return ledgerErrors.NewValidationErrorf("Invalid holiday action %q", r.HolidayAction)
	}
	return nil
}

// Dormant reports whether due is past the rule's end date. Dormant rules stay
// in the store but stop materializing.
func (r *RecurringRule) Dormant(due time.Time) bool {
	return r.EndDate != nil && TruncateToDay(due).After(TruncateToDay(*r.EndDate))
}

type RecurringRepository interface {
	FindByUser(ctx context.Context, userID string) ([]RecurringRule, error)
	FindByID(ctx context.Context, userID, ruleID string) (*RecurringRule, error)
	Save(ctx context.Context, rule RecurringRule) error
	Update(ctx context.Context, rule RecurringRule) error
	Delete(ctx context.Context, userID, ruleID string) error
	// UpdateNextDueDate persists the cursor after each materialized occurrence
	// so a crash mid-run resumes instead of double-materializing.
	UpdateNextDueDate(ctx context.Context, userID, ruleID string, next time.Time) error
	// ListUserIDs returns every user that owns at least one rule. The cron
	// trigger iterates these.
	ListUserIDs(ctx context.Context) ([]string, error)
}
