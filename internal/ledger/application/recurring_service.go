package application

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

// AutoEntryMemo tags transactions materialized by the scheduler.
const AutoEntryMemo = "recurring auto-entry"

type TransactionCreatorInterface interface {
	SaveTransaction(ctx context.Context, t *domain.Transaction) error
}

// RecurringService materializes due occurrences of recurring rules into
// expense transactions, exactly once per occurrence, resumable across process
// restarts via the persisted nextDueDate cursor.
type RecurringService struct {
	repo         domain.RecurringRepository
	transactions TransactionCreatorInterface
}

func NewRecurringService(repo domain.RecurringRepository, transactions TransactionCreatorInterface) *RecurringService {
	return &RecurringService{repo: repo, transactions: transactions}
}

// nextOccurrence advances a due date by one interval: add the frequency's
// months to the due date's year/month, then set the day-of-month to the rule's
// day. When the target month is shorter than day, the date rolls over into the
// following month (time.Date normalization), e.g. day=31 from January lands on
// March 2 or 3. Roll-over is the documented policy, not a defect.
func nextOccurrence(base time.Time, frequency domain.Frequency, day int) time.Time {
	base = domain.TruncateToDay(base)
	return time.Date(base.Year(), base.Month()+time.Month(frequency.Months()), day, 0, 0, 0, 0, time.UTC)
}

// shiftForHoliday moves a weekend record date to the adjacent business day.
// It affects only the materialized transaction's date; the cursor always
// advances from the un-shifted due date so shifts never accumulate drift.
func shiftForHoliday(date time.Time, action domain.HolidayAction) time.Time {
	if action == domain.HolidayNone {
		return date
	}
	switch date.Weekday() {
	case time.Saturday:
		if action == domain.HolidayBefore {
			return date.AddDate(0, 0, -1)
		}
		return date.AddDate(0, 0, 2)
	case time.Sunday:
		if action == domain.HolidayBefore {
			return date.AddDate(0, 0, -2)
		}
		return date.AddDate(0, 0, 1)
	}
	return date
}

// firstDueDate bootstraps the cursor for a rule that has never run. It anchors
// on the rule's creation month so occurrences missed between creation and the
// first scheduler run are backfilled, one transaction per missed period.
func firstDueDate(rule *domain.RecurringRule) time.Time {
	created := domain.TruncateToDay(rule.CreatedAt)
	candidate := time.Date(created.Year(), created.Month(), rule.Day, 0, 0, 0, 0, time.UTC)
	if candidate.Before(created) {
		candidate = nextOccurrence(candidate, rule.Frequency, rule.Day)
	}
	return candidate
}

// ProcessDueOccurrences runs the scheduler for one user. For each rule it
// materializes every due occurrence up to now in chronological order and
// advances the persisted cursor after each commit. A failure on one rule is
// logged and leaves that rule's cursor unchanged (retried on the next trigger)
// without aborting the remaining rules. Returns the number of materialized
// transactions.
func (s *RecurringService) ProcessDueOccurrences(ctx context.Context, userID string, now time.Time) (int, error) {
	rules, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return 0, err
	}

	now = domain.TruncateToDay(now)
	created := 0
	for i := range rules {
		n, err := s.processRule(ctx, &rules[i], now)
		created += n
		if err != nil {
			log.Printf("recurring: rule %s for user %s failed after %d occurrence(s): %v", rules[i].ID, userID, n, err)
		}
	}
	return created, nil
}

func (s *RecurringService) processRule(ctx context.Context, rule *domain.RecurringRule, now time.Time) (int, error) {
	due := rule.NextDueDate
	if due == nil {
		candidate := firstDueDate(rule)
		if candidate.After(now) {
			// Nothing due yet; persist the cursor and wait.
			if err := s.repo.UpdateNextDueDate(ctx, rule.UserID, rule.ID, candidate); err != nil {
				return 0, err
			}
			return 0, nil
		}
		due = &candidate
	}

	created := 0
	cursor := domain.TruncateToDay(*due)
	for !cursor.After(now) {
		if rule.Dormant(cursor) {
			break
		}

		recordDate := shiftForHoliday(cursor, rule.HolidayAction)
		transaction := &domain.Transaction{
			UserID:          rule.UserID,
			Type:            domain.TypeExpense,
			Date:            recordDate,
			Amount:          rule.Amount,
			Memo:            AutoEntryMemo,
			CategoryID:      rule.CategoryID,
			SubCategory:     rule.SubCategory,
			SourceAccountID: rule.SourceAccountID,
		}
		if err := s.transactions.SaveTransaction(ctx, transaction); err != nil {
			// Cursor stays where it was; this occurrence is retried on the
			// next trigger.
			return created, err
		}

		created++
		cursor = nextOccurrence(cursor, rule.Frequency, rule.Day)
		if err := s.repo.UpdateNextDueDate(ctx, rule.UserID, rule.ID, cursor); err != nil {
			return created, err
		}
	}

	if rule.NextDueDate == nil || !cursor.Equal(domain.TruncateToDay(*rule.NextDueDate)) {
		if err := s.repo.UpdateNextDueDate(ctx, rule.UserID, rule.ID, cursor); err != nil {
			return created, err
		}
	}
	return created, nil
}

// ProcessAllUsers runs the scheduler for every user that owns rules. Called
// from the cron trigger.
func (s *RecurringService) ProcessAllUsers(ctx context.Context, now time.Time) (int, error) {
	userIDs, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, userID := range userIDs {
		n, err := s.ProcessDueOccurrences(ctx, userID, now)
		total += n
		if err != nil {
			log.Printf("recurring: processing user %s: %v", userID, err)
		}
	}
	return total, nil
}

func (s *RecurringService) GetAllRules(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	rules, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if rules == nil {
		return []domain.RecurringRule{}, nil
	}
	return rules, nil
}

func (s *RecurringService) CreateRule(ctx context.Context, rule *domain.RecurringRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	rule.ID = uuid.NewString()
	rule.NextDueDate = nil
	if rule.CreatedAt.IsZero() {
		rule.CreatedAt = time.Now().UTC()
	}
	return s.repo.Save(ctx, *rule)
}

// UpdateRule replaces the rule's static fields. Editing the schedule resets
// the cursor so the next run re-derives it from the new frequency/day.
func (s *RecurringService) UpdateRule(ctx context.Context, rule *domain.RecurringRule) error {
	if err := rule.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, rule.UserID, rule.ID)
	if err != nil {
		return err
	}
	rule.CreatedAt = existing.CreatedAt
	if existing.Frequency == rule.Frequency && existing.Day == rule.Day {
		rule.NextDueDate = existing.NextDueDate
	} else {
		rule.NextDueDate = nil
	}
	return s.repo.Update(ctx, *rule)
}

func (s *RecurringService) DeleteRule(ctx context.Context, userID, ruleID string) error {
	if _, err := s.repo.FindByID(ctx, userID, ruleID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, ruleID)
}
