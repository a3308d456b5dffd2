package application

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type AccountReaderInterface interface {
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
}

type CategoryReaderInterface interface {
	GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error)
}

// TransactionService is the single write path into the ledger. Every create,
// edit and delete goes through here so the balance deltas and the document
// change always land in one atomic commit.
type TransactionService struct {
	repo            domain.TransactionRepository
	accountService  AccountReaderInterface
	categoryService CategoryReaderInterface
}

func NewTransactionService(repo domain.TransactionRepository, accountService AccountReaderInterface, categoryService CategoryReaderInterface) *TransactionService {
	return &TransactionService{repo: repo, accountService: accountService, categoryService: categoryService}
}

// validateAccounts checks, for each account role the transaction touches, that
// the account exists and that the transaction date is not before the account's
// start date. Validation runs before any write.
func (s *TransactionService) validateAccounts(ctx context.Context, t *domain.Transaction) error {
	type role struct {
		accountID string
		label     string
	}
	var roles []role
	flow, err := t.Flow()
	if err != nil {
		return err
	}
	switch f := flow.(type) {
	case domain.Outflow:
		roles = append(roles, role{f.From, "source"})
	case domain.Inflow:
		roles = append(roles, role{f.To, "target"})
	case domain.Movement:
		roles = append(roles, role{f.From, "source"}, role{f.To, "target"})
	}

	for _, r := range roles {
		account, err := s.accountService.GetAccount(ctx, t.UserID, r.accountID)
		if err != nil {
			return err
		}
		if !account.AcceptsDate(t.Date) {
			return ledgerErrors.NewValidationErrorf(
				"Account %q (%s) starts on %s; transactions before that date are not allowed",
				account.Name, r.label, account.StartDate.Format("2006-01-02"))
		}
	}
	return nil
}

// snapshotCategory resolves the denormalized categoryName at save time. The
// snapshot is never live-joined afterwards and goes stale if the category is
// renamed; that is accepted.
func (s *TransactionService) snapshotCategory(ctx context.Context, t *domain.Transaction) error {
	if t.CategoryID == "" {
		t.CategoryName = ""
		return nil
	}
	category, err := s.categoryService.GetCategory(ctx, t.UserID, t.CategoryID)
	if err != nil {
		return err
	}
	t.CategoryName = category.Name
	return nil
}

// SaveTransaction validates the intent and commits the new document together
// with its balance deltas.
func (s *TransactionService) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.validateAccounts(ctx, t); err != nil {
		return err
	}
	if err := s.snapshotCategory(ctx, t); err != nil {
		return err
	}

	t.ID = uuid.NewString()
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.CreatedBy = t.UserID
	if t.Scope == "" {
		t.Scope = domain.ScopePrivate
	}
	if t.ApprovalStatus == "" {
		t.ApprovalStatus = domain.ApprovalConfirmed
	}
	if t.FundingSource == "" {
		t.FundingSource = domain.FundingPrivate
	}

	deltas, err := t.Deltas(+1)
	if err != nil {
		return err
	}
	return s.repo.SaveWithDeltas(ctx, *t, deltas)
}

// UpdateTransaction rolls back the old deltas and applies the new ones in the
// same commit as the document update. Splitting this into two commits would
// corrupt balances if the process died in between.
func (s *TransactionService) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	existing, err := s.repo.FindByID(ctx, t.UserID, t.ID)
	if err != nil {
		return err
	}

	if err := t.Validate(); err != nil {
		return err
	}
	if err := s.validateAccounts(ctx, t); err != nil {
		return err
	}
	if err := s.snapshotCategory(ctx, t); err != nil {
		return err
	}

	t.CreatedAt = existing.CreatedAt
	t.CreatedBy = existing.CreatedBy
	if t.Scope == "" {
		t.Scope = existing.Scope
	}
	if t.ApprovalStatus == "" {
		t.ApprovalStatus = existing.ApprovalStatus
	}
	if t.FundingSource == "" {
		t.FundingSource = existing.FundingSource
	}
	t.UpdatedAt = time.Now().UTC()

	reversal, err := existing.Deltas(-1)
	if err != nil {
		return err
	}
	applied, err := t.Deltas(+1)
	if err != nil {
		return err
	}
	return s.repo.UpdateWithDeltas(ctx, *t, domain.MergeDeltas(reversal, applied))
}

// DeleteTransaction reverses the deltas and removes the document in one commit.
func (s *TransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	existing, err := s.repo.FindByID(ctx, userID, transactionID)
	if err != nil {
		return err
	}
	reversal, err := existing.Deltas(-1)
	if err != nil {
		return err
	}
	return s.repo.DeleteWithDeltas(ctx, userID, transactionID, reversal)
}

func (s *TransactionService) GetRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	transactions, err := s.repo.FindRecent(ctx, userID, limit)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

func (s *TransactionService) GetTransactionsInRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	transactions, err := s.repo.FindInDateRange(ctx, userID, startDate, endDate)
	if err != nil {
		return nil, err
	}
	if transactions == nil {
		return []domain.Transaction{}, nil
	}
	return transactions, nil
}

// CategoryBreakdown is one slice of the monthly expense pie.
type CategoryBreakdown struct {
	CategoryID   string  `json:"category_id"`
	CategoryName string  `json:"category_name"`
	Amount       int64   `json:"amount"`
	Percentage   float64 `json:"percentage"`
}

// GetMonthlyExpenseBreakdown sums the month's expenses per category, largest
// first. Transactions whose category was deleted show up as unclassified.
func (s *TransactionService) GetMonthlyExpenseBreakdown(ctx context.Context, userID string, year int, month time.Month) ([]CategoryBreakdown, error) {
	monthStart := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	monthEnd := monthStart.AddDate(0, 1, -1)

	transactions, err := s.repo.FindInDateRange(ctx, userID, monthStart, monthEnd)
	if err != nil {
		return nil, err
	}

	sums := make(map[string]int64)
	var total int64
	for _, t := range transactions {
		if t.Type != domain.TypeExpense {
			continue
		}
		sums[t.CategoryID] += t.Amount
		total += t.Amount
	}
	if total == 0 {
		return []CategoryBreakdown{}, nil
	}

	breakdown := make([]CategoryBreakdown, 0, len(sums))
	for categoryID, amount := range sums {
		name := "unclassified"
		if categoryID != "" {
			if category, err := s.categoryService.GetCategory(ctx, userID, categoryID); err == nil {
				name = category.Name
			}
		}
		breakdown = append(breakdown, CategoryBreakdown{
			CategoryID:   categoryID,
			CategoryName: name,
			Amount:       amount,
			Percentage:   float64(amount) / float64(total) * 100,
		})
	}
	sort.Slice(breakdown, func(i, j int) bool {
		if breakdown[i].Amount != breakdown[j].Amount {
			return breakdown[i].Amount > breakdown[j].Amount
		}
		return breakdown[i].CategoryID < breakdown[j].CategoryID
	})
	return breakdown, nil
}
