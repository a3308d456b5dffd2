package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

type AccountService struct {
	repo domain.AccountRepository
}

func NewAccountService(repo domain.AccountRepository) *AccountService {
	return &AccountService{repo: repo}
}

func (s *AccountService) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	return s.repo.FindByID(ctx, userID, accountID)
}

func (s *AccountService) GetAllAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	accounts, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if accounts == nil {
		return []domain.Account{}, nil
	}
	return accounts, nil
}

// GetActiveAccounts filters out archived accounts; those stay in the store for
// historical integrity but are hidden from new-transaction pickers.
func (s *AccountService) GetActiveAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	accounts, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	active := make([]domain.Account, 0, len(accounts))
	for _, account := range accounts {
		if !account.IsArchived {
			active = append(active, account)
		}
	}
	return active, nil
}

func (s *AccountService) CreateAccount(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	account.ID = uuid.NewString()
	return s.repo.Save(ctx, *account)
}

func (s *AccountService) UpdateAccount(ctx context.Context, account *domain.Account) error {
	if err := account.Validate(); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, account.UserID, account.ID)
	if err != nil {
		return err
	}
	// Balance moves only through transaction deltas, never through an account
	// edit.
	account.Balance = existing.Balance
	return s.repo.Update(ctx, *account)
}

func (s *AccountService) ArchiveAccount(ctx context.Context, userID, accountID string) error {
	account, err := s.repo.FindByID(ctx, userID, accountID)
	if err != nil {
		return err
	}
	account.IsArchived = true
	return s.repo.Update(ctx, *account)
}

func (s *AccountService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	if _, err := s.repo.FindByID(ctx, userID, accountID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, accountID)
}
