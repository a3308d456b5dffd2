package interfaces

import (
	"context"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

// MockTransactionService lets handler tests script the service layer.
type MockTransactionService struct {
	SaveFunc     func(ctx context.Context, t *domain.Transaction) error
	UpdateFunc   func(ctx context.Context, t *domain.Transaction) error
	DeleteFunc   func(ctx context.Context, userID, transactionID string) error
	RecentFunc   func(ctx context.Context, userID string, limit int) ([]domain.Transaction, error)
	InRangeFunc  func(ctx context.Context, userID string, startDate, endDate time.Time) ([]domain.Transaction, error)
	SavedCalls   []*domain.Transaction
	DeletedCalls []string
}

func (m *MockTransactionService) SaveTransaction(ctx context.Context, t *domain.Transaction) error {
	m.SavedCalls = append(m.SavedCalls, t)
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, t)
	}
	t.ID = "generated-id"
	return nil
}

func (m *MockTransactionService) UpdateTransaction(ctx context.Context, t *domain.Transaction) error {
	if m.UpdateFunc != nil {
		return m.UpdateFunc(ctx, t)
	}
	return nil
}

func (m *MockTransactionService) DeleteTransaction(ctx context.Context, userID, transactionID string) error {
	m.DeletedCalls = append(m.DeletedCalls, transactionID)
	if m.DeleteFunc != nil {
		return m.DeleteFunc(ctx, userID, transactionID)
	}
	return nil
}

func (m *MockTransactionService) GetRecentTransactions(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	if m.RecentFunc != nil {
		return m.RecentFunc(ctx, userID, limit)
	}
	return []domain.Transaction{}, nil
}

func (m *MockTransactionService) GetTransactionsInRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	if m.InRangeFunc != nil {
		return m.InRangeFunc(ctx, userID, startDate, endDate)
	}
	return []domain.Transaction{}, nil
}
