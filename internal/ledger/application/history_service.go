package application

import (
	"context"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

// TotalSeriesKey names the synthetic series summing all non-archived accounts.
const TotalSeriesKey = "total"

type BalancePoint struct {
	Date    time.Time `json:"date"`
	Balance int64     `json:"balance"`
}

type AccountListerInterface interface {
	GetAllAccounts(ctx context.Context, userID string) ([]domain.Account, error)
}

type TransactionRangeReaderInterface interface {
	GetTransactionsInRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]domain.Transaction, error)
}

// HistoryService reconstructs historical daily balances. It is the mirror of
// the delta engine: starting from the authoritative current balances it walks
// backward day by day, reverse-applying each day's transactions with the exact
// same delta magnitudes, negated.
type HistoryService struct {
	accounts     AccountListerInterface
	transactions TransactionRangeReaderInterface
}

func NewHistoryService(accounts AccountListerInterface, transactions TransactionRangeReaderInterface) *HistoryService {
	return &HistoryService{accounts: accounts, transactions: transactions}
}

// GetAssetHistory returns one point per day in [from, to] for every account,
// plus a "total" series over the non-archived ones, oldest first. The point
// for a day is the balance at the end of that day; the point at `to` equals
// the stored current balance. A future range (from > to) yields an empty map.
func (s *HistoryService) GetAssetHistory(ctx context.Context, userID string, from, to time.Time) (map[string][]BalancePoint, error) {
	from = domain.TruncateToDay(from)
	to = domain.TruncateToDay(to)
	if from.After(to) {
		return map[string][]BalancePoint{}, nil
	}

	accounts, err := s.accounts.GetAllAccounts(ctx, userID)
	if err != nil {
		return nil, err
	}
	transactions, err := s.transactions.GetTransactionsInRange(ctx, userID, from, to)
	if err != nil {
		return nil, err
	}

	// Negated deltas per day, keyed by day then account.
	reversals := make(map[time.Time]map[string]int64)
	for i := range transactions {
		deltas, err := transactions[i].Deltas(-1)
		if err != nil {
			return nil, err
		}
		day := domain.TruncateToDay(transactions[i].Date)
		if reversals[day] == nil {
			reversals[day] = make(map[string]int64)
		}
		for accountID, delta := range deltas {
			reversals[day][accountID] += delta
		}
	}

	balances := make(map[string]int64, len(accounts))
	archived := make(map[string]bool, len(accounts))
	for _, account := range accounts {
		balances[account.ID] = account.Balance
		archived[account.ID] = account.IsArchived
	}

	series := make(map[string][]BalancePoint, len(accounts)+1)
	for day := to; !day.Before(from); day = day.AddDate(0, 0, -1) {
		var total int64
		for accountID, balance := range balances {
			series[accountID] = append(series[accountID], BalancePoint{Date: day, Balance: balance})
			if !archived[accountID] {
				total += balance
			}
		}
		series[TotalSeriesKey] = append(series[TotalSeriesKey], BalancePoint{Date: day, Balance: total})

		// Step back: reverse-apply this day's transactions to get the balance
		// at the end of the previous day.
		for accountID, delta := range reversals[day] {
			if _, known := balances[accountID]; known {
				balances[accountID] += delta
			}
		}
	}

	// Points were collected newest-first; present them chronologically.
	for key := range series {
		points := series[key]
		for i, j := 0, len(points)-1; i < j; i, j = i+1, j-1 {
			points[i], points[j] = points[j], points[i]
		}
	}
	return series, nil
}
