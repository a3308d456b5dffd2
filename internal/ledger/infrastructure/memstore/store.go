// Package memstore is an in-memory ledger store with the same contract as the
// Postgres repositories: every balance-affecting write is one atomic unit, and
// observers can watch for changes. It backs the service tests and single-node
// dev runs.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type ChangeKind string

const (
	ChangeCreated ChangeKind = "created"
	ChangeUpdated ChangeKind = "updated"
	ChangeDeleted ChangeKind = "deleted"
)

// Change is one live-query event. Delivery is best effort and never blocks a
// commit; a slow observer misses events and is expected to re-read on re-entry.
type Change struct {
	Collection string
	UserID     string
	ID         string
	Kind       ChangeKind
}

type Store struct {
	mu           sync.RWMutex
	accounts     map[string]domain.Account
	categories   map[string]domain.Category
	transactions map[string]domain.Transaction
	rules        map[string]domain.RecurringRule

	watcherMu sync.Mutex
	watchers  map[int]chan Change
	nextWatch int
}

func New() *Store {
	return &Store{
		accounts:     make(map[string]domain.Account),
		categories:   make(map[string]domain.Category),
		transactions: make(map[string]domain.Transaction),
		rules:        make(map[string]domain.RecurringRule),
		watchers:     make(map[int]chan Change),
	}
}

// Watch returns a channel of change events. The channel is closed when ctx is
// cancelled. Events are dropped rather than blocking a writer.
func (s *Store) Watch(ctx context.Context) <-chan Change {
	s.watcherMu.Lock()
	id := s.nextWatch
	s.nextWatch++
	ch := make(chan Change, 64)
	s.watchers[id] = ch
	s.watcherMu.Unlock()

	go func() {
		<-ctx.Done()
		s.watcherMu.Lock()
		delete(s.watchers, id)
		close(ch)
		s.watcherMu.Unlock()
	}()
	return ch
}

func (s *Store) notify(change Change) {
	s.watcherMu.Lock()
	defer s.watcherMu.Unlock()
	for _, ch := range s.watchers {
		select {
		case ch <- change:
		default:
		}
	}
}

// --- AccountRepository ---

func (s *AccountStore) FindByUser(ctx context.Context, userID string) ([]domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var accounts []domain.Account
	for _, account := range s.accounts {
		if account.UserID == userID {
			accounts = append(accounts, account)
		}
	}
	sort.Slice(accounts, func(i, j int) bool { return accounts[i].Name < accounts[j].Name })
	return accounts, nil
}

func (s *AccountStore) FindByID(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[accountID]
	if !ok || account.UserID != userID {
		return nil, ledgerErrors.NewReferenceErrorf("Account %s not found", accountID)
	}
	return &account, nil
}

func (s *AccountStore) Save(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	s.accounts[account.ID] = account
	s.mu.Unlock()
	s.notify(Change{Collection: "accounts", UserID: account.UserID, ID: account.ID, Kind: ChangeCreated})
	return nil
}

func (s *AccountStore) Update(ctx context.Context, account domain.Account) error {
	s.mu.Lock()
	existing, ok := s.accounts[account.ID]
	if !ok || existing.UserID != account.UserID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Account %s not found", account.ID)
	}
	s.accounts[account.ID] = account
	s.mu.Unlock()
	s.notify(Change{Collection: "accounts", UserID: account.UserID, ID: account.ID, Kind: ChangeUpdated})
	return nil
}

func (s *AccountStore) Delete(ctx context.Context, userID, accountID string) error {
	s.mu.Lock()
	existing, ok := s.accounts[accountID]
	if !ok || existing.UserID != userID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Account %s not found", accountID)
	}
	delete(s.accounts, accountID)
	s.mu.Unlock()
	s.notify(Change{Collection: "accounts", UserID: userID, ID: accountID, Kind: ChangeDeleted})
	return nil
}

// Accounts and Categories both need the generic CRUD set; the repositories are
// split per collection below to keep the interfaces separate.

type AccountStore struct{ *Store }
type CategoryStore struct{ *Store }
type TransactionStore struct{ *Store }
type RecurringStore struct{ *Store }

func (s *Store) Accounts() *AccountStore         { return &AccountStore{s} }
func (s *Store) Categories() *CategoryStore      { return &CategoryStore{s} }
func (s *Store) Transactions() *TransactionStore { return &TransactionStore{s} }
func (s *Store) Recurring() *RecurringStore      { return &RecurringStore{s} }

// --- CategoryRepository ---

func (s *CategoryStore) FindByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var categories []domain.Category
	for _, category := range s.categories {
		if category.UserID == userID {
			categories = append(categories, category)
		}
	}
	sort.Slice(categories, func(i, j int) bool { return categories[i].Order < categories[j].Order })
	return categories, nil
}

func (s *CategoryStore) FindByID(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	category, ok := s.categories[categoryID]
	if !ok || category.UserID != userID {
		return nil, ledgerErrors.NewReferenceErrorf("Category %s not found", categoryID)
	}
	return &category, nil
}

func (s *CategoryStore) Save(ctx context.Context, category domain.Category) error {
	s.mu.Lock()
	s.categories[category.ID] = category
	s.mu.Unlock()
	s.notify(Change{Collection: "categories", UserID: category.UserID, ID: category.ID, Kind: ChangeCreated})
	return nil
}

func (s *CategoryStore) Update(ctx context.Context, category domain.Category) error {
	s.mu.Lock()
	existing, ok := s.categories[category.ID]
	if !ok || existing.UserID != category.UserID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Category %s not found", category.ID)
	}
	s.categories[category.ID] = category
	s.mu.Unlock()
	s.notify(Change{Collection: "categories", UserID: category.UserID, ID: category.ID, Kind: ChangeUpdated})
	return nil
}

func (s *CategoryStore) Delete(ctx context.Context, userID, categoryID string) error {
	s.mu.Lock()
	existing, ok := s.categories[categoryID]
	if !ok || existing.UserID != userID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Category %s not found", categoryID)
	}
	delete(s.categories, categoryID)
	s.mu.Unlock()
	s.notify(Change{Collection: "categories", UserID: userID, ID: categoryID, Kind: ChangeDeleted})
	return nil
}

// --- TransactionRepository ---

func (s *TransactionStore) FindByID(ctx context.Context, userID, transactionID string) (*domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	transaction, ok := s.transactions[transactionID]
	if !ok || transaction.UserID != userID {
		return nil, ledgerErrors.NewReferenceErrorf("Transaction %s not found", transactionID)
	}
	return &transaction, nil
}

func (s *TransactionStore) FindRecent(ctx context.Context, userID string, limit int) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var transactions []domain.Transaction
	for _, transaction := range s.transactions {
		if transaction.UserID == userID {
			transactions = append(transactions, transaction)
		}
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].Date.After(transactions[j].Date) })
	if limit > 0 && len(transactions) > limit {
		transactions = transactions[:limit]
	}
	return transactions, nil
}

func (s *TransactionStore) FindInDateRange(ctx context.Context, userID string, startDate, endDate time.Time) ([]domain.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	startDate = domain.TruncateToDay(startDate)
	endDate = domain.TruncateToDay(endDate)
	var transactions []domain.Transaction
	for _, transaction := range s.transactions {
		if transaction.UserID != userID {
			continue
		}
		day := domain.TruncateToDay(transaction.Date)
		if day.Before(startDate) || day.After(endDate) {
			continue
		}
		transactions = append(transactions, transaction)
	}
	sort.Slice(transactions, func(i, j int) bool { return transactions[i].Date.Before(transactions[j].Date) })
	return transactions, nil
}

// applyDeltas mutates balances in place. Caller holds the write lock and has
// already verified every account exists.
func (s *Store) applyDeltas(deltas map[string]int64) {
	for accountID, delta := range deltas {
		account := s.accounts[accountID]
		account.Balance += delta
		s.accounts[accountID] = account
	}
}

func (s *Store) checkAccounts(userID string, deltas map[string]int64) error {
	for accountID := range deltas {
		account, ok := s.accounts[accountID]
		if !ok || account.UserID != userID {
			return ledgerErrors.NewReferenceErrorf("Account %s not found", accountID)
		}
	}
	return nil
}

func (s *TransactionStore) SaveWithDeltas(ctx context.Context, transaction domain.Transaction, deltas map[string]int64) error {
	s.mu.Lock()
	if err := s.checkAccounts(transaction.UserID, deltas); err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyDeltas(deltas)
	s.transactions[transaction.ID] = transaction
	s.mu.Unlock()
	s.notify(Change{Collection: "transactions", UserID: transaction.UserID, ID: transaction.ID, Kind: ChangeCreated})
	return nil
}

func (s *TransactionStore) UpdateWithDeltas(ctx context.Context, transaction domain.Transaction, deltas map[string]int64) error {
	s.mu.Lock()
	existing, ok := s.transactions[transaction.ID]
	if !ok || existing.UserID != transaction.UserID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Transaction %s not found", transaction.ID)
	}
	if err := s.checkAccounts(transaction.UserID, deltas); err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyDeltas(deltas)
	s.transactions[transaction.ID] = transaction
	s.mu.Unlock()
	s.notify(Change{Collection: "transactions", UserID: transaction.UserID, ID: transaction.ID, Kind: ChangeUpdated})
	return nil
}

func (s *TransactionStore) DeleteWithDeltas(ctx context.Context, userID, transactionID string, deltas map[string]int64) error {
	s.mu.Lock()
	existing, ok := s.transactions[transactionID]
	if !ok || existing.UserID != userID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Transaction %s not found", transactionID)
	}
	if err := s.checkAccounts(userID, deltas); err != nil {
		s.mu.Unlock()
		return err
	}
	s.applyDeltas(deltas)
	delete(s.transactions, transactionID)
	s.mu.Unlock()
	s.notify(Change{Collection: "transactions", UserID: userID, ID: transactionID, Kind: ChangeDeleted})
	return nil
}

// --- RecurringRepository ---

func (s *RecurringStore) FindByUser(ctx context.Context, userID string) ([]domain.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var rules []domain.RecurringRule
	for _, rule := range s.rules {
		if rule.UserID == userID {
			rules = append(rules, rule)
		}
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].CreatedAt.Before(rules[j].CreatedAt) })
	return rules, nil
}

func (s *RecurringStore) FindByID(ctx context.Context, userID, ruleID string) (*domain.RecurringRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[ruleID]
	if !ok || rule.UserID != userID {
		return nil, ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", ruleID)
	}
	return &rule, nil
}

func (s *RecurringStore) Save(ctx context.Context, rule domain.RecurringRule) error {
	s.mu.Lock()
	s.rules[rule.ID] = rule
	s.mu.Unlock()
	s.notify(Change{Collection: "recurring", UserID: rule.UserID, ID: rule.ID, Kind: ChangeCreated})
	return nil
}

func (s *RecurringStore) Update(ctx context.Context, rule domain.RecurringRule) error {
	s.mu.Lock()
	existing, ok := s.rules[rule.ID]
	if !ok || existing.UserID != rule.UserID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", rule.ID)
	}
	s.rules[rule.ID] = rule
	s.mu.Unlock()
	s.notify(Change{Collection: "recurring", UserID: rule.UserID, ID: rule.ID, Kind: ChangeUpdated})
	return nil
}

func (s *RecurringStore) Delete(ctx context.Context, userID, ruleID string) error {
	s.mu.Lock()
	existing, ok := s.rules[ruleID]
	if !ok || existing.UserID != userID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", ruleID)
	}
	delete(s.rules, ruleID)
	s.mu.Unlock()
	s.notify(Change{Collection: "recurring", UserID: userID, ID: ruleID, Kind: ChangeDeleted})
	return nil
}

func (s *RecurringStore) UpdateNextDueDate(ctx context.Context, userID, ruleID string, next time.Time) error {
	s.mu.Lock()
	rule, ok := s.rules[ruleID]
	if !ok || rule.UserID != userID {
		s.mu.Unlock()
		return ledgerErrors.NewReferenceErrorf("Recurring rule %s not found", ruleID)
	}
	rule.NextDueDate = &next
	s.rules[ruleID] = rule
	s.mu.Unlock()
	s.notify(Change{Collection: "recurring", UserID: userID, ID: ruleID, Kind: ChangeUpdated})
	return nil
}

func (s *RecurringStore) ListUserIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	seen := make(map[string]bool)
	var userIDs []string
	for _, rule := range s.rules {
		if !seen[rule.UserID] {
			seen[rule.UserID] = true
			userIDs = append(userIDs, rule.UserID)
		}
	}
	sort.Strings(userIDs)
	return userIDs, nil
}
