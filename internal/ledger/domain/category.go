package domain

import (
	"context"

	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type CategoryType string

const (
	CategoryIncome  CategoryType = "income"
	CategoryExpense CategoryType = "expense"
)

// Category is flat. SubCategories are freeform string tags scoped to the one
// category, not referential child documents.
type Category struct {
	ID            string       `json:"id"`
	UserID        string       `json:"-"`
	Name          string       `json:"name"`
	Type          CategoryType `json:"type"`
	Icon          string       `json:"icon,omitempty"`
	Color         string       `json:"color,omitempty"`
	Budget        int64        `json:"budget,omitempty"`
	SubCategories []string     `json:"sub_categories,omitempty"`
	Order         int          `json:"order"`
}

func (c *Category) Validate() error {
	if c.Name == "" {
		return ledgerErrors.NewValidationError("Category name is required")
	}
	if c.Type != CategoryIncome && c.Type != CategoryExpense {
		return ledgerErrors.NewValidationError("Category type must be 'income' or 'expense'")
	}
	return nil
}

type CategoryRepository interface {
	// FindByUser returns the user's categories ordered by Order ascending.
	FindByUser(ctx context.Context, userID string) ([]Category, error)
	FindByID(ctx context.Context, userID, categoryID string) (*Category, error)
	Save(ctx context.Context, category Category) error
	Update(ctx context.Context, category Category) error
	// Delete removes the category only. Transactions keep their categoryId and
	// categoryName snapshot and show up as unclassified from then on.
	Delete(ctx context.Context, userID, categoryID string) error
}
