package infrastructure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
	ledgerErrors "github.com/annieworksdev-rgb/OurStack/internal/ledger/errors"
)

type CategoryRepository struct {
	db *sql.DB
}

func NewCategoryRepository(db *sql.DB) *CategoryRepository {
	return &CategoryRepository{db: db}
}

const categoryColumns = `id, user_id, name, type, icon, color, budget, sub_categories, sort_order`

// sub_categories lives in a JSONB column; the stdlib driver hands it back as
// raw bytes, so marshalling happens here.
func scanCategory(row interface{ Scan(...interface{}) error }) (*domain.Category, error) {
	var category domain.Category
	var subCategories []byte
	if err := row.Scan(&category.ID, &category.UserID, &category.Name, &category.Type,
		&category.Icon, &category.Color, &category.Budget, &subCategories, &category.Order); err != nil {
		return nil, err
	}
	if len(subCategories) > 0 {
		if err := json.Unmarshal(subCategories, &category.SubCategories); err != nil {
			return nil, fmt.Errorf("could not decode sub categories: %w", err)
		}
	}
	return &category, nil
}

func encodeSubCategories(tags []string) ([]byte, error) {
	if tags == nil {
		tags = []string{}
	}
	return json.Marshal(tags)
}

func (r *CategoryRepository) FindByUser(ctx context.Context, userID string) ([]domain.Category, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY sort_order, name`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, *category)
	}
	return categories, rows.Err()
}

func (r *CategoryRepository) FindByID(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	category, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ledgerErrors.NewReferenceErrorf("Category %s not found", categoryID)
	}
	if err != nil {
		return nil, err
	}
	return category, nil
}

func (r *CategoryRepository) Save(ctx context.Context, category domain.Category) error {
	subCategories, err := encodeSubCategories(category.SubCategories)
	if err != nil {
		return err
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO categories (id, user_id, name, type, icon, color, budget, sub_categories, sort_order)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		category.ID, category.UserID, category.Name, category.Type,
		category.Icon, category.Color, category.Budget, subCategories, category.Order)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	return nil
}

func (r *CategoryRepository) Update(ctx context.Context, category domain.Category) error {
	subCategories, err := encodeSubCategories(category.SubCategories)
	if err != nil {
		return err
	}
	result, err := r.db.ExecContext(ctx,
		`UPDATE categories SET name = $1, type = $2, icon = $3, color = $4, budget = $5,
		        sub_categories = $6, sort_order = $7
		 WHERE id = $8 AND user_id = $9`,
		category.Name, category.Type, category.Icon, category.Color, category.Budget,
		subCategories, category.Order, category.ID, category.UserID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Category %s not found", category.ID)
	}
	return nil
}

// Delete removes the category row only. Transactions keep their snapshot
// fields, so past rows survive as unclassified.
func (r *CategoryRepository) Delete(ctx context.Context, userID, categoryID string) error {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE id = $1 AND user_id = $2`, categoryID, userID)
	if err != nil {
		return ledgerErrors.NewCommitError(err)
	}
	if n, _ := result.RowsAffected(); n == 0 {
		return ledgerErrors.NewReferenceErrorf("Category %s not found", categoryID)
	}
	return nil
}
