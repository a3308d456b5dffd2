package application

import (
	"context"

	"github.com/google/uuid"

	"github.com/annieworksdev-rgb/OurStack/internal/ledger/domain"
)

type CategoryService struct {
	repo domain.CategoryRepository
}

func NewCategoryService(repo domain.CategoryRepository) *CategoryService {
	return &CategoryService{repo: repo}
}

func (s *CategoryService) GetCategory(ctx context.Context, userID, categoryID string) (*domain.Category, error) {
	return s.repo.FindByID(ctx, userID, categoryID)
}

func (s *CategoryService) GetAllCategories(ctx context.Context, userID string) ([]domain.Category, error) {
	categories, err := s.repo.FindByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if categories == nil {
		return []domain.Category{}, nil
	}
	return categories, nil
}

func (s *CategoryService) CreateCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	category.ID = uuid.NewString()
	return s.repo.Save(ctx, *category)
}

func (s *CategoryService) UpdateCategory(ctx context.Context, category *domain.Category) error {
	if err := category.Validate(); err != nil {
		return err
	}
	if _, err := s.repo.FindByID(ctx, category.UserID, category.ID); err != nil {
		return err
	}
	return s.repo.Update(ctx, *category)
}

// DeleteCategory orphans referencing transactions on purpose: they keep their
// categoryId and name snapshot and display as unclassified.
func (s *CategoryService) DeleteCategory(ctx context.Context, userID, categoryID string) error {
	if _, err := s.repo.FindByID(ctx, userID, categoryID); err != nil {
		return err
	}
	return s.repo.Delete(ctx, userID, categoryID)
}
