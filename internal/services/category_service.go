package services

import (
	"storefront/internal/models"
	"storefront/internal/repositories"
)

// CategoryService handles business logic related to categories.
type CategoryService struct {
	repo repositories.CategoryRepository
}

// NewCategoryService creates a new CategoryService.
func NewCategoryService(repo repositories.CategoryRepository) *CategoryService {
	return &CategoryService{
		repo: repo,
	}
}

// GetAllCategories retrieves all categories.
func (s *CategoryService) GetAllCategories() ([]models.Category, error) {
	return s.repo.GetAll()
}

// GetCategoryBySlug retrieves a single category by its slug.
func (s *CategoryService) GetCategoryBySlug(slug string) (*models.Category, error) {
	return s.repo.GetBySlug(slug)
}

// CreateCategory creates a new category. A missing slug is derived from the
// name.
func (s *CategoryService) CreateCategory(category *models.Category) error {
	if category.Slug == "" {
		category.Slug = slugify(category.Name)
	}
	return s.repo.Create(category)
}

// UpdateCategory updates an existing category.
func (s *CategoryService) UpdateCategory(category *models.Category) error {
	if category.Slug == "" {
		category.Slug = slugify(category.Name)
	}
	return s.repo.Update(category)
}

// DeleteCategory deletes a category by its ID.
func (s *CategoryService) DeleteCategory(id string) error {
	return s.repo.Delete(id)
}
