package services

import (
	"errors"
	"fmt"

	"storefront/internal/models"
	"storefront/internal/repositories"
)

// ProductListQuery is the storefront-facing form of a catalog listing
// request. The category is addressed by slug; the service resolves it to an
// ID before hitting the repository.
type ProductListQuery struct {
	CategorySlug string
	Condition    string
	MinPrice     *float64
	MaxPrice     *float64
	Search       string
	Sort         string
	Limit        int
	Offset       int
}

// ProductService handles business logic related to products.
type ProductService struct {
	repo         repositories.ProductRepository
	categoryRepo repositories.CategoryRepository
}

// NewProductService creates a new ProductService.
func NewProductService(repo repositories.ProductRepository, categoryRepo repositories.CategoryRepository) *ProductService {
	return &ProductService{
		repo:         repo,
		categoryRepo: categoryRepo,
	}
}

// ListProducts retrieves products matching the query. An unknown category
// slug yields an empty listing rather than an error.
func (s *ProductService) ListProducts(query ProductListQuery) ([]models.Product, error) {
	filter := repositories.ProductFilter{
		Condition: query.Condition,
		MinPrice:  query.MinPrice,
		MaxPrice:  query.MaxPrice,
		Search:    query.Search,
		Sort:      query.Sort,
		Limit:     query.Limit,
		Offset:    query.Offset,
	}
	if query.CategorySlug != "" {
		category, err := s.categoryRepo.GetBySlug(query.CategorySlug)
		if err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return []models.Product{}, nil
			}
			return nil, err
		}
		filter.CategoryID = category.ID
	}
	return s.repo.List(filter)
}

// GetProductByID retrieves a single product by its ID.
func (s *ProductService) GetProductByID(id string) (*models.Product, error) {
	return s.repo.GetByID(id)
}

// CreateProduct creates a new product after checking its category exists.
// A missing slug is derived from the name.
func (s *ProductService) CreateProduct(product *models.Product) error {
	if _, err := s.categoryRepo.GetByID(product.CategoryID); err != nil {
		return fmt.Errorf("invalid category %s: %w", product.CategoryID, err)
	}
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	if product.Condition == "" {
		product.Condition = models.ConditionNew
	}
	return s.repo.Create(product)
}

// UpdateProduct updates an existing product.
func (s *ProductService) UpdateProduct(product *models.Product) error {
	if product.CategoryID != "" {
		if _, err := s.categoryRepo.GetByID(product.CategoryID); err != nil {
			return fmt.Errorf("invalid category %s: %w", product.CategoryID, err)
		}
	}
	if product.Slug == "" {
		product.Slug = slugify(product.Name)
	}
	return s.repo.Update(product)
}

// DeleteProduct deletes a product by its ID.
func (s *ProductService) DeleteProduct(id string) error {
	return s.repo.Delete(id)
}
