package repositories

import (
	"storefront/internal/models"
)

// Product sort orders accepted by ProductFilter.
const (
	SortPriceAsc  = "price_asc"
	SortPriceDesc = "price_desc"
	SortNewest    = "newest"
)

// ProductFilter narrows and orders a catalog listing. Zero values mean
// "no constraint".
type ProductFilter struct {
	CategoryID string
	Condition  string
	MinPrice   *float64
	MaxPrice   *float64
	Search     string // substring match on product name
	Sort       string
	Limit      int
	Offset     int
}

// ProductRepository defines the interface for product data access.
type ProductRepository interface {
	List(filter ProductFilter) ([]models.Product, error)
	GetByID(id string) (*models.Product, error)
	GetBySlug(slug string) (*models.Product, error)
	Create(product *models.Product) error
	Update(product *models.Product) error
	Delete(id string) error
}
