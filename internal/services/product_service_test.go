package services_test

import (
	"fmt"
	"testing"

	"storefront/internal/models"
	"storefront/internal/repositories"
	"storefront/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

// MockProductRepository is a mock implementation of repositories.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) List(filter repositories.ProductFilter) ([]models.Product, error) {
	args := m.Called(filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Product), args.Error(1)
}

func (m *MockProductRepository) GetByID(id string) (*models.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) GetBySlug(slug string) (*models.Product, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductRepository) Create(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Update(product *models.Product) error {
	args := m.Called(product)
	return args.Error(0)
}

func (m *MockProductRepository) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

// MockCategoryRepo is a mock implementation of repositories.CategoryRepository
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) GetAll() ([]models.Category, error) {
	args := m.Called()
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetByID(id string) (*models.Category, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepo) GetBySlug(slug string) (*models.Category, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Category), args.Error(1)
}

func (m *MockCategoryRepo) Create(category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepo) Update(category *models.Category) error {
	args := m.Called(category)
	return args.Error(0)
}

func (m *MockCategoryRepo) Delete(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func TestProductService_ListProducts(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	expectedProducts := []models.Product{
		{ID: "1", Name: "Product A", Price: 10.0, Stock: 100},
		{ID: "2", Name: "Product B", Price: 20.0, Stock: 50},
	}

	// No category filter: query passes straight through
	mockRepo.On("List", mock.MatchedBy(func(f repositories.ProductFilter) bool {
		return f.CategoryID == "" && f.Sort == repositories.SortPriceAsc && f.Limit == 10
	})).Return(expectedProducts, nil).Once()

	products, err := service.ListProducts(services.ProductListQuery{Sort: repositories.SortPriceAsc, Limit: 10})
	assert.NoError(t, err)
	assert.Equal(t, expectedProducts, products)
	mockRepo.AssertExpectations(t)

	// Category slug resolves to an ID before hitting the repository
	mockCategories.On("GetBySlug", "keyboards").Return(&models.Category{ID: "cat-1", Slug: "keyboards"}, nil).Once()
	mockRepo.On("List", mock.MatchedBy(func(f repositories.ProductFilter) bool {
		return f.CategoryID == "cat-1"
	})).Return(expectedProducts[:1], nil).Once()

	products, err = service.ListProducts(services.ProductListQuery{CategorySlug: "keyboards"})
	assert.NoError(t, err)
	assert.Len(t, products, 1)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)

	// Unknown category slug yields an empty listing, not an error
	mockCategories.On("GetBySlug", "nope").
		Return(nil, fmt.Errorf("category with slug nope: %w", repositories.ErrNotFound)).Once()

	products, err = service.ListProducts(services.ProductListQuery{CategorySlug: "nope"})
	assert.NoError(t, err)
	assert.Empty(t, products)
	mockCategories.AssertExpectations(t)
}

func TestProductService_GetProductByID(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepo))

	expectedProduct := &models.Product{ID: "1", Name: "Product A", Price: 10.0, Stock: 100}

	// Test successful retrieval
	mockRepo.On("GetByID", "1").Return(expectedProduct, nil).Once()
	product, err := service.GetProductByID("1")
	assert.NoError(t, err)
	assert.Equal(t, expectedProduct, product)
	mockRepo.AssertExpectations(t)

	// Test product not found
	mockRepo.On("GetByID", "99").Return(nil, fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	product, err = service.GetProductByID("99")
	assert.Error(t, err)
	assert.Nil(t, product)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
}

func TestProductService_CreateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	newProduct := &models.Product{Name: "Mechanical Keyboard MK-2", Price: 50.0, Stock: 20, CategoryID: "cat-1"}

	// Successful creation derives a slug and defaults the condition
	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1"}, nil).Once()
	mockRepo.On("Create", newProduct).Return(nil).Once()
	err := service.CreateProduct(newProduct)
	assert.NoError(t, err)
	assert.Equal(t, "mechanical-keyboard-mk-2", newProduct.Slug)
	assert.Equal(t, models.ConditionNew, newProduct.Condition)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)

	// Unknown category rejects the product before it reaches the repository
	badProduct := &models.Product{Name: "Orphan", Price: 5.0, CategoryID: "cat-404"}
	mockCategories.On("GetByID", "cat-404").
		Return(nil, fmt.Errorf("category with ID cat-404: %w", repositories.ErrNotFound)).Once()
	err = service.CreateProduct(badProduct)
	assert.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertNotCalled(t, "Create", badProduct)
	mockCategories.AssertExpectations(t)
}

func TestProductService_UpdateProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	mockCategories := new(MockCategoryRepo)
	service := services.NewProductService(mockRepo, mockCategories)

	updatedProduct := &models.Product{ID: "1", Name: "Product A Updated", Slug: "product-a", Price: 12.0, Stock: 95, CategoryID: "cat-1"}

	// Test successful update
	mockCategories.On("GetByID", "cat-1").Return(&models.Category{ID: "cat-1"}, nil).Twice()
	mockRepo.On("Update", updatedProduct).Return(nil).Once()
	err := service.UpdateProduct(updatedProduct)
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test update failure (product not found in repo)
	missing := &models.Product{ID: "99", Name: "NonExistent", Slug: "nonexistent", Price: 1.0, Stock: 1, CategoryID: "cat-1"}
	mockRepo.On("Update", missing).Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.UpdateProduct(missing)
	assert.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
	mockCategories.AssertExpectations(t)
}

func TestProductService_DeleteProduct(t *testing.T) {
	mockRepo := new(MockProductRepository)
	service := services.NewProductService(mockRepo, new(MockCategoryRepo))

	// Test successful deletion
	mockRepo.On("Delete", "1").Return(nil).Once()
	err := service.DeleteProduct("1")
	assert.NoError(t, err)
	mockRepo.AssertExpectations(t)

	// Test deletion failure (product not found)
	mockRepo.On("Delete", "99").Return(fmt.Errorf("product with ID 99: %w", repositories.ErrNotFound)).Once()
	err = service.DeleteProduct("99")
	assert.Error(t, err)
	assert.ErrorIs(t, err, repositories.ErrNotFound)
	mockRepo.AssertExpectations(t)
}
