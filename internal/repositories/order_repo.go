package repositories

import "storefront/internal/models"

// OrderFilter narrows an order listing. Zero values mean "no constraint".
type OrderFilter struct {
	UserID string
	Status models.OrderStatus
	Limit  int
	Offset int
}

// OrderRepository defines the interface for order data access.
type OrderRepository interface {
	List(filter OrderFilter) ([]models.Order, error)
	GetByID(id string) (*models.Order, error)
	GetByPaymentIntentID(intentID string) (*models.Order, error)
	// Create inserts the order and reserves stock for every line item in a
	// single transaction. Returns ErrInsufficientStock if any product cannot
	// cover its ordered quantity.
	Create(order *models.Order) error
	UpdateStatus(id string, status models.OrderStatus) error
	// Cancel flips the order to cancelled and restores the reserved stock in
	// a single transaction. Returns ErrNotCancellable once the order has
	// shipped or been delivered.
	Cancel(id string) (*models.Order, error)
	SetPayment(id string, status models.PaymentStatus, intentID string) error
}
