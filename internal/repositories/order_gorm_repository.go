package repositories

import (
	"errors"
	"fmt"
	"time"

	"storefront/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMOrderRepository is a GORM implementation of OrderRepository.
type GORMOrderRepository struct {
	db *gorm.DB
}

// NewGORMOrderRepository creates a new instance of GORMOrderRepository.
func NewGORMOrderRepository(db *gorm.DB) *GORMOrderRepository {
	return &GORMOrderRepository{
		db: db,
	}
}

// List retrieves orders matching the filter, newest first, items preloaded.
func (r *GORMOrderRepository) List(filter OrderFilter) ([]models.Order, error) {
	q := r.db.Model(&models.Order{}).Preload("Items").Order("created_at desc")

	if filter.UserID != "" {
		q = q.Where("user_id = ?", filter.UserID)
	}
	if filter.Status != "" {
		q = q.Where("status = ?", filter.Status)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}
	if filter.Offset > 0 {
		q = q.Offset(filter.Offset)
	}

	var orders []models.Order
	if err := q.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return orders, nil
}

// GetByID retrieves a single order with its items.
func (r *GORMOrderRepository) GetByID(id string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by ID %s: %w", id, err)
	}
	return &order, nil
}

// GetByPaymentIntentID retrieves the order referencing a Stripe payment intent.
func (r *GORMOrderRepository) GetByPaymentIntentID(intentID string) (*models.Order, error) {
	var order models.Order
	if err := r.db.Preload("Items").First(&order, "payment_intent_id = ?", intentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order with payment intent %s: %w", intentID, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get order by payment intent %s: %w", intentID, err)
	}
	return &order, nil
}

// Create inserts the order and decrements product stock in one transaction.
// The guarded UPDATE keeps stock from ever going negative under concurrent
// checkouts.
func (r *GORMOrderRepository) Create(order *models.Order) error {
	if order.ID == "" {
		order.ID = uuid.New().String()
	}
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", item.ProductID, item.Quantity).
				UpdateColumn("stock", gorm.Expr("stock - ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to reserve stock for product %s: %w", item.ProductID, res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("product %s: %w", item.ProductID, ErrInsufficientStock)
			}
		}
		if err := tx.Create(order).Error; err != nil {
			return fmt.Errorf("failed to create order: %w", err)
		}
		return nil
	})
	return err
}

// UpdateStatus updates the status label of an order.
func (r *GORMOrderRepository) UpdateStatus(id string, status models.OrderStatus) error {
	res := r.db.Model(&models.Order{}).Where("id = ?", id).
		Updates(map[string]interface{}{"status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return fmt.Errorf("failed to update order status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return nil
}

// Cancel flips the order to cancelled and restores stock for its items.
func (r *GORMOrderRepository) Cancel(id string) (*models.Order, error) {
	var order models.Order
	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Items").First(&order, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("failed to get order by ID %s: %w", id, err)
		}
		switch order.Status {
		case models.OrderShipped, models.OrderDelivered:
			return fmt.Errorf("order %s is %s: %w", id, order.Status, ErrNotCancellable)
		case models.OrderCancelled:
			return nil // already cancelled, nothing to restore
		}
		for _, item := range order.Items {
			res := tx.Model(&models.Product{}).Where("id = ?", item.ProductID).
				UpdateColumn("stock", gorm.Expr("stock + ?", item.Quantity))
			if res.Error != nil {
				return fmt.Errorf("failed to restore stock for product %s: %w", item.ProductID, res.Error)
			}
		}
		order.Status = models.OrderCancelled
		if err := tx.Model(&models.Order{}).Where("id = ?", id).
			Updates(map[string]interface{}{"status": models.OrderCancelled, "updated_at": time.Now()}).Error; err != nil {
			return fmt.Errorf("failed to cancel order %s: %w", id, err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// SetPayment records the payment status and, when non-empty, the payment
// intent ID on an order.
func (r *GORMOrderRepository) SetPayment(id string, status models.PaymentStatus, intentID string) error {
	updates := map[string]interface{}{"payment_status": status, "updated_at": time.Now()}
	if intentID != "" {
		updates["payment_intent_id"] = intentID
	}
	res := r.db.Model(&models.Order{}).Where("id = ?", id).Updates(updates)
	if res.Error != nil {
		return fmt.Errorf("failed to set payment on order %s: %w", id, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("order with ID %s: %w", id, ErrNotFound)
	}
	return nil
}
