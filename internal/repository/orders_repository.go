package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"storefront-ops-service/internal/models"
)

type OrdersRepository struct {
	db *gorm.DB
}

func NewOrdersRepository(db *gorm.DB) *OrdersRepository {
	return &OrdersRepository{db: db}
}

// GetOrders retrieves a store's orders with optional status filter and pagination
func (r *OrdersRepository) GetOrders(storeID uuid.UUID, status *models.OrderStatus, page, limit int) ([]models.Order, int64, error) {
	var orders []models.Order
	var total int64

	query := r.db.Model(&models.Order{}).Where("store_id = ?", storeID)
	if status != nil && *status != "" {
		query = query.Where("status = ?", *status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&orders).Error; err != nil {
		return nil, 0, err
	}

	return orders, total, nil
}

// GetOrderByID retrieves an order scoped to a store
func (r *OrdersRepository) GetOrderByID(storeID uuid.UUID, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	err := r.db.Where("store_id = ? AND id = ?", storeID, orderID).First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus moves an order to a new fulfillment status
func (r *OrdersRepository) UpdateOrderStatus(storeID uuid.UUID, orderID uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	result := r.db.Model(&models.Order{}).
		Where("store_id = ? AND id = ?", storeID, orderID).
		Updates(map[string]interface{}{
			"status":     status,
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetOrderByID(storeID, orderID)
}
