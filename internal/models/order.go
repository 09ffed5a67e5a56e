package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OrderStatus represents the fulfillment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusPaid      OrderStatus = "paid"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// ValidOrderStatus reports whether s is an accepted order status
func ValidOrderStatus(s string) bool {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusPaid, OrderStatusShipped,
		OrderStatusDelivered, OrderStatusCancelled:
		return true
	}
	return false
}

// Order is a store-scoped customer order shown on the operations dashboard
type Order struct {
	ID            uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StoreID       uuid.UUID       `json:"storeId" gorm:"type:uuid;not null;index:idx_orders_store_id;index:idx_orders_store_status"`
	CustomerName  string          `json:"customerName" gorm:"not null"`
	CustomerEmail string          `json:"customerEmail" gorm:"not null"`
	TotalCents    int64           `json:"totalCents" gorm:"not null"`
	Status        OrderStatus     `json:"status" gorm:"not null;default:'pending';index:idx_orders_store_status"`
	CreatedAt     time.Time       `json:"createdAt"`
	UpdatedAt     time.Time       `json:"updatedAt"`
	DeletedAt     *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Order model
func (Order) TableName() string {
	return "orders"
}

// UpdateOrderStatusRequest represents a request to move an order to a new status
type UpdateOrderStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

type OrderResponse struct {
	Success bool    `json:"success"`
	Data    *Order  `json:"data"`
	Message *string `json:"message,omitempty"`
}

type OrderListResponse struct {
	Success    bool            `json:"success"`
	Data       []Order         `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}
