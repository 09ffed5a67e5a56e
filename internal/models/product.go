package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus represents the lifecycle status of a catalog entry
type ProductStatus string

const (
	ProductStatusActive   ProductStatus = "active"
	ProductStatusInactive ProductStatus = "inactive"
	ProductStatusDraft    ProductStatus = "draft"
)

// ValidProductStatus reports whether s is one of the accepted statuses
func ValidProductStatus(s string) bool {
	switch ProductStatus(s) {
	case ProductStatusActive, ProductStatusInactive, ProductStatusDraft:
		return true
	}
	return false
}

// Product represents a store-scoped catalog entry.
// Monetary amounts are stored as integer minor units (cents) and commission
// as basis points so no floating-point error can creep into billing math.
type Product struct {
	ID             uuid.UUID       `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StoreID        uuid.UUID       `json:"storeId" gorm:"type:uuid;not null;index:idx_products_store_id;index:idx_products_store_sku,unique;index:idx_products_store_status"`
	SKU            string          `json:"sku" gorm:"not null;index:idx_products_store_sku,unique"`
	Name           string          `json:"name" gorm:"not null"`
	Description    *string         `json:"description,omitempty"`
	Category       *string         `json:"category,omitempty" gorm:"index"`
	Status         ProductStatus   `json:"status" gorm:"not null;default:'active';index:idx_products_store_status"`
	BasePriceCents int64           `json:"basePriceCents" gorm:"not null"`
	UnitCostCents  int64           `json:"unitCostCents" gorm:"not null;default:0"`
	CommissionBps  *int64          `json:"commissionBps,omitempty"`
	CreatedBy      *string         `json:"createdBy,omitempty"`
	UpdatedBy      *string         `json:"updatedBy,omitempty"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
	DeletedAt      *gorm.DeletedAt `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Product model
func (Product) TableName() string {
	return "products"
}

// CreateProductRequest represents a request to create a new product
type CreateProductRequest struct {
	SKU               string  `json:"sku" binding:"required"`
	Name              string  `json:"name" binding:"required"`
	Description       *string `json:"description,omitempty"`
	Category          *string `json:"category,omitempty"`
	Status            *string `json:"status,omitempty"`
	BasePrice         string  `json:"basePrice" binding:"required"`
	UnitCost          *string `json:"unitCost,omitempty"`
	CommissionPercent *string `json:"commissionPercent,omitempty"`
}

// UpdateProductRequest represents a request to update a product
type UpdateProductRequest struct {
	Name              *string `json:"name,omitempty"`
	Description       *string `json:"description,omitempty"`
	Category          *string `json:"category,omitempty"`
	Status            *string `json:"status,omitempty"`
	BasePrice         *string `json:"basePrice,omitempty"`
	UnitCost          *string `json:"unitCost,omitempty"`
	CommissionPercent *string `json:"commissionPercent,omitempty"`
}

// ListProductsRequest carries list filters parsed from the query string
type ListProductsRequest struct {
	Status   *ProductStatus
	Category *string
	Search   *string
	Page     int
	Limit    int
}

// ExportProductsRequest carries export filters parsed from the query string
type ExportProductsRequest struct {
	Format   string // csv or xlsx
	Status   *string
	Category *string
}

// Response types

type PaginationInfo struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNext     bool  `json:"hasNext"`
	HasPrevious bool  `json:"hasPrevious"`
}

type ProductResponse struct {
	Success bool     `json:"success"`
	Data    *Product `json:"data"`
	Message *string  `json:"message,omitempty"`
}

type ProductListResponse struct {
	Success    bool            `json:"success"`
	Data       []Product       `json:"data"`
	Pagination *PaginationInfo `json:"pagination"`
}

type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   Error  `json:"error"`
	Details string `json:"details,omitempty"`
}

type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message *string     `json:"message,omitempty"`
}
