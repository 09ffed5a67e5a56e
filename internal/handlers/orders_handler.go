package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"storefront-ops-service/internal/middleware"
	"storefront-ops-service/internal/models"
	"storefront-ops-service/internal/repository"
)

type OrdersHandler struct {
	repo *repository.OrdersRepository
}

func NewOrdersHandler(repo *repository.OrdersRepository) *OrdersHandler {
	return &OrdersHandler{repo: repo}
}

// ListOrders retrieves a store's orders with optional status filter
// GET /api/v1/stores/:storeId/orders
func (h *OrdersHandler) ListOrders(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}

	var status *models.OrderStatus
	if s := c.Query("status"); s != "" {
		if !models.ValidOrderStatus(s) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_STATUS",
					Message: fmt.Sprintf("status '%s' must be one of pending, paid, shipped, delivered, cancelled", s),
					Field:   "status",
				},
			})
			return
		}
		os := models.OrderStatus(s)
		status = &os
	}

	orders, total, err := h.repo.GetOrders(storeID, status, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to list orders",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderListResponse{
		Success:    true,
		Data:       orders,
		Pagination: buildPagination(page, limit, total),
	})
}

// GetOrder retrieves a single order
// GET /api/v1/stores/:storeId/orders/:id
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ORDER_ID",
				Message: "Order ID must be a valid UUID",
			},
		})
		return
	}

	order, err := h.repo.GetOrderByID(storeID, orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "ORDER_NOT_FOUND",
					Message: "Order not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve order",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}

// UpdateOrderStatus moves an order to a new fulfillment status
// PUT /api/v1/stores/:storeId/orders/:id/status
func (h *OrdersHandler) UpdateOrderStatus(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_ORDER_ID",
				Message: "Order ID must be a valid UUID",
			},
		})
		return
	}

	var req models.UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Invalid request body",
			},
			Details: err.Error(),
		})
		return
	}
	if !models.ValidOrderStatus(req.Status) {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_STATUS",
				Message: fmt.Sprintf("status '%s' must be one of pending, paid, shipped, delivered, cancelled", req.Status),
				Field:   "status",
			},
		})
		return
	}

	order, err := h.repo.UpdateOrderStatus(storeID, orderID, models.OrderStatus(req.Status))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "ORDER_NOT_FOUND",
					Message: "Order not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to update order status",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.OrderResponse{Success: true, Data: order})
}
