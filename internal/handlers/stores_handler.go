package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"storefront-ops-service/internal/middleware"
	"storefront-ops-service/internal/models"
	"storefront-ops-service/internal/repository"
)

type StoresHandler struct {
	repo *repository.StoresRepository
}

func NewStoresHandler(repo *repository.StoresRepository) *StoresHandler {
	return &StoresHandler{repo: repo}
}

// ListMyStores returns the stores the caller belongs to, with their role
// GET /api/v1/stores
func (h *StoresHandler) ListMyStores(c *gin.Context) {
	userID := middleware.GetUserID(c)

	memberships, err := h.repo.GetMembershipsForUser(userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to list stores",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.MembershipListResponse{Success: true, Data: memberships})
}

// GetStore returns one store the caller is a member of
// GET /api/v1/stores/:storeId
func (h *StoresHandler) GetStore(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	store, err := h.repo.GetStoreByID(storeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "STORE_NOT_FOUND",
					Message: "Store not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve store",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.StoreResponse{Success: true, Data: store})
}

// AdminListStores returns all stores on the platform
// GET /api/v1/admin/stores
func (h *StoresHandler) AdminListStores(c *gin.Context) {
	page := parsePositiveInt(c.Query("page"), 1)
	limit := parsePositiveInt(c.Query("limit"), 20)
	if limit > 100 {
		limit = 100
	}

	stores, total, err := h.repo.GetStores(page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to list stores",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.StoreListResponse{
		Success:    true,
		Data:       stores,
		Pagination: buildPagination(page, limit, total),
	})
}

// AdminUpdateSubscription changes a store's plan or billing status
// PUT /api/v1/admin/stores/:storeId/subscription
func (h *StoresHandler) AdminUpdateSubscription(c *gin.Context) {
	storeID, err := uuid.Parse(c.Param("storeId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_STORE_ID",
				Message: "Store ID must be a valid UUID",
			},
		})
		return
	}

	var req models.UpdateSubscriptionRequest
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
	if req.Plan == nil && req.Status == nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_UPDATE",
				Message: "Provide a plan or a status to update",
			},
		})
		return
	}
	if req.Status != nil {
		switch *req.Status {
		case models.SubscriptionActive, models.SubscriptionPastDue,
			models.SubscriptionCanceled, models.SubscriptionTrialing:
		default:
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_STATUS",
					Message: "status must be one of active, past_due, canceled, trialing",
					Field:   "status",
				},
			})
			return
		}
	}

	store, err := h.repo.UpdateSubscription(storeID, &req)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "STORE_NOT_FOUND",
					Message: "Store not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to update subscription",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.StoreResponse{Success: true, Data: store})
}
