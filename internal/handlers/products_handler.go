package handlers

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
	"storefront-ops-service/internal/events"
	"storefront-ops-service/internal/importer"
	"storefront-ops-service/internal/middleware"
	"storefront-ops-service/internal/models"
	"storefront-ops-service/internal/repository"
)

type ProductsHandler struct {
	repo      *repository.ProductsRepository
	publisher *events.Publisher
}

func NewProductsHandler(repo *repository.ProductsRepository, publisher *events.Publisher) *ProductsHandler {
	return &ProductsHandler{
		repo:      repo,
		publisher: publisher,
	}
}

// CreateProduct creates a new product
// POST /api/v1/stores/:storeId/products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	storeID := middleware.GetStoreID(c)
	userID := middleware.GetUserID(c)

	var req models.CreateProductRequest
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

	product, fieldErr := buildProductFromRequest(&req, userID)
	if fieldErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   *fieldErr,
		})
		return
	}

	exists, err := h.repo.SKUExistsForStore(storeID, product.SKU)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to check SKU availability",
			},
		})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "DUPLICATE_SKU",
				Message: fmt.Sprintf("SKU '%s' already exists in this store", product.SKU),
				Field:   "sku",
			},
		})
		return
	}

	if err := h.repo.CreateProduct(storeID, product); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to create product",
			},
		})
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductCreated(context.Background(), product, userID)
	}

	c.JSON(http.StatusCreated, models.ProductResponse{Success: true, Data: product})
}

// GetProduct retrieves a single product
// GET /api/v1/stores/:storeId/products/:id
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_PRODUCT_ID",
				Message: "Product ID must be a valid UUID",
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PRODUCT_NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// ListProducts retrieves products with filters and pagination
// GET /api/v1/stores/:storeId/products
func (h *ProductsHandler) ListProducts(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	req := &models.ListProductsRequest{
		Page:  parsePositiveInt(c.Query("page"), 1),
		Limit: parsePositiveInt(c.Query("limit"), 20),
	}
	if req.Limit > 100 {
		req.Limit = 100
	}

	if status := c.Query("status"); status != "" {
		if !models.ValidProductStatus(status) {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_STATUS",
					Message: fmt.Sprintf("status '%s' must be one of active, inactive, draft", status),
					Field:   "status",
				},
			})
			return
		}
		s := models.ProductStatus(status)
		req.Status = &s
	}
	if category := c.Query("category"); category != "" {
		req.Category = &category
	}
	if search := c.Query("search"); search != "" {
		req.Search = &search
	}

	products, total, err := h.repo.GetProducts(storeID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to list products",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.ProductListResponse{
		Success:    true,
		Data:       products,
		Pagination: buildPagination(req.Page, req.Limit, total),
	})
}

// UpdateProduct updates a product
// PUT /api/v1/stores/:storeId/products/:id
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	storeID := middleware.GetStoreID(c)
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_PRODUCT_ID",
				Message: "Product ID must be a valid UUID",
			},
		})
		return
	}

	var req models.UpdateProductRequest
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

	updates, changed, fieldErr := buildProductUpdates(&req, userID)
	if fieldErr != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error:   *fieldErr,
		})
		return
	}
	if len(changed) == 0 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "EMPTY_UPDATE",
				Message: "No fields to update",
			},
		})
		return
	}

	if err := h.repo.UpdateProduct(storeID, productID, updates); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PRODUCT_NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to update product",
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(storeID, productID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve updated product",
			},
		})
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductUpdated(context.Background(), product, changed, userID)
	}

	c.JSON(http.StatusOK, models.ProductResponse{Success: true, Data: product})
}

// DeleteProduct soft deletes a product
// DELETE /api/v1/stores/:storeId/products/:id
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	storeID := middleware.GetStoreID(c)
	userID := middleware.GetUserID(c)

	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_PRODUCT_ID",
				Message: "Product ID must be a valid UUID",
			},
		})
		return
	}

	product, err := h.repo.GetProductByID(storeID, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "PRODUCT_NOT_FOUND",
					Message: "Product not found",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to retrieve product",
			},
		})
		return
	}

	if err := h.repo.DeleteProduct(storeID, productID); err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to delete product",
			},
		})
		return
	}

	if h.publisher != nil {
		h.publisher.PublishProductDeleted(context.Background(), product, userID)
	}

	message := "Product deleted"
	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Message: &message})
}

// GetCategories returns the distinct category labels in use for a store
// GET /api/v1/stores/:storeId/products/categories
func (h *ProductsHandler) GetCategories(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	categories, err := h.repo.GetCategories(storeID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to list categories",
			},
		})
		return
	}

	c.JSON(http.StatusOK, models.SuccessResponse{Success: true, Data: categories})
}

// ExportProducts downloads the store catalog as CSV or XLSX
// GET /api/v1/stores/:storeId/products/export
func (h *ProductsHandler) ExportProducts(c *gin.Context) {
	storeID := middleware.GetStoreID(c)

	req := &models.ExportProductsRequest{
		Format: c.DefaultQuery("format", "csv"),
	}
	if status := c.Query("status"); status != "" {
		req.Status = &status
	}
	if category := c.Query("category"); category != "" {
		req.Category = &category
	}

	if req.Format != "csv" && req.Format != "xlsx" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INVALID_FORMAT",
				Message: "format must be csv or xlsx",
			},
		})
		return
	}

	products, err := h.repo.GetAllProducts(storeID, req)
	if err != nil {
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "INTERNAL_ERROR",
				Message: "Failed to export products",
			},
		})
		return
	}

	if req.Format == "xlsx" {
		h.exportXLSX(c, products)
		return
	}
	h.exportCSV(c, products)
}

var exportHeaders = []string{"sku", "name", "base_price", "unit_cost", "commission_percent", "description", "category", "status"}

func (h *ProductsHandler) exportCSV(c *gin.Context, products []models.Product) {
	c.Header("Content-Type", "text/csv")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=products_export_%s.csv", time.Now().Format("2006-01-02")))

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write(exportHeaders)
	for i := range products {
		writer.Write(exportRecord(&products[i]))
	}
}

func (h *ProductsHandler) exportXLSX(c *gin.Context, products []models.Product) {
	f := excelize.NewFile()
	defer f.Close()

	sheetName := "Products"
	f.SetSheetName("Sheet1", sheetName)

	for i, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheetName, cell, header)
	}
	for rowIdx := range products {
		record := exportRecord(&products[rowIdx])
		for colIdx, value := range record {
			cell, _ := excelize.CoordinatesToCellName(colIdx+1, rowIdx+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=products_export_%s.xlsx", time.Now().Format("2006-01-02")))

	f.Write(c.Writer)
}

func exportRecord(p *models.Product) []string {
	description := ""
	if p.Description != nil {
		description = *p.Description
	}
	category := ""
	if p.Category != nil {
		category = *p.Category
	}
	commission := ""
	if p.CommissionBps != nil {
		commission = decimal.New(*p.CommissionBps, -2).String()
	}
	return []string{
		p.SKU,
		p.Name,
		decimal.New(p.BasePriceCents, -2).String(),
		decimal.New(p.UnitCostCents, -2).String(),
		commission,
		description,
		category,
		string(p.Status),
	}
}

// buildProductFromRequest validates a create request and maps it to the model
func buildProductFromRequest(req *models.CreateProductRequest, userID string) (*models.Product, *models.Error) {
	product := &models.Product{
		SKU:         req.SKU,
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Status:      models.ProductStatusActive,
		CreatedBy:   &userID,
		UpdatedBy:   &userID,
	}

	if req.Status != nil && *req.Status != "" {
		if !models.ValidProductStatus(*req.Status) {
			return nil, &models.Error{
				Code:    "INVALID_STATUS",
				Message: fmt.Sprintf("status '%s' must be one of active, inactive, draft", *req.Status),
				Field:   "status",
			}
		}
		product.Status = models.ProductStatus(*req.Status)
	}

	cents, msgs := importer.ParseAmount("basePrice", req.BasePrice, true)
	if len(msgs) > 0 {
		return nil, &models.Error{Code: "INVALID_AMOUNT", Message: msgs[0], Field: "basePrice"}
	}
	product.BasePriceCents = cents

	if req.UnitCost != nil && *req.UnitCost != "" {
		cents, msgs := importer.ParseAmount("unitCost", *req.UnitCost, true)
		if len(msgs) > 0 {
			return nil, &models.Error{Code: "INVALID_AMOUNT", Message: msgs[0], Field: "unitCost"}
		}
		product.UnitCostCents = cents
	}

	if req.CommissionPercent != nil && *req.CommissionPercent != "" {
		bps, msgs := importer.ParsePercent(*req.CommissionPercent)
		if len(msgs) > 0 {
			return nil, &models.Error{Code: "INVALID_PERCENT", Message: msgs[0], Field: "commissionPercent"}
		}
		product.CommissionBps = &bps
	}

	return product, nil
}

// buildProductUpdates validates an update request and builds the column map
func buildProductUpdates(req *models.UpdateProductRequest, userID string) (map[string]interface{}, []string, *models.Error) {
	updates := map[string]interface{}{"updated_by": userID}
	var changed []string

	if req.Name != nil {
		if *req.Name == "" {
			return nil, nil, &models.Error{Code: "VALIDATION_ERROR", Message: "name must not be empty", Field: "name"}
		}
		updates["name"] = *req.Name
		changed = append(changed, "name")
	}
	if req.Description != nil {
		updates["description"] = *req.Description
		changed = append(changed, "description")
	}
	if req.Category != nil {
		updates["category"] = *req.Category
		changed = append(changed, "category")
	}
	if req.Status != nil {
		if !models.ValidProductStatus(*req.Status) {
			return nil, nil, &models.Error{
				Code:    "INVALID_STATUS",
				Message: fmt.Sprintf("status '%s' must be one of active, inactive, draft", *req.Status),
				Field:   "status",
			}
		}
		updates["status"] = *req.Status
		changed = append(changed, "status")
	}
	if req.BasePrice != nil {
		cents, msgs := importer.ParseAmount("basePrice", *req.BasePrice, true)
		if len(msgs) > 0 {
			return nil, nil, &models.Error{Code: "INVALID_AMOUNT", Message: msgs[0], Field: "basePrice"}
		}
		updates["base_price_cents"] = cents
		changed = append(changed, "basePrice")
	}
	if req.UnitCost != nil {
		cents, msgs := importer.ParseAmount("unitCost", *req.UnitCost, true)
		if len(msgs) > 0 {
			return nil, nil, &models.Error{Code: "INVALID_AMOUNT", Message: msgs[0], Field: "unitCost"}
		}
		updates["unit_cost_cents"] = cents
		changed = append(changed, "unitCost")
	}
	if req.CommissionPercent != nil {
		if *req.CommissionPercent == "" {
			updates["commission_bps"] = nil
		} else {
			bps, msgs := importer.ParsePercent(*req.CommissionPercent)
			if len(msgs) > 0 {
				return nil, nil, &models.Error{Code: "INVALID_PERCENT", Message: msgs[0], Field: "commissionPercent"}
			}
			updates["commission_bps"] = bps
		}
		changed = append(changed, "commissionPercent")
	}

	return updates, changed, nil
}

// parsePositiveInt parses a positive integer query param with a fallback
func parsePositiveInt(value string, fallback int) int {
	if value == "" {
		return fallback
	}
	if n, err := strconv.Atoi(value); err == nil && n > 0 {
		return n
	}
	return fallback
}

// buildPagination computes the pagination envelope for list responses
func buildPagination(page, limit int, total int64) *models.PaginationInfo {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return &models.PaginationInfo{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNext:     page < totalPages,
		HasPrevious: page > 1,
	}
}
