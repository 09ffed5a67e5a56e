package repository

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Tesseract-Nexus/go-shared/cache"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
	"storefront-ops-service/internal/models"
)

// Cache TTL constants
const (
	ProductCacheTTL     = 5 * time.Minute // Single product cache
	ProductListCacheTTL = 2 * time.Minute // Product list cache (shorter due to frequent changes)
)

type ProductsRepository struct {
	db    *gorm.DB
	redis *redis.Client
	cache *cache.CacheLayer
}

func NewProductsRepository(db *gorm.DB, redis *redis.Client) *ProductsRepository {
	repo := &ProductsRepository{
		db:    db,
		redis: redis,
	}

	// Initialize CacheLayer with the existing Redis client
	if redis != nil {
		cacheConfig := cache.CacheConfig{
			L1Enabled:  true,
			L1MaxItems: 5000,
			L1TTL:      30 * time.Second,
			DefaultTTL: ProductCacheTTL,
			KeyPrefix:  "storefront:products:",
		}
		repo.cache = cache.NewCacheLayerFromClient(redis, cacheConfig)
	}

	return repo
}

// generateListCacheKey creates a deterministic cache key for list queries
func generateListCacheKey(storeID string, prefix string, params interface{}) string {
	data, _ := json.Marshal(params)
	hash := md5.Sum(data)
	return fmt.Sprintf("%s:%s:%s", prefix, storeID, hex.EncodeToString(hash[:]))
}

// invalidateProductCaches invalidates all caches related to a product
func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, storeID string, productID uuid.UUID) {
	if r.cache == nil {
		return
	}

	_ = r.cache.Delete(ctx, fmt.Sprintf("product:%s:%s", storeID, productID.String()))
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("products:list:%s:*", storeID))
}

// invalidateStoreProductListCaches invalidates all product list caches for a store
func (r *ProductsRepository) invalidateStoreProductListCaches(ctx context.Context, storeID string) {
	if r.cache == nil {
		return
	}
	_ = r.cache.DeletePattern(ctx, fmt.Sprintf("products:list:%s:*", storeID))
}

// Product CRUD Operations

// CreateProduct creates a new product
func (r *ProductsRepository) CreateProduct(storeID uuid.UUID, product *models.Product) error {
	product.StoreID = storeID
	product.CreatedAt = time.Now()
	product.UpdatedAt = time.Now()

	if product.ID == uuid.Nil {
		product.ID = uuid.New()
	}
	if product.Status == "" {
		product.Status = models.ProductStatusActive
	}

	err := r.db.Create(product).Error
	if err == nil {
		r.invalidateStoreProductListCaches(context.Background(), storeID.String())
	}
	return err
}

// GetProductByID retrieves a product by ID with caching
func (r *ProductsRepository) GetProductByID(storeID uuid.UUID, productID uuid.UUID) (*models.Product, error) {
	ctx := context.Background()
	cacheKey := fmt.Sprintf("product:%s:%s", storeID.String(), productID.String())

	if r.cache != nil {
		var product models.Product
		err := r.cache.GetOrSetJSON(ctx, cacheKey, &product, ProductCacheTTL, func() (any, error) {
			var p models.Product
			if err := r.db.Where("store_id = ? AND id = ?", storeID, productID).First(&p).Error; err != nil {
				return nil, err
			}
			return &p, nil
		})
		if err != nil {
			return nil, err
		}
		return &product, nil
	}

	var product models.Product
	if err := r.db.Where("store_id = ? AND id = ?", storeID, productID).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

// GetProducts retrieves products with filters and pagination
func (r *ProductsRepository) GetProducts(storeID uuid.UUID, req *models.ListProductsRequest) ([]models.Product, int64, error) {
	ctx := context.Background()
	cacheKey := generateListCacheKey(storeID.String(), "products:list", req)

	type listResult struct {
		Products []models.Product `json:"products"`
		Total    int64            `json:"total"`
	}

	queryFn := func() (any, error) {
		var products []models.Product
		var total int64

		query := r.db.Model(&models.Product{}).Where("store_id = ?", storeID)
		query = applyProductFilters(query, req)

		if err := query.Count(&total).Error; err != nil {
			return nil, err
		}

		offset := (req.Page - 1) * req.Limit
		if err := query.Order("created_at DESC").Offset(offset).Limit(req.Limit).Find(&products).Error; err != nil {
			return nil, err
		}

		return &listResult{Products: products, Total: total}, nil
	}

	if r.cache != nil {
		var result listResult
		err := r.cache.GetOrSetJSON(ctx, cacheKey, &result, ProductListCacheTTL, queryFn)
		if err != nil {
			return nil, 0, err
		}
		return result.Products, result.Total, nil
	}

	out, err := queryFn()
	if err != nil {
		return nil, 0, err
	}
	result := out.(*listResult)
	return result.Products, result.Total, nil
}

// GetAllProducts retrieves every product for a store without pagination (export)
func (r *ProductsRepository) GetAllProducts(storeID uuid.UUID, req *models.ExportProductsRequest) ([]models.Product, error) {
	var products []models.Product
	query := r.db.Where("store_id = ?", storeID)
	if req.Status != nil && *req.Status != "" {
		query = query.Where("status = ?", *req.Status)
	}
	if req.Category != nil && *req.Category != "" {
		query = query.Where("category = ?", *req.Category)
	}
	if err := query.Order("sku ASC").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// UpdateProduct updates a product and invalidates cache
func (r *ProductsRepository) UpdateProduct(storeID uuid.UUID, productID uuid.UUID, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()
	result := r.db.Model(&models.Product{}).
		Where("store_id = ? AND id = ?", storeID, productID).
		Updates(updates)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateProductCaches(context.Background(), storeID.String(), productID)
	return nil
}

// DeleteProduct soft deletes a product
func (r *ProductsRepository) DeleteProduct(storeID uuid.UUID, productID uuid.UUID) error {
	result := r.db.Where("store_id = ? AND id = ?", storeID, productID).
		Delete(&models.Product{})

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}

	r.invalidateProductCaches(context.Background(), storeID.String(), productID)
	return nil
}

// SKUExistsForStore checks if a SKU already exists for a store. Soft-deleted
// rows count because the unique index spans them.
func (r *ProductsRepository) SKUExistsForStore(storeID uuid.UUID, sku string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Product{}).
		Where("store_id = ? AND sku = ?", storeID, sku).
		Count(&count).Error
	return count > 0, err
}

// ExistingSKUs returns which of the given SKUs are already taken in a store.
// Single IN query instead of a round trip per SKU. Soft-deleted rows count
// because the unique index spans them.
func (r *ProductsRepository) ExistingSKUs(storeID uuid.UUID, skus []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{}, len(skus))
	if len(skus) == 0 {
		return existing, nil
	}

	var found []string
	err := r.db.Unscoped().Model(&models.Product{}).
		Where("store_id = ? AND sku IN ?", storeID, skus).
		Pluck("sku", &found).Error
	if err != nil {
		return nil, err
	}

	for _, sku := range found {
		existing[sku] = struct{}{}
	}
	return existing, nil
}

// BulkInsert creates multiple products in a single transaction with store
// isolation. All-or-nothing: any failure rolls back every row.
// SECURITY: All products are assigned the provided storeID regardless of request data
func (r *ProductsRepository) BulkInsert(storeID uuid.UUID, products []*models.Product) error {
	if len(products) == 0 {
		return nil
	}

	now := time.Now()
	err := r.db.Transaction(func(tx *gorm.DB) error {
		for _, product := range products {
			product.StoreID = storeID
			product.CreatedAt = now
			product.UpdatedAt = now
			if product.ID == uuid.Nil {
				product.ID = uuid.New()
			}
			if product.Status == "" {
				product.Status = models.ProductStatusActive
			}

			if err := tx.Create(product).Error; err != nil {
				return fmt.Errorf("failed to create product with SKU '%s': %w", product.SKU, err)
			}
		}
		return nil
	})

	if err == nil {
		r.invalidateStoreProductListCaches(context.Background(), storeID.String())
	}
	return err
}

// GetCategories returns the distinct category labels in use for a store
func (r *ProductsRepository) GetCategories(storeID uuid.UUID) ([]string, error) {
	var categories []string
	err := r.db.Model(&models.Product{}).
		Where("store_id = ? AND category IS NOT NULL AND category != ''", storeID).
		Distinct("category").
		Order("category ASC").
		Pluck("category", &categories).Error
	if err != nil {
		return nil, err
	}
	return categories, nil
}

// applyProductFilters applies list filters to a products query
func applyProductFilters(query *gorm.DB, req *models.ListProductsRequest) *gorm.DB {
	if req.Status != nil && *req.Status != "" {
		query = query.Where("status = ?", *req.Status)
	}

	if req.Category != nil && *req.Category != "" {
		query = query.Where("category = ?", *req.Category)
	}

	if req.Search != nil && *req.Search != "" {
		term := "%" + strings.ToLower(strings.TrimSpace(*req.Search)) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(sku) LIKE ?", term, term)
	}

	return query
}
