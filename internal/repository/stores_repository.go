package repository

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"storefront-ops-service/internal/models"
)

type StoresRepository struct {
	db *gorm.DB
}

func NewStoresRepository(db *gorm.DB) *StoresRepository {
	return &StoresRepository{db: db}
}

// GetMembershipsForUser retrieves every store membership for a user with the
// store preloaded. An empty slice means the user belongs to no store.
func (r *StoresRepository) GetMembershipsForUser(userID string) ([]models.StoreMembership, error) {
	var memberships []models.StoreMembership
	err := r.db.Preload("Store").
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&memberships).Error
	if err != nil {
		return nil, err
	}
	return memberships, nil
}

// GetStoreByID retrieves a store by ID
func (r *StoresRepository) GetStoreByID(storeID uuid.UUID) (*models.Store, error) {
	var store models.Store
	if err := r.db.Where("id = ?", storeID).First(&store).Error; err != nil {
		return nil, err
	}
	return &store, nil
}

// GetStores retrieves all stores with pagination (platform admin surface)
func (r *StoresRepository) GetStores(page, limit int) ([]models.Store, int64, error) {
	var stores []models.Store
	var total int64

	query := r.db.Model(&models.Store{})
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := query.Order("created_at DESC").Offset(offset).Limit(limit).Find(&stores).Error; err != nil {
		return nil, 0, err
	}

	return stores, total, nil
}

// UpdateSubscription changes a store's plan and/or billing status
func (r *StoresRepository) UpdateSubscription(storeID uuid.UUID, req *models.UpdateSubscriptionRequest) (*models.Store, error) {
	updates := map[string]interface{}{
		"updated_at": time.Now(),
	}
	if req.Plan != nil {
		updates["subscription_plan"] = *req.Plan
	}
	if req.Status != nil {
		updates["subscription_status"] = *req.Status
	}

	result := r.db.Model(&models.Store{}).
		Where("id = ?", storeID).
		Updates(updates)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}

	return r.GetStoreByID(storeID)
}
