package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StoreRole is a caller's permission level within a store
type StoreRole string

const (
	RoleOwner   StoreRole = "owner"
	RoleAdmin   StoreRole = "admin"
	RoleManager StoreRole = "manager"
	RoleStaff   StoreRole = "staff"
	RoleViewer  StoreRole = "viewer"
)

// CanWrite reports whether the role may mutate store data.
// Viewer is the single read-only role.
func (r StoreRole) CanWrite() bool {
	return r != RoleViewer && r != ""
}

// SubscriptionStatus represents the billing state of a store
type SubscriptionStatus string

const (
	SubscriptionActive   SubscriptionStatus = "active"
	SubscriptionPastDue  SubscriptionStatus = "past_due"
	SubscriptionCanceled SubscriptionStatus = "canceled"
	SubscriptionTrialing SubscriptionStatus = "trialing"
)

// Store represents a tenant. All products, orders and memberships are scoped
// to exactly one store.
type Store struct {
	ID                 uuid.UUID          `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Name               string             `json:"name" gorm:"not null"`
	Slug               string             `json:"slug" gorm:"not null;uniqueIndex"`
	SubscriptionPlan   string             `json:"subscriptionPlan" gorm:"not null;default:'free'"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus" gorm:"not null;default:'trialing'"`
	CreatedAt          time.Time          `json:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt"`
	DeletedAt          *gorm.DeletedAt    `json:"deletedAt,omitempty" gorm:"index"`
}

// TableName returns the table name for the Store model
func (Store) TableName() string {
	return "stores"
}

// StoreMembership links an identity-provider user to a store with a role
type StoreMembership struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	StoreID   uuid.UUID `json:"storeId" gorm:"type:uuid;not null;index:idx_memberships_store_user,unique"`
	UserID    string    `json:"userId" gorm:"not null;index:idx_memberships_store_user,unique;index:idx_memberships_user"`
	Role      StoreRole `json:"role" gorm:"not null;default:'viewer'"`
	Store     *Store    `json:"store,omitempty" gorm:"foreignKey:StoreID"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// TableName returns the table name for the StoreMembership model
func (StoreMembership) TableName() string {
	return "store_memberships"
}

// UpdateSubscriptionRequest changes a store's plan or billing status
type UpdateSubscriptionRequest struct {
	Plan   *string             `json:"plan,omitempty"`
	Status *SubscriptionStatus `json:"status,omitempty"`
}

type StoreResponse struct {
	Success bool    `json:"success"`
	Data    *Store  `json:"data"`
	Message *string `json:"message,omitempty"`
}

type StoreListResponse struct {
	Success    bool            `json:"success"`
	Data       []Store         `json:"data"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

type MembershipListResponse struct {
	Success bool              `json:"success"`
	Data    []StoreMembership `json:"data"`
}
