package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"storefront-ops-service/internal/clients"
	"storefront-ops-service/internal/models"
)

// MembershipSource resolves a user's store memberships
type MembershipSource interface {
	GetMembershipsForUser(userID string) ([]models.StoreMembership, error)
}

// SessionVerifier resolves a bearer token to a session
type SessionVerifier interface {
	VerifySession(token string) (*clients.Session, error)
}

// AuthRequired authenticates the caller. The mesh may have already resolved
// identity (IstioAuth sets user_id from JWT claim headers); otherwise the
// bearer token is verified against the identity-service.
// SECURITY: No anonymous fallback - requests without identity are rejected.
func AuthRequired(identity SessionVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Already resolved by IstioAuth middleware
		if userID := c.GetString("user_id"); userID != "" {
			c.Set("userId", userID)
			c.Next()
			return
		}

		token := bearerToken(c)
		if token == "" {
			unauthorized(c, "Authentication required")
			return
		}

		session, err := identity.VerifySession(token)
		if err != nil {
			if errors.Is(err, clients.ErrInvalidSession) {
				unauthorized(c, "Invalid or expired session")
				return
			}
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "AUTH_UNAVAILABLE",
					Message: "Failed to verify session",
				},
			})
			c.Abort()
			return
		}

		c.Set("user_id", session.UserID)
		c.Set("userId", session.UserID)
		c.Set("user_email", session.Email)
		c.Set("is_super_admin", session.IsSuperAdmin)
		c.Next()
	}
}

// StoreAccess gates store-scoped routes on membership. A caller with no
// memberships at all gets 404 (they cannot see that the store exists); a
// caller who belongs to other stores but not this one gets 403.
func StoreAccess(memberships MembershipSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		storeID, err := uuid.Parse(c.Param("storeId"))
		if err != nil {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "INVALID_STORE_ID",
					Message: "Store ID must be a valid UUID",
				},
			})
			c.Abort()
			return
		}

		userID := GetUserID(c)
		all, err := memberships.GetMembershipsForUser(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "MEMBERSHIP_LOOKUP_FAILED",
					Message: "Failed to resolve store memberships",
				},
			})
			c.Abort()
			return
		}

		if len(all) == 0 {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NO_STORE_ACCESS",
					Message: "No store memberships found for this user",
				},
			})
			c.Abort()
			return
		}

		var membership *models.StoreMembership
		for i := range all {
			if all[i].StoreID == storeID {
				membership = &all[i]
				break
			}
		}
		if membership == nil {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NOT_STORE_MEMBER",
					Message: "You are not a member of this store",
				},
			})
			c.Abort()
			return
		}

		c.Set("store_id", storeID)
		c.Set("store_role", membership.Role)
		c.Next()
	}
}

// StoreFromQuery resolves the target store from the store_id query parameter,
// defaulting to the caller's first membership when absent. Same gate as
// StoreAccess otherwise: no memberships at all is 404, membership in other
// stores only is 403.
func StoreFromQuery(memberships MembershipSource) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := GetUserID(c)
		all, err := memberships.GetMembershipsForUser(userID)
		if err != nil {
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "MEMBERSHIP_LOOKUP_FAILED",
					Message: "Failed to resolve store memberships",
				},
			})
			c.Abort()
			return
		}

		if len(all) == 0 {
			c.JSON(http.StatusNotFound, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "NO_STORE_ACCESS",
					Message: "No store memberships found for this user",
				},
			})
			c.Abort()
			return
		}

		membership := &all[0]
		if raw := c.Query("store_id"); raw != "" {
			storeID, err := uuid.Parse(raw)
			if err != nil {
				c.JSON(http.StatusBadRequest, models.ErrorResponse{
					Success: false,
					Error: models.Error{
						Code:    "INVALID_STORE_ID",
						Message: "store_id must be a valid UUID",
					},
				})
				c.Abort()
				return
			}

			membership = nil
			for i := range all {
				if all[i].StoreID == storeID {
					membership = &all[i]
					break
				}
			}
			if membership == nil {
				c.JSON(http.StatusForbidden, models.ErrorResponse{
					Success: false,
					Error: models.Error{
						Code:    "NOT_STORE_MEMBER",
						Message: "You are not a member of this store",
					},
				})
				c.Abort()
				return
			}
		}

		c.Set("store_id", membership.StoreID)
		c.Set("store_role", membership.Role)
		c.Next()
	}
}

// RequireWriteAccess rejects read-only roles on mutating routes
func RequireWriteAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		role := GetStoreRole(c)
		if !role.CanWrite() {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "READ_ONLY_ROLE",
					Message: "Your role does not permit this operation",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// RequireSuperAdmin gates platform admin routes
func RequireSuperAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool("is_super_admin") {
			c.JSON(http.StatusForbidden, models.ErrorResponse{
				Success: false,
				Error: models.Error{
					Code:    "SUPER_ADMIN_REQUIRED",
					Message: "This operation requires platform admin access",
				},
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetUserID retrieves the authenticated user ID from gin context
func GetUserID(c *gin.Context) string {
	if uid := c.GetString("user_id"); uid != "" {
		return uid
	}
	return c.GetString("userId")
}

// GetStoreID retrieves the resolved store ID from gin context
func GetStoreID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get("store_id"); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// GetStoreRole retrieves the caller's role in the resolved store
func GetStoreRole(c *gin.Context) models.StoreRole {
	if v, ok := c.Get("store_role"); ok {
		if role, ok := v.(models.StoreRole); ok {
			return role
		}
	}
	return ""
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return header[7:]
	}
	return ""
}

func unauthorized(c *gin.Context, message string) {
	c.JSON(http.StatusUnauthorized, models.ErrorResponse{
		Success: false,
		Error: models.Error{
			Code:    "UNAUTHENTICATED",
			Message: message,
		},
	})
	c.Abort()
}
