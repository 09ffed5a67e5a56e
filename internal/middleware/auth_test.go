package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"storefront-ops-service/internal/clients"
	"storefront-ops-service/internal/models"
)

type fakeVerifier struct {
	session *clients.Session
	err     error
}

func (f *fakeVerifier) VerifySession(token string) (*clients.Session, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.session, nil
}

type fakeMemberships struct {
	memberships []models.StoreMembership
	err         error
}

func (f *fakeMemberships) GetMembershipsForUser(userID string) ([]models.StoreMembership, error) {
	return f.memberships, f.err
}

func performRequest(router *gin.Engine, method, path string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired_NoCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthRequired(&fakeVerifier{err: clients.ErrInvalidSession}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, "GET", "/ping", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}

func TestAuthRequired_InvalidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthRequired(&fakeVerifier{err: clients.ErrInvalidSession}))
	router.GET("/ping", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, "GET", "/ping", map[string]string{"Authorization": "Bearer bad-token"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAuthRequired_ValidToken(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(AuthRequired(&fakeVerifier{session: &clients.Session{UserID: "user-1", Email: "u@example.com"}}))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	w := performRequest(router, "GET", "/ping", map[string]string{"Authorization": "Bearer good-token"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "user-1", w.Body.String())
}

func TestAuthRequired_MeshResolvedIdentityPassesThrough(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", "mesh-user") })
	router.Use(AuthRequired(&fakeVerifier{err: clients.ErrInvalidSession}))
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, GetUserID(c))
	})

	w := performRequest(router, "GET", "/ping", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "mesh-user", w.Body.String())
}

func setupStoreAccessRouter(memberships MembershipSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", "user-1") })
	router.GET("/stores/:storeId/products", StoreAccess(memberships), func(c *gin.Context) {
		c.String(http.StatusOK, string(GetStoreRole(c)))
	})
	return router
}

func TestStoreAccess_InvalidStoreID(t *testing.T) {
	router := setupStoreAccessRouter(&fakeMemberships{})
	w := performRequest(router, "GET", "/stores/not-a-uuid/products", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_STORE_ID")
}

func TestStoreAccess_NoMembershipsAtAll(t *testing.T) {
	router := setupStoreAccessRouter(&fakeMemberships{})
	w := performRequest(router, "GET", "/stores/"+uuid.NewString()+"/products", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_STORE_ACCESS")
}

func TestStoreAccess_MemberOfOtherStoreOnly(t *testing.T) {
	router := setupStoreAccessRouter(&fakeMemberships{
		memberships: []models.StoreMembership{
			{StoreID: uuid.New(), UserID: "user-1", Role: models.RoleOwner},
		},
	})
	w := performRequest(router, "GET", "/stores/"+uuid.NewString()+"/products", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_STORE_MEMBER")
}

func TestStoreAccess_MemberResolvesRole(t *testing.T) {
	storeID := uuid.New()
	router := setupStoreAccessRouter(&fakeMemberships{
		memberships: []models.StoreMembership{
			{StoreID: storeID, UserID: "user-1", Role: models.RoleManager},
		},
	})
	w := performRequest(router, "GET", "/stores/"+storeID.String()+"/products", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "manager", w.Body.String())
}

func setupStoreFromQueryRouter(memberships MembershipSource) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("user_id", "user-1") })
	router.POST("/products/import", StoreFromQuery(memberships), func(c *gin.Context) {
		c.String(http.StatusOK, GetStoreID(c).String())
	})
	return router
}

func TestStoreFromQuery_DefaultsToFirstMembership(t *testing.T) {
	first := uuid.New()
	router := setupStoreFromQueryRouter(&fakeMemberships{
		memberships: []models.StoreMembership{
			{StoreID: first, UserID: "user-1", Role: models.RoleOwner},
			{StoreID: uuid.New(), UserID: "user-1", Role: models.RoleStaff},
		},
	})
	w := performRequest(router, "POST", "/products/import", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, first.String(), w.Body.String())
}

func TestStoreFromQuery_ExplicitStoreMustBeMembership(t *testing.T) {
	router := setupStoreFromQueryRouter(&fakeMemberships{
		memberships: []models.StoreMembership{
			{StoreID: uuid.New(), UserID: "user-1", Role: models.RoleOwner},
		},
	})
	w := performRequest(router, "POST", "/products/import?store_id="+uuid.NewString(), nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "NOT_STORE_MEMBER")
}

func TestStoreFromQuery_NoMemberships(t *testing.T) {
	router := setupStoreFromQueryRouter(&fakeMemberships{})
	w := performRequest(router, "POST", "/products/import", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Contains(t, w.Body.String(), "NO_STORE_ACCESS")
}

func TestRequireWriteAccess_ViewerBlocked(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("store_role", models.RoleViewer) })
	router.POST("/import", RequireWriteAccess(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, "POST", "/import", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "READ_ONLY_ROLE")
}

func TestRequireWriteAccess_StaffAllowed(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(func(c *gin.Context) { c.Set("store_role", models.RoleStaff) })
	router.POST("/import", RequireWriteAccess(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, "POST", "/import", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireSuperAdmin(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/admin", RequireSuperAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := performRequest(router, "GET", "/admin", nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	router2 := gin.New()
	router2.Use(func(c *gin.Context) { c.Set("is_super_admin", true) })
	router2.GET("/admin", RequireSuperAdmin(), func(c *gin.Context) { c.Status(http.StatusOK) })

	w = performRequest(router2, "GET", "/admin", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}
