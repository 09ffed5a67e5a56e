package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-ops-service/internal/importer"
	"storefront-ops-service/internal/middleware"
	"storefront-ops-service/internal/models"
)

type fakeProductStore struct {
	existing  map[string]struct{}
	insertErr error
	inserted  []*models.Product
}

func (f *fakeProductStore) ExistingSKUs(storeID uuid.UUID, skus []string) (map[string]struct{}, error) {
	found := make(map[string]struct{})
	for _, sku := range skus {
		if _, ok := f.existing[sku]; ok {
			found[sku] = struct{}{}
		}
	}
	return found, nil
}

func (f *fakeProductStore) BulkInsert(storeID uuid.UUID, products []*models.Product) error {
	if f.insertErr != nil {
		return f.insertErr
	}
	f.inserted = append(f.inserted, products...)
	return nil
}

func setupImportRouter(store *fakeProductStore, role models.StoreRole) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)

	handler := NewImportHandler(importer.New(store, logger), nil)

	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set("user_id", "user-1")
		c.Set("store_id", uuid.New())
		c.Set("store_role", role)
	})
	router.POST("/import", middleware.RequireWriteAccess(), handler.ImportProducts)
	router.GET("/import/template", handler.GetImportTemplate)
	return router
}

func uploadCSV(t *testing.T, router *gin.Engine, fileName, content string) *httptest.ResponseRecorder {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", fileName)
	require.NoError(t, err)
	_, err = part.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest("POST", "/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestImportProducts_MissingFile(t *testing.T) {
	router := setupImportRouter(&fakeProductStore{}, models.RoleOwner)

	req := httptest.NewRequest("POST", "/import", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "FILE_REQUIRED")
}

func TestImportProducts_RejectsNonCSV(t *testing.T) {
	router := setupImportRouter(&fakeProductStore{}, models.RoleOwner)

	w := uploadCSV(t, router, "products.xlsx", "sku,name,base_price\nA-1,Widget,9.99\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_FORMAT")
}

func TestImportProducts_TooFewLines(t *testing.T) {
	router := setupImportRouter(&fakeProductStore{}, models.RoleOwner)

	w := uploadCSV(t, router, "products.csv", "sku,name,base_price\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "EMPTY_FILE")
}

func TestImportProducts_MissingHeaders(t *testing.T) {
	router := setupImportRouter(&fakeProductStore{}, models.RoleOwner)

	w := uploadCSV(t, router, "products.csv", "sku,title,price\nA-1,Widget,9.99\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "MISSING_HEADERS")
	assert.Contains(t, w.Body.String(), "base_price")
}

func TestImportProducts_Success(t *testing.T) {
	store := &fakeProductStore{}
	router := setupImportRouter(store, models.RoleManager)

	csv := "sku,name,base_price\n" +
		"A-1,Widget,9.99\n" +
		",NoSku,1.00\n"
	w := uploadCSV(t, router, "products.csv", csv)
	require.Equal(t, http.StatusOK, w.Code)

	var resp models.ImportResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	require.NotNil(t, resp.Results)
	assert.Equal(t, 2, resp.Results.Total)
	assert.Equal(t, 1, resp.Results.Successful)
	assert.Equal(t, 1, resp.Results.Failed)
	require.Len(t, resp.Results.Errors, 1)
	assert.Equal(t, 3, resp.Results.Errors[0].Row)
	assert.Len(t, store.inserted, 1)
}

func TestImportProducts_InsertFailureLeavesStoreUntouched(t *testing.T) {
	store := &fakeProductStore{insertErr: errors.New("db down")}
	router := setupImportRouter(store, models.RoleOwner)

	w := uploadCSV(t, router, "products.csv", "sku,name,base_price\nA-1,Widget,9.99\n")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Contains(t, w.Body.String(), "IMPORT_FAILED")
	assert.Empty(t, store.inserted)
}

func TestImportProducts_ViewerForbidden(t *testing.T) {
	store := &fakeProductStore{}
	router := setupImportRouter(store, models.RoleViewer)

	w := uploadCSV(t, router, "products.csv", "sku,name,base_price\nA-1,Widget,9.99\n")
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "READ_ONLY_ROLE")
	assert.Empty(t, store.inserted)
}

func TestGetImportTemplate_JSON(t *testing.T) {
	router := setupImportRouter(&fakeProductStore{}, models.RoleOwner)

	req := httptest.NewRequest("GET", "/import/template", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "\"entity\":\"products\"")
	assert.Contains(t, w.Body.String(), "base_price")
}

func TestGetImportTemplate_CSV(t *testing.T) {
	router := setupImportRouter(&fakeProductStore{}, models.RoleOwner)

	req := httptest.NewRequest("GET", "/import/template?format=csv", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Body.String(), "sku,name,base_price")
}
