package importer

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-ops-service/internal/models"
)

// fakeProductStore records inserts and serves a configurable SKU set
type fakeProductStore struct {
	existing    map[string]struct{}
	existingErr error
	insertErr   error
	inserted    []*models.Product
}

func (f *fakeProductStore) ExistingSKUs(storeID uuid.UUID, skus []string) (map[string]struct{}, error) {
	if f.existingErr != nil {
		return nil, f.existingErr
	}
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

func newTestImporter(store *fakeProductStore) *Importer {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return New(store, logger)
}

func TestImport_AllRowsValid(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price,status\n" +
		"A-1,Widget,9.99,active\n" +
		"A-2,Gadget,19.995,draft\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 2, result.Total)
	assert.Equal(t, 2, result.Successful)
	assert.Equal(t, 0, result.Failed)
	assert.Empty(t, result.Errors)
	require.Len(t, store.inserted, 2)
	assert.Equal(t, int64(2000), store.inserted[1].BasePriceCents)
	assert.Equal(t, "Imported 2 of 2 products (0 failed)", result.Message)
}

func TestImport_MixedValidAndInvalid(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\n" +
		"A-1,Widget,9.99\n" +
		",NoSku,1.00\n" +
		"A-3,Gadget,not-a-price\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 3, result.Total)
	assert.Equal(t, 1, result.Successful)
	assert.Equal(t, 2, result.Failed)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "A-1", store.inserted[0].SKU)
	require.Len(t, result.Errors, 2)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, 4, result.Errors[1].Row)
}

func TestImport_FirstDataRowErrorIsRowTwo(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\n,Widget,9.99\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, 2, result.Errors[0].Row)
	assert.Equal(t, []string{"sku is required"}, result.Errors[0].Errors)
}

func TestImport_ColumnCountMismatch(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\nA-1,Widget\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	require.Len(t, result.Errors, 1)
	assert.Equal(t, []string{"Row has 2 columns but header has 3 columns"}, result.Errors[0].Errors)
	assert.Empty(t, store.inserted)
}

func TestImport_DuplicateSKUWithinFile(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\n" +
		"A-1,Widget,9.99\n" +
		"A-1,Widget Again,4.99\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Successful)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, 3, result.Errors[0].Row)
	assert.Equal(t, []string{"Duplicate SKU 'A-1' in file (first used in row 2)"}, result.Errors[0].Errors)
}

func TestImport_SKUAlreadyInStore(t *testing.T) {
	store := &fakeProductStore{existing: map[string]struct{}{"A-1": {}}}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\n" +
		"A-1,Widget,9.99\n" +
		"A-2,Gadget,4.99\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 1, result.Successful)
	require.Len(t, store.inserted, 1)
	assert.Equal(t, "A-2", store.inserted[0].SKU)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, []string{"SKU 'A-1' already exists in this store"}, result.Errors[0].Errors)
}

func TestImport_BulkInsertFailure(t *testing.T) {
	store := &fakeProductStore{insertErr: errors.New("connection reset")}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\nA-1,Widget,9.99\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))

	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrBulkInsert)
	assert.Empty(t, store.inserted)
}

func TestImport_StructuralErrorsPropagate(t *testing.T) {
	imp := newTestImporter(&fakeProductStore{})

	_, err := imp.Import(uuid.New(), "user-1", []byte("sku,name,base_price\n"))
	assert.ErrorIs(t, err, ErrTooFewLines)

	_, err = imp.Import(uuid.New(), "user-1", []byte("a,b,c\n1,2,3\n"))
	var missing *MissingHeadersError
	assert.ErrorAs(t, err, &missing)
}

func TestImport_NoRowsInsertedWhenAllFail(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\n,Widget,9.99\n,Gadget,bad\n"
	result, err := imp.Import(uuid.New(), "user-1", []byte(csv))
	require.NoError(t, err)

	assert.Equal(t, 0, result.Successful)
	assert.Equal(t, 2, result.Failed)
	assert.Empty(t, store.inserted)
}

func TestImport_StampsCreator(t *testing.T) {
	store := &fakeProductStore{}
	imp := newTestImporter(store)

	csv := "sku,name,base_price\nA-1,Widget,9.99\n"
	_, err := imp.Import(uuid.New(), "user-42", []byte(csv))
	require.NoError(t, err)

	require.Len(t, store.inserted, 1)
	require.NotNil(t, store.inserted[0].CreatedBy)
	assert.Equal(t, "user-42", *store.inserted[0].CreatedBy)
}
