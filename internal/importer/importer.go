package importer

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"storefront-ops-service/internal/models"
)

// ErrBulkInsert wraps a failed trailing insert. When it is returned no row
// has been persisted and the result reports zero successful rows.
var ErrBulkInsert = errors.New("bulk insert failed")

// ProductStore is the persistence surface the importer needs: a batched
// existence check and an all-or-nothing insert
type ProductStore interface {
	ExistingSKUs(storeID uuid.UUID, skus []string) (map[string]struct{}, error)
	BulkInsert(storeID uuid.UUID, products []*models.Product) error
}

// Importer runs the CSV product import pipeline for one store
type Importer struct {
	store  ProductStore
	logger *logrus.Entry
}

// New creates an importer backed by the given product store
func New(store ProductStore, logger *logrus.Logger) *Importer {
	return &Importer{
		store:  store,
		logger: logger.WithField("component", "product-importer"),
	}
}

type rowOutcome struct {
	number int
	parsed *ParsedRow
	errs   []string
}

// Import parses and validates the uploaded payload, rejects duplicate SKUs
// (within the file and against the store), and persists the surviving rows
// in a single transactional insert.
//
// Structural problems (too few lines, missing headers) and a failed insert
// abort the whole call. Row-level problems never do: they accumulate into
// the result and the call still succeeds. Rows are only counted successful
// after the insert commits.
func (imp *Importer) Import(storeID uuid.UUID, userID string, data []byte) (*models.ImportResult, error) {
	file, err := Parse(data)
	if err != nil {
		return nil, err
	}

	outcomes := make([]rowOutcome, 0, len(file.Rows))
	firstSeen := make(map[string]int, len(file.Rows))

	for _, row := range file.Rows {
		outcome := rowOutcome{number: row.Number}

		if len(row.Fields) != len(file.Headers) {
			outcome.errs = []string{fmt.Sprintf("Row has %d columns but header has %d columns",
				len(row.Fields), len(file.Headers))}
			outcomes = append(outcomes, outcome)
			continue
		}

		parsed, errs := ValidateRow(file.FieldMap(row))
		if len(errs) > 0 {
			outcome.errs = errs
			outcomes = append(outcomes, outcome)
			continue
		}

		if first, dup := firstSeen[parsed.SKU]; dup {
			outcome.errs = []string{fmt.Sprintf("Duplicate SKU '%s' in file (first used in row %d)", parsed.SKU, first)}
			outcomes = append(outcomes, outcome)
			continue
		}
		firstSeen[parsed.SKU] = row.Number

		outcome.parsed = parsed
		outcomes = append(outcomes, outcome)
	}

	// One batched existence query for the remaining candidates instead of a
	// round trip per row
	candidates := make([]string, 0, len(outcomes))
	for _, o := range outcomes {
		if o.parsed != nil {
			candidates = append(candidates, o.parsed.SKU)
		}
	}

	var existing map[string]struct{}
	if len(candidates) > 0 {
		existing, err = imp.store.ExistingSKUs(storeID, candidates)
		if err != nil {
			return nil, fmt.Errorf("checking existing SKUs: %w", err)
		}
	}

	batch := make([]*models.Product, 0, len(candidates))
	for i := range outcomes {
		o := &outcomes[i]
		if o.parsed == nil {
			continue
		}
		if _, ok := existing[o.parsed.SKU]; ok {
			o.errs = []string{fmt.Sprintf("SKU '%s' already exists in this store", o.parsed.SKU)}
			o.parsed = nil
			continue
		}
		batch = append(batch, o.parsed.toProduct(storeID, userID))
	}

	if len(batch) > 0 {
		if err := imp.store.BulkInsert(storeID, batch); err != nil {
			imp.logger.WithFields(logrus.Fields{
				"storeId": storeID.String(),
				"rows":    len(batch),
			}).WithError(err).Error("Bulk insert failed, no rows persisted")
			return nil, fmt.Errorf("%w: %v", ErrBulkInsert, err)
		}
	}

	result := &models.ImportResult{Total: len(file.Rows), Successful: len(batch)}
	for _, o := range outcomes {
		if len(o.errs) > 0 {
			result.Failed++
			result.Errors = append(result.Errors, models.ImportRowErrors{Row: o.number, Errors: o.errs})
		}
	}
	result.Message = fmt.Sprintf("Imported %d of %d products (%d failed)",
		result.Successful, result.Total, result.Failed)

	imp.logger.WithFields(logrus.Fields{
		"storeId":    storeID.String(),
		"total":      result.Total,
		"successful": result.Successful,
		"failed":     result.Failed,
	}).Info("Product import completed")

	return result, nil
}

// toProduct maps a validated row onto the persistent model
func (r *ParsedRow) toProduct(storeID uuid.UUID, userID string) *models.Product {
	var createdBy *string
	if userID != "" {
		createdBy = &userID
	}
	return &models.Product{
		StoreID:        storeID,
		SKU:            r.SKU,
		Name:           r.Name,
		Description:    r.Description,
		Category:       r.Category,
		Status:         r.Status,
		BasePriceCents: r.BasePriceCents,
		UnitCostCents:  r.UnitCostCents,
		CommissionBps:  r.CommissionBps,
		CreatedBy:      createdBy,
		UpdatedBy:      createdBy,
	}
}
