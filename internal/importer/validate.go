package importer

import (
	"fmt"

	"github.com/shopspring/decimal"
	"storefront-ops-service/internal/models"
)

var (
	hundred    = decimal.NewFromInt(100)
	percentMax = decimal.NewFromInt(100)
)

// ParsedRow is a row that passed schema validation, with monetary fields
// already coerced to minor units
type ParsedRow struct {
	SKU            string
	Name           string
	Description    *string
	Category       *string
	Status         models.ProductStatus
	BasePriceCents int64
	UnitCostCents  int64
	CommissionBps  *int64
}

// ValidateRow checks one field map against the import schema. It is pure:
// no I/O, no store access. Every violated rule is reported, not just the
// first, so a row with three problems comes back with three messages.
func ValidateRow(fields map[string]string) (*ParsedRow, []string) {
	var errs []string

	row := &ParsedRow{Status: models.ProductStatusActive}

	row.SKU = fields["sku"]
	if row.SKU == "" {
		errs = append(errs, "sku is required")
	}

	row.Name = fields["name"]
	if row.Name == "" {
		errs = append(errs, "name is required")
	}

	if v := fields["description"]; v != "" {
		row.Description = &v
	}
	if v := fields["category"]; v != "" {
		row.Category = &v
	}

	if v := fields["status"]; v != "" {
		if !models.ValidProductStatus(v) {
			errs = append(errs, fmt.Sprintf("status '%s' must be one of active, inactive, draft", v))
		} else {
			row.Status = models.ProductStatus(v)
		}
	}

	if cents, msgs := ParseAmount("base_price", fields["base_price"], true); len(msgs) > 0 {
		errs = append(errs, msgs...)
	} else {
		row.BasePriceCents = cents
	}

	if v := fields["unit_cost"]; v != "" {
		if cents, msgs := ParseAmount("unit_cost", v, true); len(msgs) > 0 {
			errs = append(errs, msgs...)
		} else {
			row.UnitCostCents = cents
		}
	}

	if v := fields["commission_percent"]; v != "" {
		if bps, msgs := ParsePercent(v); len(msgs) > 0 {
			errs = append(errs, msgs...)
		} else {
			row.CommissionBps = &bps
		}
	}

	if len(errs) > 0 {
		return nil, errs
	}
	return row, nil
}

// ParseAmount converts a decimal currency string to minor units, multiplying
// by 100 and rounding half up ("19.995" -> 2000, "19.994" -> 1999)
func ParseAmount(field, value string, required bool) (int64, []string) {
	if value == "" {
		if required {
			return 0, []string{field + " is required"}
		}
		return 0, nil
	}
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, []string{fmt.Sprintf("%s '%s' must be a valid decimal number", field, value)}
	}
	if d.IsNegative() {
		return 0, []string{field + " must not be negative"}
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}

// ParsePercent converts a commission percentage to basis points
func ParsePercent(value string) (int64, []string) {
	d, err := decimal.NewFromString(value)
	if err != nil {
		return 0, []string{fmt.Sprintf("commission_percent '%s' must be a valid decimal number", value)}
	}
	if d.IsNegative() || d.GreaterThan(percentMax) {
		return 0, []string{"commission_percent must be between 0 and 100"}
	}
	return d.Mul(hundred).Round(0).IntPart(), nil
}
