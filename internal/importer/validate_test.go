package importer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"storefront-ops-service/internal/models"
)

func TestValidateRow_Valid(t *testing.T) {
	row, errs := ValidateRow(map[string]string{
		"sku":                "TSH-001",
		"name":               "Blue T-Shirt",
		"base_price":         "29.99",
		"unit_cost":          "12.50",
		"commission_percent": "10",
		"description":        "A shirt",
		"category":           "Apparel",
		"status":             "draft",
	})
	require.Empty(t, errs)
	assert.Equal(t, "TSH-001", row.SKU)
	assert.Equal(t, int64(2999), row.BasePriceCents)
	assert.Equal(t, int64(1250), row.UnitCostCents)
	require.NotNil(t, row.CommissionBps)
	assert.Equal(t, int64(1000), *row.CommissionBps)
	assert.Equal(t, models.ProductStatusDraft, row.Status)
	assert.Equal(t, "A shirt", *row.Description)
	assert.Equal(t, "Apparel", *row.Category)
}

func TestValidateRow_CollectsAllViolations(t *testing.T) {
	row, errs := ValidateRow(map[string]string{
		"sku":        "",
		"name":       "",
		"base_price": "abc",
		"status":     "published",
	})
	assert.Nil(t, row)
	require.Len(t, errs, 4)
	assert.Contains(t, errs, "sku is required")
	assert.Contains(t, errs, "name is required")
	assert.Contains(t, errs, "status 'published' must be one of active, inactive, draft")
}

func TestValidateRow_OptionalFieldsDefault(t *testing.T) {
	row, errs := ValidateRow(map[string]string{
		"sku":        "A-1",
		"name":       "Widget",
		"base_price": "5",
	})
	require.Empty(t, errs)
	assert.Equal(t, int64(500), row.BasePriceCents)
	assert.Equal(t, int64(0), row.UnitCostCents)
	assert.Nil(t, row.CommissionBps)
	assert.Equal(t, models.ProductStatusActive, row.Status)
	assert.Nil(t, row.Description)
	assert.Nil(t, row.Category)
}

func TestParseAmount_RoundsHalfUp(t *testing.T) {
	cases := []struct {
		value string
		cents int64
	}{
		{"19.995", 2000},
		{"19.994", 1999},
		{"0.005", 1},
		{"0.004", 0},
		{"29.99", 2999},
		{"100", 10000},
	}
	for _, tc := range cases {
		cents, msgs := ParseAmount("base_price", tc.value, true)
		require.Empty(t, msgs, "value %s", tc.value)
		assert.Equal(t, tc.cents, cents, "value %s", tc.value)
	}
}

func TestParseAmount_Invalid(t *testing.T) {
	_, msgs := ParseAmount("base_price", "", true)
	assert.Equal(t, []string{"base_price is required"}, msgs)

	_, msgs = ParseAmount("base_price", "12,50", true)
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "must be a valid decimal number")

	_, msgs = ParseAmount("unit_cost", "-1.00", true)
	assert.Equal(t, []string{"unit_cost must not be negative"}, msgs)
}

func TestParsePercent(t *testing.T) {
	bps, msgs := ParsePercent("12.5")
	require.Empty(t, msgs)
	assert.Equal(t, int64(1250), bps)

	_, msgs = ParsePercent("101")
	assert.Equal(t, []string{"commission_percent must be between 0 and 100"}, msgs)

	_, msgs = ParsePercent("-3")
	assert.Equal(t, []string{"commission_percent must be between 0 and 100"}, msgs)

	_, msgs = ParsePercent("ten")
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0], "must be a valid decimal number")
}
