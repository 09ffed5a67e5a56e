package models

// ImportTemplateColumn defines a column in the product import template
type ImportTemplateColumn struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
	Type        string `json:"type"` // string, number
	Example     string `json:"example"`
}

// ImportTemplate defines the structure of an import template
type ImportTemplate struct {
	Entity  string                 `json:"entity"`
	Version string                 `json:"version"`
	Columns []ImportTemplateColumn `json:"columns"`
}

// ImportRowErrors collects every validation message for one file row.
// Row is the 1-based line number as the file appears in a spreadsheet, so
// the first data row is row 2.
type ImportRowErrors struct {
	Row    int      `json:"row"`
	Errors []string `json:"errors"`
}

// ImportResult is the aggregate outcome of one import call
type ImportResult struct {
	Total      int               `json:"total"`
	Successful int               `json:"successful"`
	Failed     int               `json:"failed"`
	Errors     []ImportRowErrors `json:"errors,omitempty"`
	Message    string            `json:"message"`
}

// ImportResponse wraps an ImportResult for the HTTP surface
type ImportResponse struct {
	Success bool          `json:"success"`
	Results *ImportResult `json:"results"`
	Message string        `json:"message"`
}

// ProductImportColumns returns the column definitions for product import
func ProductImportColumns() []ImportTemplateColumn {
	return []ImportTemplateColumn{
		{Name: "sku", Description: "Unique product SKU within the store", Required: true, Type: "string", Example: "TSH-BLU-001"},
		{Name: "name", Description: "Product name", Required: true, Type: "string", Example: "Blue Cotton T-Shirt"},
		{Name: "base_price", Description: "Selling price as a decimal amount", Required: true, Type: "number", Example: "29.99"},
		{Name: "unit_cost", Description: "Cost per unit as a decimal amount", Required: false, Type: "number", Example: "12.50"},
		{Name: "commission_percent", Description: "Commission percentage between 0 and 100", Required: false, Type: "number", Example: "10"},
		{Name: "description", Description: "Product description", Required: false, Type: "string", Example: ""},
		{Name: "category", Description: "Free-form category label", Required: false, Type: "string", Example: "Apparel"},
		{Name: "status", Description: "One of active, inactive, draft (defaults to active)", Required: false, Type: "string", Example: "active"},
	}
}

// ProductImportTemplate returns the template definition for products
func ProductImportTemplate() ImportTemplate {
	return ImportTemplate{
		Entity:  "products",
		Version: "1.0",
		Columns: ProductImportColumns(),
	}
}
