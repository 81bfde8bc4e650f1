package dto

import "github.com/shopspring/decimal"

// AvailabilityResponse is the storefront read model for one product: per
// color, either the unit-size list or the grade list — never both, the
// calculator branches on the product's stock mode.
type AvailabilityResponse struct {
	ProductCode string              `json:"product_code"`
	StockMode   string              `json:"stock_mode"`
	Colors      []ColorAvailability `json:"colors"`
}

type ColorAvailability struct {
	Color string  `json:"color"`
	Hex   *string `json:"hex,omitempty"`
	SKU   string  `json:"sku"`
	// Sizes is populated for unit-mode products: only sizes with stock > 0,
	// or every existing size when sell_without_stock is set.
	Sizes []SizeAvailability `json:"sizes,omitempty"`
	// Grades is populated for grade-mode products.
	Grades []GradeAvailability `json:"grades,omitempty"`
}

type SizeAvailability struct {
	Size  string          `json:"size"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
}

type GradeAvailability struct {
	Template      string `json:"template"`
	SKU           string `json:"sku"`
	TotalQuantity int    `json:"total_quantity"`
	// HasFullStock gates checkout: at least one whole kit is fulfillable.
	HasFullStock bool `json:"has_full_stock"`
	// HasAnyStock is the weaker "low stock" UI signal — some size of the
	// composition has stock, but maybe not a whole kit.
	HasAnyStock bool            `json:"has_any_stock"`
	KitPrice    decimal.Decimal `json:"kit_price"`
}
