package dto

import "github.com/shopspring/decimal"

// ─── Request DTOs ────────────────────────────────────────────────────────────

// UpsertProductRequest creates or updates a product by its natural key
// (code). Idempotent: repeating the same payload changes nothing and returns
// the same ID.
type UpsertProductRequest struct {
	Code             string           `json:"code"       validate:"required,min=2,max=40"`
	Name             string           `json:"name"       validate:"required,min=2,max=120"`
	Description      *string          `json:"description"`
	Category         string           `json:"category"   validate:"required"`
	Type             string           `json:"type"       validate:"required"`
	Gender           string           `json:"gender"     validate:"required"`
	BasePrice        decimal.Decimal  `json:"base_price" validate:"required"`
	SuggestedPrice   *decimal.Decimal `json:"suggested_price"`
	StockMode        string           `json:"stock_mode" validate:"omitempty,oneof=unit grade"`
	SellWithoutStock bool             `json:"sell_without_stock"`
}

type UpsertColorVariantRequest struct {
	Color    string  `json:"color" validate:"required"`
	ColorHex *string `json:"color_hex"`
	SKU      *string `json:"sku"`
	Image    *string `json:"image"`
}

type UpsertSizeVariantRequest struct {
	Color         string           `json:"color" validate:"required"`
	Size          string           `json:"size"  validate:"required"`
	Stock         int              `json:"stock" validate:"min=0"`
	PriceOverride *decimal.Decimal `json:"price_override"`
	SKU           *string          `json:"sku"`
}

// UpsertGradeAssociationRequest links a (product, color) to a grade
// template. Either an existing template is referenced by name, or a
// composition is supplied and resolved through the template engine.
type UpsertGradeAssociationRequest struct {
	Color       string             `json:"color"    validate:"required"`
	Template    string             `json:"template" validate:"required"`
	Composition []CompositionEntry `json:"composition" validate:"omitempty,dive"`
	KitStock    *int               `json:"kit_stock"   validate:"omitempty,min=0"`
	StockModel  string             `json:"stock_model" validate:"omitempty,oneof=counter derived"`
	SKU         *string            `json:"sku"`
}

type SwitchStockModeRequest struct {
	StockMode string `json:"stock_mode" validate:"required,oneof=unit grade"`
}

// ─── Filter / Pagination ─────────────────────────────────────────────────────

type ProductFilter struct {
	Code     string `form:"code"`
	Name     string `form:"name"`
	Category string `form:"category"`
	Active   string `form:"active"`
	Page     int    `form:"page,default=1"  validate:"min=1"`
	Limit    int    `form:"limit,default=20" validate:"min=1,max=100"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

// UpsertResult reports the resolved surrogate ID and whether the row was
// created by this call or reused.
type UpsertResult struct {
	ID      string `json:"id"`
	Created bool   `json:"created"`
	// VariantCreated is set by grade upserts when the requested template name
	// existed with a differing composition and a disambiguated template was
	// created instead.
	VariantCreated bool   `json:"variant_created,omitempty"`
	SKU            string `json:"sku,omitempty"`
}

type ProductResponse struct {
	ID               string           `json:"id"`
	Code             string           `json:"code"`
	Name             string           `json:"name"`
	Description      *string          `json:"description"`
	Category         string           `json:"category"`
	Type             string           `json:"type"`
	Gender           string           `json:"gender"`
	BasePrice        decimal.Decimal  `json:"base_price"`
	SuggestedPrice   *decimal.Decimal `json:"suggested_price"`
	StockMode        string           `json:"stock_mode"`
	SellWithoutStock bool             `json:"sell_without_stock"`
	Active           bool             `json:"active"`
}

type ProductListResponse struct {
	Data  []ProductResponse `json:"data"`
	Total int64             `json:"total"`
	Page  int               `json:"page"`
	Limit int               `json:"limit"`
}
