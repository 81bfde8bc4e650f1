package dto

import "github.com/shopspring/decimal"

// ImportRow is one normalized row of a bulk import. Column mapping and
// parsing happen upstream (the uploader is an external collaborator); the
// core only sees this shape. Exactly one of Size / Grade must be present —
// the row is a tagged variant, validated before any branching logic runs.
type ImportRow struct {
	ProductCode string  `json:"product_code" validate:"required"`
	ProductName string  `json:"product_name" validate:"required"`
	Description *string `json:"description"`
	Category    string  `json:"category" validate:"required"`
	Type        string  `json:"type"     validate:"required"`
	Gender      string  `json:"gender"   validate:"required"`
	Color       string  `json:"color"    validate:"required"`
	ColorHex    *string `json:"color_hex"`
	// Size marks a unit row; Quantity is the absolute stock for that size
	// (re-import replaces, never adds).
	Size *string `json:"size"`
	// Grade marks a grade row; Quantity is the whole-kit counter.
	Grade *string `json:"grade"`
	// Composition materializes the grade template when it does not exist
	// yet. Grade rows without one must reference an existing template name.
	Composition      []CompositionEntry `json:"composition"`
	Quantity         int                `json:"quantity"`
	BasePrice        *decimal.Decimal   `json:"base_price"`
	SuggestedPrice   *decimal.Decimal   `json:"suggested_price"`
	SKU              *string            `json:"sku"`
	SellWithoutStock bool               `json:"sell_without_stock"`
}

type ImportRequest struct {
	Rows []ImportRow `json:"rows" validate:"required,min=1"`
}

// Row outcomes for the per-row report.
const (
	RowCreated = "created"
	RowUpdated = "updated"
)

type RowOutcome struct {
	Row int `json:"row"`
	// Outcome is "created", "updated", or "error:<kind>".
	Outcome string `json:"outcome"`
	Error   string `json:"error,omitempty"`
}

// EntityCounter tallies created vs reused rows per entity type.
type EntityCounter struct {
	Created int `json:"created"`
	Reused  int `json:"reused"`
}

// ImportReport is the structured result of one reconciliation batch.
// Partial success is expected and fully reported, never swallowed.
type ImportReport struct {
	Total      int           `json:"total"`
	Success    int           `json:"success"`
	Errors     int           `json:"errors"`
	Categories EntityCounter `json:"categories"`
	Types      EntityCounter `json:"types"`
	Genders    EntityCounter `json:"genders"`
	Colors     EntityCounter `json:"colors"`
	Sizes      EntityCounter `json:"sizes"`
	Grades     EntityCounter `json:"grades"`
	Products   EntityCounter `json:"products"`
	Variants   EntityCounter `json:"variants"`
	Rows       []RowOutcome  `json:"rows"`
}

// ImportStatus is the pollable progress object for a running batch.
type ImportStatus struct {
	JobID     string        `json:"job_id"`
	Status    string        `json:"status"`
	Total     int           `json:"total"`
	Processed int           `json:"processed"`
	Success   int           `json:"success"`
	Errors    int           `json:"errors"`
	IsRunning bool          `json:"is_running"`
	Report    *ImportReport `json:"report,omitempty"`
}
