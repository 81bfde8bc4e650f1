package dto

import "github.com/shopspring/decimal"

// CommitLine references its target by natural identifiers. Exactly one of
// Size / Grade must be set, and it must match the product's stock mode.
type CommitLine struct {
	ProductCode string  `json:"product_code" validate:"required"`
	Color       string  `json:"color"        validate:"required"`
	Size        *string `json:"size"`
	Grade       *string `json:"grade"` // template name
	Quantity    int     `json:"quantity" validate:"required,min=1"`
}

type CommitRequest struct {
	Lines []CommitLine `json:"lines" validate:"required,min=1,dive"`
}

// LineFailure reports one rejected commit line. Index refers to the
// position in the request; Reason is an apperr kind wire name.
type LineFailure struct {
	Index  int    `json:"index"`
	Reason string `json:"reason"`
	Detail string `json:"detail"`
}

type CommittedLine struct {
	Index     int             `json:"index"`
	Kind      string          `json:"kind"` // "unit" | "grade"
	UnitPrice decimal.Decimal `json:"unit_price"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	// NewStock is the remaining stock after the decrement: units for unit
	// lines, whole kits for counter-model grade lines. Derived-model grade
	// lines report the fulfillable kit count left.
	NewStock int `json:"new_stock"`
}

// CommitResponse is the success receipt.
type CommitResponse struct {
	OrderID string          `json:"order_id"`
	Number  int             `json:"number"`
	Total   decimal.Decimal `json:"total"`
	Lines   []CommittedLine `json:"lines"`
}

type VoidOrderRequest struct {
	Reason string `json:"reason" validate:"required,min=3,max=200"`
}

type OrderListItem struct {
	ID        string          `json:"id"`
	Number    int             `json:"number"`
	Status    string          `json:"status"`
	Total     decimal.Decimal `json:"total"`
	LineCount int             `json:"line_count"`
	CreatedAt string          `json:"created_at"`
}

type OrderListResponse struct {
	Data  []OrderListItem `json:"data"`
	Total int64           `json:"total"`
	Page  int             `json:"page"`
	Limit int             `json:"limit"`
}

type OrderFilter struct {
	Status string `form:"status"`
	Page   int    `form:"page,default=1"   validate:"min=1"`
	Limit  int    `form:"limit,default=50" validate:"min=1,max=200"`
}
