package dto

// CompositionEntry is one (size name, required quantity) row of a grade
// template composition.
type CompositionEntry struct {
	Size     string `json:"size"     validate:"required"`
	Quantity int    `json:"quantity" validate:"required"`
}

type CreateTemplateRequest struct {
	Name        string             `json:"name"        validate:"required,min=1,max=60"`
	Composition []CompositionEntry `json:"composition" validate:"required,dive"`
}

type TemplateItemResponse struct {
	Size     string `json:"size"`
	Quantity int    `json:"quantity"`
}

type TemplateResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// RequestedName differs from Name when the engine had to disambiguate.
	RequestedName string                 `json:"requested_name,omitempty"`
	TotalQuantity int                    `json:"total_quantity"`
	Created       bool                   `json:"created"`
	VariantCreated bool                  `json:"variant_created,omitempty"`
	Items         []TemplateItemResponse `json:"items"`
}
