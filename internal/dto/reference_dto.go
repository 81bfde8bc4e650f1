package dto

// ReferenceResponse is the shared read shape for the lookup tables
// (categories, types, genders, colors, sizes).
type ReferenceResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Hex is set for colors only.
	Hex *string `json:"hex,omitempty"`
	// DisplayOrder is set for sizes only.
	DisplayOrder *int `json:"display_order,omitempty"`
}
