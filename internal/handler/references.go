package handler

import (
	"net/http"

	"tropicalstore/internal/dto"
	"tropicalstore/internal/repository"

	"github.com/gin-gonic/gin"
)

// ReferencesHandler serves the read-only lookup tables. Writes happen
// implicitly through catalog upserts and imports.
type ReferencesHandler struct{ refs repository.ReferenceRepository }

func NewReferencesHandler(refs repository.ReferenceRepository) *ReferencesHandler {
	return &ReferencesHandler{refs: refs}
}

func (h *ReferencesHandler) Categories(c *gin.Context) {
	rows, err := h.refs.ListCategories(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.ReferenceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ReferenceResponse{ID: r.ID.String(), Name: r.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferencesHandler) Types(c *gin.Context) {
	rows, err := h.refs.ListTypes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.ReferenceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ReferenceResponse{ID: r.ID.String(), Name: r.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferencesHandler) Genders(c *gin.Context) {
	rows, err := h.refs.ListGenders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.ReferenceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ReferenceResponse{ID: r.ID.String(), Name: r.Name})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferencesHandler) Colors(c *gin.Context) {
	rows, err := h.refs.ListColors(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.ReferenceResponse, 0, len(rows))
	for _, r := range rows {
		out = append(out, dto.ReferenceResponse{ID: r.ID.String(), Name: r.Name, Hex: r.Hex})
	}
	c.JSON(http.StatusOK, out)
}

func (h *ReferencesHandler) Sizes(c *gin.Context) {
	rows, err := h.refs.ListSizes(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.ReferenceResponse, 0, len(rows))
	for _, r := range rows {
		order := r.DisplayOrder
		out = append(out, dto.ReferenceResponse{ID: r.ID.String(), Name: r.Name, DisplayOrder: &order})
	}
	c.JSON(http.StatusOK, out)
}
