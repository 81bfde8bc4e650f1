package handler

import (
	"net/http"

	"tropicalstore/internal/apierror"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type GradesHandler struct{ svc service.GradeService }

func NewGradesHandler(svc service.GradeService) *GradesHandler {
	return &GradesHandler{svc: svc}
}

// Create resolves a named size composition into a template: an existing
// template with the same name and composition is reused, a name collision
// with a different composition yields a disambiguated variant.
func (h *GradesHandler) Create(c *gin.Context) {
	var req dto.CreateTemplateRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.ResolveOrCreateTemplate(c.Request.Context(), req.Name, req.Composition)
	if err != nil {
		writeError(c, err)
		return
	}
	resp, err := h.svc.GetTemplate(c.Request.Context(), res.Template.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	resp.VariantCreated = res.VariantCreated
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, resp)
}

func (h *GradesHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	res, err := h.svc.GetTemplate(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *GradesHandler) List(c *gin.Context) {
	res, err := h.svc.ListTemplates(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
