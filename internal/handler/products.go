package handler

import (
	"net/http"

	"tropicalstore/internal/apierror"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ProductsHandler struct{ svc service.CatalogService }

func NewProductsHandler(svc service.CatalogService) *ProductsHandler {
	return &ProductsHandler{svc: svc}
}

// Upsert creates or updates a product by its natural key (code).
func (h *ProductsHandler) Upsert(c *gin.Context) {
	var req dto.UpsertProductRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.UpsertProduct(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *ProductsHandler) UpsertColorVariant(c *gin.Context) {
	var req dto.UpsertColorVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.UpsertColorVariant(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *ProductsHandler) UpsertSizeVariant(c *gin.Context) {
	var req dto.UpsertSizeVariantRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.UpsertSizeVariant(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *ProductsHandler) UpsertGradeAssociation(c *gin.Context) {
	var req dto.UpsertGradeAssociationRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.UpsertGradeAssociation(c.Request.Context(), c.Param("code"), req)
	if err != nil {
		writeError(c, err)
		return
	}
	status := http.StatusOK
	if res.Created {
		status = http.StatusCreated
	}
	c.JSON(status, res)
}

func (h *ProductsHandler) SwitchStockMode(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.SwitchStockModeRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.SwitchStockMode(c.Request.Context(), id, req.StockMode); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductsHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	res, err := h.svc.GetProduct(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProductsHandler) List(c *gin.Context) {
	var filter dto.ProductFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	res, err := h.svc.ListProducts(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *ProductsHandler) Deactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.Deactivate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *ProductsHandler) Reactivate(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	if err := h.svc.Reactivate(c.Request.Context(), id); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
