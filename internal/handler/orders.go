package handler

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"tropicalstore/internal/apierror"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/model"
	"tropicalstore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type OrdersHandler struct {
	svc            service.OrderService
	pdfStoragePath string
}

func NewOrdersHandler(svc service.OrderService, pdfStoragePath string) *OrdersHandler {
	return &OrdersHandler{svc: svc, pdfStoragePath: pdfStoragePath}
}

// Commit executes a multi-line purchase atomically. A rejected commit
// returns 409 with every offending line; nothing is decremented.
func (h *OrdersHandler) Commit(c *gin.Context) {
	var req dto.CommitRequest
	if !bindAndValidate(c, &req) {
		return
	}
	res, err := h.svc.Commit(c.Request.Context(), req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

func (h *OrdersHandler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orderToResponse(order))
}

func (h *OrdersHandler) List(c *gin.Context) {
	var filter dto.OrderFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	res, err := h.svc.ListOrders(c.Request.Context(), filter)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Void restores the stock an order consumed and marks it voided.
func (h *OrdersHandler) Void(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	var req dto.VoidOrderRequest
	if !bindAndValidate(c, &req) {
		return
	}
	if err := h.svc.VoidOrder(c.Request.Context(), id, req.Reason); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Receipt serves the rendered PDF. Rendering is async; until the worker
// has run the file does not exist yet and the client should retry.
func (h *OrdersHandler) Receipt(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	order, err := h.svc.GetOrder(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}

	fileName := fmt.Sprintf("receipt_%d.pdf", order.Number)
	path := filepath.Join(h.pdfStoragePath, fileName)
	if _, err := os.Stat(path); err != nil {
		c.JSON(http.StatusNotFound, apierror.New("Receipt not generated yet"))
		return
	}
	c.FileAttachment(path, fileName)
}

func orderToResponse(o *model.Order) gin.H {
	items := make([]gin.H, 0, len(o.Items))
	for _, it := range o.Items {
		entry := gin.H{
			"kind":       it.Kind,
			"quantity":   it.Quantity,
			"unit_price": it.UnitPrice,
			"subtotal":   it.Subtotal,
		}
		if it.Product != nil {
			entry["product_code"] = it.Product.Code
			entry["product_name"] = it.Product.Name
		}
		items = append(items, entry)
	}
	return gin.H{
		"id":         o.ID.String(),
		"number":     o.Number,
		"status":     o.Status,
		"total":      o.Total,
		"created_at": o.CreatedAt,
		"items":      items,
	}
}
