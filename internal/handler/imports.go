package handler

import (
	"net/http"

	"tropicalstore/internal/apierror"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ImportsHandler struct{ svc service.ImportService }

func NewImportsHandler(svc service.ImportService) *ImportsHandler {
	return &ImportsHandler{svc: svc}
}

// Enqueue accepts a pre-parsed batch and queues it for async
// reconciliation. Returns 202 with the pollable job ID.
func (h *ImportsHandler) Enqueue(c *gin.Context) {
	var req dto.ImportRequest
	if !bindAndValidate(c, &req) {
		return
	}
	status, err := h.svc.Enqueue(c.Request.Context(), req.Rows)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, status)
}

// Status returns the live progress of a batch, including the full report
// once the batch finishes.
func (h *ImportsHandler) Status(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	status, err := h.svc.Status(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, status)
}
