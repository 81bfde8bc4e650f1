package handler

import (
	"net/http"
	"strconv"

	"tropicalstore/internal/apierror"
	"tropicalstore/internal/dto"
	"tropicalstore/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MovementsHandler serves the stock ledger for one target — a size variant
// or a grade association — newest first.
type MovementsHandler struct{ movements repository.StockMovementRepository }

func NewMovementsHandler(movements repository.StockMovementRepository) *MovementsHandler {
	return &MovementsHandler{movements: movements}
}

func (h *MovementsHandler) ListByTarget(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New("Invalid ID"))
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	rows, err := h.movements.ListByTarget(c.Request.Context(), id, limit)
	if err != nil {
		writeError(c, err)
		return
	}
	out := make([]dto.StockMovementResponse, 0, len(rows))
	for _, m := range rows {
		resp := dto.StockMovementResponse{
			ID:          m.ID.String(),
			TargetKind:  m.TargetKind,
			Type:        m.Type,
			Quantity:    m.Quantity,
			StockBefore: m.StockBefore,
			StockAfter:  m.StockAfter,
			Reason:      m.Reason,
			CreatedAt:   m.CreatedAt,
		}
		if m.OrderID != nil {
			oid := m.OrderID.String()
			resp.OrderID = &oid
		}
		out = append(out, resp)
	}
	c.JSON(http.StatusOK, out)
}
