package handler

import (
	"net/http"

	"tropicalstore/internal/service"

	"github.com/gin-gonic/gin"
)

type AvailabilityHandler struct{ svc service.AvailabilityService }

func NewAvailabilityHandler(svc service.AvailabilityService) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc}
}

// Get returns the purchasable read model for one product. The optional
// ?color= query narrows the answer to a single color variant.
func (h *AvailabilityHandler) Get(c *gin.Context) {
	res, err := h.svc.Availability(c.Request.Context(), c.Param("code"), c.Query("color"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
