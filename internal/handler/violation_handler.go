package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/service"
	"github.com/noah-isme/conduct-api/pkg/response"
)

// ViolationHandler exposes the violation/commendation catalog.
type ViolationHandler struct {
	violations *service.ViolationService
}

// NewViolationHandler constructs handler.
func NewViolationHandler(violations *service.ViolationService) *ViolationHandler {
	return &ViolationHandler{violations: violations}
}

// List godoc
// @Summary Violation and commendation catalog
// @Tags Violations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /violations [get]
func (h *ViolationHandler) List(c *gin.Context) {
	types, err := h.violations.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, types, nil)
}
