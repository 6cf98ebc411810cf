package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/service"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
	"github.com/noah-isme/conduct-api/pkg/response"
)

// ClassHandler exposes class metadata and schedule endpoints.
type ClassHandler struct {
	classes *service.ClassService
}

// NewClassHandler constructs handler.
func NewClassHandler(classes *service.ClassService) *ClassHandler {
	return &ClassHandler{classes: classes}
}

// Get godoc
// @Summary Class detail with week schedule
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// UpdateSchedule godoc
// @Summary Replace the curated week schedule
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateScheduleRequest true "Schedule blocks"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/schedule [put]
func (h *ClassHandler) UpdateSchedule(c *gin.Context) {
	var req service.UpdateScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid schedule payload"))
		return
	}
	class, err := h.classes.UpdateSchedule(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}
