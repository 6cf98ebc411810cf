package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/service"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
	"github.com/noah-isme/conduct-api/pkg/response"
)

// DutyHandler exposes the duty-roster grid endpoints.
type DutyHandler struct {
	tracking *service.TrackingService
}

// NewDutyHandler constructs handler.
func NewDutyHandler(tracking *service.TrackingService) *DutyHandler {
	return &DutyHandler{tracking: tracking}
}

// Grid godoc
// @Summary Duty grid for a class and date
// @Tags Duty
// @Produce json
// @Param class_id query string true "Class ID"
// @Param date query string true "Date YYYY-MM-DD"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /duty/cells [get]
func (h *DutyHandler) Grid(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id required"))
		return
	}
	cells, err := h.tracking.DutyGrid(c.Request.Context(), classID, c.Query("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}

// Toggle godoc
// @Summary Toggle one duty cell
// @Tags Duty
// @Accept json
// @Produce json
// @Param payload body service.ToggleDutyCellRequest true "Cell"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /duty/cells [post]
func (h *DutyHandler) Toggle(c *gin.Context) {
	var req service.ToggleDutyCellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid duty payload"))
		return
	}
	cells, err := h.tracking.ToggleDutyCell(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		// The reconciled grid rides along so clients can roll back their
		// optimistic toggle.
		appErr := appErrors.FromError(err)
		c.JSON(appErr.Status, response.Envelope{Data: cells, Error: appErr})
		return
	}
	response.JSON(c, http.StatusOK, cells, nil)
}
