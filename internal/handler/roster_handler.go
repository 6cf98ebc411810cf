package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/service"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
	"github.com/noah-isme/conduct-api/pkg/response"
)

// RosterHandler exposes class roster endpoints.
type RosterHandler struct {
	roster *service.RosterService
}

// NewRosterHandler constructs handler.
func NewRosterHandler(roster *service.RosterService) *RosterHandler {
	return &RosterHandler{roster: roster}
}

// List godoc
// @Summary Students of a class
// @Tags Users
// @Produce json
// @Param class_id query string true "Class ID"
// @Param group query int false "Group number"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /users [get]
func (h *RosterHandler) List(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id required"))
		return
	}
	students, err := h.roster.List(c.Request.Context(), classID, queryGroup(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}
