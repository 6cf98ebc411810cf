package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/service"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
	"github.com/noah-isme/conduct-api/pkg/response"
)

// TrackingHandler exposes the weekly tracking endpoints: week views, bulk
// day submission, record deletion and daily notes.
type TrackingHandler struct {
	tracking *service.TrackingService
}

// NewTrackingHandler constructs handler.
func NewTrackingHandler(tracking *service.TrackingService) *TrackingHandler {
	return &TrackingHandler{tracking: tracking}
}

// Weekly godoc
// @Summary Week view snapshot
// @Tags Reports
// @Produce json
// @Param class_id query string true "Class ID"
// @Param week query int true "Week number"
// @Param group query int false "Group number"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/weekly [get]
func (h *TrackingHandler) Weekly(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id required"))
		return
	}
	week, ok := queryInt(c, "week")
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "week required"))
		return
	}

	view, err := h.tracking.WeekView(c.Request.Context(), claimsFromContext(c), classID, week, queryGroup(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SubmitDay godoc
// @Summary Submit one day's conduct logs
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body service.SubmitDayRequest true "Day submission"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/bulk [post]
func (h *TrackingHandler) SubmitDay(c *gin.Context) {
	var req service.SubmitDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid submission payload"))
		return
	}
	view, err := h.tracking.SubmitDay(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Delete godoc
// @Summary Delete one conduct log
// @Tags Reports
// @Produce json
// @Param id path string true "Log ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [delete]
func (h *TrackingHandler) Delete(c *gin.Context) {
	view, err := h.tracking.DeleteLog(c.Request.Context(), claimsFromContext(c), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// Note godoc
// @Summary Daily note for a class, date and group
// @Tags Reports
// @Produce json
// @Param class_id query string true "Class ID"
// @Param date query string true "Date YYYY-MM-DD"
// @Param group query int false "Group number"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/note [get]
func (h *TrackingHandler) Note(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id required"))
		return
	}
	group := 0
	if g := queryGroup(c); g != nil {
		group = *g
	}
	note, err := h.tracking.Note(c.Request.Context(), classID, c.Query("date"), group)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}

// SaveNote godoc
// @Summary Upsert a daily note
// @Tags Reports
// @Accept json
// @Produce json
// @Param payload body service.SaveNoteRequest true "Note"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/note [post]
func (h *TrackingHandler) SaveNote(c *gin.Context) {
	var req service.SaveNoteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid note payload"))
		return
	}
	note, err := h.tracking.SaveNote(c.Request.Context(), claimsFromContext(c), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, note, nil)
}
