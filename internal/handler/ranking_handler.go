package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/conduct-api/internal/service"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
	"github.com/noah-isme/conduct-api/pkg/response"
)

// RankingHandler exposes ranking boards, detailed reports and exports.
type RankingHandler struct {
	rankings *service.RankingService
}

// NewRankingHandler constructs handler.
func NewRankingHandler(rankings *service.RankingService) *RankingHandler {
	return &RankingHandler{rankings: rankings}
}

// Standings godoc
// @Summary Group rankings for a week or custom range
// @Tags Rankings
// @Produce json
// @Param class_id query string true "Class ID"
// @Param week query int false "Week number (exclusive with start/end)"
// @Param start_date query string false "Range start YYYY-MM-DD"
// @Param end_date query string false "Range end YYYY-MM-DD"
// @Param group query int false "Group number"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /rankings [get]
func (h *RankingHandler) Standings(c *gin.Context) {
	classID := c.Query("class_id")
	if classID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "class_id required"))
		return
	}
	group := queryGroup(c)

	if week, ok := queryInt(c, "week"); ok {
		standings, err := h.rankings.WeeklyStandings(c.Request.Context(), classID, week, group)
		if err != nil {
			response.Error(c, err)
			return
		}
		response.JSON(c, http.StatusOK, standings, nil)
		return
	}

	standings, err := h.rankings.Standings(c.Request.Context(), service.StandingsRequest{
		ClassID:     classID,
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		GroupNumber: group,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, standings, nil)
}

// Detailed godoc
// @Summary Raw conduct records over a custom range
// @Tags Rankings
// @Produce json
// @Param class_id query string true "Class ID"
// @Param start_date query string true "Range start YYYY-MM-DD"
// @Param end_date query string true "Range end YYYY-MM-DD"
// @Param group query int false "Group number"
// @Param student_id query string false "Student ID"
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /reports/detailed [get]
func (h *RankingHandler) Detailed(c *gin.Context) {
	report, err := h.rankings.Detailed(c.Request.Context(), service.DetailedRequest{
		ClassID:     c.Query("class_id"),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		GroupNumber: queryGroup(c),
		StudentID:   c.Query("student_id"),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export rankings as csv or pdf
// @Tags Rankings
// @Produce octet-stream
// @Param class_id query string true "Class ID"
// @Param start_date query string true "Range start YYYY-MM-DD"
// @Param end_date query string true "Range end YYYY-MM-DD"
// @Param format query string true "csv or pdf"
// @Security BearerAuth
// @Success 200 {file} binary
// @Router /rankings/export [get]
func (h *RankingHandler) Export(c *gin.Context) {
	name, content, contentType, err := h.rankings.Export(c.Request.Context(), service.StandingsRequest{
		ClassID:     c.Query("class_id"),
		StartDate:   c.Query("start_date"),
		EndDate:     c.Query("end_date"),
		GroupNumber: queryGroup(c),
	}, c.DefaultQuery("format", "csv"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, contentType, content)
}
