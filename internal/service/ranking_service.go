package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/conduct-api/internal/aggregate"
	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/schoolweek"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
	"github.com/noah-isme/conduct-api/pkg/export"
)

type rankingCacheRepository interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

// RankingService computes ranking boards and custom-range reports. It reuses
// the same aggregation as the tracking week views, parameterised by an
// arbitrary [start, end] range, so both surfaces always agree numerically.
type RankingService struct {
	classes       trackingClassRepository
	roster        trackingRosterRepository
	catalog       catalogProvider
	logs          trackingLogRepository
	cache         rankingCacheRepository
	cacheTTL      time.Duration
	exportEnabled bool
	csv           *export.CSVExporter
	pdf           *export.PDFExporter
	validator     *validator.Validate
	logger        *zap.Logger
}

// RankingServiceParams wires the ranking service dependencies.
type RankingServiceParams struct {
	Classes       trackingClassRepository
	Roster        trackingRosterRepository
	Catalog       catalogProvider
	Logs          trackingLogRepository
	Cache         rankingCacheRepository
	CacheTTL      time.Duration
	ExportEnabled bool
	Validator     *validator.Validate
	Logger        *zap.Logger
}

// NewRankingService constructs the service.
func NewRankingService(p RankingServiceParams) *RankingService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	return &RankingService{
		classes:       p.Classes,
		roster:        p.Roster,
		catalog:       p.Catalog,
		logs:          p.Logs,
		cache:         p.Cache,
		cacheTTL:      p.CacheTTL,
		exportEnabled: p.ExportEnabled,
		csv:           export.NewCSVExporter(),
		pdf:           export.NewPDFExporter(),
		validator:     p.Validator,
		logger:        p.Logger,
	}
}

// StandingsRequest selects a class and date range, optionally one group.
type StandingsRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	GroupNumber *int   `json:"group_number,omitempty"`
}

// Standings is the ranking board for a range. Podium reorders the top
// students centre-highest for presentation; ranking order itself is by
// total only.
type Standings struct {
	ClassID string                   `json:"class_id"`
	From    schoolweek.Date          `json:"from"`
	To      schoolweek.Date          `json:"to"`
	Summary aggregate.Summary        `json:"summary"`
	Podium  []aggregate.StudentTotal `json:"podium"`
}

// DetailedRequest selects raw records over an arbitrary range with filters.
type DetailedRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	StartDate   string `json:"start_date" validate:"required"`
	EndDate     string `json:"end_date" validate:"required"`
	GroupNumber *int   `json:"group_number,omitempty"`
	StudentID   string `json:"student_id,omitempty"`
}

// DetailedReport pairs the raw records with their aggregation.
type DetailedReport struct {
	ClassID string              `json:"class_id"`
	From    schoolweek.Date     `json:"from"`
	To      schoolweek.Date     `json:"to"`
	Records []models.ConductLog `json:"records"`
	Summary aggregate.Summary   `json:"summary"`
}

// Standings computes the ranking board for a range, cache-aside.
func (s *RankingService) Standings(ctx context.Context, req StandingsRequest) (*Standings, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid standings request")
	}
	from, to, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	key := standingsCacheKey(req.ClassID, from, to, req.GroupNumber)
	if s.cache != nil {
		var cached Standings
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		}
	}

	standings, err := s.compute(ctx, req.ClassID, from, to, req.GroupNumber)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, standings, s.cacheTTL); err != nil {
			s.logger.Warn("failed to cache standings", zap.Error(err))
		}
	}
	return standings, nil
}

// WeeklyStandings resolves a week number to its date range and delegates to
// Standings, so weekly and custom-range totals are computed identically.
func (s *RankingService) WeeklyStandings(ctx context.Context, classID string, week int, group *int) (*Standings, error) {
	if week < 1 {
		return nil, appErrors.ErrWeekOutOfRange
	}
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	blocks, parseErr := schoolweek.ParseScheduleConfig(class.ScheduleConfig)
	if parseErr != nil {
		s.logger.Warn("malformed schedule config, falling back to naive weeks",
			zap.String("class_id", classID), zap.Error(parseErr))
		blocks = nil
	}
	dates := schoolweek.WeekDates(week, class.Start(), blocks)
	return s.Standings(ctx, StandingsRequest{
		ClassID:     classID,
		StartDate:   dates[0].String(),
		EndDate:     dates[len(dates)-1].String(),
		GroupNumber: group,
	})
}

// Detailed returns raw records plus their aggregation for custom reports.
func (s *RankingService) Detailed(ctx context.Context, req DetailedRequest) (*DetailedReport, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid report request")
	}
	from, to, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		return nil, err
	}

	roster, err := s.roster.List(ctx, models.RosterFilter{ClassID: req.ClassID, GroupNumber: req.GroupNumber})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation catalog")
	}
	records, err := s.logs.ListByRange(ctx, models.ConductLogFilter{
		ClassID:     req.ClassID,
		From:        from,
		To:          to,
		GroupNumber: req.GroupNumber,
		StudentID:   req.StudentID,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log records")
	}

	opts := aggregate.Options{}
	if req.GroupNumber != nil {
		opts.GroupFilter = *req.GroupNumber
	}
	return &DetailedReport{
		ClassID: req.ClassID,
		From:    from,
		To:      to,
		Records: records,
		Summary: aggregate.Summarize(records, roster, catalog, opts),
	}, nil
}

// Export renders the standings as a downloadable csv or pdf file.
func (s *RankingService) Export(ctx context.Context, req StandingsRequest, format string) (filename string, content []byte, contentType string, err error) {
	if !s.exportEnabled {
		return "", nil, "", appErrors.Clone(appErrors.ErrForbidden, "ranking export disabled")
	}

	standings, err := s.Standings(ctx, req)
	if err != nil {
		return "", nil, "", err
	}

	dataset := export.Dataset{
		Headers: []string{"Rank", "Group", "Plus", "Minus", "Total"},
	}
	for _, g := range standings.Summary.Groups {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Rank":  strconv.Itoa(g.Rank),
			"Group": strconv.Itoa(g.GroupNumber),
			"Plus":  formatPoints(g.Plus),
			"Minus": formatPoints(g.Minus),
			"Total": formatPoints(g.Total),
		})
	}

	base := fmt.Sprintf("rankings_%s_%s_%s", req.ClassID, standings.From, standings.To)
	switch format {
	case "csv":
		content, err = s.csv.Render(dataset)
		if err != nil {
			return "", nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return base + ".csv", content, "text/csv", nil
	case "pdf":
		title := fmt.Sprintf("Group rankings %s - %s", standings.From, standings.To)
		content, err = s.pdf.Render(dataset, title)
		if err != nil {
			return "", nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return base + ".pdf", content, "application/pdf", nil
	default:
		return "", nil, "", appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf")
	}
}

// InvalidateClass drops every cached standings entry for a class. Called by
// the tracking service after each mutation.
func (s *RankingService) InvalidateClass(ctx context.Context, classID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, "rankings:"+classID+":*"); err != nil {
		s.logger.Warn("failed to invalidate standings cache",
			zap.String("class_id", classID), zap.Error(err))
	}
}

func (s *RankingService) compute(ctx context.Context, classID string, from, to schoolweek.Date, group *int) (*Standings, error) {
	roster, err := s.roster.List(ctx, models.RosterFilter{ClassID: classID, GroupNumber: group})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation catalog")
	}
	records, err := s.logs.ListByRange(ctx, models.ConductLogFilter{
		ClassID:     classID,
		From:        from,
		To:          to,
		GroupNumber: group,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log records")
	}

	opts := aggregate.Options{}
	if group != nil {
		opts.GroupFilter = *group
	}
	summary := aggregate.Summarize(records, roster, catalog, opts)

	return &Standings{
		ClassID: classID,
		From:    from,
		To:      to,
		Summary: summary,
		Podium:  podium(summary.TopStudents),
	}, nil
}

// podium arranges the top students centre-highest: second, first, third.
func podium(top []aggregate.StudentTotal) []aggregate.StudentTotal {
	if len(top) < 2 {
		return append([]aggregate.StudentTotal(nil), top...)
	}
	arranged := make([]aggregate.StudentTotal, 0, len(top))
	arranged = append(arranged, top[1], top[0])
	if len(top) > 2 {
		arranged = append(arranged, top[2])
	}
	return arranged
}

func parseRange(start, end string) (schoolweek.Date, schoolweek.Date, error) {
	from, err := schoolweek.ParseDate(start)
	if err != nil {
		return schoolweek.Date{}, schoolweek.Date{}, appErrors.Clone(appErrors.ErrValidation, "start_date must be YYYY-MM-DD")
	}
	to, err := schoolweek.ParseDate(end)
	if err != nil {
		return schoolweek.Date{}, schoolweek.Date{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be YYYY-MM-DD")
	}
	if to.Before(from) {
		return schoolweek.Date{}, schoolweek.Date{}, appErrors.Clone(appErrors.ErrValidation, "end_date must be on or after start_date")
	}
	return from, to, nil
}

func standingsCacheKey(classID string, from, to schoolweek.Date, group *int) string {
	g := 0
	if group != nil {
		g = *group
	}
	return fmt.Sprintf("rankings:%s:%s:%s:%d", classID, from, to, g)
}

func formatPoints(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
