package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/conduct-api/internal/aggregate"
	"github.com/noah-isme/conduct-api/internal/editwindow"
	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/schoolweek"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

type trackingClassRepository interface {
	GetByID(ctx context.Context, id string) (*models.Class, error)
}

type trackingRosterRepository interface {
	List(ctx context.Context, filter models.RosterFilter) ([]models.Student, error)
}

type catalogProvider interface {
	List(ctx context.Context) ([]models.ViolationType, error)
}

type trackingLogRepository interface {
	ListByRange(ctx context.Context, filter models.ConductLogFilter) ([]models.ConductLog, error)
	GetByID(ctx context.Context, id string) (*models.ConductLog, error)
	BulkUpsert(ctx context.Context, logs []models.ConductLog) error
	Delete(ctx context.Context, id string) error
	GetNote(ctx context.Context, classID string, date schoolweek.Date, group int) (*models.DailyNote, error)
	ListNotes(ctx context.Context, classID string, from, to schoolweek.Date, group *int) ([]models.DailyNote, error)
	UpsertNote(ctx context.Context, note *models.DailyNote) error
	ListDutyCells(ctx context.Context, classID string, date schoolweek.Date) ([]models.DutyCell, error)
	UpsertDutyCell(ctx context.Context, cell *models.DutyCell) error
}

type submissionGuard interface {
	AcquireGuard(ctx context.Context, key string, ttl time.Duration) (bool, error)
	ReleaseGuard(ctx context.Context, key string)
}

type rankingInvalidator interface {
	InvalidateClass(ctx context.Context, classID string)
}

type trackingMetrics interface {
	RecordSubmission(entries int)
	RecordEditWindowDenied()
}

// TrackingService orchestrates one (class, week, optional group) tracking
// scope: it resolves week dates, loads roster, catalog and logs as a single
// consistent snapshot, and owns every conduct mutation. All mutations are
// validated against the caller's edit window before any storage call and
// answer with a freshly reloaded week view.
type TrackingService struct {
	classes     trackingClassRepository
	roster      trackingRosterRepository
	catalog     catalogProvider
	logs        trackingLogRepository
	guard       submissionGuard
	invalidator rankingInvalidator
	metrics     trackingMetrics
	validator   *validator.Validate
	logger      *zap.Logger
	clock       func() time.Time
	guardTTL    time.Duration

	snapshotSeq atomic.Uint64
	inflight    sync.Map
}

// TrackingServiceParams wires the tracking service dependencies.
type TrackingServiceParams struct {
	Classes     trackingClassRepository
	Roster      trackingRosterRepository
	Catalog     catalogProvider
	Logs        trackingLogRepository
	Guard       submissionGuard
	Invalidator rankingInvalidator
	Metrics     trackingMetrics
	Validator   *validator.Validate
	Logger      *zap.Logger
	Clock       func() time.Time
	GuardTTL    time.Duration
}

// NewTrackingService constructs the service.
func NewTrackingService(p TrackingServiceParams) *TrackingService {
	if p.Validator == nil {
		p.Validator = validator.New()
	}
	if p.Logger == nil {
		p.Logger = zap.NewNop()
	}
	if p.Clock == nil {
		p.Clock = time.Now
	}
	if p.GuardTTL <= 0 {
		p.GuardTTL = 30 * time.Second
	}
	return &TrackingService{
		classes:     p.Classes,
		roster:      p.Roster,
		catalog:     p.Catalog,
		logs:        p.Logs,
		guard:       p.Guard,
		invalidator: p.Invalidator,
		metrics:     p.Metrics,
		validator:   p.Validator,
		logger:      p.Logger,
		clock:       p.Clock,
		guardTTL:    p.GuardTTL,
	}
}

// WeekView is one consistent snapshot of a tracking scope. SnapshotSeq
// increases monotonically so clients can discard stale in-flight responses
// after switching weeks (last-request-wins).
type WeekView struct {
	ClassID     string                 `json:"class_id"`
	Week        int                    `json:"week"`
	CurrentWeek int                    `json:"current_week"`
	CanEdit     bool                   `json:"can_edit"`
	Dates       []schoolweek.Date      `json:"dates"`
	Roster      []models.Student       `json:"roster"`
	Catalog     []models.ViolationType `json:"catalog"`
	Logs        []models.ConductLog    `json:"logs"`
	Notes       []models.DailyNote     `json:"notes"`
	Summary     aggregate.Summary      `json:"summary"`
	SnapshotSeq uint64                 `json:"snapshot_seq"`
}

// SubmitDayRequest is one day's bulk submission. Confirm must be set: the
// submission is a user-facing irreversible bulk write and the confirmation
// contract is part of the API.
type SubmitDayRequest struct {
	ClassID     string                 `json:"class_id" validate:"required"`
	Week        int                    `json:"week" validate:"required,min=1"`
	Date        string                 `json:"log_date" validate:"required"`
	GroupNumber *int                   `json:"group_number,omitempty"`
	Confirm     bool                   `json:"confirm"`
	Entries     []models.DailyLogEntry `json:"reports" validate:"required,min=1,dive"`
}

// SaveNoteRequest upserts a daily free-text note. Lower stakes than scored
// logs, so no confirmation flag.
type SaveNoteRequest struct {
	ClassID     string `json:"class_id" validate:"required"`
	Date        string `json:"date" validate:"required"`
	GroupNumber int    `json:"group_number" validate:"min=0"`
	Content     string `json:"content" validate:"required"`
}

// ToggleDutyCellRequest flips one duty-roster cell.
type ToggleDutyCellRequest struct {
	ClassID   string `json:"class_id" validate:"required"`
	Date      string `json:"date" validate:"required"`
	Slot      int    `json:"slot" validate:"min=0"`
	StudentID string `json:"student_id" validate:"required"`
	Done      bool   `json:"done"`
}

type weekContext struct {
	class       *models.Class
	blocks      []schoolweek.Block
	currentWeek int
	dates       []schoolweek.Date
}

// WeekView loads the tracking snapshot for a class, week and optional group.
func (s *TrackingService) WeekView(ctx context.Context, claims *models.JWTClaims, classID string, week int, group *int) (*WeekView, error) {
	wctx, err := s.resolveWeek(ctx, classID, week)
	if err != nil {
		return nil, err
	}
	return s.buildWeekView(ctx, claims, classID, week, group, wctx)
}

// SubmitDay persists one day's submissions and returns the reloaded week
// view. The resolved date must fall inside the selected week; the edit
// window is checked before any write; a per-(class, day) guard rejects
// concurrent duplicate submissions.
func (s *TrackingService) SubmitDay(ctx context.Context, claims *models.JWTClaims, req SubmitDayRequest) (*WeekView, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid submission payload")
	}
	if !req.Confirm {
		return nil, appErrors.Clone(appErrors.ErrValidation, "explicit confirmation required for day submission")
	}
	date, err := schoolweek.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "log_date must be YYYY-MM-DD")
	}

	wctx, err := s.resolveWeek(ctx, req.ClassID, req.Week)
	if err != nil {
		return nil, err
	}
	if !containsDate(wctx.dates, date) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "log_date does not fall inside the selected week")
	}
	if err := s.requireEditWindow(claims, req.Week, wctx.currentWeek); err != nil {
		return nil, err
	}
	if err := s.validateEntries(ctx, req.ClassID, req.Entries); err != nil {
		return nil, err
	}

	release, err := s.acquireSubmitGuard(ctx, req.ClassID, date)
	if err != nil {
		return nil, err
	}
	defer release()

	logs := make([]models.ConductLog, 0, len(req.Entries))
	for _, entry := range req.Entries {
		logs = append(logs, models.ConductLog{
			ClassID:         req.ClassID,
			StudentID:       entry.StudentID,
			ViolationTypeID: entry.ViolationTypeID,
			Quantity:        entry.Quantity,
			LogDate:         date,
			Note:            entry.Note,
			ReporterID:      claims.UserID,
			WeekNumber:      req.Week,
		})
	}
	if err := s.logs.BulkUpsert(ctx, logs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save day submission")
	}

	if s.metrics != nil {
		s.metrics.RecordSubmission(len(logs))
	}
	s.invalidateRankings(ctx, req.ClassID)

	return s.buildWeekView(ctx, claims, req.ClassID, req.Week, req.GroupNumber, wctx)
}

// DeleteLog removes one record and returns the reloaded week view for the
// record's week.
func (s *TrackingService) DeleteLog(ctx context.Context, claims *models.JWTClaims, logID string) (*WeekView, error) {
	rec, err := s.logs.GetByID(ctx, logID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log record")
	}

	wctx, err := s.resolveWeek(ctx, rec.ClassID, rec.WeekNumber)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditWindow(claims, rec.WeekNumber, wctx.currentWeek); err != nil {
		return nil, err
	}

	if err := s.logs.Delete(ctx, logID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "log record not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete log record")
	}

	s.invalidateRankings(ctx, rec.ClassID)

	return s.buildWeekView(ctx, claims, rec.ClassID, rec.WeekNumber, nil, wctx)
}

// SaveNote upserts the daily note for (class, date, group).
func (s *TrackingService) SaveNote(ctx context.Context, claims *models.JWTClaims, req SaveNoteRequest) (*models.DailyNote, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid note payload")
	}
	date, err := schoolweek.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	week, currentWeek, err := s.resolveDateWeek(ctx, req.ClassID, date)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditWindow(claims, week, currentWeek); err != nil {
		return nil, err
	}

	note := &models.DailyNote{
		ClassID:     req.ClassID,
		NoteDate:    date,
		GroupNumber: req.GroupNumber,
		Content:     req.Content,
	}
	if err := s.logs.UpsertNote(ctx, note); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save note")
	}
	return note, nil
}

// Note returns the daily note for (class, date, group), or nil when unset.
func (s *TrackingService) Note(ctx context.Context, classID, rawDate string, group int) (*models.DailyNote, error) {
	date, err := schoolweek.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	note, err := s.logs.GetNote(ctx, classID, date, group)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load note")
	}
	return note, nil
}

// DutyGrid returns the duty-roster grid for a class and date.
func (s *TrackingService) DutyGrid(ctx context.Context, classID, rawDate string) ([]models.DutyCell, error) {
	date, err := schoolweek.ParseDate(rawDate)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	cells, err := s.logs.ListDutyCells(ctx, classID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load duty grid")
	}
	return cells, nil
}

// ToggleDutyCell upserts one duty cell. Clients toggle optimistically; on a
// storage failure the authoritative grid is re-read and returned alongside
// the error so callers can reconcile.
func (s *TrackingService) ToggleDutyCell(ctx context.Context, claims *models.JWTClaims, req ToggleDutyCellRequest) ([]models.DutyCell, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid duty payload")
	}
	date, err := schoolweek.ParseDate(req.Date)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}

	week, currentWeek, err := s.resolveDateWeek(ctx, req.ClassID, date)
	if err != nil {
		return nil, err
	}
	if err := s.requireEditWindow(claims, week, currentWeek); err != nil {
		return nil, err
	}

	cell := &models.DutyCell{
		ClassID:   req.ClassID,
		CellDate:  date,
		Slot:      req.Slot,
		StudentID: req.StudentID,
		Done:      req.Done,
	}
	if err := s.logs.UpsertDutyCell(ctx, cell); err != nil {
		cells, listErr := s.logs.ListDutyCells(ctx, req.ClassID, date)
		if listErr != nil {
			s.logger.Error("duty grid reconciliation failed", zap.Error(listErr))
			cells = nil
		}
		return cells, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save duty cell")
	}

	cells, err := s.logs.ListDutyCells(ctx, req.ClassID, date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to reload duty grid")
	}
	return cells, nil
}

// validateEntries rejects submissions referencing students outside the class
// roster or violation types missing from the catalog. Aggregation ignores
// unknown references, so letting them through would persist rows that never
// score.
func (s *TrackingService) validateEntries(ctx context.Context, classID string, entries []models.DailyLogEntry) error {
	roster, err := s.roster.List(ctx, models.RosterFilter{ClassID: classID})
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	members := make(map[string]struct{}, len(roster))
	for _, st := range roster {
		members[st.ID] = struct{}{}
	}

	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation catalog")
	}
	known := make(map[string]struct{}, len(catalog))
	for _, vt := range catalog {
		known[vt.ID] = struct{}{}
	}

	for _, entry := range entries {
		if _, ok := members[entry.StudentID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "student is not on the class roster")
		}
		if _, ok := known[entry.ViolationTypeID]; !ok {
			return appErrors.Clone(appErrors.ErrValidation, "unknown violation type")
		}
	}
	return nil
}

func (s *TrackingService) resolveWeek(ctx context.Context, classID string, week int) (*weekContext, error) {
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

	blocks, err := schoolweek.ParseScheduleConfig(class.ScheduleConfig)
	if err != nil {
		// Naive 7-day-block numbering still works without the schedule.
		s.logger.Warn("malformed schedule config, falling back to naive weeks",
			zap.String("class_id", classID), zap.Error(err))
		blocks = nil
	}

	return &weekContext{
		class:       class,
		blocks:      blocks,
		currentWeek: schoolweek.CurrentWeek(s.clock(), class.Start(), blocks),
		dates:       schoolweek.WeekDates(week, class.Start(), blocks),
	}, nil
}

func (s *TrackingService) resolveDateWeek(ctx context.Context, classID string, date schoolweek.Date) (week, currentWeek int, err error) {
	class, err := s.classes.GetByID(ctx, classID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return 0, 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	blocks, parseErr := schoolweek.ParseScheduleConfig(class.ScheduleConfig)
	if parseErr != nil {
		s.logger.Warn("malformed schedule config, falling back to naive weeks",
			zap.String("class_id", classID), zap.Error(parseErr))
		blocks = nil
	}
	week = schoolweek.WeekNumber(date, class.Start(), blocks)
	currentWeek = schoolweek.CurrentWeek(s.clock(), class.Start(), blocks)
	return week, currentWeek, nil
}

func (s *TrackingService) buildWeekView(ctx context.Context, claims *models.JWTClaims, classID string, week int, group *int, wctx *weekContext) (*WeekView, error) {
	roster, err := s.roster.List(ctx, models.RosterFilter{ClassID: classID, GroupNumber: group})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load roster")
	}
	catalog, err := s.catalog.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load violation catalog")
	}

	from, to := wctx.dates[0], wctx.dates[len(wctx.dates)-1]
	logs, err := s.logs.ListByRange(ctx, models.ConductLogFilter{
		ClassID:     classID,
		From:        from,
		To:          to,
		GroupNumber: group,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load log records")
	}
	notes, err := s.logs.ListNotes(ctx, classID, from, to, group)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notes")
	}

	opts := aggregate.Options{}
	if group != nil {
		opts.GroupFilter = *group
	}

	role := models.UserRole("")
	if claims != nil {
		role = claims.Role
	}

	return &WeekView{
		ClassID:     classID,
		Week:        week,
		CurrentWeek: wctx.currentWeek,
		CanEdit:     editwindow.CanEdit(role, week, wctx.currentWeek),
		Dates:       wctx.dates,
		Roster:      roster,
		Catalog:     catalog,
		Logs:        logs,
		Notes:       notes,
		Summary:     aggregate.Summarize(logs, roster, catalog, opts),
		SnapshotSeq: s.snapshotSeq.Add(1),
	}, nil
}

func (s *TrackingService) requireEditWindow(claims *models.JWTClaims, week, currentWeek int) error {
	if claims == nil || !editwindow.CanEdit(claims.Role, week, currentWeek) {
		if s.metrics != nil {
			s.metrics.RecordEditWindowDenied()
		}
		return appErrors.ErrEditWindowClosed
	}
	return nil
}

// acquireSubmitGuard takes both the in-process and the shared re-entrancy
// guard for one (class, day). The shared guard survives multi-instance
// deployments; the in-process one covers running without Redis.
func (s *TrackingService) acquireSubmitGuard(ctx context.Context, classID string, date schoolweek.Date) (func(), error) {
	key := fmt.Sprintf("guard:submit:%s:%s", classID, date)

	if _, busy := s.inflight.LoadOrStore(key, struct{}{}); busy {
		return nil, appErrors.ErrSubmissionInFlight
	}
	release := func() { s.inflight.Delete(key) }

	if s.guard != nil {
		ok, err := s.guard.AcquireGuard(ctx, key, s.guardTTL)
		if err != nil {
			s.logger.Warn("submission guard unavailable", zap.Error(err))
		} else if !ok {
			release()
			return nil, appErrors.ErrSubmissionInFlight
		} else {
			inner := release
			release = func() {
				s.guard.ReleaseGuard(ctx, key)
				inner()
			}
		}
	}

	return release, nil
}

func (s *TrackingService) invalidateRankings(ctx context.Context, classID string) {
	if s.invalidator != nil {
		s.invalidator.InvalidateClass(ctx, classID)
	}
}

func containsDate(dates []schoolweek.Date, d schoolweek.Date) bool {
	for _, candidate := range dates {
		if candidate == d {
			return true
		}
	}
	return false
}
