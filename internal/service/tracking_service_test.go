package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/schoolweek"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

type fakeClassRepo struct {
	class *models.Class
}

func (f *fakeClassRepo) GetByID(ctx context.Context, id string) (*models.Class, error) {
	if f.class == nil || f.class.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.class, nil
}

type fakeRosterRepo struct {
	students []models.Student
}

func (f *fakeRosterRepo) List(ctx context.Context, filter models.RosterFilter) ([]models.Student, error) {
	if filter.GroupNumber == nil {
		return f.students, nil
	}
	var scoped []models.Student
	for _, s := range f.students {
		if s.GroupNumber == *filter.GroupNumber {
			scoped = append(scoped, s)
		}
	}
	return scoped, nil
}

type fakeCatalog struct {
	types []models.ViolationType
}

func (f *fakeCatalog) List(ctx context.Context) ([]models.ViolationType, error) {
	return f.types, nil
}

type fakeLogRepo struct {
	records       map[string]models.ConductLog
	upserted      [][]models.ConductLog
	deleted       []string
	notes         []models.DailyNote
	cells         []models.DutyCell
	upsertCellErr error
	listCalls     int
}

func (f *fakeLogRepo) ListByRange(ctx context.Context, filter models.ConductLogFilter) ([]models.ConductLog, error) {
	f.listCalls++
	var out []models.ConductLog
	for _, rec := range f.records {
		if rec.ClassID == filter.ClassID && !rec.LogDate.Before(filter.From) && !filter.To.Before(rec.LogDate) {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) GetByID(ctx context.Context, id string) (*models.ConductLog, error) {
	rec, ok := f.records[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return &rec, nil
}

func (f *fakeLogRepo) BulkUpsert(ctx context.Context, logs []models.ConductLog) error {
	f.upserted = append(f.upserted, logs)
	if f.records == nil {
		f.records = make(map[string]models.ConductLog)
	}
	for i, rec := range logs {
		if rec.ID == "" {
			rec.ID = "generated-" + time.Now().Format("150405") + "-" + string(rune('a'+i))
		}
		f.records[rec.ID] = rec
	}
	return nil
}

func (f *fakeLogRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.records[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.records, id)
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeLogRepo) GetNote(ctx context.Context, classID string, date schoolweek.Date, group int) (*models.DailyNote, error) {
	for _, n := range f.notes {
		if n.ClassID == classID && n.NoteDate == date && n.GroupNumber == group {
			return &n, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeLogRepo) ListNotes(ctx context.Context, classID string, from, to schoolweek.Date, group *int) ([]models.DailyNote, error) {
	var out []models.DailyNote
	for _, n := range f.notes {
		if n.ClassID == classID && !n.NoteDate.Before(from) && !to.Before(n.NoteDate) {
			out = append(out, n)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) UpsertNote(ctx context.Context, note *models.DailyNote) error {
	for i, n := range f.notes {
		if n.ClassID == note.ClassID && n.NoteDate == note.NoteDate && n.GroupNumber == note.GroupNumber {
			f.notes[i] = *note
			return nil
		}
	}
	f.notes = append(f.notes, *note)
	return nil
}

func (f *fakeLogRepo) ListDutyCells(ctx context.Context, classID string, date schoolweek.Date) ([]models.DutyCell, error) {
	var out []models.DutyCell
	for _, c := range f.cells {
		if c.ClassID == classID && c.CellDate == date {
			out = append(out, c)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) UpsertDutyCell(ctx context.Context, cell *models.DutyCell) error {
	if f.upsertCellErr != nil {
		return f.upsertCellErr
	}
	for i, c := range f.cells {
		if c.ClassID == cell.ClassID && c.CellDate == cell.CellDate && c.Slot == cell.Slot {
			f.cells[i] = *cell
			return nil
		}
	}
	f.cells = append(f.cells, *cell)
	return nil
}

type fakeGuard struct {
	denied   bool
	acquired []string
	released []string
}

func (f *fakeGuard) AcquireGuard(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	if f.denied {
		return false, nil
	}
	f.acquired = append(f.acquired, key)
	return true, nil
}

func (f *fakeGuard) ReleaseGuard(ctx context.Context, key string) {
	f.released = append(f.released, key)
}

type fakeInvalidator struct {
	classes []string
}

func (f *fakeInvalidator) InvalidateClass(ctx context.Context, classID string) {
	f.classes = append(f.classes, classID)
}

type fakeTrackingMetrics struct {
	submissions int
	entries     int
	denied      int
}

func (f *fakeTrackingMetrics) RecordSubmission(entries int) {
	f.submissions++
	f.entries += entries
}

func (f *fakeTrackingMetrics) RecordEditWindowDenied() {
	f.denied++
}

type trackingFixture struct {
	svc         *TrackingService
	logs        *fakeLogRepo
	guard       *fakeGuard
	invalidator *fakeInvalidator
	metrics     *fakeTrackingMetrics
}

// Class starts Monday 2024-09-02 with no curated schedule; the clock sits on
// Wednesday 2024-09-18, which is week 3.
func newTrackingFixture(t *testing.T) *trackingFixture {
	t.Helper()
	start, err := schoolweek.ParseDate("2024-09-02")
	require.NoError(t, err)

	logs := &fakeLogRepo{records: make(map[string]models.ConductLog)}
	guard := &fakeGuard{}
	invalidator := &fakeInvalidator{}
	metrics := &fakeTrackingMetrics{}

	svc := NewTrackingService(TrackingServiceParams{
		Classes: &fakeClassRepo{class: &models.Class{ID: "class-10a", StartDate: &start}},
		Roster: &fakeRosterRepo{students: []models.Student{
			{ID: "stu-1", FullName: "An", ClassID: "class-10a", GroupNumber: 1},
			{ID: "stu-2", FullName: "Binh", ClassID: "class-10a", GroupNumber: 1},
			{ID: "stu-3", FullName: "Chi", ClassID: "class-10a", GroupNumber: 2},
		}},
		Catalog: &fakeCatalog{types: []models.ViolationType{
			{ID: "vt-late", Category: "discipline", Name: "Late for class", Points: -2},
			{ID: "vt-good", Category: "merit", Name: "Good deed", Points: 5},
		}},
		Logs:        logs,
		Guard:       guard,
		Invalidator: invalidator,
		Metrics:     metrics,
		Clock: func() time.Time {
			return time.Date(2024, 9, 18, 10, 0, 0, 0, time.UTC)
		},
	})

	return &trackingFixture{svc: svc, logs: logs, guard: guard, invalidator: invalidator, metrics: metrics}
}

func monitorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "monitor-1", Role: models.RoleMonitor, ClassID: "class-10a"}
}

func leaderClaims(group int) *models.JWTClaims {
	return &models.JWTClaims{UserID: "leader-1", Role: models.RoleGroupLeader, ClassID: "class-10a", GroupNumber: group}
}

func TestTrackingWeekViewSnapshot(t *testing.T) {
	fx := newTrackingFixture(t)

	view, err := fx.svc.WeekView(context.Background(), monitorClaims(), "class-10a", 3, nil)
	require.NoError(t, err)

	assert.Equal(t, 3, view.Week)
	assert.Equal(t, 3, view.CurrentWeek)
	assert.True(t, view.CanEdit)
	require.Len(t, view.Dates, 7)
	assert.Equal(t, "2024-09-16", view.Dates[0].String())
	assert.Equal(t, "2024-09-22", view.Dates[6].String())
	assert.Len(t, view.Roster, 3)
	assert.Len(t, view.Catalog, 2)

	again, err := fx.svc.WeekView(context.Background(), monitorClaims(), "class-10a", 3, nil)
	require.NoError(t, err)
	assert.Greater(t, again.SnapshotSeq, view.SnapshotSeq)
}

func TestTrackingWeekViewGroupLeaderPastWeek(t *testing.T) {
	fx := newTrackingFixture(t)

	view, err := fx.svc.WeekView(context.Background(), leaderClaims(1), "class-10a", 2, nil)
	require.NoError(t, err)
	assert.False(t, view.CanEdit)
}

func TestTrackingWeekViewWeekOutOfRange(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.WeekView(context.Background(), monitorClaims(), "class-10a", 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrWeekOutOfRange)
}

func TestTrackingSubmitDayRequiresConfirmation(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-18",
		Entries: []models.DailyLogEntry{{StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Empty(t, fx.logs.upserted)
}

func TestTrackingSubmitDayEditWindowClosed(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.SubmitDay(context.Background(), leaderClaims(1), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    2,
		Date:    "2024-09-11",
		Confirm: true,
		Entries: []models.DailyLogEntry{{StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEditWindowClosed)
	assert.Empty(t, fx.logs.upserted)
	assert.Empty(t, fx.invalidator.classes)
	assert.Equal(t, 1, fx.metrics.denied)
}

func TestTrackingSubmitDayDateOutsideWeek(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-11",
		Confirm: true,
		Entries: []models.DailyLogEntry{{StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 1}},
	})
	require.Error(t, err)
	assert.Empty(t, fx.logs.upserted)
}

func TestTrackingSubmitDayPersistsAndReloads(t *testing.T) {
	fx := newTrackingFixture(t)

	view, err := fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-18",
		Confirm: true,
		Entries: []models.DailyLogEntry{
			{StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 2},
			{StudentID: "stu-2", ViolationTypeID: "vt-good", Quantity: 1},
		},
	})
	require.NoError(t, err)

	require.Len(t, fx.logs.upserted, 1)
	batch := fx.logs.upserted[0]
	require.Len(t, batch, 2)
	for _, rec := range batch {
		assert.Equal(t, "monitor-1", rec.ReporterID)
		assert.Equal(t, 3, rec.WeekNumber)
		assert.Equal(t, "2024-09-18", rec.LogDate.String())
	}

	assert.Equal(t, []string{"class-10a"}, fx.invalidator.classes)
	assert.Equal(t, 1, fx.metrics.submissions)
	assert.Equal(t, 2, fx.metrics.entries)
	assert.NotEmpty(t, fx.guard.acquired)
	assert.Len(t, fx.guard.released, len(fx.guard.acquired))

	// Returned view reflects the write: stu-1 at -4, stu-2 at +5.
	assert.Len(t, view.Logs, 2)
	assert.InDelta(t, 1.0, view.Summary.ScopeTotal, 1e-9)
}

func TestTrackingSubmitDayRejectsUnknownStudent(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-18",
		Confirm: true,
		Entries: []models.DailyLogEntry{{StudentID: "ghost", ViolationTypeID: "vt-late", Quantity: 1}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, fx.logs.upserted)
}

func TestTrackingSubmitDayRejectsUnknownViolationType(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-18",
		Confirm: true,
		Entries: []models.DailyLogEntry{{StudentID: "stu-1", ViolationTypeID: "vt-ghost", Quantity: 1}},
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, fx.logs.upserted)
}

func TestTrackingSubmitDayGuardDenied(t *testing.T) {
	fx := newTrackingFixture(t)
	fx.guard.denied = true

	_, err := fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-18",
		Confirm: true,
		Entries: []models.DailyLogEntry{{StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 1}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrSubmissionInFlight)
	assert.Empty(t, fx.logs.upserted)

	// The in-process slot must be released so a later attempt can proceed.
	fx.guard.denied = false
	_, err = fx.svc.SubmitDay(context.Background(), monitorClaims(), SubmitDayRequest{
		ClassID: "class-10a",
		Week:    3,
		Date:    "2024-09-18",
		Confirm: true,
		Entries: []models.DailyLogEntry{{StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 1}},
	})
	require.NoError(t, err)
}

func TestTrackingDeleteLogReloadsWeek(t *testing.T) {
	fx := newTrackingFixture(t)
	date, err := schoolweek.ParseDate("2024-09-17")
	require.NoError(t, err)
	fx.logs.records["log-1"] = models.ConductLog{
		ID: "log-1", ClassID: "class-10a", StudentID: "stu-1",
		ViolationTypeID: "vt-late", Quantity: 1, LogDate: date, WeekNumber: 3,
	}

	view, err := fx.svc.DeleteLog(context.Background(), monitorClaims(), "log-1")
	require.NoError(t, err)

	assert.Equal(t, []string{"log-1"}, fx.logs.deleted)
	assert.Equal(t, []string{"class-10a"}, fx.invalidator.classes)
	assert.Equal(t, 3, view.Week)
	assert.Empty(t, view.Logs)
}

func TestTrackingDeleteLogNotFound(t *testing.T) {
	fx := newTrackingFixture(t)

	_, err := fx.svc.DeleteLog(context.Background(), monitorClaims(), "missing")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestTrackingSaveNoteEditWindow(t *testing.T) {
	fx := newTrackingFixture(t)

	// 2024-09-11 resolves to week 2; a group leader may only edit week 3.
	_, err := fx.svc.SaveNote(context.Background(), leaderClaims(1), SaveNoteRequest{
		ClassID: "class-10a", Date: "2024-09-11", GroupNumber: 1, Content: "quiet day",
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrEditWindowClosed)

	note, err := fx.svc.SaveNote(context.Background(), leaderClaims(1), SaveNoteRequest{
		ClassID: "class-10a", Date: "2024-09-18", GroupNumber: 1, Content: "quiet day",
	})
	require.NoError(t, err)
	assert.Equal(t, "quiet day", note.Content)

	fetched, err := fx.svc.Note(context.Background(), "class-10a", "2024-09-18", 1)
	require.NoError(t, err)
	require.NotNil(t, fetched)
	assert.Equal(t, "quiet day", fetched.Content)
}

func TestTrackingNoteMissingReturnsNil(t *testing.T) {
	fx := newTrackingFixture(t)

	note, err := fx.svc.Note(context.Background(), "class-10a", "2024-09-18", 1)
	require.NoError(t, err)
	assert.Nil(t, note)
}

func TestTrackingToggleDutyCellReconciles(t *testing.T) {
	fx := newTrackingFixture(t)
	date, err := schoolweek.ParseDate("2024-09-18")
	require.NoError(t, err)
	fx.logs.cells = []models.DutyCell{
		{ClassID: "class-10a", CellDate: date, Slot: 0, StudentID: "stu-1", Done: false},
	}
	fx.logs.upsertCellErr = errors.New("connection reset")

	cells, err := fx.svc.ToggleDutyCell(context.Background(), monitorClaims(), ToggleDutyCellRequest{
		ClassID: "class-10a", Date: "2024-09-18", Slot: 0, StudentID: "stu-1", Done: true,
	})
	require.Error(t, err)
	// The authoritative grid still shows the cell untoggled.
	require.Len(t, cells, 1)
	assert.False(t, cells[0].Done)
}

func TestTrackingToggleDutyCellPersists(t *testing.T) {
	fx := newTrackingFixture(t)

	cells, err := fx.svc.ToggleDutyCell(context.Background(), monitorClaims(), ToggleDutyCellRequest{
		ClassID: "class-10a", Date: "2024-09-18", Slot: 1, StudentID: "stu-2", Done: true,
	})
	require.NoError(t, err)
	require.Len(t, cells, 1)
	assert.True(t, cells[0].Done)
	assert.Equal(t, "stu-2", cells[0].StudentID)
}

func TestTrackingMalformedScheduleFallsBack(t *testing.T) {
	fx := newTrackingFixture(t)
	start, err := schoolweek.ParseDate("2024-09-02")
	require.NoError(t, err)
	fx.svc.classes = &fakeClassRepo{class: &models.Class{
		ID:             "class-10a",
		StartDate:      &start,
		ScheduleConfig: json.RawMessage(`{"broken":`),
	}}

	view, err := fx.svc.WeekView(context.Background(), monitorClaims(), "class-10a", 3, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, view.CurrentWeek)
	assert.Equal(t, "2024-09-16", view.Dates[0].String())
}
