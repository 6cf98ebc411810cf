package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/conduct-api/internal/models"
	"github.com/noah-isme/conduct-api/internal/schoolweek"
	appErrors "github.com/noah-isme/conduct-api/pkg/errors"
)

type fakeRankingCache struct {
	entries map[string][]byte
	deleted []string
}

func newFakeRankingCache() *fakeRankingCache {
	return &fakeRankingCache{entries: make(map[string][]byte)}
}

func (f *fakeRankingCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := f.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (f *fakeRankingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	f.entries[key] = raw
	return nil
}

func (f *fakeRankingCache) DeleteByPattern(ctx context.Context, pattern string) error {
	f.deleted = append(f.deleted, pattern)
	prefix := strings.TrimSuffix(pattern, "*")
	for key := range f.entries {
		if strings.HasPrefix(key, prefix) {
			delete(f.entries, key)
		}
	}
	return nil
}

type rankingFixture struct {
	svc   *RankingService
	logs  *fakeLogRepo
	cache *fakeRankingCache
}

func newRankingFixture(t *testing.T, exportEnabled bool) *rankingFixture {
	t.Helper()
	start, err := schoolweek.ParseDate("2024-09-02")
	require.NoError(t, err)

	logs := &fakeLogRepo{records: make(map[string]models.ConductLog)}
	seed := []models.ConductLog{
		{ID: "l1", ClassID: "class-10a", StudentID: "stu-1", ViolationTypeID: "vt-late", Quantity: 2, WeekNumber: 3},
		{ID: "l2", ClassID: "class-10a", StudentID: "stu-2", ViolationTypeID: "vt-good", Quantity: 1, WeekNumber: 3},
		{ID: "l3", ClassID: "class-10a", StudentID: "stu-3", ViolationTypeID: "vt-good", Quantity: 2, WeekNumber: 3},
	}
	dates := []string{"2024-09-16", "2024-09-17", "2024-09-18"}
	for i := range seed {
		d, err := schoolweek.ParseDate(dates[i])
		require.NoError(t, err)
		seed[i].LogDate = d
		logs.records[seed[i].ID] = seed[i]
	}

	cache := newFakeRankingCache()
	svc := NewRankingService(RankingServiceParams{
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
		Logs:          logs,
		Cache:         cache,
		CacheTTL:      5 * time.Minute,
		ExportEnabled: exportEnabled,
	})
	return &rankingFixture{svc: svc, logs: logs, cache: cache}
}

func weekRequest() StandingsRequest {
	return StandingsRequest{ClassID: "class-10a", StartDate: "2024-09-16", EndDate: "2024-09-22"}
}

func TestRankingStandings(t *testing.T) {
	fx := newRankingFixture(t, false)

	standings, err := fx.svc.Standings(context.Background(), weekRequest())
	require.NoError(t, err)

	// Group 1: -4 + 5 = 1. Group 2: +10.
	require.Len(t, standings.Summary.Groups, 2)
	assert.Equal(t, 2, standings.Summary.Groups[0].GroupNumber)
	assert.Equal(t, 1, standings.Summary.Groups[0].Rank)
	assert.InDelta(t, 10.0, standings.Summary.Groups[0].Total, 1e-9)
	assert.InDelta(t, 1.0, standings.Summary.Groups[1].Total, 1e-9)
	assert.InDelta(t, 5.0, standings.Summary.Groups[1].Plus, 1e-9)
	assert.InDelta(t, -4.0, standings.Summary.Groups[1].Minus, 1e-9)

	// Podium is centre-highest: second, first, third by total.
	require.Len(t, standings.Podium, 3)
	assert.Equal(t, "stu-2", standings.Podium[0].StudentID)
	assert.Equal(t, "stu-3", standings.Podium[1].StudentID)
	assert.Equal(t, "stu-1", standings.Podium[2].StudentID)
}

func TestRankingStandingsCacheHit(t *testing.T) {
	fx := newRankingFixture(t, false)

	first, err := fx.svc.Standings(context.Background(), weekRequest())
	require.NoError(t, err)
	calls := fx.logs.listCalls

	second, err := fx.svc.Standings(context.Background(), weekRequest())
	require.NoError(t, err)
	assert.Equal(t, calls, fx.logs.listCalls)
	assert.Equal(t, first.Summary.ScopeTotal, second.Summary.ScopeTotal)
}

func TestRankingInvalidateClass(t *testing.T) {
	fx := newRankingFixture(t, false)

	_, err := fx.svc.Standings(context.Background(), weekRequest())
	require.NoError(t, err)
	calls := fx.logs.listCalls

	fx.svc.InvalidateClass(context.Background(), "class-10a")
	assert.Contains(t, fx.cache.deleted, "rankings:class-10a:*")

	_, err = fx.svc.Standings(context.Background(), weekRequest())
	require.NoError(t, err)
	assert.Greater(t, fx.logs.listCalls, calls)
}

func TestRankingWeeklyMatchesRange(t *testing.T) {
	fx := newRankingFixture(t, false)

	weekly, err := fx.svc.WeeklyStandings(context.Background(), "class-10a", 3, nil)
	require.NoError(t, err)
	ranged, err := fx.svc.Standings(context.Background(), weekRequest())
	require.NoError(t, err)

	assert.Equal(t, "2024-09-16", weekly.From.String())
	assert.Equal(t, "2024-09-22", weekly.To.String())
	assert.Equal(t, ranged.Summary, weekly.Summary)
}

func TestRankingWeeklyUnknownClass(t *testing.T) {
	fx := newRankingFixture(t, false)

	_, err := fx.svc.WeeklyStandings(context.Background(), "missing", 3, nil)
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestRankingWeeklyWeekOutOfRange(t *testing.T) {
	fx := newRankingFixture(t, false)

	_, err := fx.svc.WeeklyStandings(context.Background(), "class-10a", 0, nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, appErrors.ErrWeekOutOfRange)
}

func TestRankingStandingsRejectsInvertedRange(t *testing.T) {
	fx := newRankingFixture(t, false)

	_, err := fx.svc.Standings(context.Background(), StandingsRequest{
		ClassID: "class-10a", StartDate: "2024-09-22", EndDate: "2024-09-16",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestRankingGroupScope(t *testing.T) {
	fx := newRankingFixture(t, false)
	group := 1

	req := weekRequest()
	req.GroupNumber = &group
	standings, err := fx.svc.Standings(context.Background(), req)
	require.NoError(t, err)

	require.Len(t, standings.Summary.Groups, 1)
	assert.Equal(t, 1, standings.Summary.Groups[0].GroupNumber)
	assert.InDelta(t, 1.0, standings.Summary.ScopeTotal, 1e-9)
}

func TestRankingDetailed(t *testing.T) {
	fx := newRankingFixture(t, false)

	report, err := fx.svc.Detailed(context.Background(), DetailedRequest{
		ClassID: "class-10a", StartDate: "2024-09-16", EndDate: "2024-09-22",
	})
	require.NoError(t, err)

	assert.Len(t, report.Records, 3)
	assert.InDelta(t, 11.0, report.Summary.ScopeTotal, 1e-9)
}

func TestRankingExportCSV(t *testing.T) {
	fx := newRankingFixture(t, true)

	name, content, contentType, err := fx.svc.Export(context.Background(), weekRequest(), "csv")
	require.NoError(t, err)

	assert.Equal(t, "text/csv", contentType)
	assert.True(t, strings.HasSuffix(name, ".csv"))
	body := string(content)
	assert.Contains(t, body, "Rank,Group,Plus,Minus,Total")
	assert.Contains(t, body, "1,2,10,0,10")
}

func TestRankingExportPDF(t *testing.T) {
	fx := newRankingFixture(t, true)

	name, content, contentType, err := fx.svc.Export(context.Background(), weekRequest(), "pdf")
	require.NoError(t, err)

	assert.Equal(t, "application/pdf", contentType)
	assert.True(t, strings.HasSuffix(name, ".pdf"))
	assert.NotEmpty(t, content)
}

func TestRankingExportDisabled(t *testing.T) {
	fx := newRankingFixture(t, false)

	_, _, _, err := fx.svc.Export(context.Background(), weekRequest(), "csv")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErr.Code)
}

func TestRankingExportUnknownFormat(t *testing.T) {
	fx := newRankingFixture(t, true)

	_, _, _, err := fx.svc.Export(context.Background(), weekRequest(), "xlsx")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}
