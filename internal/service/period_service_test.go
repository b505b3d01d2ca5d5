package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/models"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/jobs"
)

type periodRepoStub struct {
	periods       map[string]*models.Period
	overlapping   *models.Period
	nameTaken     bool
	reportStatus  models.ReportStatus
	reportPath    *string
	reportErr     *string
	deleted       []string
	statusUpdates []models.PeriodStatus
}

func newPeriodRepoStub() *periodRepoStub {
	return &periodRepoStub{periods: map[string]*models.Period{}}
}

func (r *periodRepoStub) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = "period-" + period.Name
	}
	r.periods[period.ID] = period
	return nil
}

func (r *periodRepoStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	period, ok := r.periods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *period
	return &copied, nil
}

func (r *periodRepoStub) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return r.nameTaken, nil
}

func (r *periodRepoStub) FindOverlapping(ctx context.Context, start, end time.Time, exclusive bool, excludeID string) (*models.Period, error) {
	return r.overlapping, nil
}

func (r *periodRepoStub) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	r.periods[id].StartDate = start
	r.periods[id].EndDate = end
	return nil
}

func (r *periodRepoStub) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error {
	r.periods[id].Status = status
	r.statusUpdates = append(r.statusUpdates, status)
	return nil
}

func (r *periodRepoStub) UpdateReport(ctx context.Context, id string, path *string, status models.ReportStatus, reportErr *string) error {
	r.reportStatus = status
	r.reportPath = path
	r.reportErr = reportErr
	return nil
}

func (r *periodRepoStub) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.periods, id)
	return nil
}

func (r *periodRepoStub) ListWithStats(ctx context.Context) ([]models.PeriodWithStats, error) {
	var out []models.PeriodWithStats
	for _, period := range r.periods {
		out = append(out, models.PeriodWithStats{Period: *period})
	}
	return out, nil
}

type periodActivityStub struct {
	activities []models.Activity
	purged     []string
}

func (r *periodActivityStub) ListByPeriod(ctx context.Context, periodID string) ([]models.Activity, error) {
	return r.activities, nil
}

func (r *periodActivityStub) DeleteByPeriod(ctx context.Context, periodID string) error {
	r.purged = append(r.purged, periodID)
	return nil
}

func (r *periodActivityStub) CountByPeriod(ctx context.Context, periodID string) (int, error) {
	return len(r.activities), nil
}

type periodCollectiveStub struct {
	collectives []models.Collective
	purged      []string
}

func (r *periodCollectiveStub) ListByPeriod(ctx context.Context, periodID string) ([]models.Collective, error) {
	return r.collectives, nil
}

func (r *periodCollectiveStub) DeleteByPeriod(ctx context.Context, periodID string) error {
	r.purged = append(r.purged, periodID)
	return nil
}

type storageStub struct {
	deleted []string
}

func (s *storageStub) Delete(relPath string) error {
	s.deleted = append(s.deleted, relPath)
	return nil
}

type schedulerStub struct {
	scheduled []string
	err       error
}

func (s *schedulerStub) SchedulePeriodReport(periodID string) error {
	if s.err != nil {
		return s.err
	}
	s.scheduled = append(s.scheduled, periodID)
	return nil
}

func newPeriodServiceForTest(t *testing.T) (*PeriodService, *periodRepoStub, *periodActivityStub, *periodCollectiveStub, *storageStub, *schedulerStub) {
	t.Helper()
	repo := newPeriodRepoStub()
	activities := &periodActivityStub{}
	collectives := &periodCollectiveStub{}
	store := &storageStub{}
	scheduler := &schedulerStub{}
	svc := NewPeriodService(repo, activities, collectives, store, scheduler, nil, nil, zap.NewNop())
	return svc, repo, activities, collectives, store, scheduler
}

func seedPeriod(repo *periodRepoStub, id string, status models.PeriodStatus) *models.Period {
	period := &models.Period{
		ID:           id,
		Name:         "Enero-Junio 2026",
		StartDate:    time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		EndDate:      time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
		Status:       status,
		ReportStatus: models.ReportStatusNone,
	}
	repo.periods[id] = period
	return period
}

func TestPeriodServiceCreateDefaultsToPending(t *testing.T) {
	svc, _, _, _, _, _ := newPeriodServiceForTest(t)
	period, err := svc.Create(context.Background(), CreatePeriodRequest{
		Name:          "Agosto-Diciembre 2026",
		DateStart:     "2026-08-10",
		DateEnd:       "2026-12-04",
		CreateAdminID: "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusPending, period.Status)
	assert.Equal(t, models.ReportStatusNone, period.ReportStatus)
}

func TestPeriodServiceCreateRejectsInvertedRange(t *testing.T) {
	svc, _, _, _, _, _ := newPeriodServiceForTest(t)
	_, err := svc.Create(context.Background(), CreatePeriodRequest{
		Name:          "Agosto-Diciembre 2026",
		DateStart:     "2026-12-04",
		DateEnd:       "2026-08-10",
		CreateAdminID: "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceCreateRejectsDuplicateName(t *testing.T) {
	svc, repo, _, _, _, _ := newPeriodServiceForTest(t)
	repo.nameTaken = true
	_, err := svc.Create(context.Background(), CreatePeriodRequest{
		Name:          "Agosto-Diciembre 2026",
		DateStart:     "2026-08-10",
		DateEnd:       "2026-12-04",
		CreateAdminID: "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "Agosto-Diciembre 2026")
}

func TestPeriodServiceCreateNamesOverlappingPeriod(t *testing.T) {
	svc, repo, _, _, _, _ := newPeriodServiceForTest(t)
	repo.overlapping = &models.Period{
		Name:      "Enero-Junio 2026",
		StartDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
	}
	_, err := svc.Create(context.Background(), CreatePeriodRequest{
		Name:          "Verano 2026",
		DateStart:     "2026-06-05",
		DateEnd:       "2026-07-31",
		CreateAdminID: "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "Enero-Junio 2026")
	assert.Contains(t, err.Error(), "2026-01-12")
}

func TestPeriodServiceUpdateStatusRejectsNoOp(t *testing.T) {
	svc, repo, _, _, _, scheduler := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusActive)

	_, err := svc.UpdateStatus(context.Background(), "period-1", models.PeriodStatusActive)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusUpdates)
	assert.Empty(t, scheduler.scheduled)
}

func TestPeriodServiceUpdateStatusEndedSchedulesReport(t *testing.T) {
	svc, repo, _, _, _, scheduler := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusActive)

	period, err := svc.UpdateStatus(context.Background(), "period-1", models.PeriodStatusEnded)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusEnded, period.Status)
	assert.Equal(t, models.ReportStatusGenerating, period.ReportStatus)
	assert.Equal(t, []string{"period-1"}, scheduler.scheduled)
	assert.Equal(t, models.ReportStatusGenerating, repo.reportStatus)
}

func TestPeriodServiceUpdateStatusToleratesInFlightReport(t *testing.T) {
	svc, repo, _, _, _, scheduler := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusActive)
	scheduler.err = jobs.ErrInFlight

	period, err := svc.UpdateStatus(context.Background(), "period-1", models.PeriodStatusEnded)
	require.NoError(t, err)
	assert.Equal(t, models.PeriodStatusEnded, period.Status)
	assert.Equal(t, []models.PeriodStatus{models.PeriodStatusEnded}, repo.statusUpdates)
}

func TestPeriodServiceUpdateStatusEndedToActiveDoesNotSchedule(t *testing.T) {
	svc, repo, _, _, _, scheduler := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusEnded)

	_, err := svc.UpdateStatus(context.Background(), "period-1", models.PeriodStatusActive)
	require.NoError(t, err)
	assert.Empty(t, scheduler.scheduled)
}

func TestPeriodServiceDeleteCascades(t *testing.T) {
	svc, repo, activities, collectives, store, _ := newPeriodServiceForTest(t)
	period := seedPeriod(repo, "period-1", models.PeriodStatusEnded)
	reportPath := "/reports/periodo-period-1.pdf"
	period.ReportPath = &reportPath
	activities.activities = []models.Activity{
		{ID: "act-1", Evidence: models.Evidence(`{"fotos":["/evidence/a.jpg","/evidence/b.jpg"]}`)},
	}
	collectives.collectives = []models.Collective{
		{ID: "col-1", Evidence: models.Evidence(`{"foto":"/evidence/c.jpg"}`)},
	}

	err := svc.Delete(context.Background(), "period-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"period-1"}, activities.purged)
	assert.Equal(t, []string{"period-1"}, collectives.purged)
	assert.Equal(t, []string{"period-1"}, repo.deleted)
	assert.ElementsMatch(t, []string{"/evidence/a.jpg", "/evidence/b.jpg", "/evidence/c.jpg", reportPath}, store.deleted)
}

func TestPeriodServiceDeleteSurvivesMalformedEvidence(t *testing.T) {
	svc, repo, activities, _, store, _ := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusEnded)
	activities.activities = []models.Activity{
		{ID: "act-1", Evidence: models.Evidence(`{"broken`)},
	}

	err := svc.Delete(context.Background(), "period-1")
	require.NoError(t, err)
	assert.Empty(t, store.deleted)
	assert.Equal(t, []string{"period-1"}, repo.deleted)
}

func TestPeriodServiceDownloadRequiresEndedPeriod(t *testing.T) {
	svc, repo, _, _, _, _ := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusActive)

	_, err := svc.GetForDownload(context.Background(), "period-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestPeriodServiceDownloadBundlesRecords(t *testing.T) {
	svc, repo, activities, collectives, _, _ := newPeriodServiceForTest(t)
	seedPeriod(repo, "period-1", models.PeriodStatusEnded)
	activities.activities = []models.Activity{{ID: "act-1"}}
	collectives.collectives = []models.Collective{{ID: "col-1"}}

	download, err := svc.GetForDownload(context.Background(), "period-1")
	require.NoError(t, err)
	assert.Len(t, download.Activities, 1)
	assert.Len(t, download.Collectives, 1)
	assert.Equal(t, "period-1", download.Period.ID)
}

func TestPeriodServiceGetNotFound(t *testing.T) {
	svc, _, _, _, _, _ := newPeriodServiceForTest(t)
	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
