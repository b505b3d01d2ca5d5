package service

import (
	"bytes"
	"context"
	"database/sql"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/repository"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
)

type activityRepoStub struct {
	activities    map[string]*models.Activity
	users         []models.User
	byUserPeriod  map[string][]models.Activity
	userHistory   []models.Activity
	userPeriods   []models.Period
	areaRows      []repository.AreaCountRow
	withUsers     []repository.ActivityWithUser
	statusUpdates []models.ActivityStatus
	deleted       []string
}

func newActivityRepoStub() *activityRepoStub {
	return &activityRepoStub{
		activities:   map[string]*models.Activity{},
		byUserPeriod: map[string][]models.Activity{},
	}
}

func (r *activityRepoStub) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = "act-" + activity.Name
	}
	r.activities[activity.ID] = activity
	return nil
}

func (r *activityRepoStub) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	activity, ok := r.activities[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *activity
	return &copied, nil
}

func (r *activityRepoStub) Update(ctx context.Context, activity *models.Activity) error {
	r.activities[activity.ID] = activity
	return nil
}

func (r *activityRepoStub) UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations, adminID string) error {
	r.activities[id].Status = status
	r.statusUpdates = append(r.statusUpdates, status)
	return nil
}

func (r *activityRepoStub) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.activities, id)
	return nil
}

func (r *activityRepoStub) DistinctUsersByPeriod(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]models.User, error) {
	return r.users, nil
}

func (r *activityRepoStub) ListByUserAndPeriod(ctx context.Context, userID, periodID string, statuses []models.ActivityStatus) ([]models.Activity, error) {
	return r.byUserPeriod[userID], nil
}

func (r *activityRepoStub) ListByUser(ctx context.Context, userID string) ([]models.Activity, []models.Period, error) {
	return r.userHistory, r.userPeriods, nil
}

func (r *activityRepoStub) AreaCounts(ctx context.Context, periodID string) ([]repository.AreaCountRow, error) {
	return r.areaRows, nil
}

func (r *activityRepoStub) ListWithUsers(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]repository.ActivityWithUser, error) {
	return r.withUsers, nil
}

type activityStorageStub struct {
	saved   []string
	deleted []string
}

func (s *activityStorageStub) SaveStream(relPath string, r io.Reader) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	s.saved = append(s.saved, relPath)
	return relPath, nil
}

func (s *activityStorageStub) Delete(relPath string) error {
	s.deleted = append(s.deleted, relPath)
	return nil
}

type periodFinderStub struct {
	periods map[string]*models.Period
}

func (r *periodFinderStub) FindByID(ctx context.Context, id string) (*models.Period, error) {
	period, ok := r.periods[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *period
	return &copied, nil
}

func newActivityServiceForTest(t *testing.T) (*ActivityService, *activityRepoStub, *periodFinderStub, *activityStorageStub) {
	t.Helper()
	repo := newActivityRepoStub()
	periods := &periodFinderStub{periods: map[string]*models.Period{
		"period-1": {
			ID:        "period-1",
			Name:      "Enero-Junio 2026",
			StartDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
			Status:    models.PeriodStatusActive,
		},
	}}
	store := &activityStorageStub{}
	svc := NewActivityService(repo, periods, store, nil, nil, zap.NewNop())
	return svc, repo, periods, store
}

func TestActivityServiceCreateSetsPendingStatus(t *testing.T) {
	svc, _, _, _ := newActivityServiceForTest(t)
	activity, err := svc.Create(context.Background(), CreateActivityRequest{
		Name:        "Reforestación",
		StartDate:   "2026-02-01",
		EndDate:     "2026-02-15",
		Hours:       10,
		Institution: "Parque Municipal",
		Area:        "RS",
		UserID:      "user-1",
		PeriodID:    "period-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusPending, activity.Status)
	assert.Equal(t, models.AreaRS, activity.Area)
}

func TestActivityServiceCreateRejectsEndedPeriod(t *testing.T) {
	svc, _, periods, _ := newActivityServiceForTest(t)
	periods.periods["period-1"].Status = models.PeriodStatusEnded

	_, err := svc.Create(context.Background(), CreateActivityRequest{
		Name:        "Reforestación",
		StartDate:   "2026-02-01",
		EndDate:     "2026-02-15",
		Hours:       10,
		Institution: "Parque Municipal",
		Area:        "RS",
		UserID:      "user-1",
		PeriodID:    "period-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceCreateRejectsUnknownArea(t *testing.T) {
	svc, _, _, _ := newActivityServiceForTest(t)
	_, err := svc.Create(context.Background(), CreateActivityRequest{
		Name:        "Reforestación",
		StartDate:   "2026-02-01",
		EndDate:     "2026-02-15",
		Hours:       10,
		Institution: "Parque Municipal",
		Area:        "XX",
		UserID:      "user-1",
		PeriodID:    "period-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceByPeriodGroupsByStudent(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.users = []models.User{
		{ID: "user-1", NUA: "123456", Name: "Ana", LastName: "Lopez"},
		{ID: "user-2", NUA: "654321", Name: "Bruno", LastName: "Mata"},
	}
	repo.byUserPeriod["user-1"] = []models.Activity{
		{ID: "act-1", Evidence: models.Evidence(`{"fotos":["/evidence/a.jpg"]}`)},
	}

	grouped, err := svc.ByPeriod(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, grouped, 2)
	assert.Equal(t, "Ana Lopez", grouped[0].FullName)
	require.Len(t, grouped[0].Activities, 1)
	assert.Equal(t, []string{"/evidence/a.jpg"}, grouped[0].Activities[0].EvidenceLinks)
	assert.Empty(t, grouped[1].Activities)
}

func TestActivityServiceByPeriodUnknownPeriod(t *testing.T) {
	svc, _, _, _ := newActivityServiceForTest(t)
	_, err := svc.ByPeriod(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceMalformedEvidenceYieldsEmptyLinks(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.users = []models.User{{ID: "user-1", Name: "Ana", LastName: "Lopez"}}
	repo.byUserPeriod["user-1"] = []models.Activity{
		{ID: "act-1", Evidence: models.Evidence(`{"broken`)},
	}

	grouped, err := svc.ByPeriod(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	require.Len(t, grouped[0].Activities, 1)
	assert.Equal(t, []string{}, grouped[0].Activities[0].EvidenceLinks)
}

func TestActivityServiceByUserGroupsByPeriod(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.userPeriods = []models.Period{
		{ID: "period-2", Name: "Agosto-Diciembre 2026", StartDate: time.Date(2026, 8, 10, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 12, 4, 0, 0, 0, 0, time.UTC)},
		{ID: "period-1", Name: "Enero-Junio 2026", StartDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), EndDate: time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC)},
	}
	repo.userHistory = []models.Activity{
		{ID: "act-1", PeriodID: "period-2"},
		{ID: "act-2", PeriodID: "period-1"},
		{ID: "act-3", PeriodID: "period-1"},
	}

	history, err := svc.ByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, history.Periods, 2)
	assert.Equal(t, "period-2", history.Periods[0].ID)
	assert.Len(t, history.Periods[0].Activities, 1)
	assert.Len(t, history.Periods[1].Activities, 2)
}

func TestActivityServiceAreaCountsTotals(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.areaRows = []repository.AreaCountRow{
		{Area: models.AreaDP, Count: 3},
		{Area: models.AreaRS, Count: 2},
		{Area: models.AreaAC, Count: 1},
	}

	view, err := svc.AreaCounts(context.Background(), "period-1")
	require.NoError(t, err)
	assert.Equal(t, "Enero-Junio 2026", view.PeriodName)
	assert.Equal(t, 3, view.AreaCounts.DP)
	assert.Equal(t, 2, view.AreaCounts.RS)
	assert.Equal(t, 1, view.AreaCounts.AC)
	assert.Equal(t, 6, view.AreaCounts.Total)
}

func TestActivityServiceFinalReportSumsApprovedHours(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	student := models.User{ID: "user-1", NUA: "123456", Name: "Ana", LastName: "Lopez", Career: "IS75LI0502", Sede: models.SedeSalamanca}
	repo.withUsers = []repository.ActivityWithUser{
		{User: student, Activity: models.Activity{Area: models.AreaDP, Hours: 5}},
		{User: student, Activity: models.Activity{Area: models.AreaRS, Hours: 8}},
	}

	report, err := svc.FinalReport(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, report.Students, 1)
	assert.Equal(t, 13, report.Students[0].TotalHours)
	assert.Len(t, report.Students[0].Entries, 2)
	assert.Contains(t, report.Students[0].CareerFullName, "SISTEMAS COMPUTACIONALES")
}

func TestActivityServiceUpdateStatusRecordsReviewer(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{ID: "act-1", PeriodID: "period-1", Status: models.ActivityStatusPending}

	activity, err := svc.UpdateStatus(context.Background(), "act-1", UpdateActivityStatusRequest{
		Status:       "approval",
		Observations: "ok",
		AdminID:      "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusApproval, activity.Status)
	require.NotNil(t, activity.LastAdminID)
	assert.Equal(t, "admin-1", *activity.LastAdminID)
}

func TestActivityServiceUpdateStatusRejectsUnknownStatus(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{ID: "act-1", PeriodID: "period-1"}

	_, err := svc.UpdateStatus(context.Background(), "act-1", UpdateActivityStatusRequest{
		Status:  "bogus",
		AdminID: "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.statusUpdates)
}

func TestActivityServiceDeleteUnknownActivity(t *testing.T) {
	svc, _, _, _ := newActivityServiceForTest(t)
	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceCreateAllowsSingleDayActivity(t *testing.T) {
	svc, _, _, _ := newActivityServiceForTest(t)
	activity, err := svc.Create(context.Background(), CreateActivityRequest{
		Name:        "Colecta de alimentos",
		StartDate:   "2026-02-01",
		EndDate:     "2026-02-01",
		Hours:       4,
		Institution: "Banco de Alimentos",
		Area:        "AC",
		UserID:      "user-1",
		PeriodID:    "period-1",
	})
	require.NoError(t, err)
	assert.Equal(t, activity.StartDate, activity.EndDate)
}

func TestActivityServiceCreateRejectsInvertedDates(t *testing.T) {
	svc, _, _, _ := newActivityServiceForTest(t)
	_, err := svc.Create(context.Background(), CreateActivityRequest{
		Name:        "Colecta de alimentos",
		StartDate:   "2026-02-15",
		EndDate:     "2026-02-01",
		Hours:       4,
		Institution: "Banco de Alimentos",
		Area:        "AC",
		UserID:      "user-1",
		PeriodID:    "period-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceDeleteRejectsNonActivePeriod(t *testing.T) {
	for _, status := range []models.PeriodStatus{models.PeriodStatusPending, models.PeriodStatusEnded} {
		svc, repo, periods, _ := newActivityServiceForTest(t)
		periods.periods["period-1"].Status = status
		repo.activities["act-1"] = &models.Activity{ID: "act-1", PeriodID: "period-1"}

		err := svc.Delete(context.Background(), "act-1")
		require.Error(t, err, "period status %s", status)
		assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
		assert.Empty(t, repo.deleted)
	}
}

func TestActivityServiceDeleteRemovesFromActivePeriod(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{ID: "act-1", PeriodID: "period-1"}

	require.NoError(t, svc.Delete(context.Background(), "act-1"))
	assert.Equal(t, []string{"act-1"}, repo.deleted)
}

func strPtr(s string) *string { return &s }

func intPtr(n int) *int { return &n }

func TestActivityServiceUpdateAppliesFields(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{
		ID:        "act-1",
		Name:      "Reforestación",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Hours:     10,
		Area:      models.AreaRS,
		Status:    models.ActivityStatusPending,
		PeriodID:  "period-1",
	}

	activity, err := svc.Update(context.Background(), "act-1", UpdateActivityRequest{
		Name:      strPtr("Reforestación urbana"),
		Hours:     intPtr(12),
		StartDate: strPtr("2026-03-01"),
		EndDate:   strPtr("2026-03-01"),
		Status:    strPtr("approval"),
		AdminID:   "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "Reforestación urbana", activity.Name)
	assert.Equal(t, 12, activity.Hours)
	assert.Equal(t, activity.StartDate, activity.EndDate)
	assert.Equal(t, models.ActivityStatusApproval, activity.Status)
	require.NotNil(t, activity.LastAdminID)
	assert.Equal(t, "admin-1", *activity.LastAdminID)
	assert.Equal(t, "Reforestación urbana", repo.activities["act-1"].Name)
}

func TestActivityServiceUpdateRejectsInvertedDates(t *testing.T) {
	svc, repo, _, _ := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{
		ID:        "act-1",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		PeriodID:  "period-1",
	}

	_, err := svc.Update(context.Background(), "act-1", UpdateActivityRequest{
		StartDate: strPtr("2026-03-10"),
		EndDate:   strPtr("2026-03-01"),
		AdminID:   "admin-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestActivityServiceUpdateRemovesDroppedEvidenceFiles(t *testing.T) {
	svc, repo, _, store := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{
		ID:        "act-1",
		StartDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		Evidence:  models.Evidence(`{"fotos":["/evidence/old.webp","/evidence/keep.webp"]}`),
		PeriodID:  "period-1",
	}
	replacement := models.Evidence(`{"fotos":["/evidence/keep.webp"]}`)

	activity, err := svc.Update(context.Background(), "act-1", UpdateActivityRequest{
		Evidence: &replacement,
		AdminID:  "admin-1",
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/evidence/old.webp"}, store.deleted)
	links, lerr := activity.Evidence.Links()
	require.NoError(t, lerr)
	assert.Equal(t, []string{"/evidence/keep.webp"}, links)
}

func TestActivityServiceAttachEvidenceStoresFiles(t *testing.T) {
	svc, repo, _, store := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{
		ID:       "act-1",
		Evidence: models.Evidence(`{"fotos":["/evidence/keep.webp","/evidence/old.webp"]}`),
		PeriodID: "period-1",
	}

	activity, err := svc.AttachEvidence(context.Background(), "act-1",
		[]string{"/evidence/keep.webp"},
		[]EvidenceFile{{Name: "foto.png", Reader: bytes.NewReader([]byte("img"))}})
	require.NoError(t, err)

	require.Len(t, store.saved, 1)
	assert.True(t, strings.HasPrefix(store.saved[0], "/evidence/"), store.saved[0])
	assert.True(t, strings.HasSuffix(store.saved[0], ".png"), store.saved[0])
	assert.Equal(t, []string{"/evidence/old.webp"}, store.deleted)

	links, lerr := activity.Evidence.Links()
	require.NoError(t, lerr)
	assert.Equal(t, []string{"/evidence/keep.webp", store.saved[0]}, links)
	savedLinks, slerr := repo.activities["act-1"].Evidence.Links()
	require.NoError(t, slerr)
	assert.Equal(t, links, savedLinks)
}

func TestActivityServiceAttachEvidenceRejectsNonImage(t *testing.T) {
	svc, repo, _, store := newActivityServiceForTest(t)
	repo.activities["act-1"] = &models.Activity{ID: "act-1", PeriodID: "period-1"}

	_, err := svc.AttachEvidence(context.Background(), "act-1", nil,
		[]EvidenceFile{{Name: "notas.pdf", Reader: bytes.NewReader([]byte("x"))}})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Empty(t, store.saved)
}
