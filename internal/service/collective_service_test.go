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
	"github.com/ssug-dev/ssug-api/internal/repository"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
)

type collectiveRepoStub struct {
	collectives  map[string]*models.Collective
	users        []models.User
	byUserPeriod map[string][]models.Collective
	participants map[string][]models.Participant
	areaRows     []repository.AreaCountRow
	created      []*models.Collective
	createdWith  [][]string
}

func newCollectiveRepoStub() *collectiveRepoStub {
	return &collectiveRepoStub{
		collectives:  map[string]*models.Collective{},
		byUserPeriod: map[string][]models.Collective{},
		participants: map[string][]models.Participant{},
	}
}

func (r *collectiveRepoStub) Create(ctx context.Context, collective *models.Collective, participantIDs []string) error {
	if collective.ID == "" {
		collective.ID = "col-" + collective.Event
	}
	r.collectives[collective.ID] = collective
	r.created = append(r.created, collective)
	r.createdWith = append(r.createdWith, participantIDs)
	return nil
}

func (r *collectiveRepoStub) FindByID(ctx context.Context, id string) (*models.Collective, error) {
	collective, ok := r.collectives[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *collective
	return &copied, nil
}

func (r *collectiveRepoStub) UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations string) error {
	r.collectives[id].Status = status
	r.collectives[id].Observations = observations
	return nil
}

func (r *collectiveRepoStub) Delete(ctx context.Context, id string) error {
	delete(r.collectives, id)
	return nil
}

func (r *collectiveRepoStub) DistinctUsersByPeriod(ctx context.Context, periodID string) ([]models.User, error) {
	return r.users, nil
}

func (r *collectiveRepoStub) ListByUserAndPeriod(ctx context.Context, userID, periodID string) ([]models.Collective, error) {
	return r.byUserPeriod[userID], nil
}

func (r *collectiveRepoStub) Participants(ctx context.Context, collectiveID string) ([]models.Participant, error) {
	return r.participants[collectiveID], nil
}

func (r *collectiveRepoStub) AreaCounts(ctx context.Context, periodID string) ([]repository.AreaCountRow, error) {
	return r.areaRows, nil
}

func newCollectiveServiceForTest(t *testing.T) (*CollectiveService, *collectiveRepoStub, *periodFinderStub) {
	t.Helper()
	repo := newCollectiveRepoStub()
	periods := &periodFinderStub{periods: map[string]*models.Period{
		"period-1": {
			ID:        "period-1",
			Name:      "Enero-Junio 2026",
			StartDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
			Status:    models.PeriodStatusActive,
		},
	}}
	svc := NewCollectiveService(repo, periods, nil, zap.NewNop())
	return svc, repo, periods
}

func TestCollectiveServiceCreateLinksParticipants(t *testing.T) {
	svc, repo, _ := newCollectiveServiceForTest(t)
	collective, err := svc.Create(context.Background(), CreateCollectiveRequest{
		Event:          "Colecta de invierno",
		Institution:    "DIF Salamanca",
		Hours:          6,
		Date:           "2026-03-10",
		Area:           "AC",
		UserID:         "user-1",
		PeriodID:       "period-1",
		ParticipantIDs: []string{"user-2", "user-3"},
	})
	require.NoError(t, err)
	assert.Equal(t, models.ActivityStatusPending, collective.Status)
	require.Len(t, repo.createdWith, 1)
	assert.Equal(t, []string{"user-2", "user-3"}, repo.createdWith[0])
}

func TestCollectiveServiceCreateRejectsEndedPeriod(t *testing.T) {
	svc, _, periods := newCollectiveServiceForTest(t)
	periods.periods["period-1"].Status = models.PeriodStatusEnded

	_, err := svc.Create(context.Background(), CreateCollectiveRequest{
		Event:       "Colecta de invierno",
		Institution: "DIF Salamanca",
		Hours:       6,
		Date:        "2026-03-10",
		Area:        "AC",
		UserID:      "user-1",
		PeriodID:    "period-1",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCollectiveServiceByPeriodResolvesParticipants(t *testing.T) {
	svc, repo, _ := newCollectiveServiceForTest(t)
	repo.users = []models.User{{ID: "user-1", Name: "Ana", LastName: "Lopez"}}
	repo.byUserPeriod["user-1"] = []models.Collective{
		{ID: "col-1", Event: "Colecta", Evidence: models.Evidence(`{"foto":"/evidence/a.jpg"}`)},
	}
	repo.participants["col-1"] = []models.Participant{
		{ID: "user-2", NUA: "111111", FullName: "Bruno Mata"},
	}

	grouped, err := svc.ByPeriod(context.Background(), "period-1")
	require.NoError(t, err)
	require.Len(t, grouped, 1)
	require.Len(t, grouped[0].Collectives, 1)
	view := grouped[0].Collectives[0]
	assert.Equal(t, []string{"/evidence/a.jpg"}, view.EvidenceLinks)
	require.Len(t, view.Participants, 1)
	assert.Equal(t, "Bruno Mata", view.Participants[0].FullName)
}

func TestCollectiveServiceAreaCountsTotals(t *testing.T) {
	svc, repo, _ := newCollectiveServiceForTest(t)
	repo.areaRows = []repository.AreaCountRow{
		{Area: models.AreaAC, Count: 2},
		{Area: models.AreaRS, Count: 1},
	}

	view, err := svc.AreaCounts(context.Background(), "period-1")
	require.NoError(t, err)
	assert.Equal(t, 2, view.AreaCounts.AC)
	assert.Equal(t, 1, view.AreaCounts.RS)
	assert.Equal(t, 3, view.AreaCounts.Total)
}

func TestCollectiveServiceUpdateStatusUnknownCollective(t *testing.T) {
	svc, _, _ := newCollectiveServiceForTest(t)
	_, err := svc.UpdateStatus(context.Background(), "missing", models.ActivityStatusApproval, "")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
