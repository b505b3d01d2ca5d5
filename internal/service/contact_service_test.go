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
)

type contactRepoStub struct {
	contacts map[string]*models.Contact
	existing *models.Contact
	listed   []models.ContactDetail
	deleted  []string
}

func newContactRepoStub() *contactRepoStub {
	return &contactRepoStub{contacts: map[string]*models.Contact{}}
}

func (r *contactRepoStub) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID == "" {
		contact.ID = "contact-1"
	}
	r.contacts[contact.ID] = contact
	return nil
}

func (r *contactRepoStub) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	contact, ok := r.contacts[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *contact
	return &copied, nil
}

func (r *contactRepoStub) FindByTuple(ctx context.Context, userID, periodID string, activityID *string) (*models.Contact, error) {
	return r.existing, nil
}

func (r *contactRepoStub) Update(ctx context.Context, contact *models.Contact) error {
	r.contacts[contact.ID] = contact
	return nil
}

func (r *contactRepoStub) Delete(ctx context.Context, id string) error {
	r.deleted = append(r.deleted, id)
	delete(r.contacts, id)
	return nil
}

func (r *contactRepoStub) ListByPeriod(ctx context.Context, periodID string) ([]models.ContactDetail, error) {
	return r.listed, nil
}

func newContactServiceForTest(t *testing.T) (*ContactService, *contactRepoStub) {
	t.Helper()
	repo := newContactRepoStub()
	periods := &periodFinderStub{periods: map[string]*models.Period{
		"period-1": {
			ID:        "period-1",
			Name:      "Enero-Junio 2026",
			StartDate: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
			EndDate:   time.Date(2026, 6, 5, 0, 0, 0, 0, time.UTC),
			Status:    models.PeriodStatusActive,
		},
	}}
	svc := NewContactService(repo, periods, nil, zap.NewNop())
	return svc, repo
}

func TestContactServiceCreateStartsPending(t *testing.T) {
	svc, _ := newContactServiceForTest(t)
	contact, err := svc.Create(context.Background(), CreateContactRequest{
		UserID:      "user-1",
		AdminID:     "admin-1",
		PeriodID:    "period-1",
		Description: "no responde correos",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusPending, contact.Status)
}

func TestContactServiceCreateRejectsDuplicateTuple(t *testing.T) {
	svc, repo := newContactServiceForTest(t)
	repo.existing = &models.Contact{ID: "contact-0", Status: models.ContactStatusInProgress}

	_, err := svc.Create(context.Background(), CreateContactRequest{
		UserID:      "user-1",
		AdminID:     "admin-1",
		PeriodID:    "period-1",
		Description: "no responde correos",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Contains(t, err.Error(), "EN PROGRESO")
}

func TestContactServiceCreateUnknownPeriod(t *testing.T) {
	svc, _ := newContactServiceForTest(t)
	_, err := svc.Create(context.Background(), CreateContactRequest{
		UserID:      "user-1",
		AdminID:     "admin-1",
		PeriodID:    "missing",
		Description: "no responde correos",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestContactServiceUpdateProgressesStatus(t *testing.T) {
	svc, repo := newContactServiceForTest(t)
	repo.contacts["contact-1"] = &models.Contact{ID: "contact-1", Status: models.ContactStatusPending}

	contact, err := svc.Update(context.Background(), "contact-1", UpdateContactRequest{
		Status:       "resolved",
		Observations: "se regularizó",
		AdminID:      "admin-2",
	})
	require.NoError(t, err)
	assert.Equal(t, models.ContactStatusResolved, contact.Status)
	assert.Equal(t, "admin-2", contact.AdminID)
}

func TestContactServiceUpdateRejectsUnknownStatus(t *testing.T) {
	svc, repo := newContactServiceForTest(t)
	repo.contacts["contact-1"] = &models.Contact{ID: "contact-1", Status: models.ContactStatusPending}

	_, err := svc.Update(context.Background(), "contact-1", UpdateContactRequest{
		Status:  "done",
		AdminID: "admin-2",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestContactServiceDeleteUnknownContact(t *testing.T) {
	svc, _ := newContactServiceForTest(t)
	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
