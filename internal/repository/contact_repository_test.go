package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/ssug-dev/ssug-api/internal/models"
)

func newContactRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func contactColumns() []string {
	return []string{"id", "user_id", "admin_id", "period_id", "activity_id", "description", "observations", "status", "created_at", "updated_at"}
}

func TestContactRepositoryFindByTupleWithActivity(t *testing.T) {
	db, mock, cleanup := newContactRepoMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	activityID := "act-1"
	rows := sqlmock.NewRows(contactColumns()).
		AddRow("con-1", "usr-1", "admin-1", "per-1", &activityID, "no responde", "", models.ContactStatusPending, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND period_id = $2 AND activity_id = $3 LIMIT 1")).
		WithArgs("usr-1", "per-1", "act-1").
		WillReturnRows(rows)

	contact, err := repo.FindByTuple(context.Background(), "usr-1", "per-1", &activityID)
	require.NoError(t, err)
	require.NotNil(t, contact)
	require.Equal(t, models.ContactStatusPending, contact.Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepositoryFindByTupleWithoutActivity(t *testing.T) {
	db, mock, cleanup := newContactRepoMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("WHERE user_id = $1 AND period_id = $2 AND activity_id IS NULL LIMIT 1")).
		WithArgs("usr-1", "per-1").
		WillReturnRows(sqlmock.NewRows(contactColumns()))

	contact, err := repo.FindByTuple(context.Background(), "usr-1", "per-1", nil)
	require.NoError(t, err)
	require.Nil(t, contact)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestContactRepositoryListByPeriodOrdersByStatus(t *testing.T) {
	db, mock, cleanup := newContactRepoMock(t)
	defer cleanup()
	repo := NewContactRepository(db)

	columns := append(contactColumns(), "period_name", "user_nua", "user_name", "user_phone", "user_email", "admin_name", "activity_name")
	rows := sqlmock.NewRows(columns).
		AddRow("con-1", "usr-1", "admin-1", "per-1", nil, "no responde", "", models.ContactStatusPending, time.Now(), time.Now(),
			"ENERO-JUNIO 2026", "123456", "Ana García López", "4641234567", "ana@ugto.mx", "Luis Pérez", nil)
	mock.ExpectQuery("ORDER BY CASE c.status").
		WithArgs("per-1").
		WillReturnRows(rows)

	contacts, err := repo.ListByPeriod(context.Background(), "per-1")
	require.NoError(t, err)
	require.Len(t, contacts, 1)
	require.Equal(t, "ENERO-JUNIO 2026", contacts[0].PeriodName)
	require.NoError(t, mock.ExpectationsWereMet())
}
