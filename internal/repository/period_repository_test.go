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

func newPeriodRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func periodColumns() []string {
	return []string{"id", "name", "start_date", "end_date", "exclusive", "status", "create_admin_id", "report_path", "report_status", "report_error", "created_at", "updated_at"}
}

func TestPeriodRepositoryCreateGeneratesID(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO periods")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	period := &models.Period{
		Name:          "AGOSTO-DICIEMBRE 2026",
		StartDate:     time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2026, 12, 15, 0, 0, 0, 0, time.UTC),
		Status:        models.PeriodStatusPending,
		CreateAdminID: "admin-1",
	}
	require.NoError(t, repo.Create(context.Background(), period))
	require.NotEmpty(t, period.ID)
	require.Equal(t, models.ReportStatusNone, period.ReportStatus)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindOverlappingScopesExclusiveFlag(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 5, 30, 0, 0, 0, 0, time.UTC)

	rows := sqlmock.NewRows(periodColumns()).
		AddRow("per-1", "ENERO-JUNIO 2026", start, end, true, models.PeriodStatusActive, "admin-1", nil, models.ReportStatusNone, nil, time.Now(), time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("WHERE exclusive = $1 AND start_date <= $2 AND end_date >= $3")).
		WithArgs(true, end, start).
		WillReturnRows(rows)

	conflict, err := repo.FindOverlapping(context.Background(), start, end, true, "")
	require.NoError(t, err)
	require.NotNil(t, conflict)
	require.Equal(t, "ENERO-JUNIO 2026", conflict.Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindOverlappingNoConflict(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE exclusive = $1 AND start_date <= $2 AND end_date >= $3")).
		WithArgs(false, end, start).
		WillReturnRows(sqlmock.NewRows(periodColumns()))

	conflict, err := repo.FindOverlapping(context.Background(), start, end, false, "")
	require.NoError(t, err)
	require.Nil(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryFindOverlappingExcludesOwnRow(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("AND id <> $4")).
		WithArgs(true, end, start, "per-1").
		WillReturnRows(sqlmock.NewRows(periodColumns()))

	conflict, err := repo.FindOverlapping(context.Background(), start, end, true, "per-1")
	require.NoError(t, err)
	require.Nil(t, conflict)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM periods WHERE name = $1 LIMIT 1")).
		WithArgs("ENERO-JUNIO 2026").
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "ENERO-JUNIO 2026", "")
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryUpdateReport(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	path := "reports/per-1.pdf"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE periods SET report_path = $2, report_status = $3, report_error = $4")).
		WithArgs("per-1", &path, models.ReportStatusReady, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.UpdateReport(context.Background(), "per-1", &path, models.ReportStatusReady, nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPeriodRepositoryListWithStats(t *testing.T) {
	db, mock, cleanup := newPeriodRepoMock(t)
	defer cleanup()
	repo := NewPeriodRepository(db)

	columns := append(periodColumns(),
		"activity_total", "activity_approved", "activity_pending", "activity_rejected",
		"collective_total", "collective_approved", "collective_pending", "collective_rejected")
	rows := sqlmock.NewRows(columns).
		AddRow("per-1", "ENERO-JUNIO 2026", time.Now(), time.Now(), true, models.PeriodStatusEnded, "admin-1", nil, models.ReportStatusNone, nil, time.Now(), time.Now(),
			10, 6, 3, 1, 2, 1, 1, 0)
	mock.ExpectQuery("FROM periods p").WillReturnRows(rows)

	periods, err := repo.ListWithStats(context.Background())
	require.NoError(t, err)
	require.Len(t, periods, 1)
	require.Equal(t, 10, periods[0].ActivityTotal)
	require.Equal(t, 6, periods[0].ActivityApproved)
	require.Equal(t, 2, periods[0].CollectiveTotal)
	require.NoError(t, mock.ExpectationsWereMet())
}
