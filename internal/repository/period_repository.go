package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ssug-dev/ssug-api/internal/models"
)

// PeriodRepository manages persistence for service periods.
type PeriodRepository struct {
	db *sqlx.DB
}

// NewPeriodRepository constructs a PeriodRepository.
func NewPeriodRepository(db *sqlx.DB) *PeriodRepository {
	return &PeriodRepository{db: db}
}

// Create inserts a new period record.
func (r *PeriodRepository) Create(ctx context.Context, period *models.Period) error {
	if period.ID == "" {
		period.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if period.CreatedAt.IsZero() {
		period.CreatedAt = now
	}
	period.UpdatedAt = now
	if period.ReportStatus == "" {
		period.ReportStatus = models.ReportStatusNone
	}
	const query = `INSERT INTO periods (id, name, start_date, end_date, exclusive, status, create_admin_id, report_path, report_status, report_error, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :exclusive, :status, :create_admin_id, :report_path, :report_status, :report_error, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, period); err != nil {
		return fmt.Errorf("create period: %w", err)
	}
	return nil
}

// FindByID fetches a period by ID.
func (r *PeriodRepository) FindByID(ctx context.Context, id string) (*models.Period, error) {
	const query = `SELECT id, name, start_date, end_date, exclusive, status, create_admin_id, report_path, report_status, report_error, created_at, updated_at
        FROM periods WHERE id = $1`
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, id); err != nil {
		return nil, err
	}
	return &period, nil
}

// ExistsByName checks if a period with the given name exists, optionally
// excluding an ID.
func (r *PeriodRepository) ExistsByName(ctx context.Context, name string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM periods WHERE name = $1"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check period name: %w", err)
	}
	return true, nil
}

// FindOverlapping returns the first period whose date range intersects the
// given closed interval and shares the same exclusivity flag, optionally
// excluding an ID. Boundary contact counts as overlap.
func (r *PeriodRepository) FindOverlapping(ctx context.Context, start, end time.Time, exclusive bool, excludeID string) (*models.Period, error) {
	query := `SELECT id, name, start_date, end_date, exclusive, status, create_admin_id, report_path, report_status, report_error, created_at, updated_at
        FROM periods WHERE exclusive = $1 AND start_date <= $2 AND end_date >= $3`
	args := []interface{}{exclusive, end, start}
	if excludeID != "" {
		query += " AND id <> $4"
		args = append(args, excludeID)
	}
	query += " ORDER BY start_date ASC LIMIT 1"
	var period models.Period
	if err := r.db.GetContext(ctx, &period, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find overlapping period: %w", err)
	}
	return &period, nil
}

// UpdateDates changes a period's date range.
func (r *PeriodRepository) UpdateDates(ctx context.Context, id string, start, end time.Time) error {
	const query = `UPDATE periods SET start_date = $2, end_date = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, start, end, time.Now().UTC()); err != nil {
		return fmt.Errorf("update period dates: %w", err)
	}
	return nil
}

// UpdateStatus moves a period to a new lifecycle status.
func (r *PeriodRepository) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error {
	const query = `UPDATE periods SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update period status: %w", err)
	}
	return nil
}

// UpdateReport records the outcome of a report generation run.
func (r *PeriodRepository) UpdateReport(ctx context.Context, id string, path *string, status models.ReportStatus, reportErr *string) error {
	const query = `UPDATE periods SET report_path = $2, report_status = $3, report_error = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, path, status, reportErr, time.Now().UTC()); err != nil {
		return fmt.Errorf("update period report: %w", err)
	}
	return nil
}

// Delete removes a period row.
func (r *PeriodRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM periods WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete period: %w", err)
	}
	return nil
}

// ListWithStats returns all periods ordered by start date descending, each
// with per-status activity and collective counts.
func (r *PeriodRepository) ListWithStats(ctx context.Context) ([]models.PeriodWithStats, error) {
	const query = `SELECT p.id, p.name, p.start_date, p.end_date, p.exclusive, p.status, p.create_admin_id, p.report_path, p.report_status, p.report_error, p.created_at, p.updated_at,
        COALESCE(a.total, 0) AS activity_total,
        COALESCE(a.approved, 0) AS activity_approved,
        COALESCE(a.pending, 0) AS activity_pending,
        COALESCE(a.rejected, 0) AS activity_rejected,
        COALESCE(c.total, 0) AS collective_total,
        COALESCE(c.approved, 0) AS collective_approved,
        COALESCE(c.pending, 0) AS collective_pending,
        COALESCE(c.rejected, 0) AS collective_rejected
        FROM periods p
        LEFT JOIN (
            SELECT period_id,
                COUNT(*) AS total,
                SUM(CASE WHEN status = 'approval' THEN 1 ELSE 0 END) AS approved,
                SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) AS pending,
                SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END) AS rejected
            FROM activities GROUP BY period_id
        ) a ON a.period_id = p.id
        LEFT JOIN (
            SELECT period_id,
                COUNT(*) AS total,
                SUM(CASE WHEN status = 'approval' THEN 1 ELSE 0 END) AS approved,
                SUM(CASE WHEN status = 'pending' THEN 1 ELSE 0 END) AS pending,
                SUM(CASE WHEN status = 'rejected' THEN 1 ELSE 0 END) AS rejected
            FROM collectives GROUP BY period_id
        ) c ON c.period_id = p.id
        ORDER BY p.start_date DESC`
	var periods []models.PeriodWithStats
	if err := r.db.SelectContext(ctx, &periods, query); err != nil {
		return nil, fmt.Errorf("list periods: %w", err)
	}
	return periods, nil
}
