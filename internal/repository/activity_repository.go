package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ssug-dev/ssug-api/internal/models"
)

// userRow is the reduced student projection joined alongside activities.
type userRow struct {
	ID             string `db:"id"`
	NUA            string `db:"nua"`
	Name           string `db:"name"`
	LastName       string `db:"last_name"`
	SecondLastName string `db:"second_last_name"`
	Career         string `db:"career"`
	Sede           string `db:"sede"`
	Email          string `db:"email"`
	Phone          string `db:"phone"`
}

func (u userRow) user() models.User {
	return models.User{
		ID:             u.ID,
		NUA:            u.NUA,
		Name:           u.Name,
		LastName:       u.LastName,
		SecondLastName: u.SecondLastName,
		Career:         u.Career,
		Sede:           models.Sede(u.Sede),
		Email:          u.Email,
		Phone:          u.Phone,
	}
}

// ActivityWithUser pairs an activity row with its submitting student.
type ActivityWithUser struct {
	Activity models.Activity
	User     models.User
}

// AreaCountRow is one (area, count) aggregation bucket.
type AreaCountRow struct {
	Area  models.ActivityArea `db:"area"`
	Count int                 `db:"count"`
}

// ActivityRepository manages persistence for individual service activities.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs an ActivityRepository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Create inserts a new activity record.
func (r *ActivityRepository) Create(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if activity.CreatedAt.IsZero() {
		activity.CreatedAt = now
	}
	activity.UpdatedAt = now
	if activity.Status == "" {
		activity.Status = models.ActivityStatusPending
	}
	const query = `INSERT INTO activities (id, name, start_date, end_date, hours, institution, evidence, area, status, observations, last_admin_id, user_id, period_id, created_at, updated_at)
        VALUES (:id, :name, :start_date, :end_date, :hours, :institution, :evidence, :area, :status, :observations, :last_admin_id, :user_id, :period_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("create activity: %w", err)
	}
	return nil
}

// FindByID fetches an activity by ID.
func (r *ActivityRepository) FindByID(ctx context.Context, id string) (*models.Activity, error) {
	const query = `SELECT id, name, start_date, end_date, hours, institution, evidence, area, status, observations, last_admin_id, user_id, period_id, created_at, updated_at
        FROM activities WHERE id = $1`
	var activity models.Activity
	if err := r.db.GetContext(ctx, &activity, query, id); err != nil {
		return nil, err
	}
	return &activity, nil
}

// Update rewrites an activity's editable fields, review state included.
func (r *ActivityRepository) Update(ctx context.Context, activity *models.Activity) error {
	activity.UpdatedAt = time.Now().UTC()
	const query = `UPDATE activities SET name = :name, start_date = :start_date, end_date = :end_date, hours = :hours, institution = :institution, evidence = :evidence, area = :area, status = :status, observations = :observations, last_admin_id = :last_admin_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, activity); err != nil {
		return fmt.Errorf("update activity: %w", err)
	}
	return nil
}

// UpdateStatus records a review decision.
func (r *ActivityRepository) UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations string, adminID string) error {
	const query = `UPDATE activities SET status = $2, observations = $3, last_admin_id = $4, updated_at = $5 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, observations, adminID, time.Now().UTC()); err != nil {
		return fmt.Errorf("update activity status: %w", err)
	}
	return nil
}

// Delete removes an activity row.
func (r *ActivityRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM activities WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete activity: %w", err)
	}
	return nil
}

// ListByPeriod returns every activity in a period.
func (r *ActivityRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.Activity, error) {
	const query = `SELECT id, name, start_date, end_date, hours, institution, evidence, area, status, observations, last_admin_id, user_id, period_id, created_at, updated_at
        FROM activities WHERE period_id = $1 ORDER BY created_at ASC`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, periodID); err != nil {
		return nil, fmt.Errorf("list activities by period: %w", err)
	}
	return activities, nil
}

// DeleteByPeriod removes every activity attached to a period.
func (r *ActivityRepository) DeleteByPeriod(ctx context.Context, periodID string) error {
	const query = `DELETE FROM activities WHERE period_id = $1`
	if _, err := r.db.ExecContext(ctx, query, periodID); err != nil {
		return fmt.Errorf("delete activities by period: %w", err)
	}
	return nil
}

// statusPlaceholders renders an IN clause for the given statuses starting at
// placeholder index start.
func statusPlaceholders(start, n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = fmt.Sprintf("$%d", start+i)
	}
	return strings.Join(parts, ", ")
}

// DistinctUsersByPeriod returns the students who submitted at least one
// activity with any of the given statuses in the period, ordered by last
// name then first name.
func (r *ActivityRepository) DistinctUsersByPeriod(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]models.User, error) {
	query := `SELECT DISTINCT u.id, u.nua, u.name, u.last_name, u.second_last_name, u.career, u.sede, u.email, u.phone
        FROM users u JOIN activities a ON a.user_id = u.id
        WHERE a.period_id = $1`
	args := []interface{}{periodID}
	if len(statuses) > 0 {
		query += fmt.Sprintf(" AND a.status IN (%s)", statusPlaceholders(2, len(statuses)))
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY u.last_name ASC, u.name ASC"
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list period users: %w", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

// ListByUserAndPeriod returns a student's activities in a period filtered by
// status, newest start date first.
func (r *ActivityRepository) ListByUserAndPeriod(ctx context.Context, userID, periodID string, statuses []models.ActivityStatus) ([]models.Activity, error) {
	query := `SELECT id, name, start_date, end_date, hours, institution, evidence, area, status, observations, last_admin_id, user_id, period_id, created_at, updated_at
        FROM activities WHERE user_id = $1 AND period_id = $2`
	args := []interface{}{userID, periodID}
	if len(statuses) > 0 {
		query += fmt.Sprintf(" AND status IN (%s)", statusPlaceholders(3, len(statuses)))
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY start_date DESC"
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, args...); err != nil {
		return nil, fmt.Errorf("list user activities: %w", err)
	}
	return activities, nil
}

// ListByUser returns every activity a student ever submitted together with
// its period, ordered by period start descending then activity start
// descending.
func (r *ActivityRepository) ListByUser(ctx context.Context, userID string) ([]models.Activity, []models.Period, error) {
	const query = `SELECT a.id, a.name, a.start_date, a.end_date, a.hours, a.institution, a.evidence, a.area, a.status, a.observations, a.last_admin_id, a.user_id, a.period_id, a.created_at, a.updated_at
        FROM activities a JOIN periods p ON p.id = a.period_id
        WHERE a.user_id = $1
        ORDER BY p.start_date DESC, a.start_date DESC`
	var activities []models.Activity
	if err := r.db.SelectContext(ctx, &activities, query, userID); err != nil {
		return nil, nil, fmt.Errorf("list user activity history: %w", err)
	}

	const periodQuery = `SELECT DISTINCT p.id, p.name, p.start_date, p.end_date, p.exclusive, p.status, p.create_admin_id, p.report_path, p.report_status, p.report_error, p.created_at, p.updated_at
        FROM periods p JOIN activities a ON a.period_id = p.id
        WHERE a.user_id = $1 ORDER BY p.start_date DESC`
	var periods []models.Period
	if err := r.db.SelectContext(ctx, &periods, periodQuery, userID); err != nil {
		return nil, nil, fmt.Errorf("list user activity periods: %w", err)
	}
	return activities, periods, nil
}

// AreaCounts returns per-area activity counts for one period.
func (r *ActivityRepository) AreaCounts(ctx context.Context, periodID string) ([]AreaCountRow, error) {
	const query = `SELECT area, COUNT(*) AS count FROM activities WHERE period_id = $1 GROUP BY area`
	var rows []AreaCountRow
	if err := r.db.SelectContext(ctx, &rows, query, periodID); err != nil {
		return nil, fmt.Errorf("count activities by area: %w", err)
	}
	return rows, nil
}

// ListWithUsers returns activities in a period with the given statuses, each
// joined to its student, ordered by student last name, first name, then
// activity start date descending.
func (r *ActivityRepository) ListWithUsers(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]ActivityWithUser, error) {
	query := `SELECT a.id, a.name, a.start_date, a.end_date, a.hours, a.institution, a.evidence, a.area, a.status, a.observations, a.last_admin_id, a.user_id, a.period_id, a.created_at, a.updated_at,
        u.id AS "user.id", u.nua AS "user.nua", u.name AS "user.name", u.last_name AS "user.last_name", u.second_last_name AS "user.second_last_name", u.career AS "user.career", u.sede AS "user.sede", u.email AS "user.email", u.phone AS "user.phone"
        FROM activities a JOIN users u ON u.id = a.user_id
        WHERE a.period_id = $1`
	args := []interface{}{periodID}
	if len(statuses) > 0 {
		query += fmt.Sprintf(" AND a.status IN (%s)", statusPlaceholders(2, len(statuses)))
		for _, s := range statuses {
			args = append(args, s)
		}
	}
	query += " ORDER BY u.last_name ASC, u.name ASC, a.start_date DESC"

	type rowT struct {
		models.Activity
		User userRow `db:"user"`
	}
	var rows []rowT
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("list activities with users: %w", err)
	}
	out := make([]ActivityWithUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, ActivityWithUser{Activity: row.Activity, User: row.User.user()})
	}
	return out, nil
}

// ListByCareer returns activities for students in a (career, sede) cohort,
// any status, joined to their students, ordered like ListWithUsers.
func (r *ActivityRepository) ListByCareer(ctx context.Context, periodID, career string, sede models.Sede) ([]ActivityWithUser, error) {
	const query = `SELECT a.id, a.name, a.start_date, a.end_date, a.hours, a.institution, a.evidence, a.area, a.status, a.observations, a.last_admin_id, a.user_id, a.period_id, a.created_at, a.updated_at,
        u.id AS "user.id", u.nua AS "user.nua", u.name AS "user.name", u.last_name AS "user.last_name", u.second_last_name AS "user.second_last_name", u.career AS "user.career", u.sede AS "user.sede", u.email AS "user.email", u.phone AS "user.phone"
        FROM activities a JOIN users u ON u.id = a.user_id
        WHERE a.period_id = $1 AND u.career = $2 AND u.sede = $3
        ORDER BY u.last_name ASC, u.name ASC, a.start_date DESC`
	type rowT struct {
		models.Activity
		User userRow `db:"user"`
	}
	var rows []rowT
	if err := r.db.SelectContext(ctx, &rows, query, periodID, career, sede); err != nil {
		return nil, fmt.Errorf("list career activities: %w", err)
	}
	out := make([]ActivityWithUser, 0, len(rows))
	for _, row := range rows {
		out = append(out, ActivityWithUser{Activity: row.Activity, User: row.User.user()})
	}
	return out, nil
}

// CountByPeriod returns how many activities exist for a period. Deletion
// flows log it as the cascade size.
func (r *ActivityRepository) CountByPeriod(ctx context.Context, periodID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM activities WHERE period_id = $1", periodID); err != nil {
		if err == sql.ErrNoRows {
			return 0, nil
		}
		return 0, fmt.Errorf("count activities: %w", err)
	}
	return count, nil
}
