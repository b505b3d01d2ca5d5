package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ssug-dev/ssug-api/internal/models"
)

// CollectiveRepository manages persistence for group activities and their
// participant links.
type CollectiveRepository struct {
	db *sqlx.DB
}

// NewCollectiveRepository constructs a CollectiveRepository.
func NewCollectiveRepository(db *sqlx.DB) *CollectiveRepository {
	return &CollectiveRepository{db: db}
}

// Create inserts a collective and its participant links in one transaction.
func (r *CollectiveRepository) Create(ctx context.Context, collective *models.Collective, participantIDs []string) error {
	if collective.ID == "" {
		collective.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if collective.CreatedAt.IsZero() {
		collective.CreatedAt = now
	}
	collective.UpdatedAt = now
	if collective.Status == "" {
		collective.Status = models.ActivityStatusPending
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create collective: %w", err)
	}
	defer tx.Rollback()

	const query = `INSERT INTO collectives (id, event, institution, place, hours, date, authorization, description, signatures_format, evidence, area, status, observations, user_id, period_id, created_at, updated_at)
        VALUES (:id, :event, :institution, :place, :hours, :date, :authorization, :description, :signatures_format, :evidence, :area, :status, :observations, :user_id, :period_id, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, query, collective); err != nil {
		return fmt.Errorf("create collective: %w", err)
	}
	for _, userID := range participantIDs {
		if _, err := tx.ExecContext(ctx, "INSERT INTO collective_participants (collective_id, user_id) VALUES ($1, $2)", collective.ID, userID); err != nil {
			return fmt.Errorf("add collective participant: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit create collective: %w", err)
	}
	return nil
}

// FindByID fetches a collective by ID.
func (r *CollectiveRepository) FindByID(ctx context.Context, id string) (*models.Collective, error) {
	const query = `SELECT id, event, institution, place, hours, date, authorization, description, signatures_format, evidence, area, status, observations, user_id, period_id, created_at, updated_at
        FROM collectives WHERE id = $1`
	var collective models.Collective
	if err := r.db.GetContext(ctx, &collective, query, id); err != nil {
		return nil, err
	}
	return &collective, nil
}

// UpdateStatus records a review decision for a collective.
func (r *CollectiveRepository) UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations string) error {
	const query = `UPDATE collectives SET status = $2, observations = $3, updated_at = $4 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, observations, time.Now().UTC()); err != nil {
		return fmt.Errorf("update collective status: %w", err)
	}
	return nil
}

// Delete removes a collective and its participant links.
func (r *CollectiveRepository) Delete(ctx context.Context, id string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete collective: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM collective_participants WHERE collective_id = $1", id); err != nil {
		return fmt.Errorf("delete collective participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collectives WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete collective: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete collective: %w", err)
	}
	return nil
}

// ListByPeriod returns every collective in a period.
func (r *CollectiveRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.Collective, error) {
	const query = `SELECT id, event, institution, place, hours, date, authorization, description, signatures_format, evidence, area, status, observations, user_id, period_id, created_at, updated_at
        FROM collectives WHERE period_id = $1 ORDER BY created_at ASC`
	var collectives []models.Collective
	if err := r.db.SelectContext(ctx, &collectives, query, periodID); err != nil {
		return nil, fmt.Errorf("list collectives by period: %w", err)
	}
	return collectives, nil
}

// DeleteByPeriod removes every collective attached to a period, links first.
func (r *CollectiveRepository) DeleteByPeriod(ctx context.Context, periodID string) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete period collectives: %w", err)
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, "DELETE FROM collective_participants WHERE collective_id IN (SELECT id FROM collectives WHERE period_id = $1)", periodID); err != nil {
		return fmt.Errorf("delete period collective participants: %w", err)
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM collectives WHERE period_id = $1", periodID); err != nil {
		return fmt.Errorf("delete period collectives: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete period collectives: %w", err)
	}
	return nil
}

// DistinctUsersByPeriod returns the students who submitted at least one
// collective in the period, ordered by last name then first name.
func (r *CollectiveRepository) DistinctUsersByPeriod(ctx context.Context, periodID string) ([]models.User, error) {
	const query = `SELECT DISTINCT u.id, u.nua, u.name, u.last_name, u.second_last_name, u.career, u.sede, u.email, u.phone
        FROM users u JOIN collectives c ON c.user_id = u.id
        WHERE c.period_id = $1 ORDER BY u.last_name ASC, u.name ASC`
	var rows []userRow
	if err := r.db.SelectContext(ctx, &rows, query, periodID); err != nil {
		return nil, fmt.Errorf("list collective users: %w", err)
	}
	users := make([]models.User, 0, len(rows))
	for _, row := range rows {
		users = append(users, row.user())
	}
	return users, nil
}

// ListByUserAndPeriod returns a student's collectives in a period, newest
// event date first.
func (r *CollectiveRepository) ListByUserAndPeriod(ctx context.Context, userID, periodID string) ([]models.Collective, error) {
	const query = `SELECT id, event, institution, place, hours, date, authorization, description, signatures_format, evidence, area, status, observations, user_id, period_id, created_at, updated_at
        FROM collectives WHERE user_id = $1 AND period_id = $2 ORDER BY date DESC`
	var collectives []models.Collective
	if err := r.db.SelectContext(ctx, &collectives, query, userID, periodID); err != nil {
		return nil, fmt.Errorf("list user collectives: %w", err)
	}
	return collectives, nil
}

// Participants returns the students linked to a collective, ordered by last
// name then first name.
func (r *CollectiveRepository) Participants(ctx context.Context, collectiveID string) ([]models.Participant, error) {
	const query = `SELECT u.id, u.nua, u.name, u.last_name, u.second_last_name, u.career
        FROM users u JOIN collective_participants cp ON cp.user_id = u.id
        WHERE cp.collective_id = $1 ORDER BY u.last_name ASC, u.name ASC`
	type rowT struct {
		ID             string `db:"id"`
		NUA            string `db:"nua"`
		Name           string `db:"name"`
		LastName       string `db:"last_name"`
		SecondLastName string `db:"second_last_name"`
		Career         string `db:"career"`
	}
	var rows []rowT
	if err := r.db.SelectContext(ctx, &rows, query, collectiveID); err != nil {
		return nil, fmt.Errorf("list collective participants: %w", err)
	}
	participants := make([]models.Participant, 0, len(rows))
	for _, row := range rows {
		full := row.Name + " " + row.LastName
		if row.SecondLastName != "" {
			full += " " + row.SecondLastName
		}
		participants = append(participants, models.Participant{ID: row.ID, NUA: row.NUA, FullName: full, Career: row.Career})
	}
	return participants, nil
}

// AreaCounts returns per-area collective counts for one period.
func (r *CollectiveRepository) AreaCounts(ctx context.Context, periodID string) ([]AreaCountRow, error) {
	const query = `SELECT area, COUNT(*) AS count FROM collectives WHERE period_id = $1 GROUP BY area`
	var rows []AreaCountRow
	if err := r.db.SelectContext(ctx, &rows, query, periodID); err != nil {
		return nil, fmt.Errorf("count collectives by area: %w", err)
	}
	return rows, nil
}
