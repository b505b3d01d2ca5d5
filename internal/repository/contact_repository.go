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

// ContactRepository manages persistence for escalation records.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs a ContactRepository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Create inserts a new contact record.
func (r *ContactRepository) Create(ctx context.Context, contact *models.Contact) error {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
	if contact.Status == "" {
		contact.Status = models.ContactStatusPending
	}
	const query = `INSERT INTO contacts (id, user_id, admin_id, period_id, activity_id, description, observations, status, created_at, updated_at)
        VALUES (:id, :user_id, :admin_id, :period_id, :activity_id, :description, :observations, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, contact); err != nil {
		return fmt.Errorf("create contact: %w", err)
	}
	return nil
}

// FindByID fetches a contact by ID.
func (r *ContactRepository) FindByID(ctx context.Context, id string) (*models.Contact, error) {
	const query = `SELECT id, user_id, admin_id, period_id, activity_id, description, observations, status, created_at, updated_at
        FROM contacts WHERE id = $1`
	var contact models.Contact
	if err := r.db.GetContext(ctx, &contact, query, id); err != nil {
		return nil, err
	}
	return &contact, nil
}

// FindByTuple looks up the single contact for a (user, period, activity)
// tuple; activityID nil matches the tuple without an activity.
func (r *ContactRepository) FindByTuple(ctx context.Context, userID, periodID string, activityID *string) (*models.Contact, error) {
	query := `SELECT id, user_id, admin_id, period_id, activity_id, description, observations, status, created_at, updated_at
        FROM contacts WHERE user_id = $1 AND period_id = $2`
	args := []interface{}{userID, periodID}
	if activityID != nil {
		query += " AND activity_id = $3"
		args = append(args, *activityID)
	} else {
		query += " AND activity_id IS NULL"
	}
	var contact models.Contact
	if err := r.db.GetContext(ctx, &contact, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("find contact: %w", err)
	}
	return &contact, nil
}

// Update modifies a contact's status and notes.
func (r *ContactRepository) Update(ctx context.Context, contact *models.Contact) error {
	contact.UpdatedAt = time.Now().UTC()
	const query = `UPDATE contacts SET description = :description, observations = :observations, status = :status, admin_id = :admin_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, contact); err != nil {
		return fmt.Errorf("update contact: %w", err)
	}
	return nil
}

// Delete removes a contact row.
func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM contacts WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete contact: %w", err)
	}
	return nil
}

// ListByPeriod returns the joined contact rows for a period, active statuses
// first, newest first within each status.
func (r *ContactRepository) ListByPeriod(ctx context.Context, periodID string) ([]models.ContactDetail, error) {
	const query = `SELECT c.id, c.user_id, c.admin_id, c.period_id, c.activity_id, c.description, c.observations, c.status, c.created_at, c.updated_at,
        p.name AS period_name,
        u.nua AS user_nua,
        TRIM(u.name || ' ' || u.last_name || ' ' || u.second_last_name) AS user_name,
        u.phone AS user_phone,
        u.email AS user_email,
        TRIM(ad.name || ' ' || ad.last_name) AS admin_name,
        a.name AS activity_name
        FROM contacts c
        JOIN periods p ON p.id = c.period_id
        JOIN users u ON u.id = c.user_id
        JOIN admins ad ON ad.id = c.admin_id
        LEFT JOIN activities a ON a.id = c.activity_id
        WHERE c.period_id = $1
        ORDER BY CASE c.status
            WHEN 'pending' THEN 0
            WHEN 'in_progress' THEN 1
            WHEN 'resolved' THEN 2
            WHEN 'cancelled' THEN 3
            ELSE 4 END,
        c.created_at DESC`
	var contacts []models.ContactDetail
	if err := r.db.SelectContext(ctx, &contacts, query, periodID); err != nil {
		return nil, fmt.Errorf("list contacts: %w", err)
	}
	return contacts, nil
}
