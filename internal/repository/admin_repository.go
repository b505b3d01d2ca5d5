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

// AdminRepository manages persistence for staff accounts.
type AdminRepository struct {
	db *sqlx.DB
}

// NewAdminRepository constructs an AdminRepository.
func NewAdminRepository(db *sqlx.DB) *AdminRepository {
	return &AdminRepository{db: db}
}

// List returns every staff account ordered by last name then first name.
func (r *AdminRepository) List(ctx context.Context) ([]models.Admin, error) {
	const query = `SELECT id, email, password_hash, name, last_name, second_last_name, phone, role, created_at, updated_at
        FROM admins ORDER BY last_name ASC, name ASC`
	var admins []models.Admin
	if err := r.db.SelectContext(ctx, &admins, query); err != nil {
		return nil, fmt.Errorf("list admins: %w", err)
	}
	return admins, nil
}

// FindByID fetches a staff account by ID.
func (r *AdminRepository) FindByID(ctx context.Context, id string) (*models.Admin, error) {
	const query = `SELECT id, email, password_hash, name, last_name, second_last_name, phone, role, created_at, updated_at
        FROM admins WHERE id = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, id); err != nil {
		return nil, err
	}
	return &admin, nil
}

// FindByEmail fetches a staff account by email for login.
func (r *AdminRepository) FindByEmail(ctx context.Context, email string) (*models.Admin, error) {
	const query = `SELECT id, email, password_hash, name, last_name, second_last_name, phone, role, created_at, updated_at
        FROM admins WHERE email = $1`
	var admin models.Admin
	if err := r.db.GetContext(ctx, &admin, query, email); err != nil {
		return nil, err
	}
	return &admin, nil
}

// ExistsByEmail checks whether an email is taken, optionally excluding an ID.
func (r *AdminRepository) ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error) {
	query := "SELECT 1 FROM admins WHERE email = $1"
	args := []interface{}{email}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check admin email: %w", err)
	}
	return true, nil
}

// Create inserts a new staff account.
func (r *AdminRepository) Create(ctx context.Context, admin *models.Admin) error {
	if admin.ID == "" {
		admin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if admin.CreatedAt.IsZero() {
		admin.CreatedAt = now
	}
	admin.UpdatedAt = now
	const query = `INSERT INTO admins (id, email, password_hash, name, last_name, second_last_name, phone, role, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :name, :last_name, :second_last_name, :phone, :role, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("create admin: %w", err)
	}
	return nil
}

// Update modifies an existing staff account.
func (r *AdminRepository) Update(ctx context.Context, admin *models.Admin) error {
	admin.UpdatedAt = time.Now().UTC()
	const query = `UPDATE admins SET email = :email, password_hash = :password_hash, name = :name, last_name = :last_name, second_last_name = :second_last_name, phone = :phone, role = :role, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, admin); err != nil {
		return fmt.Errorf("update admin: %w", err)
	}
	return nil
}

// Delete removes a staff account.
func (r *AdminRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM admins WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete admin: %w", err)
	}
	return nil
}
