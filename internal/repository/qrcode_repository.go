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

// QRCodeRepository manages persistence for check-in QR codes.
type QRCodeRepository struct {
	db *sqlx.DB
}

// NewQRCodeRepository constructs a QRCodeRepository.
func NewQRCodeRepository(db *sqlx.DB) *QRCodeRepository {
	return &QRCodeRepository{db: db}
}

// List returns QR codes matching the filter, newest first.
func (r *QRCodeRepository) List(ctx context.Context, filter models.QRCodeFilter) ([]models.QRCode, error) {
	query := "SELECT id, career, area, image_path, description, active, created_by, created_at, updated_at FROM qr_codes"
	args := []interface{}{}
	conditions := []string{}
	if filter.Career != "" {
		conditions = append(conditions, fmt.Sprintf("career = $%d", len(args)+1))
		args = append(args, filter.Career)
	}
	if filter.Area != "" {
		conditions = append(conditions, fmt.Sprintf("area = $%d", len(args)+1))
		args = append(args, filter.Area)
	}
	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	var codes []models.QRCode
	if err := r.db.SelectContext(ctx, &codes, query, args...); err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	return codes, nil
}

// FindByID fetches a QR code by ID.
func (r *QRCodeRepository) FindByID(ctx context.Context, id string) (*models.QRCode, error) {
	const query = `SELECT id, career, area, image_path, description, active, created_by, created_at, updated_at FROM qr_codes WHERE id = $1`
	var code models.QRCode
	if err := r.db.GetContext(ctx, &code, query, id); err != nil {
		return nil, err
	}
	return &code, nil
}

// ExistsByCareerArea checks the (career, area) uniqueness constraint,
// optionally excluding an ID.
func (r *QRCodeRepository) ExistsByCareerArea(ctx context.Context, career string, area models.ActivityArea, excludeID string) (bool, error) {
	query := "SELECT 1 FROM qr_codes WHERE career = $1 AND area = $2"
	args := []interface{}{career, area}
	if excludeID != "" {
		query += " AND id <> $3"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check qr code pair: %w", err)
	}
	return true, nil
}

// Create inserts a new QR code.
func (r *QRCodeRepository) Create(ctx context.Context, code *models.QRCode) error {
	if code.ID == "" {
		code.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if code.CreatedAt.IsZero() {
		code.CreatedAt = now
	}
	code.UpdatedAt = now
	const query = `INSERT INTO qr_codes (id, career, area, image_path, description, active, created_by, created_at, updated_at)
        VALUES (:id, :career, :area, :image_path, :description, :active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("create qr code: %w", err)
	}
	return nil
}

// Update modifies an existing QR code.
func (r *QRCodeRepository) Update(ctx context.Context, code *models.QRCode) error {
	code.UpdatedAt = time.Now().UTC()
	const query = `UPDATE qr_codes SET career = :career, area = :area, image_path = :image_path, description = :description, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, code); err != nil {
		return fmt.Errorf("update qr code: %w", err)
	}
	return nil
}

// Delete removes a QR code row.
func (r *QRCodeRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM qr_codes WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("delete qr code: %w", err)
	}
	return nil
}
