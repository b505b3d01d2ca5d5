package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/models"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
)

type contactRepository interface {
	Create(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, id string) (*models.Contact, error)
	FindByTuple(ctx context.Context, userID, periodID string, activityID *string) (*models.Contact, error)
	Update(ctx context.Context, contact *models.Contact) error
	Delete(ctx context.Context, id string) error
	ListByPeriod(ctx context.Context, periodID string) ([]models.ContactDetail, error)
}

// CreateContactRequest holds payload for opening an escalation.
type CreateContactRequest struct {
	UserID      string  `json:"user_id" validate:"required"`
	AdminID     string  `json:"admin_id" validate:"required"`
	PeriodID    string  `json:"period_id" validate:"required"`
	ActivityID  *string `json:"activity_id"`
	Description string  `json:"description" validate:"required"`
}

// UpdateContactRequest holds payload for progressing an escalation.
type UpdateContactRequest struct {
	Status       string `json:"status" validate:"required"`
	Observations string `json:"observations"`
	AdminID      string `json:"admin_id" validate:"required"`
}

// ContactService handles escalation records. At most one contact may exist
// per (student, period, activity) tuple.
type ContactService struct {
	repo      contactRepository
	periods   periodFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewContactService constructs the contact service.
func NewContactService(repo contactRepository, periods periodFinder, validate *validator.Validate, logger *zap.Logger) *ContactService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ContactService{repo: repo, periods: periods, validator: validate, logger: logger}
}

// Create opens an escalation unless one already exists for the tuple. The
// conflict message carries the existing contact's status label.
func (s *ContactService) Create(ctx context.Context, req CreateContactRequest) (*models.Contact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}
	if _, err := s.periods.FindByID(ctx, req.PeriodID); err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	existing, err := s.repo.FindByTuple(ctx, req.UserID, req.PeriodID, req.ActivityID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing contact")
	}
	if existing != nil {
		msg := fmt.Sprintf("a contact for this student already exists with status %s", existing.Status.DisplayText())
		return nil, appErrors.Clone(appErrors.ErrConflict, msg)
	}

	contact := &models.Contact{
		UserID:      req.UserID,
		AdminID:     req.AdminID,
		PeriodID:    req.PeriodID,
		ActivityID:  req.ActivityID,
		Description: req.Description,
		Status:      models.ContactStatusPending,
	}
	if err := s.repo.Create(ctx, contact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create contact")
	}
	return contact, nil
}

// ListByPeriod returns the period's escalations, active statuses first.
func (s *ContactService) ListByPeriod(ctx context.Context, periodID string) ([]models.ContactDetail, error) {
	contacts, err := s.repo.ListByPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list contacts")
	}
	return contacts, nil
}

// Update progresses an escalation's status and notes.
func (s *ContactService) Update(ctx context.Context, id string, req UpdateContactRequest) (*models.Contact, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid contact payload")
	}
	status := models.ContactStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid contact status %q", req.Status))
	}
	contact, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	contact.Status = status
	contact.Observations = req.Observations
	contact.AdminID = req.AdminID
	if err := s.repo.Update(ctx, contact); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update contact")
	}
	return contact, nil
}

// Delete removes an escalation record.
func (s *ContactService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete contact")
	}
	return nil
}

func (s *ContactService) find(ctx context.Context, id string) (*models.Contact, error) {
	contact, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "contact not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load contact")
	}
	return contact, nil
}
