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

type qrCodeRepository interface {
	List(ctx context.Context, filter models.QRCodeFilter) ([]models.QRCode, error)
	FindByID(ctx context.Context, id string) (*models.QRCode, error)
	ExistsByCareerArea(ctx context.Context, career string, area models.ActivityArea, excludeID string) (bool, error)
	Create(ctx context.Context, code *models.QRCode) error
	Update(ctx context.Context, code *models.QRCode) error
	Delete(ctx context.Context, id string) error
}

// SaveQRCodeRequest holds payload for registering or replacing a QR code.
type SaveQRCodeRequest struct {
	Career      string `json:"career" validate:"required"`
	Area        string `json:"area" validate:"required"`
	ImagePath   string `json:"image_path" validate:"required"`
	Description string `json:"description"`
	Active      bool   `json:"active"`
	CreatedBy   string `json:"created_by" validate:"required"`
}

// QRCodeService manages the per-(career, area) check-in code registry.
type QRCodeService struct {
	repo      qrCodeRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQRCodeService constructs the QR code service.
func NewQRCodeService(repo qrCodeRepository, validate *validator.Validate, logger *zap.Logger) *QRCodeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRCodeService{repo: repo, validator: validate, logger: logger}
}

// List returns QR codes matching the filter.
func (s *QRCodeService) List(ctx context.Context, filter models.QRCodeFilter) ([]models.QRCode, error) {
	codes, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qr codes")
	}
	return codes, nil
}

// Create registers a QR code for a (career, area) pair.
func (s *QRCodeService) Create(ctx context.Context, req SaveQRCodeRequest) (*models.QRCode, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	area := models.ActivityArea(req.Area)
	exists, err := s.repo.ExistsByCareerArea(ctx, req.Career, area, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate qr code pair")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a qr code for %s/%s already exists", req.Career, req.Area))
	}

	code := &models.QRCode{
		Career:      req.Career,
		Area:        area,
		ImagePath:   req.ImagePath,
		Description: req.Description,
		Active:      req.Active,
		CreatedBy:   req.CreatedBy,
	}
	if err := s.repo.Create(ctx, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create qr code")
	}
	return code, nil
}

// Update replaces a QR code's fields, keeping the pair unique.
func (s *QRCodeService) Update(ctx context.Context, id string, req SaveQRCodeRequest) (*models.QRCode, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}
	area := models.ActivityArea(req.Area)
	code, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ExistsByCareerArea(ctx, req.Career, area, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate qr code pair")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a qr code for %s/%s already exists", req.Career, req.Area))
	}

	code.Career = req.Career
	code.Area = area
	code.ImagePath = req.ImagePath
	code.Description = req.Description
	code.Active = req.Active
	if err := s.repo.Update(ctx, code); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update qr code")
	}
	return code, nil
}

// Delete removes a QR code.
func (s *QRCodeService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete qr code")
	}
	return nil
}

func (s *QRCodeService) validate(req SaveQRCodeRequest) error {
	if err := s.validator.Struct(req); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid qr code payload")
	}
	if !models.ValidCareer(req.Career) {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown career code %q", req.Career))
	}
	if !models.ActivityArea(req.Area).Valid() {
		return appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid area %q", req.Area))
	}
	return nil
}

func (s *QRCodeService) find(ctx context.Context, id string) (*models.QRCode, error) {
	code, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "qr code not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qr code")
	}
	return code, nil
}
