package service

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ssug-dev/ssug-api/internal/models"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
)

type userRepository interface {
	List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error)
	FindByID(ctx context.Context, id string) (*models.User, error)
	ExistsByNUA(ctx context.Context, nua string, excludeID string) (bool, error)
	ExistsByEmail(ctx context.Context, email string, excludeID string) (bool, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error
}

// CreateUserRequest holds payload for registering students.
type CreateUserRequest struct {
	NUA            string `json:"nua" validate:"required"`
	Name           string `json:"name" validate:"required"`
	LastName       string `json:"last_name" validate:"required"`
	SecondLastName string `json:"second_last_name"`
	Career         string `json:"career" validate:"required"`
	Sede           string `json:"sede" validate:"required"`
	Email          string `json:"email" validate:"required,email"`
	Phone          string `json:"phone"`
	Password       string `json:"password" validate:"required,min=8"`
}

// UpdateUserRequest holds payload for updating students.
type UpdateUserRequest struct {
	NUA            string  `json:"nua" validate:"required"`
	Name           string  `json:"name" validate:"required"`
	LastName       string  `json:"last_name" validate:"required"`
	SecondLastName string  `json:"second_last_name"`
	Career         string  `json:"career" validate:"required"`
	Sede           string  `json:"sede" validate:"required"`
	Email          string  `json:"email" validate:"required,email"`
	Phone          string  `json:"phone"`
	Password       string  `json:"password"`
	ProfilePicture *string `json:"profile_picture"`
}

// UserService handles student account management.
type UserService struct {
	repo      userRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewUserService constructs the user service.
func NewUserService(repo userRepository, validate *validator.Validate, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *UserService) List(ctx context.Context, filter models.UserFilter) ([]models.User, *models.Pagination, error) {
	users, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list users")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return users, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns one student by ID.
func (s *UserService) Get(ctx context.Context, id string) (*models.User, error) {
	return s.find(ctx, id)
}

// Create registers a student account.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !models.ValidCareer(req.Career) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown career code %q", req.Career))
	}
	sede := models.Sede(req.Sede)
	if !sede.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid sede %q", req.Sede))
	}
	if err := s.checkUnique(ctx, req.NUA, req.Email, ""); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
	}

	user := &models.User{
		NUA:            req.NUA,
		Name:           req.Name,
		LastName:       req.LastName,
		SecondLastName: req.SecondLastName,
		Career:         req.Career,
		Sede:           sede,
		Email:          req.Email,
		Phone:          req.Phone,
		PasswordHash:   string(hash),
	}
	if err := s.repo.Create(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create user")
	}
	return user, nil
}

// Update modifies a student account; the password only changes when a new
// one is supplied.
func (s *UserService) Update(ctx context.Context, id string, req UpdateUserRequest) (*models.User, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid user payload")
	}
	if !models.ValidCareer(req.Career) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown career code %q", req.Career))
	}
	sede := models.Sede(req.Sede)
	if !sede.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid sede %q", req.Sede))
	}
	user, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.checkUnique(ctx, req.NUA, req.Email, id); err != nil {
		return nil, err
	}

	user.NUA = req.NUA
	user.Name = req.Name
	user.LastName = req.LastName
	user.SecondLastName = req.SecondLastName
	user.Career = req.Career
	user.Sede = sede
	user.Email = req.Email
	user.Phone = req.Phone
	if req.ProfilePicture != nil {
		user.ProfilePicture = req.ProfilePicture
	}
	if req.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to hash password")
		}
		user.PasswordHash = string(hash)
	}
	if err := s.repo.Update(ctx, user); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return user, nil
}

// Delete removes a student account.
func (s *UserService) Delete(ctx context.Context, id string) error {
	if _, err := s.find(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete user")
	}
	return nil
}

func (s *UserService) checkUnique(ctx context.Context, nua, email, excludeID string) error {
	exists, err := s.repo.ExistsByNUA(ctx, nua, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate nua")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a student with nua %q already exists", nua))
	}
	exists, err = s.repo.ExistsByEmail(ctx, email, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate email")
	}
	if exists {
		return appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a student with email %q already exists", email))
	}
	return nil
}

func (s *UserService) find(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}
