package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/dto"
	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/repository"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
)

type collectiveRepository interface {
	Create(ctx context.Context, collective *models.Collective, participantIDs []string) error
	FindByID(ctx context.Context, id string) (*models.Collective, error)
	UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations string) error
	Delete(ctx context.Context, id string) error
	DistinctUsersByPeriod(ctx context.Context, periodID string) ([]models.User, error)
	ListByUserAndPeriod(ctx context.Context, userID, periodID string) ([]models.Collective, error)
	Participants(ctx context.Context, collectiveID string) ([]models.Participant, error)
	AreaCounts(ctx context.Context, periodID string) ([]repository.AreaCountRow, error)
}

// CreateCollectiveRequest holds payload for group activity submissions.
type CreateCollectiveRequest struct {
	Event            string          `json:"event" validate:"required"`
	Institution      string          `json:"institution" validate:"required"`
	Place            string          `json:"place"`
	Hours            int             `json:"hours" validate:"required,gt=0"`
	Date             string          `json:"date" validate:"required"`
	Authorization    string          `json:"authorization"`
	Description      string          `json:"description"`
	SignaturesFormat string          `json:"signatures_format"`
	Evidence         models.Evidence `json:"evidence"`
	Area             string          `json:"area" validate:"required"`
	UserID           string          `json:"user_id" validate:"required"`
	PeriodID         string          `json:"period_id" validate:"required"`
	ParticipantIDs   []string        `json:"participant_ids"`
}

// CollectiveService handles group activities: submission, review and the
// per-period grouping with resolved participants.
type CollectiveService struct {
	repo      collectiveRepository
	periods   periodFinder
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCollectiveService constructs the collective service.
func NewCollectiveService(repo collectiveRepository, periods periodFinder, validate *validator.Validate, logger *zap.Logger) *CollectiveService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CollectiveService{repo: repo, periods: periods, validator: validate, logger: logger}
}

func (s *CollectiveService) formatCollective(ctx context.Context, collective models.Collective) (dto.CollectiveView, error) {
	links, err := collective.Evidence.Links()
	if err != nil {
		s.logger.Warn("malformed evidence blob", zap.String("collective_id", collective.ID), zap.Error(err))
		links = nil
	}
	if links == nil {
		links = []string{}
	}
	participants, err := s.repo.Participants(ctx, collective.ID)
	if err != nil {
		return dto.CollectiveView{}, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load participants")
	}
	return dto.CollectiveView{
		ID:               collective.ID,
		Event:            collective.Event,
		Institution:      collective.Institution,
		Place:            collective.Place,
		Hours:            collective.Hours,
		Date:             collective.Date.Format(dateLayout),
		Authorization:    collective.Authorization,
		Description:      collective.Description,
		SignaturesFormat: collective.SignaturesFormat,
		Area:             collective.Area,
		Status:           collective.Status,
		Observations:     collective.Observations,
		CreatedAt:        collective.CreatedAt.Format(time.RFC3339),
		UpdatedAt:        collective.UpdatedAt.Format(time.RFC3339),
		EvidenceLinks:    links,
		Participants:     participants,
	}, nil
}

// ByPeriod groups every submitting student with their collectives, students
// ordered by last name then name, collectives newest first.
func (s *CollectiveService) ByPeriod(ctx context.Context, periodID string) ([]dto.UserCollectives, error) {
	if _, err := s.findPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	users, err := s.repo.DistinctUsersByPeriod(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list period students")
	}
	out := make([]dto.UserCollectives, 0, len(users))
	for _, user := range users {
		collectives, err := s.repo.ListByUserAndPeriod(ctx, user.ID, periodID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student collectives")
		}
		views := make([]dto.CollectiveView, 0, len(collectives))
		for _, collective := range collectives {
			view, err := s.formatCollective(ctx, collective)
			if err != nil {
				return nil, err
			}
			views = append(views, view)
		}
		out = append(out, dto.UserCollectives{
			ID:          user.ID,
			NUA:         user.NUA,
			FullName:    user.FullName(),
			Career:      user.Career,
			Email:       user.Email,
			Collectives: views,
		})
	}
	return out, nil
}

// AreaCounts aggregates collective counts per area for one period.
func (s *CollectiveService) AreaCounts(ctx context.Context, periodID string) (*dto.AreaCountsView, error) {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.AreaCounts(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count collectives by area")
	}
	var counts models.AreaCounts
	for _, row := range rows {
		counts.Add(row.Area, row.Count)
	}
	return &dto.AreaCountsView{PeriodID: period.ID, PeriodName: period.Name, AreaCounts: counts}, nil
}

// Create registers a group activity.
func (s *CollectiveService) Create(ctx context.Context, req CreateCollectiveRequest) (*models.Collective, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid collective payload")
	}
	area := models.ActivityArea(req.Area)
	if !area.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid area %q", req.Area))
	}
	date, err := time.Parse(dateLayout, req.Date)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", req.Date))
	}
	period, perr := s.findPeriod(ctx, req.PeriodID)
	if perr != nil {
		return nil, perr
	}
	if period.Status == models.PeriodStatusEnded {
		return nil, appErrors.Clone(appErrors.ErrConflict, "period has ended, submissions are closed")
	}

	collective := &models.Collective{
		Event:            req.Event,
		Institution:      req.Institution,
		Place:            req.Place,
		Hours:            req.Hours,
		Date:             date,
		Authorization:    req.Authorization,
		Description:      req.Description,
		SignaturesFormat: req.SignaturesFormat,
		Evidence:         req.Evidence,
		Area:             area,
		Status:           models.ActivityStatusPending,
		UserID:           req.UserID,
		PeriodID:         req.PeriodID,
	}
	if err := s.repo.Create(ctx, collective, req.ParticipantIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create collective")
	}
	return collective, nil
}

// UpdateStatus records a review decision for a collective.
func (s *CollectiveService) UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations string) (*models.Collective, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid status %q", status))
	}
	collective, err := s.findCollective(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status, observations); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update collective status")
	}
	collective.Status = status
	collective.Observations = observations
	return collective, nil
}

// Delete removes a collective and its participant links.
func (s *CollectiveService) Delete(ctx context.Context, id string) error {
	if _, err := s.findCollective(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete collective")
	}
	return nil
}

func (s *CollectiveService) findCollective(ctx context.Context, id string) (*models.Collective, error) {
	collective, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "collective not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load collective")
	}
	return collective, nil
}

func (s *CollectiveService) findPeriod(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}
