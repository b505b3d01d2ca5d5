package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/dto"
	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/pkg/cache"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/jobs"
)

const dateLayout = "2006-01-02"

const cacheKeyPeriods = "periods:list"

type periodRepository interface {
	Create(ctx context.Context, period *models.Period) error
	FindByID(ctx context.Context, id string) (*models.Period, error)
	ExistsByName(ctx context.Context, name string, excludeID string) (bool, error)
	FindOverlapping(ctx context.Context, start, end time.Time, exclusive bool, excludeID string) (*models.Period, error)
	UpdateDates(ctx context.Context, id string, start, end time.Time) error
	UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) error
	UpdateReport(ctx context.Context, id string, path *string, status models.ReportStatus, reportErr *string) error
	Delete(ctx context.Context, id string) error
	ListWithStats(ctx context.Context) ([]models.PeriodWithStats, error)
}

type periodActivityRepository interface {
	ListByPeriod(ctx context.Context, periodID string) ([]models.Activity, error)
	DeleteByPeriod(ctx context.Context, periodID string) error
	CountByPeriod(ctx context.Context, periodID string) (int, error)
}

type periodCollectiveRepository interface {
	ListByPeriod(ctx context.Context, periodID string) ([]models.Collective, error)
	DeleteByPeriod(ctx context.Context, periodID string) error
}

type evidenceStorage interface {
	Delete(relPath string) error
}

// reportScheduler queues background report generation for a period.
type reportScheduler interface {
	SchedulePeriodReport(periodID string) error
}

// CreatePeriodRequest holds payload for creating periods.
type CreatePeriodRequest struct {
	Name          string `json:"name" validate:"required"`
	DateStart     string `json:"date_start" validate:"required"`
	DateEnd       string `json:"date_end" validate:"required"`
	Exclusive     bool   `json:"exclusive"`
	Status        string `json:"status"`
	CreateAdminID string `json:"create_admin_id" validate:"required"`
}

// UpdatePeriodDatesRequest holds payload for moving a period's range.
type UpdatePeriodDatesRequest struct {
	DateStart string `json:"date_start" validate:"required"`
	DateEnd   string `json:"date_end" validate:"required"`
}

// PeriodService owns the period lifecycle: creation with overlap checks,
// status transitions, deletion cascades and download gating.
type PeriodService struct {
	repo        periodRepository
	activities  periodActivityRepository
	collectives periodCollectiveRepository
	storage     evidenceStorage
	scheduler   reportScheduler
	cache       *cache.Store
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewPeriodService constructs the period service.
func NewPeriodService(repo periodRepository, activities periodActivityRepository, collectives periodCollectiveRepository, storage evidenceStorage, scheduler reportScheduler, store *cache.Store, validate *validator.Validate, logger *zap.Logger) *PeriodService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PeriodService{
		repo:        repo,
		activities:  activities,
		collectives: collectives,
		storage:     storage,
		scheduler:   scheduler,
		cache:       store,
		validator:   validate,
		logger:      logger,
	}
}

// parseRange validates and parses a date pair.
func parseRange(startRaw, endRaw string) (time.Time, time.Time, *appErrors.Error) {
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", startRaw))
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", endRaw))
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date must be before end date")
	}
	return start, end, nil
}

// checkOverlap rejects the range when another period with the same exclusive
// flag intersects it, naming the conflicting period.
func (s *PeriodService) checkOverlap(ctx context.Context, start, end time.Time, exclusive bool, excludeID string) error {
	conflict, err := s.repo.FindOverlapping(ctx, start, end, exclusive, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check period overlap")
	}
	if conflict != nil {
		msg := fmt.Sprintf("period overlaps with %q (%s to %s)",
			conflict.Name, conflict.StartDate.Format(dateLayout), conflict.EndDate.Format(dateLayout))
		return appErrors.Clone(appErrors.ErrConflict, msg)
	}
	return nil
}

// Create registers a new period after date, name and overlap validation.
func (s *PeriodService) Create(ctx context.Context, req CreatePeriodRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	start, end, verr := parseRange(req.DateStart, req.DateEnd)
	if verr != nil {
		return nil, verr
	}
	status := models.PeriodStatus(req.Status)
	if req.Status == "" {
		status = models.PeriodStatusPending
	}
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid period status %q", req.Status))
	}

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate period name")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("a period named %q already exists", req.Name))
	}
	if err := s.checkOverlap(ctx, start, end, req.Exclusive, ""); err != nil {
		return nil, err
	}

	period := &models.Period{
		Name:          req.Name,
		StartDate:     start,
		EndDate:       end,
		Exclusive:     req.Exclusive,
		Status:        status,
		CreateAdminID: req.CreateAdminID,
		ReportStatus:  models.ReportStatusNone,
	}
	if err := s.repo.Create(ctx, period); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create period")
	}
	s.invalidate(ctx)
	return period, nil
}

// UpdateDates moves a period's range with the same validation as Create,
// excluding the period's own row from the overlap check.
func (s *PeriodService) UpdateDates(ctx context.Context, id string, req UpdatePeriodDatesRequest) (*models.Period, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid period payload")
	}
	period, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	start, end, verr := parseRange(req.DateStart, req.DateEnd)
	if verr != nil {
		return nil, verr
	}
	if err := s.checkOverlap(ctx, start, end, period.Exclusive, id); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateDates(ctx, id, start, end); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period dates")
	}
	period.StartDate = start
	period.EndDate = end
	s.invalidate(ctx)
	return period, nil
}

// UpdateStatus transitions a period. No-op transitions are rejected and a
// transition to ended schedules report generation in the background.
func (s *PeriodService) UpdateStatus(ctx context.Context, id string, status models.PeriodStatus) (*models.Period, error) {
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid period status %q", status))
	}
	period, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status == status {
		return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("period is already %s", status))
	}
	if err := s.repo.UpdateStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update period status")
	}
	period.Status = status

	if status == models.PeriodStatusEnded && s.scheduler != nil {
		if err := s.repo.UpdateReport(ctx, id, nil, models.ReportStatusGenerating, nil); err != nil {
			s.logger.Warn("failed to mark report generating", zap.String("period_id", id), zap.Error(err))
		} else {
			period.ReportStatus = models.ReportStatusGenerating
		}
		if err := s.scheduler.SchedulePeriodReport(id); err != nil {
			if errors.Is(err, jobs.ErrInFlight) {
				s.logger.Info("report generation already in flight", zap.String("period_id", id))
			} else {
				s.logger.Error("failed to schedule period report", zap.String("period_id", id), zap.Error(err))
			}
		}
	}
	s.invalidate(ctx)
	return period, nil
}

// Delete removes a period along with its activities and collectives,
// cleaning up evidence files best effort.
func (s *PeriodService) Delete(ctx context.Context, id string) error {
	period, err := s.find(ctx, id)
	if err != nil {
		return err
	}

	activities, err := s.activities.ListByPeriod(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period activities")
	}
	for _, activity := range activities {
		s.removeEvidence(activity.Evidence, "activity", activity.ID)
	}
	collectives, err := s.collectives.ListByPeriod(ctx, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period collectives")
	}
	for _, collective := range collectives {
		s.removeEvidence(collective.Evidence, "collective", collective.ID)
	}
	if period.ReportPath != nil && *period.ReportPath != "" && s.storage != nil {
		if err := s.storage.Delete(*period.ReportPath); err != nil {
			s.logger.Warn("failed to delete period report file", zap.String("period_id", id), zap.Error(err))
		}
	}

	if count, cerr := s.activities.CountByPeriod(ctx, id); cerr == nil {
		s.logger.Info("deleting period cascade", zap.String("period_id", id), zap.Int("activities", count), zap.Int("collectives", len(collectives)))
	}
	if err := s.activities.DeleteByPeriod(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period activities")
	}
	if err := s.collectives.DeleteByPeriod(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period collectives")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete period")
	}
	s.invalidate(ctx)
	return nil
}

// removeEvidence deletes every file referenced by an evidence blob. Failures
// are logged and never propagated.
func (s *PeriodService) removeEvidence(evidence models.Evidence, kind, id string) {
	if s.storage == nil {
		return
	}
	links, err := evidence.Links()
	if err != nil {
		s.logger.Warn("malformed evidence during cleanup", zap.String(kind+"_id", id), zap.Error(err))
		return
	}
	for _, link := range links {
		if err := s.storage.Delete(link); err != nil {
			s.logger.Warn("failed to delete evidence file", zap.String(kind+"_id", id), zap.String("path", link), zap.Error(err))
		}
	}
}

// List returns every period with aggregate activity and collective counts.
func (s *PeriodService) List(ctx context.Context) ([]models.PeriodWithStats, error) {
	var cached []models.PeriodWithStats
	if err := s.cache.Get(ctx, cacheKeyPeriods, &cached); err == nil {
		return cached, nil
	}
	periods, err := s.repo.ListWithStats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list periods")
	}
	if err := s.cache.Set(ctx, cacheKeyPeriods, periods); err != nil {
		s.logger.Warn("failed to cache period list", zap.Error(err))
	}
	return periods, nil
}

// Get returns one period by ID.
func (s *PeriodService) Get(ctx context.Context, id string) (*models.Period, error) {
	return s.find(ctx, id)
}

// GetForDownload returns the period with all of its raw activities and
// collectives. Only ended periods may be exported.
func (s *PeriodService) GetForDownload(ctx context.Context, id string) (*dto.PeriodDownload, error) {
	period, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if period.Status != models.PeriodStatusEnded {
		return nil, appErrors.Clone(appErrors.ErrConflict, "period has not ended, download is unavailable")
	}
	activities, err := s.activities.ListByPeriod(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period activities")
	}
	collectives, err := s.collectives.ListByPeriod(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period collectives")
	}
	return &dto.PeriodDownload{Period: *period, Activities: activities, Collectives: collectives}, nil
}

func (s *PeriodService) find(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

func (s *PeriodService) invalidate(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, cacheKeyPeriods); err != nil {
		s.logger.Warn("failed to invalidate period cache", zap.Error(err))
	}
}
