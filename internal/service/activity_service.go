package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/dto"
	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/repository"
	"github.com/ssug-dev/ssug-api/pkg/cache"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
)

type activityRepository interface {
	Create(ctx context.Context, activity *models.Activity) error
	FindByID(ctx context.Context, id string) (*models.Activity, error)
	Update(ctx context.Context, activity *models.Activity) error
	UpdateStatus(ctx context.Context, id string, status models.ActivityStatus, observations string, adminID string) error
	Delete(ctx context.Context, id string) error
	DistinctUsersByPeriod(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]models.User, error)
	ListByUserAndPeriod(ctx context.Context, userID, periodID string, statuses []models.ActivityStatus) ([]models.Activity, error)
	ListByUser(ctx context.Context, userID string) ([]models.Activity, []models.Period, error)
	AreaCounts(ctx context.Context, periodID string) ([]repository.AreaCountRow, error)
	ListWithUsers(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]repository.ActivityWithUser, error)
}

type periodFinder interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
}

// evidenceFileStorage stores and removes uploaded evidence images.
type evidenceFileStorage interface {
	SaveStream(relPath string, r io.Reader) (string, error)
	Delete(relPath string) error
}

// CreateActivityRequest holds payload for student activity submissions.
type CreateActivityRequest struct {
	Name        string          `json:"name" validate:"required"`
	StartDate   string          `json:"start_date" validate:"required"`
	EndDate     string          `json:"end_date" validate:"required"`
	Hours       int             `json:"hours" validate:"required,gt=0"`
	Institution string          `json:"institution" validate:"required"`
	Evidence    models.Evidence `json:"evidence"`
	Area        string          `json:"area" validate:"required"`
	UserID      string          `json:"user_id" validate:"required"`
	PeriodID    string          `json:"period_id" validate:"required"`
}

// UpdateActivityRequest holds a partial edit of an activity. Absent fields
// keep their stored value.
type UpdateActivityRequest struct {
	Name         *string          `json:"name"`
	StartDate    *string          `json:"start_date"`
	EndDate      *string          `json:"end_date"`
	Hours        *int             `json:"hours" validate:"omitempty,gt=0"`
	Institution  *string          `json:"institution"`
	Evidence     *models.Evidence `json:"evidence"`
	Area         *string          `json:"area"`
	Status       *string          `json:"status"`
	Observations *string          `json:"observations"`
	AdminID      string           `json:"admin_id" validate:"required"`
}

// UpdateActivityStatusRequest holds a review decision.
type UpdateActivityStatusRequest struct {
	Status       string `json:"status" validate:"required"`
	Observations string `json:"observations"`
	AdminID      string `json:"admin_id" validate:"required"`
}

// EvidenceFile is one uploaded evidence image.
type EvidenceFile struct {
	Name   string
	Reader io.Reader
}

// ActivityService handles activity submissions and the per-period and
// per-student aggregations served to review screens.
type ActivityService struct {
	repo      activityRepository
	periods   periodFinder
	storage   evidenceFileStorage
	cache     *cache.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewActivityService constructs the activity service.
func NewActivityService(repo activityRepository, periods periodFinder, storage evidenceFileStorage, store *cache.Store, validate *validator.Validate, logger *zap.Logger) *ActivityService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ActivityService{repo: repo, periods: periods, storage: storage, cache: store, validator: validate, logger: logger}
}

// formatActivity renders one activity for review screens. Malformed
// evidence yields an empty link list instead of failing the request.
func (s *ActivityService) formatActivity(activity models.Activity) dto.ActivityView {
	links, err := activity.Evidence.Links()
	if err != nil {
		s.logger.Warn("malformed evidence blob", zap.String("activity_id", activity.ID), zap.Error(err))
		links = nil
	}
	if links == nil {
		links = []string{}
	}
	return dto.ActivityView{
		ID:            activity.ID,
		Name:          activity.Name,
		Area:          activity.Area,
		StartDate:     activity.StartDate.Format(dateLayout),
		EndDate:       activity.EndDate.Format(dateLayout),
		Hours:         activity.Hours,
		Institution:   activity.Institution,
		Status:        activity.Status,
		Observations:  activity.Observations,
		LastAdminID:   activity.LastAdminID,
		CreatedAt:     activity.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     activity.UpdatedAt.Format(time.RFC3339),
		EvidenceLinks: links,
	}
}

// ByPeriod groups every submitting student in the period with their
// activities, students ordered by last name then name, activities by start
// date descending.
func (s *ActivityService) ByPeriod(ctx context.Context, periodID string) ([]dto.UserActivities, error) {
	if _, err := s.findPeriod(ctx, periodID); err != nil {
		return nil, err
	}
	users, err := s.repo.DistinctUsersByPeriod(ctx, periodID, nil)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list period students")
	}
	out := make([]dto.UserActivities, 0, len(users))
	for _, user := range users {
		activities, err := s.repo.ListByUserAndPeriod(ctx, user.ID, periodID, nil)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student activities")
		}
		views := make([]dto.ActivityView, 0, len(activities))
		for _, activity := range activities {
			views = append(views, s.formatActivity(activity))
		}
		out = append(out, dto.UserActivities{
			ID:         user.ID,
			NUA:        user.NUA,
			FullName:   user.FullName(),
			Career:     user.Career,
			Email:      user.Email,
			Phone:      user.Phone,
			Activities: views,
		})
	}
	return out, nil
}

// ByUser returns a student's full submission history grouped by period,
// periods newest first, activities by start date descending within each.
func (s *ActivityService) ByUser(ctx context.Context, userID string) (*dto.UserPeriods, error) {
	activities, periods, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student history")
	}
	byPeriod := make(map[string][]dto.ActivityView, len(periods))
	for _, activity := range activities {
		byPeriod[activity.PeriodID] = append(byPeriod[activity.PeriodID], s.formatActivity(activity))
	}
	grouped := make([]dto.PeriodActivities, 0, len(periods))
	for _, period := range periods {
		grouped = append(grouped, dto.PeriodActivities{
			ID:         period.ID,
			Name:       period.Name,
			StartDate:  period.StartDate.Format(dateLayout),
			EndDate:    period.EndDate.Format(dateLayout),
			Status:     period.Status,
			Activities: byPeriod[period.ID],
		})
	}
	return &dto.UserPeriods{Periods: grouped}, nil
}

// AreaCounts aggregates activity counts per area for one period.
func (s *ActivityService) AreaCounts(ctx context.Context, periodID string) (*dto.AreaCountsView, error) {
	cacheKey := "areas:" + periodID
	var cached dto.AreaCountsView
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	}
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.AreaCounts(ctx, periodID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count activities by area")
	}
	var counts models.AreaCounts
	for _, row := range rows {
		counts.Add(row.Area, row.Count)
	}
	view := &dto.AreaCountsView{PeriodID: period.ID, PeriodName: period.Name, AreaCounts: counts}
	if err := s.cache.Set(ctx, cacheKey, view); err != nil {
		s.logger.Warn("failed to cache area counts", zap.Error(err))
	}
	return view, nil
}

// FinalReport aggregates approved hours per student for an ended-of-term
// review: one entry per approved activity, career display names resolved.
func (s *ActivityService) FinalReport(ctx context.Context, periodID string) (*dto.FinalReport, error) {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	rows, err := s.repo.ListWithUsers(ctx, periodID, []models.ActivityStatus{models.ActivityStatusApproval})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved activities")
	}

	index := make(map[string]int)
	students := make([]dto.FinalReportStudent, 0)
	for _, row := range rows {
		i, ok := index[row.User.ID]
		if !ok {
			i = len(students)
			index[row.User.ID] = i
			students = append(students, dto.FinalReportStudent{
				ID:             row.User.ID,
				NUA:            row.User.NUA,
				FullName:       row.User.FullName(),
				Career:         row.User.Career,
				CareerFullName: models.CareerFullName(row.User.Career),
				Sede:           row.User.Sede,
			})
		}
		students[i].Entries = append(students[i].Entries, dto.FinalReportEntry{Area: row.Activity.Area, Hours: row.Activity.Hours})
		students[i].TotalHours += row.Activity.Hours
	}
	return &dto.FinalReport{PeriodID: period.ID, PeriodName: period.Name, Students: students}, nil
}

// Create registers a student activity submission.
func (s *ActivityService) Create(ctx context.Context, req CreateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	area := models.ActivityArea(req.Area)
	if !area.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid area %q", req.Area))
	}
	start, end, verr := parseSpan(req.StartDate, req.EndDate)
	if verr != nil {
		return nil, verr
	}
	period, err := s.findPeriod(ctx, req.PeriodID)
	if err != nil {
		return nil, err
	}
	if period.Status == models.PeriodStatusEnded {
		return nil, appErrors.Clone(appErrors.ErrConflict, "period has ended, submissions are closed")
	}

	activity := &models.Activity{
		Name:        req.Name,
		StartDate:   start,
		EndDate:     end,
		Hours:       req.Hours,
		Institution: req.Institution,
		Evidence:    req.Evidence,
		Area:        area,
		Status:      models.ActivityStatusPending,
		UserID:      req.UserID,
		PeriodID:    req.PeriodID,
	}
	if err := s.repo.Create(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create activity")
	}
	s.invalidateAreas(ctx, req.PeriodID)
	return activity, nil
}

// parseSpan parses an activity date pair. Unlike period ranges, a span may
// start and end on the same day.
func parseSpan(startRaw, endRaw string) (time.Time, time.Time, *appErrors.Error) {
	start, err := time.Parse(dateLayout, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid start date %q, expected YYYY-MM-DD", startRaw))
	}
	end, err := time.Parse(dateLayout, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, fmt.Sprintf("invalid end date %q, expected YYYY-MM-DD", endRaw))
	}
	if start.After(end) {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "start date cannot be after end date")
	}
	return start, end, nil
}

// Update edits an activity's fields, recording the administrator who made
// the change. Evidence files dropped by the new blob are removed from disk.
func (s *ActivityService) Update(ctx context.Context, id string, req UpdateActivityRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid activity payload")
	}
	activity, err := s.findActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		activity.Name = *req.Name
	}
	if req.Hours != nil {
		activity.Hours = *req.Hours
	}
	if req.Institution != nil {
		activity.Institution = *req.Institution
	}
	if req.Observations != nil {
		activity.Observations = *req.Observations
	}
	if req.Area != nil {
		area := models.ActivityArea(*req.Area)
		if !area.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid area %q", *req.Area))
		}
		activity.Area = area
	}
	if req.Status != nil {
		status := models.ActivityStatus(*req.Status)
		if !status.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid activity status %q", *req.Status))
		}
		activity.Status = status
	}

	startRaw := activity.StartDate.Format(dateLayout)
	endRaw := activity.EndDate.Format(dateLayout)
	if req.StartDate != nil {
		startRaw = *req.StartDate
	}
	if req.EndDate != nil {
		endRaw = *req.EndDate
	}
	start, end, verr := parseSpan(startRaw, endRaw)
	if verr != nil {
		return nil, verr
	}
	activity.StartDate, activity.EndDate = start, end

	if req.Evidence != nil {
		kept, lerr := req.Evidence.Links()
		if lerr != nil {
			return nil, appErrors.Wrap(lerr, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evidence blob")
		}
		s.removeDroppedEvidence(activity.Evidence, kept)
		activity.Evidence = *req.Evidence
	}
	activity.LastAdminID = &req.AdminID

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity")
	}
	s.invalidateAreas(ctx, activity.PeriodID)
	return activity, nil
}

var evidenceExtensions = map[string]bool{".jpg": true, ".jpeg": true, ".png": true, ".webp": true}

// AttachEvidence replaces an activity's evidence set: uploaded images are
// stored under /evidence, stored files absent from keep are removed.
func (s *ActivityService) AttachEvidence(ctx context.Context, id string, keep []string, files []EvidenceFile) (*models.Activity, error) {
	activity, err := s.findActivity(ctx, id)
	if err != nil {
		return nil, err
	}

	links := append([]string{}, keep...)
	for _, file := range files {
		ext := strings.ToLower(filepath.Ext(file.Name))
		if !evidenceExtensions[ext] {
			return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported evidence file %q, expected an image", file.Name))
		}
		relPath := fmt.Sprintf("/evidence/%s%s", uuid.NewString(), ext)
		if _, err := s.storage.SaveStream(relPath, file.Reader); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store evidence file")
		}
		links = append(links, relPath)
	}

	s.removeDroppedEvidence(activity.Evidence, keep)

	blob, err := json.Marshal(map[string][]string{"fotos": links})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to encode evidence")
	}
	activity.Evidence = models.Evidence(blob)

	if err := s.repo.Update(ctx, activity); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity evidence")
	}
	return activity, nil
}

// removeDroppedEvidence deletes stored files referenced by old evidence but
// absent from keep. Only /evidence paths are touched and failures are
// logged, never fatal.
func (s *ActivityService) removeDroppedEvidence(old models.Evidence, keep []string) {
	if s.storage == nil {
		return
	}
	links, err := old.Links()
	if err != nil {
		s.logger.Warn("malformed evidence blob, skipping file cleanup", zap.Error(err))
		return
	}
	keepSet := make(map[string]bool, len(keep))
	for _, link := range keep {
		keepSet[link] = true
	}
	for _, link := range links {
		if keepSet[link] || !strings.HasPrefix(link, "/evidence/") {
			continue
		}
		if err := s.storage.Delete(link); err != nil {
			s.logger.Warn("failed to delete evidence file", zap.String("path", link), zap.Error(err))
		}
	}
}

// UpdateStatus records an administrator's review decision.
func (s *ActivityService) UpdateStatus(ctx context.Context, id string, req UpdateActivityStatusRequest) (*models.Activity, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	status := models.ActivityStatus(req.Status)
	if !status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid activity status %q", req.Status))
	}
	activity, err := s.findActivity(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.repo.UpdateStatus(ctx, id, status, req.Observations, req.AdminID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update activity status")
	}
	activity.Status = status
	activity.Observations = req.Observations
	activity.LastAdminID = &req.AdminID
	s.invalidateAreas(ctx, activity.PeriodID)
	return activity, nil
}

// Get returns an activity by ID.
func (s *ActivityService) Get(ctx context.Context, id string) (*models.Activity, error) {
	return s.findActivity(ctx, id)
}

// Delete removes an activity. Submissions in a pending or ended period are
// locked and cannot be removed.
func (s *ActivityService) Delete(ctx context.Context, id string) error {
	activity, err := s.findActivity(ctx, id)
	if err != nil {
		return err
	}
	period, err := s.findPeriod(ctx, activity.PeriodID)
	if err != nil {
		return err
	}
	if period.Status != models.PeriodStatusActive {
		return appErrors.Clone(appErrors.ErrConflict, "activity can only be deleted while its period is active")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete activity")
	}
	s.invalidateAreas(ctx, activity.PeriodID)
	return nil
}

func (s *ActivityService) findActivity(ctx context.Context, id string) (*models.Activity, error) {
	activity, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "activity not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load activity")
	}
	return activity, nil
}

func (s *ActivityService) findPeriod(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}

func (s *ActivityService) invalidateAreas(ctx context.Context, periodID string) {
	if err := s.cache.Invalidate(ctx, "areas:"+periodID, cacheKeyPeriods); err != nil {
		s.logger.Warn("failed to invalidate area cache", zap.Error(err))
	}
}
