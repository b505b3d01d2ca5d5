package service

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ssug-dev/ssug-api/internal/models"
	"github.com/ssug-dev/ssug-api/internal/repository"
	appErrors "github.com/ssug-dev/ssug-api/pkg/errors"
	"github.com/ssug-dev/ssug-api/pkg/export"
	"github.com/ssug-dev/ssug-api/pkg/jobs"
)

// reportMaxImages caps evidence images embedded per activity.
const reportMaxImages = 2

type reportPeriodRepository interface {
	FindByID(ctx context.Context, id string) (*models.Period, error)
	UpdateReport(ctx context.Context, id string, path *string, status models.ReportStatus, reportErr *string) error
}

type reportActivityRepository interface {
	DistinctUsersByPeriod(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]models.User, error)
	ListByUserAndPeriod(ctx context.Context, userID, periodID string, statuses []models.ActivityStatus) ([]models.Activity, error)
	ListWithUsers(ctx context.Context, periodID string, statuses []models.ActivityStatus) ([]repository.ActivityWithUser, error)
	ListByCareer(ctx context.Context, periodID, career string, sede models.Sede) ([]repository.ActivityWithUser, error)
}

type reportStorage interface {
	Read(relPath string) ([]byte, error)
	Save(relPath string, data []byte) (string, error)
}

type pdfRenderer interface {
	Render(data export.ReportData) ([]byte, error)
}

type reportMetrics interface {
	ObserveReport(duration time.Duration, failed bool)
}

// ReportConfig tunes image recompression and the background workers.
type ReportConfig struct {
	ImageMaxWidth int
	ImageQuality  int
	Workers       int
	Retries       int
}

// ReportService builds the end-of-period PDF reports and the career cohort
// variant. Period reports run on a background queue keyed by period ID, so
// concurrent triggers for the same period collapse into one generation.
type ReportService struct {
	periods    reportPeriodRepository
	activities reportActivityRepository
	storage    reportStorage
	renderer   pdfRenderer
	queue      *jobs.Queue
	metrics    reportMetrics
	logger     *zap.Logger
	config     ReportConfig
}

// SetMetrics attaches an optional instrumentation sink.
func (s *ReportService) SetMetrics(m reportMetrics) {
	s.metrics = m
}

// NewReportService constructs the report service and its queue.
func NewReportService(periods reportPeriodRepository, activities reportActivityRepository, storage reportStorage, renderer pdfRenderer, logger *zap.Logger, config ReportConfig) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if renderer == nil {
		renderer = export.NewPDFRenderer()
	}
	s := &ReportService{
		periods:    periods,
		activities: activities,
		storage:    storage,
		renderer:   renderer,
		logger:     logger,
		config:     config,
	}
	s.queue = jobs.NewQueue("reports", s.handleJob, jobs.QueueConfig{
		Workers:    config.Workers,
		MaxRetries: config.Retries,
		Logger:     logger,
	})
	return s
}

// Start launches the background workers.
func (s *ReportService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains the background workers.
func (s *ReportService) Stop() {
	s.queue.Stop()
}

// SchedulePeriodReport queues generation for a period. A second call while
// one is in flight returns jobs.ErrInFlight.
func (s *ReportService) SchedulePeriodReport(periodID string) error {
	return s.queue.Enqueue(jobs.Job{
		ID:      uuid.NewString(),
		Type:    "period_report",
		Key:     "period:" + periodID,
		Payload: periodID,
	})
}

func (s *ReportService) handleJob(ctx context.Context, job jobs.Job) error {
	periodID, ok := job.Payload.(string)
	if !ok {
		return fmt.Errorf("unexpected payload type %T", job.Payload)
	}
	started := time.Now()
	path, err := s.GeneratePeriodReport(ctx, periodID)
	if s.metrics != nil {
		s.metrics.ObserveReport(time.Since(started), err != nil)
	}
	if err != nil {
		s.logger.Error("period report generation failed", zap.String("period_id", periodID), zap.Error(err))
		return err
	}
	s.logger.Info("period report generated", zap.String("period_id", periodID), zap.String("path", path))
	return nil
}

// GeneratePeriodReport builds and persists the PDF for one period, covering
// every student with an approved or rejected activity. The outcome is
// written back onto the period row.
func (s *ReportService) GeneratePeriodReport(ctx context.Context, periodID string) (string, error) {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return "", err
	}
	statuses := []models.ActivityStatus{models.ActivityStatusApproval, models.ActivityStatusRejected}
	users, err := s.activities.DistinctUsersByPeriod(ctx, periodID, statuses)
	if err != nil {
		return "", s.fail(ctx, periodID, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to load report students"))
	}

	data := export.ReportData{
		Title: fmt.Sprintf("Reporte de Servicio Social - %s", period.Name),
		Subtitle: fmt.Sprintf("Del %s al %s",
			period.StartDate.Format(dateLayout), period.EndDate.Format(dateLayout)),
	}
	for _, user := range users {
		activities, err := s.activities.ListByUserAndPeriod(ctx, user.ID, periodID, statuses)
		if err != nil {
			return "", s.fail(ctx, periodID, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to load report activities"))
		}
		data.Students = append(data.Students, s.buildStudent(user, activities))
	}

	rendered, err := s.renderer.Render(data)
	if err != nil {
		return "", s.fail(ctx, periodID, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to render period report"))
	}

	relPath := fmt.Sprintf("/reports/periodo-%s-%d.pdf", period.ID, time.Now().UTC().Unix())
	if _, err := s.storage.Save(relPath, rendered); err != nil {
		return "", s.fail(ctx, periodID, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to store period report"))
	}
	if err := s.periods.UpdateReport(ctx, periodID, &relPath, models.ReportStatusReady, nil); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record report path")
	}
	return relPath, nil
}

// GenerateCareerReport builds the cohort variant in memory: one career and
// campus, activities of any status, streamed straight to the caller.
func (s *ReportService) GenerateCareerReport(ctx context.Context, periodID, career string, sede models.Sede) ([]byte, error) {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	if !models.ValidCareer(career) {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown career code %q", career))
	}
	if !sede.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("invalid sede %q", sede))
	}
	rows, err := s.activities.ListByCareer(ctx, periodID, career, sede)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to load career activities")
	}
	if len(rows) == 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, fmt.Sprintf("no students found for %s at %s", career, sede))
	}

	data := export.ReportData{
		Title:    fmt.Sprintf("Reporte de Servicio Social - %s", period.Name),
		Subtitle: fmt.Sprintf("%s (%s)", models.CareerFullName(career), sede),
	}
	var current *export.ReportStudent
	for _, row := range rows {
		if current == nil || current.NUA != row.User.NUA {
			data.Students = append(data.Students, export.ReportStudent{
				NUA:      row.User.NUA,
				FullName: row.User.FullName(),
				Career:   models.CareerFullName(row.User.Career),
				Sede:     string(row.User.Sede),
				Email:    row.User.Email,
				Phone:    row.User.Phone,
			})
			current = &data.Students[len(data.Students)-1]
		}
		current.Activities = append(current.Activities, s.buildActivity(row.Activity))
	}

	rendered, err := s.renderer.Render(data)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to render career report")
	}
	return rendered, nil
}

// GetReportPath resolves the download decision for a period: the stored
// path when the report is ready, otherwise it schedules generation and
// signals the caller to retry later.
func (s *ReportService) GetReportPath(ctx context.Context, periodID string) (string, error) {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return "", err
	}
	if period.Status != models.PeriodStatusEnded {
		return "", appErrors.Clone(appErrors.ErrConflict, "period has not ended, report is unavailable")
	}
	if period.ReportStatus == models.ReportStatusReady && period.ReportPath != nil && *period.ReportPath != "" {
		return *period.ReportPath, nil
	}

	if period.ReportStatus != models.ReportStatusGenerating {
		if err := s.periods.UpdateReport(ctx, periodID, nil, models.ReportStatusGenerating, nil); err != nil {
			s.logger.Warn("failed to mark report generating", zap.String("period_id", periodID), zap.Error(err))
		}
	}
	if err := s.SchedulePeriodReport(periodID); err != nil && err != jobs.ErrInFlight {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to schedule report generation")
	}
	return "", appErrors.Clone(appErrors.ErrReportNotReady, "")
}

// FinalReportXLSX builds the end-of-period workbook of approved hours.
func (s *ReportService) FinalReportXLSX(ctx context.Context, periodID string) ([]byte, error) {
	period, err := s.findPeriod(ctx, periodID)
	if err != nil {
		return nil, err
	}
	rows, err := s.activities.ListWithUsers(ctx, periodID, []models.ActivityStatus{models.ActivityStatusApproval})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load approved activities")
	}

	index := make(map[string]int)
	report := make([]export.FinalReportRow, 0)
	for _, row := range rows {
		i, ok := index[row.User.ID]
		if !ok {
			i = len(report)
			index[row.User.ID] = i
			report = append(report, export.FinalReportRow{
				NUA:      row.User.NUA,
				FullName: row.User.FullName(),
				Career:   models.CareerFullName(row.User.Career),
				Sede:     string(row.User.Sede),
			})
		}
		switch row.Activity.Area {
		case models.AreaDP:
			report[i].DP += row.Activity.Hours
		case models.AreaRS:
			report[i].RS += row.Activity.Hours
		case models.AreaCEE:
			report[i].CEE += row.Activity.Hours
		case models.AreaFCI:
			report[i].FCI += row.Activity.Hours
		case models.AreaAC:
			report[i].AC += row.Activity.Hours
		}
		report[i].Total += row.Activity.Hours
	}

	rendered, err := export.RenderFinalReportXLSX(period.Name, report)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrReportGeneration.Code, appErrors.ErrReportGeneration.Status, "failed to render final report workbook")
	}
	return rendered, nil
}

// buildStudent assembles one student's section, images included.
func (s *ReportService) buildStudent(user models.User, activities []models.Activity) export.ReportStudent {
	student := export.ReportStudent{
		NUA:      user.NUA,
		FullName: user.FullName(),
		Career:   models.CareerFullName(user.Career),
		Sede:     string(user.Sede),
		Email:    user.Email,
		Phone:    user.Phone,
	}
	for _, activity := range activities {
		student.Activities = append(student.Activities, s.buildActivity(activity))
	}
	return student
}

// buildActivity converts one activity row, loading and recompressing at most
// two evidence images. Per-image failures are logged and the image skipped.
func (s *ReportService) buildActivity(activity models.Activity) export.ReportActivity {
	out := export.ReportActivity{
		Name:         activity.Name,
		Institution:  activity.Institution,
		Area:         string(activity.Area),
		Status:       string(activity.Status),
		StartDate:    activity.StartDate.Format(dateLayout),
		EndDate:      activity.EndDate.Format(dateLayout),
		Hours:        activity.Hours,
		Observations: activity.Observations,
	}
	links, err := activity.Evidence.Links()
	if err != nil {
		s.logger.Warn("malformed evidence blob", zap.String("activity_id", activity.ID), zap.Error(err))
		return out
	}
	for _, link := range links {
		if len(out.Images) >= reportMaxImages {
			break
		}
		raw, err := s.storage.Read(link)
		if err != nil {
			s.logger.Warn("failed to load evidence image", zap.String("activity_id", activity.ID), zap.String("path", link), zap.Error(err))
			continue
		}
		compressed, err := export.CompressImage(raw, s.config.ImageMaxWidth, s.config.ImageQuality)
		if err != nil {
			s.logger.Warn("failed to compress evidence image", zap.String("activity_id", activity.ID), zap.String("path", link), zap.Error(err))
			continue
		}
		out.Images = append(out.Images, compressed)
	}
	return out
}

// fail records a terminal generation failure on the period row.
func (s *ReportService) fail(ctx context.Context, periodID string, cause *appErrors.Error) error {
	msg := cause.Error()
	if err := s.periods.UpdateReport(ctx, periodID, nil, models.ReportStatusFailed, &msg); err != nil {
		s.logger.Error("failed to record report failure", zap.String("period_id", periodID), zap.Error(err))
	}
	return cause
}

func (s *ReportService) findPeriod(ctx context.Context, id string) (*models.Period, error) {
	period, err := s.periods.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "period not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load period")
	}
	return period, nil
}
