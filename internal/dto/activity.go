package dto

import "github.com/ssug-dev/ssug-api/internal/models"

// ActivityView is the formatted activity row served to review screens,
// with the evidence JSON already flattened into links.
type ActivityView struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Area          models.ActivityArea   `json:"area"`
	StartDate     string                `json:"start_date"`
	EndDate       string                `json:"end_date"`
	Hours         int                   `json:"hours"`
	Institution   string                `json:"institution"`
	Status        models.ActivityStatus `json:"status"`
	Observations  string                `json:"observations"`
	LastAdminID   *string               `json:"last_admin_id,omitempty"`
	CreatedAt     string                `json:"created_at"`
	UpdatedAt     string                `json:"updated_at"`
	EvidenceLinks []string              `json:"evidence_links"`
}

// UserActivities groups one student's formatted activities within a period.
type UserActivities struct {
	ID         string         `json:"id"`
	NUA        string         `json:"nua"`
	FullName   string         `json:"full_name"`
	Career     string         `json:"career"`
	Email      string         `json:"email"`
	Phone      string         `json:"phone"`
	Activities []ActivityView `json:"activities"`
}

// PeriodActivities groups a student's activities under one period.
type PeriodActivities struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	StartDate  string              `json:"start_date"`
	EndDate    string              `json:"end_date"`
	Status     models.PeriodStatus `json:"status"`
	Activities []ActivityView      `json:"activities"`
}

// UserPeriods is the per-student history: periods ordered by start desc.
type UserPeriods struct {
	Periods []PeriodActivities `json:"periods"`
}

// AreaCountsView reports per-area activity counts for one period.
type AreaCountsView struct {
	PeriodID   string            `json:"period_id"`
	PeriodName string            `json:"period_name"`
	AreaCounts models.AreaCounts `json:"area_counts"`
}

// FinalReportEntry is one approved activity's contribution to a student's
// hour total.
type FinalReportEntry struct {
	Area  models.ActivityArea `json:"area"`
	Hours int                 `json:"hours"`
}

// FinalReportStudent aggregates a student's approved hours for the
// on-screen final report.
type FinalReportStudent struct {
	ID             string             `json:"id"`
	NUA            string             `json:"nua"`
	FullName       string             `json:"full_name"`
	Career         string             `json:"career"`
	CareerFullName string             `json:"career_full_name"`
	Sede           models.Sede        `json:"sede"`
	Entries        []FinalReportEntry `json:"entries"`
	TotalHours     int                `json:"total_hours"`
}

// FinalReport is the period-level aggregation of approved hours.
type FinalReport struct {
	PeriodID   string               `json:"period_id"`
	PeriodName string               `json:"period_name"`
	Students   []FinalReportStudent `json:"students"`
}
