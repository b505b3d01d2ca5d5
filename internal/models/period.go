package models

import "time"

// PeriodStatus captures the administrative lifecycle of a period.
// All three states are admin-settable; only no-op transitions are rejected.
type PeriodStatus string

const (
	PeriodStatusPending PeriodStatus = "pending"
	PeriodStatusActive  PeriodStatus = "active"
	PeriodStatusEnded   PeriodStatus = "ended"
)

// Valid reports whether the status is one of the allowed values.
func (s PeriodStatus) Valid() bool {
	switch s {
	case PeriodStatusPending, PeriodStatusActive, PeriodStatusEnded:
		return true
	default:
		return false
	}
}

// ReportStatus tracks background report generation for a period, so a
// failed generation is observable instead of leaving the period silently
// stuck without an artifact.
type ReportStatus string

const (
	ReportStatusNone       ReportStatus = "none"
	ReportStatusGenerating ReportStatus = "generating"
	ReportStatusReady      ReportStatus = "ready"
	ReportStatusFailed     ReportStatus = "failed"
)

// Period is an administrative window during which students submit
// service-hour activities.
type Period struct {
	ID            string       `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	StartDate     time.Time    `db:"start_date" json:"start_date"`
	EndDate       time.Time    `db:"end_date" json:"end_date"`
	Exclusive     bool         `db:"exclusive" json:"exclusive"`
	Status        PeriodStatus `db:"status" json:"status"`
	CreateAdminID string       `db:"create_admin_id" json:"create_admin_id"`
	ReportPath    *string      `db:"report_path" json:"report_path,omitempty"`
	ReportStatus  ReportStatus `db:"report_status" json:"report_status"`
	ReportError   *string      `db:"report_error" json:"report_error,omitempty"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at" json:"updated_at"`
}

// PeriodWithStats is the list-endpoint projection: the period row plus
// its activity and collective counters.
type PeriodWithStats struct {
	Period
	ActivityTotal      int `db:"activity_total" json:"activity_total"`
	ActivityApproved   int `db:"activity_approved" json:"activity_approved"`
	ActivityPending    int `db:"activity_pending" json:"activity_pending"`
	ActivityRejected   int `db:"activity_rejected" json:"activity_rejected"`
	CollectiveTotal    int `db:"collective_total" json:"collective_total"`
	CollectiveApproved int `db:"collective_approved" json:"collective_approved"`
	CollectivePending  int `db:"collective_pending" json:"collective_pending"`
	CollectiveRejected int `db:"collective_rejected" json:"collective_rejected"`
}
