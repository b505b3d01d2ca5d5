package models

import "time"

// ContactStatus tracks an administrative escalation.
type ContactStatus string

const (
	ContactStatusPending    ContactStatus = "pending"
	ContactStatusInProgress ContactStatus = "in_progress"
	ContactStatusResolved   ContactStatus = "resolved"
	ContactStatusCancelled  ContactStatus = "cancelled"
)

// Valid reports whether the status is one of the allowed values.
func (s ContactStatus) Valid() bool {
	switch s {
	case ContactStatusPending, ContactStatusInProgress, ContactStatusResolved, ContactStatusCancelled:
		return true
	default:
		return false
	}
}

// DisplayText returns the upper-cased Spanish label used in conflict messages.
func (s ContactStatus) DisplayText() string {
	switch s {
	case ContactStatusPending:
		return "PENDIENTE"
	case ContactStatusInProgress:
		return "EN PROGRESO"
	case ContactStatusResolved:
		return "RESUELTO"
	case ContactStatusCancelled:
		return "CANCELADO"
	default:
		return string(s)
	}
}

// Contact is an escalation record tied to a (user, period, optional
// activity) tuple. At most one contact may exist per tuple.
type Contact struct {
	ID           string        `db:"id" json:"id"`
	UserID       string        `db:"user_id" json:"user_id"`
	AdminID      string        `db:"admin_id" json:"admin_id"`
	PeriodID     string        `db:"period_id" json:"period_id"`
	ActivityID   *string       `db:"activity_id" json:"activity_id,omitempty"`
	Description  string        `db:"description" json:"description"`
	Observations string        `db:"observations" json:"observations"`
	Status       ContactStatus `db:"status" json:"status"`
	CreatedAt    time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time     `db:"updated_at" json:"updated_at"`
}

// ContactDetail is the joined row served to review screens.
type ContactDetail struct {
	Contact
	PeriodName   string  `db:"period_name" json:"period_name"`
	UserNUA      string  `db:"user_nua" json:"user_nua"`
	UserName     string  `db:"user_name" json:"user_name"`
	UserPhone    string  `db:"user_phone" json:"user_phone"`
	UserEmail    string  `db:"user_email" json:"user_email"`
	AdminName    string  `db:"admin_name" json:"admin_name"`
	ActivityName *string `db:"activity_name" json:"activity_name,omitempty"`
}
