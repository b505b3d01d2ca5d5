package models

import "time"

// Collective is a group service activity submitted by one student on
// behalf of several participants.
type Collective struct {
	ID               string         `db:"id" json:"id"`
	Event            string         `db:"event" json:"event"`
	Institution      string         `db:"institution" json:"institution"`
	Place            string         `db:"place" json:"place"`
	Hours            int            `db:"hours" json:"hours"`
	Date             time.Time      `db:"date" json:"date"`
	Authorization    string         `db:"authorization" json:"authorization"`
	Description      string         `db:"description" json:"description"`
	SignaturesFormat string         `db:"signatures_format" json:"signatures_format"`
	Evidence         Evidence       `db:"evidence" json:"evidence,omitempty"`
	Area             ActivityArea   `db:"area" json:"area"`
	Status           ActivityStatus `db:"status" json:"status"`
	Observations     string         `db:"observations" json:"observations"`
	UserID           string         `db:"user_id" json:"user_id"`
	PeriodID         string         `db:"period_id" json:"period_id"`
	CreatedAt        time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt        time.Time      `db:"updated_at" json:"updated_at"`
}

// Participant is the reduced user projection attached to a collective.
type Participant struct {
	ID       string `db:"id" json:"id"`
	NUA      string `db:"nua" json:"nua"`
	FullName string `json:"full_name"`
	Career   string `db:"career" json:"career"`
}
