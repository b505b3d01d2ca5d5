package dto

import "github.com/ssug-dev/ssug-api/internal/models"

// CollectiveView is a formatted collective activity with flattened evidence
// and the resolved participant list.
type CollectiveView struct {
	ID               string                `json:"id"`
	Event            string                `json:"event"`
	Institution      string                `json:"institution"`
	Place            string                `json:"place"`
	Hours            int                   `json:"hours"`
	Date             string                `json:"date"`
	Authorization    string                `json:"authorization"`
	Description      string                `json:"description"`
	SignaturesFormat string                `json:"signatures_format"`
	Area             models.ActivityArea   `json:"area"`
	Status           models.ActivityStatus `json:"status"`
	Observations     string                `json:"observations"`
	CreatedAt        string                `json:"created_at"`
	UpdatedAt        string                `json:"updated_at"`
	EvidenceLinks    []string              `json:"evidence_links"`
	Participants     []models.Participant  `json:"participants"`
}

// UserCollectives groups one student's collectives within a period.
type UserCollectives struct {
	ID          string           `json:"id"`
	NUA         string           `json:"nua"`
	FullName    string           `json:"full_name"`
	Career      string           `json:"career"`
	Email       string           `json:"email"`
	Collectives []CollectiveView `json:"collectives"`
}
