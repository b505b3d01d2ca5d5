package dto

import "github.com/ssug-dev/ssug-api/internal/models"

// PeriodDownload bundles everything attached to an ended period for export.
type PeriodDownload struct {
	Period      models.Period       `json:"period"`
	Activities  []models.Activity   `json:"activities"`
	Collectives []models.Collective `json:"collectives"`
}

// PeriodList is the admin dashboard payload: periods with their stats.
type PeriodList struct {
	Periods []models.PeriodWithStats `json:"periods"`
	Total   int                      `json:"total"`
}
