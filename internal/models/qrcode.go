package models

import "time"

// QRCode is a check-in code registered for a (career, area) pair. The
// pair is unique; the image itself lives in upload storage.
type QRCode struct {
	ID          string       `db:"id" json:"id"`
	Career      string       `db:"career" json:"career"`
	Area        ActivityArea `db:"area" json:"area"`
	ImagePath   string       `db:"image_path" json:"image_path"`
	Description string       `db:"description" json:"description"`
	Active      bool         `db:"active" json:"active"`
	CreatedBy   string       `db:"created_by" json:"created_by"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`
}

// QRCodeFilter narrows QR code listings.
type QRCodeFilter struct {
	Career string
	Area   ActivityArea
	Active *bool
}
