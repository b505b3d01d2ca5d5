package models

import (
	"bytes"
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ActivityArea classifies the nature of a service activity.
type ActivityArea string

const (
	AreaDP  ActivityArea = "DP"
	AreaRS  ActivityArea = "RS"
	AreaCEE ActivityArea = "CEE"
	AreaFCI ActivityArea = "FCI"
	AreaAC  ActivityArea = "AC"
)

// Areas lists every valid area code in display order.
var Areas = []ActivityArea{AreaDP, AreaRS, AreaCEE, AreaFCI, AreaAC}

// Valid reports whether the area is one of the fixed codes.
func (a ActivityArea) Valid() bool {
	for _, area := range Areas {
		if a == area {
			return true
		}
	}
	return false
}

// ActivityStatus is the review state an administrator assigns.
type ActivityStatus string

const (
	ActivityStatusPending   ActivityStatus = "pending"
	ActivityStatusApproval  ActivityStatus = "approval"
	ActivityStatusRejected  ActivityStatus = "rejected"
	ActivityStatusContacted ActivityStatus = "contacted"
)

// Valid reports whether the status is one of the allowed values.
func (s ActivityStatus) Valid() bool {
	switch s {
	case ActivityStatusPending, ActivityStatusApproval, ActivityStatusRejected, ActivityStatusContacted:
		return true
	default:
		return false
	}
}

// Evidence is the raw JSON evidence column: an object whose values are
// image paths or arrays of image paths, e.g. {"fotos":["a.webp","b.webp"]}.
// The raw bytes are kept verbatim; Links performs an order-preserving
// flatten at the domain boundary.
type Evidence []byte

// Value returns the raw JSON for persistence.
func (e Evidence) Value() (driver.Value, error) {
	if len(e) == 0 {
		return nil, nil
	}
	return []byte(e), nil
}

// Scan stores the raw JSON payload.
func (e *Evidence) Scan(value interface{}) error {
	if value == nil {
		*e = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		*e = append((*e)[:0], v...)
	case string:
		*e = Evidence(v)
	default:
		return fmt.Errorf("unsupported type %T for Evidence", value)
	}
	return nil
}

// MarshalJSON emits the stored object as-is, or null when empty.
func (e Evidence) MarshalJSON() ([]byte, error) {
	if len(e) == 0 {
		return []byte("null"), nil
	}
	return []byte(e), nil
}

// UnmarshalJSON keeps the raw payload.
func (e *Evidence) UnmarshalJSON(data []byte) error {
	*e = append((*e)[:0], data...)
	return nil
}

// Links flattens the evidence object into a deduplicated list of non-empty
// paths, preserving object key order and array order. Callers treat a
// decode error as "no evidence" rather than failing the whole operation.
func (e Evidence) Links() ([]string, error) {
	if len(e) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(e))
	tok, err := dec.Token()
	if err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return nil, fmt.Errorf("decode evidence: expected object, got %v", tok)
	}

	var links []string
	seen := make(map[string]struct{})
	appendLink := func(link string) {
		if link == "" {
			return
		}
		if _, dup := seen[link]; dup {
			return
		}
		seen[link] = struct{}{}
		links = append(links, link)
	}

	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("decode evidence key: %w", err)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, fmt.Errorf("decode evidence value: %w", err)
		}
		var many []string
		if err := json.Unmarshal(raw, &many); err == nil {
			for _, link := range many {
				appendLink(link)
			}
			continue
		}
		var one string
		if err := json.Unmarshal(raw, &one); err == nil {
			appendLink(one)
			continue
		}
		return nil, fmt.Errorf("decode evidence value: unsupported shape %s", raw)
	}
	return links, nil
}

// Activity is a single student-submitted service record.
type Activity struct {
	ID           string         `db:"id" json:"id"`
	Name         string         `db:"name" json:"name"`
	StartDate    time.Time      `db:"start_date" json:"start_date"`
	EndDate      time.Time      `db:"end_date" json:"end_date"`
	Hours        int            `db:"hours" json:"hours"`
	Institution  string         `db:"institution" json:"institution"`
	Evidence     Evidence       `db:"evidence" json:"evidence,omitempty"`
	Area         ActivityArea   `db:"area" json:"area"`
	Status       ActivityStatus `db:"status" json:"status"`
	Observations string         `db:"observations" json:"observations"`
	LastAdminID  *string        `db:"last_admin_id" json:"last_admin_id,omitempty"`
	UserID       string         `db:"user_id" json:"user_id"`
	PeriodID     string         `db:"period_id" json:"period_id"`
	CreatedAt    time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updated_at"`
}

// AreaCounts maps every area code to its activity count plus a grand total.
type AreaCounts struct {
	DP    int `json:"DP"`
	RS    int `json:"RS"`
	CEE   int `json:"CEE"`
	FCI   int `json:"FCI"`
	AC    int `json:"AC"`
	Total int `json:"total"`
}

// Add accumulates a per-area count, ignoring unknown codes.
func (c *AreaCounts) Add(area ActivityArea, count int) {
	switch area {
	case AreaDP:
		c.DP += count
	case AreaRS:
		c.RS += count
	case AreaCEE:
		c.CEE += count
	case AreaFCI:
		c.FCI += count
	case AreaAC:
		c.AC += count
	default:
		return
	}
	c.Total += count
}
