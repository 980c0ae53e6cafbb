package entity

import "time"

// Report represents one document under circulation. The descriptive letter
// fields are opaque to the workflow engine; only status, progress and
// current_holder are mutated as transitions are applied.
type Report struct {
	ID             string `json:"id"`
	TrackingNumber string `json:"tracking_number"`

	// Letter metadata
	LetterNumber string     `json:"letter_number"`
	Subject      string     `json:"subject"`
	Sender       string     `json:"sender"`
	Service      string     `json:"service,omitempty"`
	AgendaNumber string     `json:"agenda_number,omitempty"`
	LetterDate   *time.Time `json:"letter_date,omitempty"`
	AgendaDate   *time.Time `json:"agenda_date,omitempty"`

	Status   string `json:"status"`
	Priority string `json:"priority"`
	Progress int    `json:"progress"`

	// CurrentHolder is the actor responsible for acting on the report.
	// Empty means unassigned (pool).
	CurrentHolder string `json:"current_holder,omitempty"`
	CreatedBy     string `json:"created_by"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ReportPatch is a partial report mutation produced by a transition. Nil
// fields are left untouched.
type ReportPatch struct {
	Status        *string `json:"status,omitempty"`
	CurrentHolder *string `json:"current_holder,omitempty"`
	Progress      *int    `json:"progress,omitempty"`
}
