package entity

import "time"

// HistoryEntry is one immutable audit record: who did what to a report and
// the status that resulted. Append-only; never mutated or deleted.
type HistoryEntry struct {
	ID       string    `json:"id"`
	ReportID string    `json:"report_id"`
	Action   string    `json:"action"`
	ActorID  string    `json:"actor_id"`
	Status   string    `json:"status"`
	Notes    string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}
