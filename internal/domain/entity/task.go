package entity

import "time"

// TaskAssignment represents one delegated leg of the custody chain: one
// actor working one report under a checklist. After creation a leg is only
// touched again to mark it completed when the next leg opens.
type TaskAssignment struct {
	ID       string `json:"id"`
	ReportID string `json:"report_id"`

	// AssigneeID must act; AssignerID triggered the leg's creation
	AssigneeID string `json:"assignee_id"`
	AssignerID string `json:"assigner_id"`

	// TodoList is ordered; CompletedTasks has set semantics and is deduped
	// before progress is derived
	TodoList       []string `json:"todo_list"`
	CompletedTasks []string `json:"completed_tasks"`
	Progress       int      `json:"progress"`

	Status        string `json:"status"`
	Notes         string `json:"notes,omitempty"`
	RevisionNotes string `json:"revision_notes,omitempty"`

	// CompletedAt is present iff Status is completed
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
