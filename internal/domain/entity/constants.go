package entity

// Task assignment status constants
const (
	TaskStatusPending          = "pending"
	TaskStatusInProgress       = "in_progress"
	TaskStatusCompleted        = "completed"
	TaskStatusRevisionRequired = "revision_required"
)

// Report priority constants
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// Attachment type constants
const (
	FileTypeOriginal = "original"
	FileTypeResult   = "result"
)
