package workflow

// Status represents a report's position in the routing lifecycle
type Status string

const (
	StatusDraft             Status = "draft"
	StatusPendingReview     Status = "pending_coordinator_review"
	StatusInProgress        Status = "in_progress"
	StatusRevisionRequired  Status = "revision_required"
	StatusCompleted         Status = "completed"
)

var validStatuses = map[Status]bool{
	StatusDraft:            true,
	StatusPendingReview:    true,
	StatusInProgress:       true,
	StatusRevisionRequired: true,
	StatusCompleted:        true,
}

// IsTerminal returns true if no further transitions exist from the status
func (s Status) IsTerminal() bool {
	return s == StatusCompleted
}

// IsValid returns true if the status is a known report status
func (s Status) IsValid() bool {
	return validStatuses[s]
}

// String returns the string representation of the status
func (s Status) String() string {
	return string(s)
}
