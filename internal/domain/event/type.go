package event

// Type identifies the type of domain event
type Type string

const (
	TypeTransitionApplied Type = "transition.applied"
	TypeReportCompleted   Type = "report.completed"
	TypeRevisionRequested Type = "revision.requested"
)

// String returns the string representation of the event type
func (t Type) String() string {
	return string(t)
}

// IsValid checks if the event type is one of the defined constants
func (t Type) IsValid() bool {
	switch t {
	case TypeTransitionApplied,
		TypeReportCompleted,
		TypeRevisionRequested:
		return true
	default:
		return false
	}
}
