package workflow

// defaultChecklists holds the default sub-task list opened with each leg of
// the routing chain. The copy is advisory; custom lists supplied with a
// transition payload take precedence.
var defaultChecklists = map[Kind][]string{
	KindTUToCoordinator: {
		"Review document completeness",
		"Set handling priority",
		"Select staff to work the report",
		"Draft a work plan",
	},
	KindCoordinatorToStaff: {
		"Study the document and instructions",
		"Work the task per standard procedure",
		"Prepare the result report",
		"Coordinate if blocked",
	},
	KindStaffToCoordinator: {
		"Review staff work results",
		"Validate document completeness",
		"Check conformance with standard procedure",
		"Decide follow-up",
	},
	KindCoordinatorToTU: {
		"Receive final results",
		"Verify completeness",
		"Archive the document",
		"Close the report",
	},
	KindRequestRevision: {
		"Fix per review notes",
		"Complete missing documents",
		"Consult if needed",
		"Resubmit to coordinator",
	},
}

// DefaultChecklist returns the default checklist for a transition kind.
// Unknown kinds yield an empty list, not an error.
func DefaultChecklist(kind Kind) []string {
	todos, ok := defaultChecklists[kind]
	if !ok {
		return []string{}
	}
	out := make([]string, len(todos))
	copy(out, todos)
	return out
}
