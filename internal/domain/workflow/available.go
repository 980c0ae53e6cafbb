package workflow

// AvailableTransitions returns the ordered list of transition kinds offered
// to an actor with the given role while a report sits in the given status.
// It drives UI affordances only; the engine re-validates on apply.
func AvailableTransitions(status Status, role Role) []Kind {
	available := []Kind{}

	switch status {
	case StatusDraft:
		if role == RoleTU || role == RoleAdmin {
			available = append(available, KindTUToCoordinator)
		}
	case StatusPendingReview:
		if role == RoleCoordinator || role == RoleAdmin {
			available = append(available, KindCoordinatorToStaff, KindCoordinatorToTU)
		}
	case StatusInProgress:
		if role == RoleStaff {
			available = append(available, KindStaffToCoordinator)
		}
		if role == RoleCoordinator || role == RoleAdmin {
			available = append(available, KindRequestRevision)
		}
	case StatusRevisionRequired:
		if role == RoleStaff {
			available = append(available, KindStaffToCoordinator)
		}
	}

	return available
}
