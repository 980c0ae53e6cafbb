package workflow

import "fmt"

// Kind names one role-gated operation that moves custody forward
// (or sideways, for revision)
type Kind string

const (
	KindTUToCoordinator    Kind = "tu_to_coordinator"
	KindCoordinatorToStaff Kind = "coordinator_to_staff"
	KindStaffToCoordinator Kind = "staff_to_coordinator"
	KindCoordinatorToTU    Kind = "coordinator_to_tu"
	KindRequestRevision    Kind = "request_revision"
)

// String returns the string representation of the kind
func (k Kind) String() string {
	return string(k)
}

// HolderRule describes how the report's next holder is resolved when a
// transition is applied
type HolderRule int

const (
	// HolderCoordinator assigns custody to the coordinator named in the payload
	HolderCoordinator HolderRule = iota
	// HolderStaff assigns custody to the staff member named in the payload
	HolderStaff
	// HolderClosedAssigner returns custody to whoever delegated the leg
	// being closed
	HolderClosedAssigner
	// HolderCreator returns custody to the report's creator
	HolderCreator
)

// Definition describes one row of the transition table
type Definition struct {
	Kind            Kind
	AllowedRoles    []Role
	SourceStatuses  []Status
	ActionLabel     string
	DefaultNotes    string
	ResultingStatus Status
	Holder          HolderRule

	// CompletesReport forces report progress to 100 alongside the status change
	CompletesReport bool
}

// PermitsRole returns true if the role may invoke this transition
func (d Definition) PermitsRole(role Role) bool {
	return role.In(d.AllowedRoles)
}

// PermitsSource returns true if the transition may be applied to a report
// currently in the given status
func (d Definition) PermitsSource(status Status) bool {
	for _, s := range d.SourceStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Table is the static registry of legal transitions. A single table value is
// built once and injected into the engine, so the role whitelist lives in
// exactly one place.
type Table struct {
	definitions map[Kind]Definition
}

// NewTable builds the routing transition table
func NewTable() *Table {
	defs := []Definition{
		{
			Kind:            KindTUToCoordinator,
			AllowedRoles:    []Role{RoleTU, RoleAdmin},
			SourceStatuses:  []Status{StatusDraft},
			ActionLabel:     "Forwarded to coordinator for review",
			DefaultNotes:    "Document forwarded for coordinator review",
			ResultingStatus: StatusPendingReview,
			Holder:          HolderCoordinator,
		},
		{
			Kind:            KindCoordinatorToStaff,
			AllowedRoles:    []Role{RoleCoordinator, RoleAdmin},
			SourceStatuses:  []Status{StatusPendingReview},
			ActionLabel:     "Assigned to staff",
			DefaultNotes:    "Task assigned to staff for processing",
			ResultingStatus: StatusInProgress,
			Holder:          HolderStaff,
		},
		{
			Kind:            KindStaffToCoordinator,
			AllowedRoles:    []Role{RoleStaff},
			SourceStatuses:  []Status{StatusInProgress, StatusRevisionRequired},
			ActionLabel:     "Returned to coordinator for review",
			DefaultNotes:    "Completed work returned for coordinator review",
			ResultingStatus: StatusPendingReview,
			Holder:          HolderClosedAssigner,
		},
		{
			Kind:            KindCoordinatorToTU,
			AllowedRoles:    []Role{RoleCoordinator, RoleAdmin},
			SourceStatuses:  []Status{StatusPendingReview},
			ActionLabel:     "Completed and returned to TU",
			DefaultNotes:    "Report completed and returned to intake",
			ResultingStatus: StatusCompleted,
			Holder:          HolderCreator,
			CompletesReport: true,
		},
		{
			Kind:            KindRequestRevision,
			AllowedRoles:    []Role{RoleCoordinator, RoleAdmin},
			SourceStatuses:  []Status{StatusInProgress},
			ActionLabel:     "Returned to staff for revision",
			DefaultNotes:    "Revision requested per coordinator notes",
			ResultingStatus: StatusRevisionRequired,
			Holder:          HolderStaff,
		},
	}

	table := &Table{definitions: make(map[Kind]Definition, len(defs))}
	for _, def := range defs {
		table.definitions[def.Kind] = def
	}
	return table
}

// Lookup returns the definition for a transition kind
func (t *Table) Lookup(kind Kind) (Definition, error) {
	def, ok := t.definitions[kind]
	if !ok {
		return Definition{}, fmt.Errorf("%w: %s", ErrUnknownTransition, kind)
	}
	return def, nil
}

// Kinds returns all registered transition kinds
func (t *Table) Kinds() []Kind {
	kinds := make([]Kind, 0, len(t.definitions))
	for kind := range t.definitions {
		kinds = append(kinds, kind)
	}
	return kinds
}
