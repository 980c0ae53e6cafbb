package workflow

import (
	"context"

	"github.com/docuflow/report-routing/internal/domain/entity"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// TransitionPayload carries the caller-supplied inputs of one transition
type TransitionPayload struct {
	// CoordinatorID names the receiving coordinator (tu_to_coordinator)
	CoordinatorID string

	// StaffID names the receiving staff member (coordinator_to_staff,
	// request_revision)
	StaffID string

	// TodoList overrides the catalog default checklist when non-empty
	TodoList []string

	// Notes overrides the transition's default notes when non-empty
	Notes string
}

// TransitionResult is what a successfully applied transition produces
type TransitionResult struct {
	Assignment *entity.TaskAssignment `json:"task_assignment"`
	NewStatus  domainwf.Status        `json:"new_status"`
	Message    string                 `json:"message"`
}

// Engine orchestrates the routing workflow: it validates a requested
// transition against the transition table, materializes the task
// assignments it implies, mutates the report, and appends the audit trail.
type Engine interface {
	// ApplyTransition validates and applies one transition on behalf of an
	// actor. The assignment close/create pair is atomic; the trailing
	// report patch and history append are best-effort.
	ApplyTransition(ctx context.Context, reportID string, kind domainwf.Kind, actorID string, actorRole domainwf.Role, payload TransitionPayload) (*TransitionResult, error)

	// AvailableTransitions returns the transition kinds offered for a
	// status/role pair
	AvailableTransitions(status domainwf.Status, role domainwf.Role) []domainwf.Kind
}
