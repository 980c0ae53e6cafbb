package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/dispatcher"
	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/domain/entity"
	"github.com/docuflow/report-routing/internal/domain/event"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// engineImpl is the concrete implementation of Engine
type engineImpl struct {
	table          *domainwf.Table
	reportRepo     port.ReportRepository
	assignmentRepo port.AssignmentRepository
	historyRepo    port.HistoryRepository
	txManager      port.TransactionManager
	events         dispatcher.Dispatcher
	logger         *zap.Logger
	now            func() time.Time

	// One mutex per report id: transitions on the same report are
	// serialized so two actors cannot race on holder/status
	locks sync.Map
}

// EngineOption configures the workflow engine
type EngineOption func(*engineImpl)

// WithClock overrides the engine's time source
func WithClock(now func() time.Time) EngineOption {
	return func(e *engineImpl) {
		e.now = now
	}
}

// WithEvents attaches an event dispatcher; applied transitions are
// published to it asynchronously
func WithEvents(d dispatcher.Dispatcher) EngineOption {
	return func(e *engineImpl) {
		e.events = d
	}
}

// NewEngine creates a new workflow engine
func NewEngine(
	table *domainwf.Table,
	reportRepo port.ReportRepository,
	assignmentRepo port.AssignmentRepository,
	historyRepo port.HistoryRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
	opts ...EngineOption,
) Engine {
	e := &engineImpl{
		table:          table,
		reportRepo:     reportRepo,
		assignmentRepo: assignmentRepo,
		historyRepo:    historyRepo,
		txManager:      txManager,
		logger:         logger,
		now:            time.Now,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// AvailableTransitions returns the transition kinds offered for a
// status/role pair
func (e *engineImpl) AvailableTransitions(status domainwf.Status, role domainwf.Role) []domainwf.Kind {
	return domainwf.AvailableTransitions(status, role)
}

// ApplyTransition validates and applies one transition on behalf of an actor
func (e *engineImpl) ApplyTransition(
	ctx context.Context,
	reportID string,
	kind domainwf.Kind,
	actorID string,
	actorRole domainwf.Role,
	payload TransitionPayload,
) (*TransitionResult, error) {
	def, err := e.table.Lookup(kind)
	if err != nil {
		return nil, invalidInputError(err, "invalid transition type %q", kind)
	}

	if !def.PermitsRole(actorRole) {
		return nil, forbiddenError(def.AllowedRoles)
	}

	if err := e.validatePayload(def, payload); err != nil {
		return nil, err
	}

	unlock := e.lockReport(reportID)
	defer unlock()

	report, err := e.reportRepo.GetByID(ctx, reportID)
	if err != nil {
		return nil, persistenceError(err, "failed to load report %s", reportID)
	}
	if report == nil {
		return nil, notFoundError("report %s not found", reportID)
	}

	if !def.PermitsSource(domainwf.Status(report.Status)) {
		return nil, invalidInputError(domainwf.ErrSourceStatusMismatch,
			"transition %s is not allowed while report is %s", kind, report.Status)
	}

	// The close-old/open-new assignment pair must be all-or-nothing
	var created, closed *entity.TaskAssignment
	err = e.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		created, closed, err = e.applyKind(txCtx, def, report, actorID, payload)
		return err
	})
	if err != nil {
		var wfErr *Error
		if errors.As(err, &wfErr) {
			return nil, wfErr
		}
		return nil, persistenceError(err, "failed to apply transition %s", kind)
	}

	// Trailing writes are best-effort: the authoritative assignment exists,
	// so failures here degrade rather than abort
	e.patchReport(ctx, def, report, payload, closed)
	e.appendHistory(ctx, def, report, actorID, payload)
	e.publishEvents(ctx, def, report, actorID, payload, closed)

	return &TransitionResult{
		Assignment: created,
		NewStatus:  def.ResultingStatus,
		Message:    def.ActionLabel,
	}, nil
}

// validatePayload checks the per-kind required payload fields
func (e *engineImpl) validatePayload(def domainwf.Definition, payload TransitionPayload) *Error {
	switch def.Kind {
	case domainwf.KindTUToCoordinator:
		if payload.CoordinatorID == "" {
			return invalidInputError(nil, "coordinator id is required for %s", def.Kind)
		}
	case domainwf.KindCoordinatorToStaff, domainwf.KindRequestRevision:
		if payload.StaffID == "" {
			return invalidInputError(nil, "staff id is required for %s", def.Kind)
		}
	}
	return nil
}

// applyKind runs the kind-specific close-old/open-new steps and returns the
// newly created assignment plus the leg it closed, if any
func (e *engineImpl) applyKind(
	ctx context.Context,
	def domainwf.Definition,
	report *entity.Report,
	actorID string,
	payload TransitionPayload,
) (created, closed *entity.TaskAssignment, err error) {
	switch def.Kind {
	case domainwf.KindTUToCoordinator:
		created, err = e.openAssignment(ctx, report.ID, payload.CoordinatorID, actorID,
			e.checklist(def.Kind, payload), entity.TaskStatusPending, e.notes(def, payload), "")
		return created, nil, err

	case domainwf.KindCoordinatorToStaff:
		closed, err = e.closeOwnAssignment(ctx, report.ID, actorID, true)
		if err != nil {
			return nil, nil, err
		}
		created, err = e.openAssignment(ctx, report.ID, payload.StaffID, actorID,
			e.checklist(def.Kind, payload), entity.TaskStatusInProgress, e.notes(def, payload), "")
		return created, closed, err

	case domainwf.KindStaffToCoordinator:
		closed, err = e.closeOwnAssignment(ctx, report.ID, actorID, false)
		if err != nil {
			return nil, nil, err
		}
		if closed == nil {
			return nil, nil, invalidInputError(nil,
				"no open assignment for actor %s on report %s", actorID, report.ID)
		}
		// The coordinator who delegated the closed leg receives the review leg
		created, err = e.openAssignment(ctx, report.ID, closed.AssignerID, actorID,
			domainwf.DefaultChecklist(def.Kind), entity.TaskStatusPending, e.notes(def, payload), "")
		return created, closed, err

	case domainwf.KindCoordinatorToTU:
		closed, err = e.closeOwnAssignment(ctx, report.ID, actorID, true)
		if err != nil {
			return nil, nil, err
		}
		created, err = e.openReceiptAssignment(ctx, report, actorID, e.notes(def, payload))
		return created, closed, err

	case domainwf.KindRequestRevision:
		// The staff leg stays open: a revision can be requested against
		// work still in progress
		created, err = e.openAssignment(ctx, report.ID, payload.StaffID, actorID,
			e.checklist(def.Kind, payload), entity.TaskStatusRevisionRequired,
			e.notes(def, payload), payload.Notes)
		return created, nil, err
	}

	return nil, nil, invalidInputError(nil, "invalid transition type %q", def.Kind)
}

// openAssignment creates a fresh leg of the custody chain
func (e *engineImpl) openAssignment(
	ctx context.Context,
	reportID, assigneeID, assignerID string,
	todoList []string,
	status, notes, revisionNotes string,
) (*entity.TaskAssignment, error) {
	assignment := &entity.TaskAssignment{
		ID:             uuid.NewString(),
		ReportID:       reportID,
		AssigneeID:     assigneeID,
		AssignerID:     assignerID,
		TodoList:       todoList,
		CompletedTasks: []string{},
		Progress:       0,
		Status:         status,
		Notes:          notes,
		RevisionNotes:  revisionNotes,
		CreatedAt:      e.now(),
		UpdatedAt:      e.now(),
	}

	if err := e.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// openReceiptAssignment creates the terminal leg of the chain for the
// report's creator, born completed because it requires no further action
func (e *engineImpl) openReceiptAssignment(
	ctx context.Context,
	report *entity.Report,
	actorID, notes string,
) (*entity.TaskAssignment, error) {
	checklist := domainwf.DefaultChecklist(domainwf.KindCoordinatorToTU)
	completedAt := e.now()

	assignment := &entity.TaskAssignment{
		ID:             uuid.NewString(),
		ReportID:       report.ID,
		AssigneeID:     report.CreatedBy,
		AssignerID:     actorID,
		TodoList:       checklist,
		CompletedTasks: checklist,
		Progress:       domainwf.Progress(checklist, checklist),
		Status:         entity.TaskStatusCompleted,
		Notes:          notes,
		CompletedAt:    &completedAt,
		CreatedAt:      completedAt,
		UpdatedAt:      completedAt,
	}

	if err := e.assignmentRepo.Create(ctx, assignment); err != nil {
		return nil, err
	}
	return assignment, nil
}

// closeOwnAssignment completes the actor's currently open leg on the
// report. With fullChecklist the whole todo list is recorded as done
// regardless of what was tracked; otherwise the tracked set is kept.
// A missing open leg is not an error for the caller to decide on.
func (e *engineImpl) closeOwnAssignment(
	ctx context.Context,
	reportID, actorID string,
	fullChecklist bool,
) (*entity.TaskAssignment, error) {
	open, err := e.assignmentRepo.GetOpenByReportAndAssignee(ctx, reportID, actorID)
	if err != nil {
		return nil, err
	}
	if open == nil {
		return nil, nil
	}

	completed := open.CompletedTasks
	if fullChecklist {
		completed = open.TodoList
	}

	if err := e.assignmentRepo.Complete(ctx, open.ID, completed); err != nil {
		return nil, err
	}

	open.Status = entity.TaskStatusCompleted
	open.Progress = 100
	open.CompletedTasks = completed
	closedAt := e.now()
	open.CompletedAt = &closedAt
	return open, nil
}

// patchReport applies the transition's report mutation. Failures are logged
// and swallowed: the assignment is the authoritative record.
func (e *engineImpl) patchReport(
	ctx context.Context,
	def domainwf.Definition,
	report *entity.Report,
	payload TransitionPayload,
	closed *entity.TaskAssignment,
) {
	status := def.ResultingStatus.String()
	patch := &entity.ReportPatch{Status: &status}

	if holder := resolveHolder(def, report, payload, closed); holder != "" {
		patch.CurrentHolder = &holder
	}

	if def.CompletesReport {
		progress := 100
		patch.Progress = &progress
	}

	if err := e.reportRepo.ApplyPatch(ctx, report.ID, patch); err != nil {
		e.logger.Error("degraded write: report patch failed",
			zap.String("report_id", report.ID),
			zap.String("transition", def.Kind.String()),
			zap.Error(err))
	}
}

// appendHistory records the audit entry for a validated transition.
// Failures are logged, never escalated.
func (e *engineImpl) appendHistory(
	ctx context.Context,
	def domainwf.Definition,
	report *entity.Report,
	actorID string,
	payload TransitionPayload,
) {
	notes := payload.Notes
	if notes == "" {
		notes = def.ActionLabel
	}

	entry := &entity.HistoryEntry{
		ID:        uuid.NewString(),
		ReportID:  report.ID,
		Action:    def.ActionLabel,
		ActorID:   actorID,
		Status:    def.ResultingStatus.String(),
		Notes:     notes,
		CreatedAt: e.now(),
	}

	if err := e.historyRepo.Create(ctx, entry); err != nil {
		e.logger.Error("degraded write: history append failed",
			zap.String("report_id", report.ID),
			zap.String("transition", def.Kind.String()),
			zap.Error(err))
	}
}

// publishEvents raises the domain events an applied transition implies.
// No dispatcher means no events; failures are the dispatcher's problem.
func (e *engineImpl) publishEvents(
	ctx context.Context,
	def domainwf.Definition,
	report *entity.Report,
	actorID string,
	payload TransitionPayload,
	closed *entity.TaskAssignment,
) {
	if e.events == nil {
		return
	}

	applied := event.NewEvent(event.TypeTransitionApplied, report.ID, actorID, map[string]interface{}{
		"transition": def.Kind.String(),
		"new_status": def.ResultingStatus.String(),
		"new_holder": resolveHolder(def, report, payload, closed),
	})
	e.events.DispatchAsync(ctx, applied)

	switch {
	case def.CompletesReport:
		e.events.DispatchAsync(ctx, event.NewEventWithCorrelation(
			event.TypeReportCompleted, report.ID, actorID, map[string]interface{}{
				"tracking_number": report.TrackingNumber,
			}, applied.CorrelationID))
	case def.Kind == domainwf.KindRequestRevision:
		e.events.DispatchAsync(ctx, event.NewEventWithCorrelation(
			event.TypeRevisionRequested, report.ID, actorID, map[string]interface{}{
				"staff_id": payload.StaffID,
				"notes":    payload.Notes,
			}, applied.CorrelationID))
	}
}

// resolveHolder determines who holds the report after the transition
func resolveHolder(
	def domainwf.Definition,
	report *entity.Report,
	payload TransitionPayload,
	closed *entity.TaskAssignment,
) string {
	switch def.Holder {
	case domainwf.HolderCoordinator:
		return payload.CoordinatorID
	case domainwf.HolderStaff:
		return payload.StaffID
	case domainwf.HolderClosedAssigner:
		if closed != nil {
			return closed.AssignerID
		}
	case domainwf.HolderCreator:
		return report.CreatedBy
	}
	return ""
}

// checklist returns the payload override or the catalog default
func (e *engineImpl) checklist(kind domainwf.Kind, payload TransitionPayload) []string {
	if len(payload.TodoList) > 0 {
		return payload.TodoList
	}
	return domainwf.DefaultChecklist(kind)
}

// notes returns the payload override or the transition's default notes
func (e *engineImpl) notes(def domainwf.Definition, payload TransitionPayload) string {
	if payload.Notes != "" {
		return payload.Notes
	}
	return def.DefaultNotes
}

// lockReport serializes mutation per report id
func (e *engineImpl) lockReport(reportID string) func() {
	v, _ := e.locks.LoadOrStore(reportID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
