package workflow

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/dispatcher"
	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/domain/entity"
	"github.com/docuflow/report-routing/internal/domain/event"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// mockReportRepo keeps a single report in memory and records patches
type mockReportRepo struct {
	report   *entity.Report
	patches  []*entity.ReportPatch
	getErr   error
	patchErr error
}

func (m *mockReportRepo) Create(ctx context.Context, report *entity.Report) error {
	m.report = report
	return nil
}

func (m *mockReportRepo) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	if m.report == nil || m.report.ID != id {
		return nil, nil
	}
	return m.report, nil
}

func (m *mockReportRepo) List(ctx context.Context, limit, offset int) ([]*entity.Report, error) {
	return nil, nil
}

func (m *mockReportRepo) ApplyPatch(ctx context.Context, id string, patch *entity.ReportPatch) error {
	if m.patchErr != nil {
		return m.patchErr
	}
	m.patches = append(m.patches, patch)
	if patch.Status != nil {
		m.report.Status = *patch.Status
	}
	if patch.CurrentHolder != nil {
		m.report.CurrentHolder = *patch.CurrentHolder
	}
	if patch.Progress != nil {
		m.report.Progress = *patch.Progress
	}
	return nil
}

// mockAssignmentRepo stores assignments in insertion order
type mockAssignmentRepo struct {
	assignments []*entity.TaskAssignment
	createErr   error
	completeErr error
}

func (m *mockAssignmentRepo) Create(ctx context.Context, assignment *entity.TaskAssignment) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.assignments = append(m.assignments, assignment)
	return nil
}

func (m *mockAssignmentRepo) GetByID(ctx context.Context, id string) (*entity.TaskAssignment, error) {
	for _, a := range m.assignments {
		if a.ID == id {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) GetByReportID(ctx context.Context, reportID string) ([]*entity.TaskAssignment, error) {
	var out []*entity.TaskAssignment
	for _, a := range m.assignments {
		if a.ReportID == reportID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *mockAssignmentRepo) GetOpenByReportAndAssignee(ctx context.Context, reportID, assigneeID string) (*entity.TaskAssignment, error) {
	for i := len(m.assignments) - 1; i >= 0; i-- {
		a := m.assignments[i]
		if a.ReportID == reportID && a.AssigneeID == assigneeID && a.Status != entity.TaskStatusCompleted {
			return a, nil
		}
	}
	return nil, nil
}

func (m *mockAssignmentRepo) Complete(ctx context.Context, id string, completedTasks []string) error {
	if m.completeErr != nil {
		return m.completeErr
	}
	for _, a := range m.assignments {
		if a.ID == id {
			a.Status = entity.TaskStatusCompleted
			a.Progress = 100
			a.CompletedTasks = completedTasks
			now := time.Now()
			a.CompletedAt = &now
			return nil
		}
	}
	return fmt.Errorf("assignment %s not found", id)
}

func (m *mockAssignmentRepo) open() []*entity.TaskAssignment {
	var out []*entity.TaskAssignment
	for _, a := range m.assignments {
		if a.Status != entity.TaskStatusCompleted {
			out = append(out, a)
		}
	}
	return out
}

// mockHistoryRepo records audit entries
type mockHistoryRepo struct {
	entries   []*entity.HistoryEntry
	createErr error
}

func (m *mockHistoryRepo) Create(ctx context.Context, entry *entity.HistoryEntry) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockHistoryRepo) GetByReportID(ctx context.Context, reportID string) ([]*entity.HistoryEntry, error) {
	return m.entries, nil
}

// mockTxManager runs the function inline
type mockTxManager struct {
	calls int
}

func (m *mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	m.calls++
	return fn(ctx)
}

type engineFixture struct {
	engine      Engine
	reportRepo  *mockReportRepo
	assignments *mockAssignmentRepo
	history     *mockHistoryRepo
	tx          *mockTxManager
}

func newEngineFixture(status domainwf.Status) *engineFixture {
	f := &engineFixture{
		reportRepo: &mockReportRepo{
			report: &entity.Report{
				ID:            "rep-1",
				Subject:       "Quarterly audit letter",
				Status:        status.String(),
				Priority:      entity.PriorityMedium,
				CurrentHolder: "tu-1",
				CreatedBy:     "tu-1",
			},
		},
		assignments: &mockAssignmentRepo{},
		history:     &mockHistoryRepo{},
		tx:          &mockTxManager{},
	}
	f.engine = NewEngine(domainwf.NewTable(), f.reportRepo, f.assignments,
		f.history, f.tx, zap.NewNop())
	return f
}

func TestApplyTransitionForbiddenRole(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)

	result, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindTUToCoordinator, "staff-1", domainwf.RoleStaff,
		TransitionPayload{CoordinatorID: "coord-1"})

	require.Error(t, err)
	assert.Nil(t, result)
	assert.Equal(t, ErrorForbidden, KindOf(err))
	assert.Contains(t, err.Error(), "TU")
	assert.Contains(t, err.Error(), "Admin")

	// A rejected transition must leave no trace
	assert.Empty(t, f.assignments.assignments)
	assert.Empty(t, f.history.entries)
	assert.Empty(t, f.reportRepo.patches)
}

func TestApplyTransitionUnknownKind(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)

	_, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.Kind("escalate"), "tu-1", domainwf.RoleTU, TransitionPayload{})

	require.Error(t, err)
	assert.Equal(t, ErrorInvalidInput, KindOf(err))
	assert.ErrorIs(t, err, domainwf.ErrUnknownTransition)
}

func TestApplyTransitionMissingPayloadFields(t *testing.T) {
	tests := []struct {
		name  string
		kind  domainwf.Kind
		role  domainwf.Role
		state domainwf.Status
	}{
		{"forward without coordinator", domainwf.KindTUToCoordinator, domainwf.RoleTU, domainwf.StatusDraft},
		{"assign without staff", domainwf.KindCoordinatorToStaff, domainwf.RoleCoordinator, domainwf.StatusPendingReview},
		{"revise without staff", domainwf.KindRequestRevision, domainwf.RoleCoordinator, domainwf.StatusInProgress},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newEngineFixture(tt.state)
			_, err := f.engine.ApplyTransition(context.Background(), "rep-1",
				tt.kind, "actor-1", tt.role, TransitionPayload{})
			require.Error(t, err)
			assert.Equal(t, ErrorInvalidInput, KindOf(err))
			assert.Empty(t, f.assignments.assignments)
		})
	}
}

func TestApplyTransitionReportNotFound(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)

	_, err := f.engine.ApplyTransition(context.Background(), "rep-missing",
		domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
		TransitionPayload{CoordinatorID: "coord-1"})

	require.Error(t, err)
	assert.Equal(t, ErrorNotFound, KindOf(err))
}

func TestApplyTransitionSourceStatusMismatch(t *testing.T) {
	f := newEngineFixture(domainwf.StatusCompleted)

	_, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
		TransitionPayload{CoordinatorID: "coord-1"})

	require.Error(t, err)
	assert.Equal(t, ErrorInvalidInput, KindOf(err))
	assert.ErrorIs(t, err, domainwf.ErrSourceStatusMismatch)
	assert.Empty(t, f.assignments.assignments)
	assert.Empty(t, f.reportRepo.patches)
}

func TestApplyTransitionTUToCoordinator(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)

	result, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
		TransitionPayload{CoordinatorID: "coord-1"})

	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Equal(t, domainwf.StatusPendingReview, result.NewStatus)

	assignment := result.Assignment
	assert.Equal(t, "coord-1", assignment.AssigneeID)
	assert.Equal(t, "tu-1", assignment.AssignerID)
	assert.Equal(t, entity.TaskStatusPending, assignment.Status)
	assert.NotEmpty(t, assignment.TodoList)
	assert.Empty(t, assignment.CompletedTasks)
	assert.Equal(t, 0, assignment.Progress)

	assert.Equal(t, domainwf.StatusPendingReview.String(), f.reportRepo.report.Status)
	assert.Equal(t, "coord-1", f.reportRepo.report.CurrentHolder)

	require.Len(t, f.history.entries, 1)
	assert.Equal(t, "tu-1", f.history.entries[0].ActorID)
	assert.Equal(t, 1, f.tx.calls)
}

func TestApplyTransitionCoordinatorToStaff(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)
	ctx := context.Background()

	_, err := f.engine.ApplyTransition(ctx, "rep-1",
		domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
		TransitionPayload{CoordinatorID: "coord-1"})
	require.NoError(t, err)

	result, err := f.engine.ApplyTransition(ctx, "rep-1",
		domainwf.KindCoordinatorToStaff, "coord-1", domainwf.RoleCoordinator,
		TransitionPayload{StaffID: "staff-1", TodoList: []string{"verify", "summarize"}})
	require.NoError(t, err)

	// The coordinator's review leg is closed with its full checklist
	require.Len(t, f.assignments.assignments, 2)
	coordLeg := f.assignments.assignments[0]
	assert.Equal(t, entity.TaskStatusCompleted, coordLeg.Status)
	assert.Equal(t, 100, coordLeg.Progress)
	assert.Equal(t, coordLeg.TodoList, coordLeg.CompletedTasks)
	assert.NotNil(t, coordLeg.CompletedAt)

	staffLeg := result.Assignment
	assert.Equal(t, "staff-1", staffLeg.AssigneeID)
	assert.Equal(t, "coord-1", staffLeg.AssignerID)
	assert.Equal(t, entity.TaskStatusInProgress, staffLeg.Status)
	assert.Equal(t, []string{"verify", "summarize"}, staffLeg.TodoList)

	assert.Equal(t, domainwf.StatusInProgress.String(), f.reportRepo.report.Status)
	assert.Equal(t, "staff-1", f.reportRepo.report.CurrentHolder)
}

func TestApplyTransitionStaffToCoordinatorNoOpenLeg(t *testing.T) {
	f := newEngineFixture(domainwf.StatusInProgress)

	_, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindStaffToCoordinator, "staff-1", domainwf.RoleStaff,
		TransitionPayload{})

	require.Error(t, err)
	assert.Equal(t, ErrorInvalidInput, KindOf(err))
	assert.Empty(t, f.assignments.assignments)
	assert.Empty(t, f.reportRepo.patches)
	assert.Empty(t, f.history.entries)
}

func TestApplyTransitionStaffToCoordinator(t *testing.T) {
	f := newEngineFixture(domainwf.StatusInProgress)
	ctx := context.Background()

	f.assignments.assignments = append(f.assignments.assignments, &entity.TaskAssignment{
		ID:             "as-1",
		ReportID:       "rep-1",
		AssigneeID:     "staff-1",
		AssignerID:     "coord-1",
		TodoList:       []string{"verify", "summarize", "file"},
		CompletedTasks: []string{"verify", "summarize"},
		Status:         entity.TaskStatusInProgress,
	})

	result, err := f.engine.ApplyTransition(ctx, "rep-1",
		domainwf.KindStaffToCoordinator, "staff-1", domainwf.RoleStaff,
		TransitionPayload{Notes: "done, one item pending guidance"})
	require.NoError(t, err)

	// The staff leg closes with only the tracked items, not the full list
	staffLeg, _ := f.assignments.GetByID(ctx, "as-1")
	assert.Equal(t, entity.TaskStatusCompleted, staffLeg.Status)
	assert.Equal(t, []string{"verify", "summarize"}, staffLeg.CompletedTasks)

	// The review leg goes back to whoever delegated the closed leg
	reviewLeg := result.Assignment
	assert.Equal(t, "coord-1", reviewLeg.AssigneeID)
	assert.Equal(t, "staff-1", reviewLeg.AssignerID)
	assert.Equal(t, entity.TaskStatusPending, reviewLeg.Status)

	assert.Equal(t, domainwf.StatusPendingReview.String(), f.reportRepo.report.Status)
	assert.Equal(t, "coord-1", f.reportRepo.report.CurrentHolder)
}

func TestApplyTransitionCoordinatorToTU(t *testing.T) {
	f := newEngineFixture(domainwf.StatusPendingReview)
	ctx := context.Background()

	f.assignments.assignments = append(f.assignments.assignments, &entity.TaskAssignment{
		ID:         "as-review",
		ReportID:   "rep-1",
		AssigneeID: "coord-1",
		AssignerID: "staff-1",
		TodoList:   []string{"review", "archive"},
		Status:     entity.TaskStatusPending,
	})

	result, err := f.engine.ApplyTransition(ctx, "rep-1",
		domainwf.KindCoordinatorToTU, "coord-1", domainwf.RoleCoordinator,
		TransitionPayload{})
	require.NoError(t, err)
	assert.Equal(t, domainwf.StatusCompleted, result.NewStatus)

	// The receipt leg is born completed for the report's creator
	receipt := result.Assignment
	assert.Equal(t, "tu-1", receipt.AssigneeID)
	assert.Equal(t, "coord-1", receipt.AssignerID)
	assert.Equal(t, entity.TaskStatusCompleted, receipt.Status)
	assert.Equal(t, 100, receipt.Progress)
	assert.Equal(t, receipt.TodoList, receipt.CompletedTasks)
	require.NotNil(t, receipt.CompletedAt)

	assert.Equal(t, domainwf.StatusCompleted.String(), f.reportRepo.report.Status)
	assert.Equal(t, "tu-1", f.reportRepo.report.CurrentHolder)
	assert.Equal(t, 100, f.reportRepo.report.Progress)
	assert.Empty(t, f.assignments.open())
}

func TestApplyTransitionRequestRevisionLeavesStaffLegOpen(t *testing.T) {
	f := newEngineFixture(domainwf.StatusInProgress)
	ctx := context.Background()

	f.assignments.assignments = append(f.assignments.assignments, &entity.TaskAssignment{
		ID:         "as-staff",
		ReportID:   "rep-1",
		AssigneeID: "staff-1",
		AssignerID: "coord-1",
		TodoList:   []string{"verify"},
		Status:     entity.TaskStatusInProgress,
	})

	result, err := f.engine.ApplyTransition(ctx, "rep-1",
		domainwf.KindRequestRevision, "coord-1", domainwf.RoleCoordinator,
		TransitionPayload{StaffID: "staff-1", Notes: "totals do not reconcile"})
	require.NoError(t, err)

	// Revision opens a new leg without closing anything
	original, _ := f.assignments.GetByID(ctx, "as-staff")
	assert.Equal(t, entity.TaskStatusInProgress, original.Status)

	revision := result.Assignment
	assert.Equal(t, entity.TaskStatusRevisionRequired, revision.Status)
	assert.Equal(t, "totals do not reconcile", revision.RevisionNotes)
	assert.Equal(t, domainwf.StatusRevisionRequired.String(), f.reportRepo.report.Status)
	assert.Equal(t, "staff-1", f.reportRepo.report.CurrentHolder)
}

func TestApplyTransitionPersistenceFailureAborts(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)
	f.assignments.createErr = errors.New("disk full")

	_, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
		TransitionPayload{CoordinatorID: "coord-1"})

	require.Error(t, err)
	assert.Equal(t, ErrorPersistenceFailure, KindOf(err))

	// A fatal write aborts before any report or history mutation
	assert.Empty(t, f.reportRepo.patches)
	assert.Empty(t, f.history.entries)
	assert.Equal(t, domainwf.StatusDraft.String(), f.reportRepo.report.Status)
}

func TestApplyTransitionDegradedWriteStillSucceeds(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)
	f.reportRepo.patchErr = errors.New("lock timeout")
	f.history.createErr = errors.New("lock timeout")

	result, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
		TransitionPayload{CoordinatorID: "coord-1"})

	// The assignment is authoritative; trailing write failures degrade only
	require.NoError(t, err)
	require.NotNil(t, result.Assignment)
	assert.Len(t, f.assignments.assignments, 1)
}

func TestApplyTransitionFullChain(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)
	ctx := context.Background()

	steps := []struct {
		kind    domainwf.Kind
		actorID string
		role    domainwf.Role
		payload TransitionPayload
		status  domainwf.Status
		holder  string
	}{
		{domainwf.KindTUToCoordinator, "tu-1", domainwf.RoleTU,
			TransitionPayload{CoordinatorID: "coord-1"}, domainwf.StatusPendingReview, "coord-1"},
		{domainwf.KindCoordinatorToStaff, "coord-1", domainwf.RoleCoordinator,
			TransitionPayload{StaffID: "staff-1"}, domainwf.StatusInProgress, "staff-1"},
		{domainwf.KindStaffToCoordinator, "staff-1", domainwf.RoleStaff,
			TransitionPayload{}, domainwf.StatusPendingReview, "coord-1"},
		{domainwf.KindCoordinatorToTU, "coord-1", domainwf.RoleCoordinator,
			TransitionPayload{}, domainwf.StatusCompleted, "tu-1"},
	}

	for _, step := range steps {
		result, err := f.engine.ApplyTransition(ctx, "rep-1",
			step.kind, step.actorID, step.role, step.payload)
		require.NoError(t, err, "transition %s", step.kind)
		assert.Equal(t, step.status, result.NewStatus)
		assert.Equal(t, step.status.String(), f.reportRepo.report.Status)
		assert.Equal(t, step.holder, f.reportRepo.report.CurrentHolder)
	}

	// Four transitions, four audit entries, zero open legs
	assert.Len(t, f.history.entries, 4)
	assert.Empty(t, f.assignments.open())
	assert.True(t, domainwf.Status(f.reportRepo.report.Status).IsTerminal())
}

// recordingDispatcher captures dispatched events
type recordingDispatcher struct {
	events []*event.Event
}

func (r *recordingDispatcher) Subscribe(eventType event.Type, handler dispatcher.Handler) {}
func (r *recordingDispatcher) SubscribeNamed(eventType event.Type, name string, handler dispatcher.Handler) {
}
func (r *recordingDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	r.events = append(r.events, evt)
	return nil
}
func (r *recordingDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	r.events = append(r.events, evt)
}
func (r *recordingDispatcher) Close() error { return nil }

func TestApplyTransitionPublishesEvents(t *testing.T) {
	f := newEngineFixture(domainwf.StatusPendingReview)
	events := &recordingDispatcher{}
	f.engine = NewEngine(domainwf.NewTable(), f.reportRepo, f.assignments,
		f.history, f.tx, zap.NewNop(), WithEvents(events))

	_, err := f.engine.ApplyTransition(context.Background(), "rep-1",
		domainwf.KindCoordinatorToTU, "coord-1", domainwf.RoleCoordinator,
		TransitionPayload{})
	require.NoError(t, err)

	require.Len(t, events.events, 2)
	assert.Equal(t, event.TypeTransitionApplied, events.events[0].Type)
	assert.Equal(t, "tu-1", events.events[0].GetPayloadString("new_holder"))
	assert.Equal(t, event.TypeReportCompleted, events.events[1].Type)
	assert.Equal(t, events.events[0].CorrelationID, events.events[1].CorrelationID)
}

func TestAvailableTransitionsDelegates(t *testing.T) {
	f := newEngineFixture(domainwf.StatusDraft)

	kinds := f.engine.AvailableTransitions(domainwf.StatusPendingReview, domainwf.RoleCoordinator)
	assert.Equal(t, []domainwf.Kind{domainwf.KindCoordinatorToStaff, domainwf.KindCoordinatorToTU}, kinds)
}

var _ port.ReportRepository = (*mockReportRepo)(nil)
var _ port.AssignmentRepository = (*mockAssignmentRepo)(nil)
var _ port.HistoryRepository = (*mockHistoryRepo)(nil)
var _ port.TransactionManager = (*mockTxManager)(nil)
