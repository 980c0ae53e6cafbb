package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/domain/entity"
	"github.com/docuflow/report-routing/internal/infrastructure/persistence/sqlite"
)

// AssignmentRepository implements port.AssignmentRepository. The checklist
// and completed set are serialized as JSON at this boundary only; the rest
// of the system works with plain slices.
type AssignmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAssignmentRepository creates a new task assignment repository
func NewAssignmentRepository(db *sql.DB, logger *zap.Logger) port.AssignmentRepository {
	return &AssignmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new task assignment
func (r *AssignmentRepository) Create(ctx context.Context, assignment *entity.TaskAssignment) error {
	query := `
		INSERT INTO task_assignments (
			id, report_id, assignee_id, assigner_id,
			todo_list, completed_tasks, progress, status,
			notes, revision_notes, completed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	todoJSON, err := marshalTasks(assignment.TodoList)
	if err != nil {
		return fmt.Errorf("failed to encode todo list: %w", err)
	}
	completedJSON, err := marshalTasks(assignment.CompletedTasks)
	if err != nil {
		return fmt.Errorf("failed to encode completed tasks: %w", err)
	}

	var notes, revisionNotes sql.NullString
	var completedAt sql.NullTime
	if assignment.Notes != "" {
		notes = sql.NullString{String: assignment.Notes, Valid: true}
	}
	if assignment.RevisionNotes != "" {
		revisionNotes = sql.NullString{String: assignment.RevisionNotes, Valid: true}
	}
	if assignment.CompletedAt != nil {
		completedAt = sql.NullTime{Time: *assignment.CompletedAt, Valid: true}
	}

	_, err = sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		assignment.ID,
		assignment.ReportID,
		assignment.AssigneeID,
		assignment.AssignerID,
		todoJSON,
		completedJSON,
		assignment.Progress,
		assignment.Status,
		notes,
		revisionNotes,
		completedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create task assignment",
			zap.String("report_id", assignment.ReportID),
			zap.String("assignee_id", assignment.AssigneeID),
			zap.Error(err))
		return fmt.Errorf("failed to create task assignment: %w", err)
	}

	return nil
}

// GetByID retrieves an assignment by its ID. Returns nil when no row exists.
func (r *AssignmentRepository) GetByID(ctx context.Context, id string) (*entity.TaskAssignment, error) {
	query := selectAssignmentColumns + ` WHERE id = ?`

	assignment, err := scanAssignment(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get task assignment",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get task assignment: %w", err)
	}

	return assignment, nil
}

// GetByReportID returns all legs for a report in creation order
func (r *AssignmentRepository) GetByReportID(ctx context.Context, reportID string) ([]*entity.TaskAssignment, error) {
	query := selectAssignmentColumns + ` WHERE report_id = ? ORDER BY created_at ASC, id ASC`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to list task assignments",
			zap.String("report_id", reportID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list task assignments: %w", err)
	}
	defer rows.Close()

	var assignments []*entity.TaskAssignment
	for rows.Next() {
		assignment, err := scanAssignment(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task assignment: %w", err)
		}
		assignments = append(assignments, assignment)
	}

	return assignments, rows.Err()
}

// GetOpenByReportAndAssignee returns the most recent non-completed
// assignment held by the assignee on the report, or nil
func (r *AssignmentRepository) GetOpenByReportAndAssignee(ctx context.Context, reportID, assigneeID string) (*entity.TaskAssignment, error) {
	query := selectAssignmentColumns + `
		WHERE report_id = ? AND assignee_id = ? AND status != ?
		ORDER BY created_at DESC, id DESC
		LIMIT 1`

	assignment, err := scanAssignment(sqlite.Executor(ctx, r.db).QueryRowContext(
		ctx, query, reportID, assigneeID, entity.TaskStatusCompleted))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get open task assignment",
			zap.String("report_id", reportID),
			zap.String("assignee_id", assigneeID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get open task assignment: %w", err)
	}

	return assignment, nil
}

// Complete marks an assignment closed with the given completed set
func (r *AssignmentRepository) Complete(ctx context.Context, id string, completedTasks []string) error {
	completedJSON, err := marshalTasks(completedTasks)
	if err != nil {
		return fmt.Errorf("failed to encode completed tasks: %w", err)
	}

	query := `
		UPDATE task_assignments
		SET status = ?, progress = 100, completed_tasks = ?,
			completed_at = CURRENT_TIMESTAMP, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		entity.TaskStatusCompleted, completedJSON, id)
	if err != nil {
		r.logger.Error("Failed to complete task assignment",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to complete task assignment: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("task assignment %s not found", id)
	}

	return nil
}

const selectAssignmentColumns = `
	SELECT id, report_id, assignee_id, assigner_id,
		todo_list, completed_tasks, progress, status,
		notes, revision_notes, completed_at, created_at, updated_at
	FROM task_assignments`

func scanAssignment(row rowScanner) (*entity.TaskAssignment, error) {
	var assignment entity.TaskAssignment
	var todoJSON, completedJSON string
	var notes, revisionNotes sql.NullString
	var completedAt sql.NullTime
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&assignment.ID,
		&assignment.ReportID,
		&assignment.AssigneeID,
		&assignment.AssignerID,
		&todoJSON,
		&completedJSON,
		&assignment.Progress,
		&assignment.Status,
		&notes,
		&revisionNotes,
		&completedAt,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal([]byte(todoJSON), &assignment.TodoList); err != nil {
		return nil, fmt.Errorf("failed to decode todo list: %w", err)
	}
	if err := json.Unmarshal([]byte(completedJSON), &assignment.CompletedTasks); err != nil {
		return nil, fmt.Errorf("failed to decode completed tasks: %w", err)
	}

	assignment.Notes = notes.String
	assignment.RevisionNotes = revisionNotes.String
	if completedAt.Valid {
		assignment.CompletedAt = &completedAt.Time
	}
	assignment.CreatedAt = createdAt
	assignment.UpdatedAt = updatedAt

	return &assignment, nil
}

// marshalTasks keeps nil slices stored as empty JSON arrays
func marshalTasks(tasks []string) (string, error) {
	if tasks == nil {
		tasks = []string{}
	}
	data, err := json.Marshal(tasks)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
