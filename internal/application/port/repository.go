package port

import (
	"context"

	"github.com/docuflow/report-routing/internal/domain/entity"
)

// ReportRepository defines persistence operations for Report
type ReportRepository interface {
	Create(ctx context.Context, report *entity.Report) error
	GetByID(ctx context.Context, id string) (*entity.Report, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Report, error)

	// ApplyPatch updates only the fields set on the patch
	ApplyPatch(ctx context.Context, id string, patch *entity.ReportPatch) error
}

// AssignmentRepository defines persistence operations for TaskAssignment
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *entity.TaskAssignment) error
	GetByID(ctx context.Context, id string) (*entity.TaskAssignment, error)
	GetByReportID(ctx context.Context, reportID string) ([]*entity.TaskAssignment, error)

	// GetOpenByReportAndAssignee returns the most recent non-completed
	// assignment held by the assignee on the report, or nil
	GetOpenByReportAndAssignee(ctx context.Context, reportID, assigneeID string) (*entity.TaskAssignment, error)

	// Complete marks an assignment closed: status completed, progress 100,
	// the given completed set, and a completion timestamp
	Complete(ctx context.Context, id string, completedTasks []string) error
}

// HistoryRepository defines persistence operations for HistoryEntry
type HistoryRepository interface {
	Create(ctx context.Context, entry *entity.HistoryEntry) error
	GetByReportID(ctx context.Context, reportID string) ([]*entity.HistoryEntry, error)
}

// ProfileRepository defines persistence operations for Profile
type ProfileRepository interface {
	Create(ctx context.Context, profile *entity.Profile) error
	GetByID(ctx context.Context, id string) (*entity.Profile, error)
}

// AttachmentRepository defines persistence operations for FileAttachment
type AttachmentRepository interface {
	Create(ctx context.Context, attachment *entity.FileAttachment) error
	GetByReportID(ctx context.Context, reportID string) ([]*entity.FileAttachment, error)
}

// TransactionManager handles database transactions
type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
