package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
	appwf "github.com/docuflow/report-routing/internal/application/workflow"
	"github.com/docuflow/report-routing/internal/domain/entity"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// AttachmentInput is uploaded-file metadata attached at report creation
type AttachmentInput struct {
	FileName string
	FileURL  string
	Size     int64
}

// CreateReportInput carries the fields of a new report
type CreateReportInput struct {
	LetterNumber string
	Subject      string
	Sender       string
	Service      string
	AgendaNumber string
	LetterDate   *time.Time
	AgendaDate   *time.Time
	Priority     string
	Attachments  []AttachmentInput
}

// ReportDetail bundles a report with its audit trail, legs and attachments
type ReportDetail struct {
	Report      *entity.Report           `json:"report"`
	History     []*entity.HistoryEntry   `json:"history"`
	Assignments []*entity.TaskAssignment `json:"assignments"`
	Attachments []*entity.FileAttachment `json:"attachments"`
}

// ReportService handles report intake and retrieval around the workflow
// engine. Creation is the only place a report enters the system; from then
// on only the engine mutates it.
type ReportService interface {
	Create(ctx context.Context, actor *port.Actor, input CreateReportInput) (*entity.Report, error)
	List(ctx context.Context, limit, offset int) ([]*entity.Report, error)
	Get(ctx context.Context, id string) (*ReportDetail, error)
}

type reportService struct {
	reportRepo     port.ReportRepository
	assignmentRepo port.AssignmentRepository
	historyRepo    port.HistoryRepository
	attachmentRepo port.AttachmentRepository
	txManager      port.TransactionManager
	logger         *zap.Logger
}

// NewReportService creates a new report service
func NewReportService(
	reportRepo port.ReportRepository,
	assignmentRepo port.AssignmentRepository,
	historyRepo port.HistoryRepository,
	attachmentRepo port.AttachmentRepository,
	txManager port.TransactionManager,
	logger *zap.Logger,
) ReportService {
	return &reportService{
		reportRepo:     reportRepo,
		assignmentRepo: assignmentRepo,
		historyRepo:    historyRepo,
		attachmentRepo: attachmentRepo,
		txManager:      txManager,
		logger:         logger,
	}
}

// reportIntakeRoles may register new reports
var reportIntakeRoles = []domainwf.Role{domainwf.RoleTU, domainwf.RoleAdmin, domainwf.RoleCoordinator}

// Create registers a new report in draft status with the creator as holder
func (s *reportService) Create(ctx context.Context, actor *port.Actor, input CreateReportInput) (*entity.Report, error) {
	if !domainwf.Role(actor.Role).In(reportIntakeRoles) {
		return nil, appwf.NewError(appwf.ErrorForbidden,
			"only TU, Admin, Coordinator can create reports")
	}
	if input.Subject == "" {
		return nil, appwf.NewError(appwf.ErrorInvalidInput, "subject is required")
	}

	priority := input.Priority
	switch priority {
	case entity.PriorityLow, entity.PriorityMedium, entity.PriorityHigh:
	default:
		priority = entity.PriorityMedium
	}

	id := uuid.NewString()
	report := &entity.Report{
		ID:             id,
		TrackingNumber: trackingNumber(id),
		LetterNumber:   input.LetterNumber,
		Subject:        input.Subject,
		Sender:         input.Sender,
		Service:        input.Service,
		AgendaNumber:   input.AgendaNumber,
		LetterDate:     input.LetterDate,
		AgendaDate:     input.AgendaDate,
		Status:         domainwf.StatusDraft.String(),
		Priority:       priority,
		Progress:       0,
		CurrentHolder:  actor.ID,
		CreatedBy:      actor.ID,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	err := s.txManager.WithTransaction(ctx, func(txCtx context.Context) error {
		if err := s.reportRepo.Create(txCtx, report); err != nil {
			return err
		}

		for _, att := range input.Attachments {
			attachment := &entity.FileAttachment{
				ID:         uuid.NewString(),
				ReportID:   report.ID,
				FileName:   att.FileName,
				FileURL:    att.FileURL,
				FileType:   entity.FileTypeOriginal,
				FileSize:   att.Size,
				UploadedBy: actor.ID,
			}
			if err := s.attachmentRepo.Create(txCtx, attachment); err != nil {
				return err
			}
		}

		entry := &entity.HistoryEntry{
			ID:       uuid.NewString(),
			ReportID: report.ID,
			Action:   "Report created",
			ActorID:  actor.ID,
			Status:   report.Status,
			Notes:    "New report registered by " + actor.Role,
		}
		return s.historyRepo.Create(txCtx, entry)
	})
	if err != nil {
		s.logger.Error("Failed to create report",
			zap.String("actor_id", actor.ID),
			zap.Error(err))
		return nil, appwf.NewError(appwf.ErrorPersistenceFailure, "failed to create report")
	}

	s.logger.Info("Report created",
		zap.String("report_id", report.ID),
		zap.String("tracking_number", report.TrackingNumber),
		zap.String("created_by", actor.ID))

	return report, nil
}

// List returns reports newest first
func (s *reportService) List(ctx context.Context, limit, offset int) ([]*entity.Report, error) {
	return s.reportRepo.List(ctx, limit, offset)
}

// Get returns a report with its history, assignments and attachments
func (s *reportService) Get(ctx context.Context, id string) (*ReportDetail, error) {
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report == nil {
		return nil, appwf.NewError(appwf.ErrorNotFound, "report %s not found", id)
	}

	history, err := s.historyRepo.GetByReportID(ctx, id)
	if err != nil {
		return nil, err
	}
	assignments, err := s.assignmentRepo.GetByReportID(ctx, id)
	if err != nil {
		return nil, err
	}
	attachments, err := s.attachmentRepo.GetByReportID(ctx, id)
	if err != nil {
		return nil, err
	}

	return &ReportDetail{
		Report:      report,
		History:     history,
		Assignments: assignments,
		Attachments: attachments,
	}, nil
}

// trackingNumber derives the human-facing reference from the report id
func trackingNumber(id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "TRK-" + strings.ToUpper(short)
}
