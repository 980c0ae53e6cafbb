package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/domain/entity"
	"github.com/docuflow/report-routing/internal/infrastructure/persistence/sqlite"
)

// ReportRepository implements port.ReportRepository
type ReportRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewReportRepository creates a new report repository
func NewReportRepository(db *sql.DB, logger *zap.Logger) port.ReportRepository {
	return &ReportRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new report
func (r *ReportRepository) Create(ctx context.Context, report *entity.Report) error {
	query := `
		INSERT INTO reports (
			id, tracking_number, letter_number, subject, sender, service,
			agenda_number, letter_date, agenda_date,
			status, priority, progress, current_holder, created_by
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	var service, agendaNumber, currentHolder sql.NullString
	var letterDate, agendaDate sql.NullTime

	if report.Service != "" {
		service = sql.NullString{String: report.Service, Valid: true}
	}
	if report.AgendaNumber != "" {
		agendaNumber = sql.NullString{String: report.AgendaNumber, Valid: true}
	}
	if report.CurrentHolder != "" {
		currentHolder = sql.NullString{String: report.CurrentHolder, Valid: true}
	}
	if report.LetterDate != nil {
		letterDate = sql.NullTime{Time: *report.LetterDate, Valid: true}
	}
	if report.AgendaDate != nil {
		agendaDate = sql.NullTime{Time: *report.AgendaDate, Valid: true}
	}

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		report.ID,
		report.TrackingNumber,
		report.LetterNumber,
		report.Subject,
		report.Sender,
		service,
		agendaNumber,
		letterDate,
		agendaDate,
		report.Status,
		report.Priority,
		report.Progress,
		currentHolder,
		report.CreatedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create report",
			zap.String("id", report.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create report: %w", err)
	}

	return nil
}

// GetByID retrieves a report by its ID. Returns nil when no row exists.
func (r *ReportRepository) GetByID(ctx context.Context, id string) (*entity.Report, error) {
	query := selectReportColumns + ` WHERE id = ?`

	report, err := scanReport(sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get report by ID",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get report: %w", err)
	}

	return report, nil
}

// List returns reports ordered by creation time, newest first
func (r *ReportRepository) List(ctx context.Context, limit, offset int) ([]*entity.Report, error) {
	query := selectReportColumns + ` ORDER BY created_at DESC LIMIT ? OFFSET ?`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error("Failed to list reports", zap.Error(err))
		return nil, fmt.Errorf("failed to list reports: %w", err)
	}
	defer rows.Close()

	var reports []*entity.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan report: %w", err)
		}
		reports = append(reports, report)
	}

	return reports, rows.Err()
}

// ApplyPatch updates only the fields set on the patch
func (r *ReportRepository) ApplyPatch(ctx context.Context, id string, patch *entity.ReportPatch) error {
	sets := "updated_at = CURRENT_TIMESTAMP"
	args := []interface{}{}

	if patch.Status != nil {
		sets += ", status = ?"
		args = append(args, *patch.Status)
	}
	if patch.CurrentHolder != nil {
		sets += ", current_holder = ?"
		args = append(args, *patch.CurrentHolder)
	}
	if patch.Progress != nil {
		sets += ", progress = ?"
		args = append(args, *patch.Progress)
	}

	args = append(args, id)
	query := "UPDATE reports SET " + sets + " WHERE id = ?"

	result, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to patch report",
			zap.String("id", id),
			zap.Error(err))
		return fmt.Errorf("failed to patch report: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("report %s not found", id)
	}

	return nil
}

const selectReportColumns = `
	SELECT id, tracking_number, letter_number, subject, sender, service,
		agenda_number, letter_date, agenda_date,
		status, priority, progress, current_holder, created_by,
		created_at, updated_at
	FROM reports`

// rowScanner covers *sql.Row and *sql.Rows
type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*entity.Report, error) {
	var report entity.Report
	var service, agendaNumber, currentHolder sql.NullString
	var letterDate, agendaDate sql.NullTime
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&report.ID,
		&report.TrackingNumber,
		&report.LetterNumber,
		&report.Subject,
		&report.Sender,
		&service,
		&agendaNumber,
		&letterDate,
		&agendaDate,
		&report.Status,
		&report.Priority,
		&report.Progress,
		&currentHolder,
		&report.CreatedBy,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return nil, err
	}

	report.Service = service.String
	report.AgendaNumber = agendaNumber.String
	report.CurrentHolder = currentHolder.String
	if letterDate.Valid {
		report.LetterDate = &letterDate.Time
	}
	if agendaDate.Valid {
		report.AgendaDate = &agendaDate.Time
	}
	report.CreatedAt = createdAt
	report.UpdatedAt = updatedAt

	return &report, nil
}
