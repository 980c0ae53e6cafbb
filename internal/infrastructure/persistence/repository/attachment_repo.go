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

// AttachmentRepository implements port.AttachmentRepository
type AttachmentRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewAttachmentRepository creates a new file attachment repository
func NewAttachmentRepository(db *sql.DB, logger *zap.Logger) port.AttachmentRepository {
	return &AttachmentRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts attachment metadata for a report
func (r *AttachmentRepository) Create(ctx context.Context, attachment *entity.FileAttachment) error {
	query := `
		INSERT INTO file_attachments (
			id, report_id, file_name, file_url, file_type, file_size, uploaded_by
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	var fileSize sql.NullInt64
	if attachment.FileSize > 0 {
		fileSize = sql.NullInt64{Int64: attachment.FileSize, Valid: true}
	}

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		attachment.ID,
		attachment.ReportID,
		attachment.FileName,
		attachment.FileURL,
		attachment.FileType,
		fileSize,
		attachment.UploadedBy,
	)
	if err != nil {
		r.logger.Error("Failed to create file attachment",
			zap.String("report_id", attachment.ReportID),
			zap.String("file_name", attachment.FileName),
			zap.Error(err))
		return fmt.Errorf("failed to create file attachment: %w", err)
	}

	return nil
}

// GetByReportID returns a report's attachments in upload order
func (r *AttachmentRepository) GetByReportID(ctx context.Context, reportID string) ([]*entity.FileAttachment, error) {
	query := `
		SELECT id, report_id, file_name, file_url, file_type, file_size, uploaded_by, created_at
		FROM file_attachments
		WHERE report_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to list file attachments",
			zap.String("report_id", reportID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list file attachments: %w", err)
	}
	defer rows.Close()

	var attachments []*entity.FileAttachment
	for rows.Next() {
		var attachment entity.FileAttachment
		var fileSize sql.NullInt64
		var createdAt time.Time

		if err := rows.Scan(
			&attachment.ID,
			&attachment.ReportID,
			&attachment.FileName,
			&attachment.FileURL,
			&attachment.FileType,
			&fileSize,
			&attachment.UploadedBy,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan file attachment: %w", err)
		}

		attachment.FileSize = fileSize.Int64
		attachment.CreatedAt = createdAt
		attachments = append(attachments, &attachment)
	}

	return attachments, rows.Err()
}
