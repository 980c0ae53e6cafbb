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

// HistoryRepository implements port.HistoryRepository
type HistoryRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewHistoryRepository creates a new workflow history repository
func NewHistoryRepository(db *sql.DB, logger *zap.Logger) port.HistoryRepository {
	return &HistoryRepository{
		db:     db,
		logger: logger,
	}
}

// Create appends a history entry
func (r *HistoryRepository) Create(ctx context.Context, entry *entity.HistoryEntry) error {
	query := `
		INSERT INTO workflow_history (id, report_id, action, actor_id, status, notes)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	var notes sql.NullString
	if entry.Notes != "" {
		notes = sql.NullString{String: entry.Notes, Valid: true}
	}

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		entry.ID,
		entry.ReportID,
		entry.Action,
		entry.ActorID,
		entry.Status,
		notes,
	)
	if err != nil {
		r.logger.Error("Failed to create history entry",
			zap.String("report_id", entry.ReportID),
			zap.String("action", entry.Action),
			zap.Error(err))
		return fmt.Errorf("failed to create history entry: %w", err)
	}

	return nil
}

// GetByReportID returns a report's audit trail in append order
func (r *HistoryRepository) GetByReportID(ctx context.Context, reportID string) ([]*entity.HistoryEntry, error) {
	query := `
		SELECT id, report_id, action, actor_id, status, notes, created_at
		FROM workflow_history
		WHERE report_id = ?
		ORDER BY created_at ASC, id ASC
	`

	rows, err := sqlite.Executor(ctx, r.db).QueryContext(ctx, query, reportID)
	if err != nil {
		r.logger.Error("Failed to list history entries",
			zap.String("report_id", reportID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to list history entries: %w", err)
	}
	defer rows.Close()

	var entries []*entity.HistoryEntry
	for rows.Next() {
		var entry entity.HistoryEntry
		var notes sql.NullString
		var createdAt time.Time

		if err := rows.Scan(
			&entry.ID,
			&entry.ReportID,
			&entry.Action,
			&entry.ActorID,
			&entry.Status,
			&notes,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}

		entry.Notes = notes.String
		entry.CreatedAt = createdAt
		entries = append(entries, &entry)
	}

	return entries, rows.Err()
}
