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

// ProfileRepository implements port.ProfileRepository
type ProfileRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewProfileRepository creates a new profile repository
func NewProfileRepository(db *sql.DB, logger *zap.Logger) port.ProfileRepository {
	return &ProfileRepository{
		db:     db,
		logger: logger,
	}
}

// Create inserts a new profile
func (r *ProfileRepository) Create(ctx context.Context, profile *entity.Profile) error {
	query := `INSERT INTO profiles (id, name, role) VALUES (?, ?, ?)`

	_, err := sqlite.Executor(ctx, r.db).ExecContext(ctx, query,
		profile.ID, profile.Name, profile.Role)
	if err != nil {
		r.logger.Error("Failed to create profile",
			zap.String("id", profile.ID),
			zap.Error(err))
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

// GetByID retrieves a profile by actor ID. Returns nil when no row exists.
func (r *ProfileRepository) GetByID(ctx context.Context, id string) (*entity.Profile, error) {
	query := `SELECT id, name, role, created_at, updated_at FROM profiles WHERE id = ?`

	var profile entity.Profile
	var createdAt, updatedAt time.Time

	err := sqlite.Executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&profile.ID,
		&profile.Name,
		&profile.Role,
		&createdAt,
		&updatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		r.logger.Error("Failed to get profile",
			zap.String("id", id),
			zap.Error(err))
		return nil, fmt.Errorf("failed to get profile: %w", err)
	}

	profile.CreatedAt = createdAt
	profile.UpdatedAt = updatedAt
	return &profile, nil
}
