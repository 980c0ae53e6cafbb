package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/docuflow/report-routing/internal/application/port"
	"github.com/docuflow/report-routing/internal/domain/entity"
	domainwf "github.com/docuflow/report-routing/internal/domain/workflow"
)

// ErrNoIdentity is returned when a credential carries no resolvable actor
var ErrNoIdentity = errors.New("no resolvable identity")

// Service implements port.IdentityService over the profile repository.
// The bearer token is the upstream-issued actor id; session mechanics live
// outside this system.
type Service struct {
	profiles port.ProfileRepository
	logger   *zap.Logger
}

// NewService creates a new identity service
func NewService(profiles port.ProfileRepository, logger *zap.Logger) *Service {
	return &Service{
		profiles: profiles,
		logger:   logger,
	}
}

// ResolveActor maps a bearer credential to an actor with a role,
// bootstrapping a profile if the actor is seen for the first time
func (s *Service) ResolveActor(ctx context.Context, token string) (*port.Actor, error) {
	actorID := strings.TrimSpace(token)
	if actorID == "" {
		return nil, ErrNoIdentity
	}

	profile, err := s.EnsureProfile(ctx, actorID, "")
	if err != nil {
		return nil, err
	}

	return &port.Actor{
		ID:   profile.ID,
		Name: profile.Name,
		Role: profile.Role,
	}, nil
}

// EnsureProfile returns the actor's profile, creating a default Staff-role
// profile on first sight
func (s *Service) EnsureProfile(ctx context.Context, actorID, name string) (*entity.Profile, error) {
	profile, err := s.profiles.GetByID(ctx, actorID)
	if err != nil {
		return nil, fmt.Errorf("failed to look up profile: %w", err)
	}
	if profile != nil {
		return profile, nil
	}

	if name == "" {
		name = defaultName(actorID)
	}
	profile = &entity.Profile{
		ID:   actorID,
		Name: name,
		Role: domainwf.RoleStaff.String(),
	}
	if err := s.profiles.Create(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to bootstrap profile: %w", err)
	}

	s.logger.Info("Bootstrapped profile with default role",
		zap.String("actor_id", actorID),
		zap.String("role", profile.Role))

	return profile, nil
}

// defaultName derives a display name from an email-shaped actor id
func defaultName(actorID string) string {
	if at := strings.Index(actorID, "@"); at > 0 {
		return actorID[:at]
	}
	return actorID
}

var _ port.IdentityService = (*Service)(nil)
