package port

import (
	"context"

	"github.com/docuflow/report-routing/internal/domain/entity"
)

// Actor is a resolved identity: who is acting and under which role
type Actor struct {
	ID   string
	Name string
	Role string
}

// IdentityService resolves actors from opaque credentials and bootstraps
// profiles for actors seen for the first time
type IdentityService interface {
	// ResolveActor maps a bearer credential to an actor, or fails if the
	// credential carries no identity
	ResolveActor(ctx context.Context, token string) (*Actor, error)

	// EnsureProfile returns the actor's profile, creating a default
	// Staff-role profile if none exists yet
	EnsureProfile(ctx context.Context, actorID, name string) (*entity.Profile, error)
}
