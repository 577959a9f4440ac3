package repositories

import (
	"context"

	"varanasihub.com/site/internal/domain"
)

// ProfileRepository reads business profiles by slug. Implementations return
// a RepositoryError with IsNotFound when no profile has the slug.
type ProfileRepository interface {
	GetBySlug(ctx context.Context, slug string) (domain.BusinessProfile, error)
}

// HealthRepository checks backing dependencies.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsUnavailable() bool
}
