package services

import (
	"context"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/events"
)

// ProfileService resolves business profiles for rendering.
type ProfileService interface {
	// Published returns the approved profile for slug. Missing and pending
	// profiles both yield ErrProfileNotFound.
	Published(ctx context.Context, slug string) (domain.BusinessProfile, error)
	// PreparePreview normalises and validates an unsaved profile uploaded by
	// the wizard. The approval status is ignored.
	PreparePreview(ctx context.Context, profile domain.BusinessProfile) (domain.BusinessProfile, error)
	// Invalidate drops any cached copy of slug.
	Invalidate(slug string)
	// HandleProfileChanged reacts to change notifications from the wizard backend.
	HandleProfileChanged(ctx context.Context, event events.ProfileChanged) error
}

// HealthService reports dependency health.
type HealthService interface {
	HealthReport(ctx context.Context) (domain.SystemHealthReport, error)
}
