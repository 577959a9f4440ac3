package services

import (
	"context"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/repositories"
)

// HealthServiceDeps groups constructor parameters for the health service.
type HealthServiceDeps struct {
	Repository repositories.HealthRepository
}

type healthService struct {
	repo repositories.HealthRepository
}

// NewHealthService constructs the health service.
func NewHealthService(deps HealthServiceDeps) (HealthService, error) {
	if deps.Repository == nil {
		return nil, ErrHealthRepositoryMissing
	}
	return &healthService{repo: deps.Repository}, nil
}

func (s *healthService) HealthReport(ctx context.Context) (domain.SystemHealthReport, error) {
	return s.repo.Collect(ctx)
}
