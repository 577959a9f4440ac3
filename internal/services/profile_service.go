package services

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/viccon/sturdyc"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/events"
	"varanasihub.com/site/internal/platform/observability"
	"varanasihub.com/site/internal/repositories"
)

const (
	defaultCacheCapacity = 10000
	defaultCacheTTL      = 5 * time.Minute
	cacheShards          = 10
	cacheEvictionPercent = 10
)

// ProfileServiceDeps groups constructor parameters for the profile service.
type ProfileServiceDeps struct {
	Repository    repositories.ProfileRepository
	Logger        *zap.Logger
	CacheTTL      time.Duration
	CacheCapacity int
}

type profileService struct {
	repo    repositories.ProfileRepository
	cache   *sturdyc.Client[domain.BusinessProfile]
	logger  *zap.Logger
	lookups metric.Int64Counter
}

// NewProfileService constructs the profile service with the supplied dependencies.
func NewProfileService(deps ProfileServiceDeps) (ProfileService, error) {
	if deps.Repository == nil {
		return nil, ErrProfileRepositoryMissing
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	ttl := deps.CacheTTL
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	capacity := deps.CacheCapacity
	if capacity <= 0 {
		capacity = defaultCacheCapacity
	}
	return &profileService{
		repo:    deps.Repository,
		cache:   sturdyc.New[domain.BusinessProfile](capacity, cacheShards, ttl, cacheEvictionPercent),
		logger:  logger.Named("profiles"),
		lookups: observability.Counter(observability.Meter("services"), "profile.cache.lookups", "Profile lookups by cache outcome"),
	}, nil
}

func (s *profileService) Published(ctx context.Context, slug string) (domain.BusinessProfile, error) {
	normalized, err := domain.ParseSlug(slug)
	if err != nil {
		return domain.BusinessProfile{}, fmt.Errorf("%w: %w", ErrProfileNotFound, err)
	}

	ctx, span := observability.StartSpan(ctx, "services", "ProfileService.Published", attribute.String("profile.slug", normalized))
	defer span.End()

	var fetched atomic.Bool
	profile, err := s.cache.GetOrFetch(ctx, normalized, func(ctx context.Context) (domain.BusinessProfile, error) {
		fetched.Store(true)
		return s.repo.GetBySlug(ctx, normalized)
	})

	outcome := "hit"
	if fetched.Load() {
		outcome = "miss"
	}
	s.lookups.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
	span.SetAttributes(attribute.String("cache.outcome", outcome))

	if err != nil {
		mapped := classifyFetchError(normalized, err)
		if errors.Is(mapped, ErrProfileUnavailable) {
			span.RecordError(err)
			span.SetStatus(codes.Error, "profile fetch failed")
			s.logger.Warn("profile fetch failed", zap.String("slug", normalized), zap.Error(err))
		}
		return domain.BusinessProfile{}, mapped
	}
	if !profile.Published() {
		return domain.BusinessProfile{}, fmt.Errorf("%w: %s is %s", ErrProfileNotFound, normalized, profile.Status)
	}
	return profile.Clone(), nil
}

func (s *profileService) PreparePreview(_ context.Context, profile domain.BusinessProfile) (domain.BusinessProfile, error) {
	out := profile.Clone()
	out.Slug = domain.NormalizeSlug(out.Slug)
	out.BusinessHours = out.BusinessHours.Complete()
	if err := domain.Validate(out); err != nil {
		return domain.BusinessProfile{}, err
	}
	return out, nil
}

func (s *profileService) Invalidate(slug string) {
	s.cache.Delete(domain.NormalizeSlug(slug))
}

func (s *profileService) HandleProfileChanged(_ context.Context, event events.ProfileChanged) error {
	slug := domain.NormalizeSlug(event.Slug)
	if slug == "" {
		return errors.New("profile service: change event without slug")
	}
	s.Invalidate(slug)
	s.logger.Debug("profile cache invalidated", zap.String("slug", slug), zap.String("status", event.Status))
	return nil
}
