package services

import (
	"context"
	"errors"
	"fmt"

	"varanasihub.com/site/internal/repositories"
)

var (
	// ErrProfileNotFound reports that no published profile exists for a slug.
	ErrProfileNotFound = errors.New("profile service: business not found")
	// ErrProfileUnavailable reports that the profile source could not be reached.
	ErrProfileUnavailable = errors.New("profile service: profile source unavailable")
	// ErrProfileRepositoryMissing signals that the profile repository dependency is absent.
	ErrProfileRepositoryMissing = errors.New("profile service: profile repository is not configured")
	// ErrHealthRepositoryMissing signals that the health repository dependency is absent.
	ErrHealthRepositoryMissing = errors.New("health service: health repository is not configured")
)

func classifyFetchError(slug string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %s: %w", ErrProfileUnavailable, slug, err)
	}
	if isRepositoryNotFound(err) {
		return fmt.Errorf("%w: %s: %w", ErrProfileNotFound, slug, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrProfileUnavailable, slug, err)
}

func isRepositoryNotFound(err error) bool {
	if err == nil {
		return false
	}
	var repoErr repositories.RepositoryError
	if errors.As(err, &repoErr) {
		return repoErr.IsNotFound()
	}
	return false
}
