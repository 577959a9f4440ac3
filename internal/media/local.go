package media

import (
	"context"
	"errors"

	"varanasihub.com/site/internal/domain"
)

// LocalSource resolves references for unsaved previews. Local files become
// temporary object URLs in the registry; everything else goes to the
// fallback source, or passes through unchanged when none is set.
type LocalSource struct {
	registry *Registry
	fallback Source
}

// NewLocalSource constructs a local source backed by registry. fallback may
// be nil.
func NewLocalSource(registry *Registry, fallback Source) (*LocalSource, error) {
	if registry == nil {
		return nil, errors.New("media: registry is required")
	}
	return &LocalSource{registry: registry, fallback: fallback}, nil
}

// Kind implements Source.
func (s *LocalSource) Kind() Kind { return KindLocal }

// Resolve implements Source. No network access happens for local files.
func (s *LocalSource) Resolve(ctx context.Context, ref domain.ImageRef, target Target) (Resolved, error) {
	if ref.IsLocal() {
		if len(ref.Local.Data) == 0 {
			return Resolved{}, nil
		}
		id, url := s.registry.Allocate(*ref.Local)
		return Resolved{URL: url, BlobID: id}, nil
	}
	if ref.Empty() {
		return Resolved{}, nil
	}
	if s.fallback != nil {
		return s.fallback.Resolve(ctx, ref, target)
	}
	return Resolved{URL: ref.URL}, nil
}

// Release implements Source.
func (s *LocalSource) Release(r Resolved) bool {
	if r.BlobID != "" {
		return s.registry.Revoke(r.BlobID)
	}
	if s.fallback != nil {
		return s.fallback.Release(r)
	}
	return false
}
