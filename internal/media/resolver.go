package media

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/storage"
)

// Media holds the displayable URL for every image field of a profile. An
// empty string means "no image".
type Media struct {
	Logo     string
	Images   []string
	Services []string
}

// Image returns the gallery URL at i, or "" when out of range.
func (m Media) Image(i int) string {
	if i < 0 || i >= len(m.Images) {
		return ""
	}
	return m.Images[i]
}

// ServiceImage returns the image URL for the service at i, or "".
func (m Media) ServiceImage(i int) string {
	if i < 0 || i >= len(m.Services) {
		return ""
	}
	return m.Services[i]
}

// Primary returns the hero image: the first gallery image, if any.
func (m Media) Primary() string {
	for _, u := range m.Images {
		if u != "" {
			return u
		}
	}
	return ""
}

// ResolverOption customises a Resolver.
type ResolverOption func(*Resolver)

// WithResolverLogger sets the logger used for per-field failures.
func WithResolverLogger(logger *zap.Logger) ResolverOption {
	return func(r *Resolver) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// Resolver resolves every image field of one view's profile and owns the
// allocations made for it. Each Resolve cycle first releases the previous
// cycle's allocations; Close releases everything.
type Resolver struct {
	mu     sync.Mutex
	source Source
	held   []Resolved
	closed bool
	logger *zap.Logger
}

// NewResolver constructs a resolver over source.
func NewResolver(source Source, opts ...ResolverOption) (*Resolver, error) {
	if source == nil {
		return nil, errors.New("media: source is required")
	}
	r := &Resolver{source: source, logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r, nil
}

// Kind reports the kind of the underlying source.
func (r *Resolver) Kind() Kind { return r.source.Kind() }

// Resolve resolves logo, images and service images. A field that fails to
// resolve degrades to "no image" and is logged.
func (r *Resolver) Resolve(ctx context.Context, profile domain.BusinessProfile) (Media, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return Media{}, ErrResolverClosed
	}
	r.drainLocked()

	slug := profile.Slug
	media := Media{
		Logo:     r.resolveLocked(ctx, profile.Logo, Target{Slug: slug, Purpose: storage.PurposeLogo}),
		Images:   make([]string, len(profile.Images)),
		Services: make([]string, len(profile.Services)),
	}
	for i, img := range profile.Images {
		media.Images[i] = r.resolveLocked(ctx, img, Target{Slug: slug, Purpose: storage.PurposeGallery})
	}
	for i, svc := range profile.Services {
		media.Services[i] = r.resolveLocked(ctx, svc.Image, Target{Slug: slug, Purpose: storage.PurposeService})
	}
	return media, nil
}

// Held returns the number of allocations owned by the current cycle.
func (r *Resolver) Held() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.held)
}

// Close releases every allocation. Further calls are no-ops.
func (r *Resolver) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}
	r.drainLocked()
	r.closed = true
}

func (r *Resolver) resolveLocked(ctx context.Context, ref domain.ImageRef, target Target) string {
	if ref.Empty() {
		return ""
	}
	if err := ref.Validate(); err != nil {
		r.logger.Warn("media: invalid image reference", zap.String("purpose", string(target.Purpose)), zap.Error(err))
		return ""
	}
	resolved, err := r.source.Resolve(ctx, ref, target)
	if err != nil {
		r.logger.Warn("media: resolve failed",
			zap.String("slug", target.Slug),
			zap.String("purpose", string(target.Purpose)),
			zap.Error(err),
		)
		return ""
	}
	if resolved.BlobID != "" {
		r.held = append(r.held, resolved)
	}
	return resolved.URL
}

func (r *Resolver) drainLocked() {
	for _, res := range r.held {
		if !r.source.Release(res) {
			r.logger.Warn("media: release of unknown allocation", zap.String("blob_id", res.BlobID))
		}
	}
	r.held = nil
}
