package firestore

import (
	"context"
	"errors"
	"fmt"

	"cloud.google.com/go/firestore"

	"varanasihub.com/site/internal/domain"
	pfirestore "varanasihub.com/site/internal/platform/firestore"
	"varanasihub.com/site/internal/repositories"
)

// ProfileRepository reads profiles from a Firestore collection. Documents
// are keyed by slug; older documents keyed by generated ids are found through
// their slug or subdomain field.
type ProfileRepository struct {
	base *pfirestore.BaseRepository[map[string]any]
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository constructs a Firestore-backed profile repository.
func NewProfileRepository(provider *pfirestore.Provider, collection string) (*ProfileRepository, error) {
	if provider == nil {
		return nil, errors.New("profile repository requires firestore provider")
	}
	return &ProfileRepository{
		base: pfirestore.NewBaseRepository(provider, collection, pfirestore.MapDecoder()),
	}, nil
}

// GetBySlug returns the profile for slug.
func (r *ProfileRepository) GetBySlug(ctx context.Context, slug string) (domain.BusinessProfile, error) {
	doc, err := r.base.Get(ctx, slug)
	if isNotFound(err) {
		doc, err = r.findByField(ctx, slug)
	}
	if err != nil {
		return domain.BusinessProfile{}, err
	}

	profile, err := repositories.DecodeDocument(doc.Data)
	if err != nil {
		return domain.BusinessProfile{}, fmt.Errorf("profiles.get %s: %w", slug, err)
	}
	if profile.Slug == "" {
		profile.Slug = slug
	}
	if profile.UpdatedAt.IsZero() {
		profile.UpdatedAt = doc.UpdateTime
	}
	return profile, nil
}

func (r *ProfileRepository) findByField(ctx context.Context, slug string) (pfirestore.Document[map[string]any], error) {
	doc, err := r.base.First(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("slug", "==", slug)
	})
	if !isNotFound(err) {
		return doc, err
	}
	return r.base.First(ctx, func(q firestore.Query) firestore.Query {
		return q.Where("subdomain", "==", slug)
	})
}

func isNotFound(err error) bool {
	var repoErr repositories.RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
