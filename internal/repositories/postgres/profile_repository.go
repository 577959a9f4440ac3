package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/platform/sqldb"
	"varanasihub.com/site/internal/repositories"
)

// ProfileRepository reads profiles from the businesses table. The profile
// document is stored as JSONB alongside indexed columns.
type ProfileRepository struct {
	log *zap.Logger
	db  sqlx.ExtContext
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository constructs a Postgres-backed profile repository.
func NewProfileRepository(log *zap.Logger, db *sqlx.DB) (*ProfileRepository, error) {
	if db == nil {
		return nil, errors.New("profile repository requires a database handle")
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &ProfileRepository{log: log, db: db}, nil
}

type profileRow struct {
	Slug      string    `db:"slug"`
	Status    string    `db:"status"`
	Document  []byte    `db:"document"`
	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// GetBySlug returns the profile for slug.
func (r *ProfileRepository) GetBySlug(ctx context.Context, slug string) (domain.BusinessProfile, error) {
	const q = `
	SELECT
		slug, status, document, created_at, updated_at
	FROM
		"public"."businesses"
	WHERE
		slug = :slug`

	data := struct {
		Slug string `db:"slug"`
	}{Slug: slug}

	var row profileRow
	if err := sqldb.NamedQueryStruct(ctx, r.log, r.db, q, data, &row); err != nil {
		if errors.Is(err, sqldb.ErrDBNotFound) {
			return domain.BusinessProfile{}, repositories.NewNotFound("businesses.get", fmt.Errorf("slug %q: %w", slug, err))
		}
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return domain.BusinessProfile{}, err
		}
		return domain.BusinessProfile{}, repositories.NewUnavailable("businesses.get", err)
	}
	return toProfile(row)
}

func toProfile(row profileRow) (domain.BusinessProfile, error) {
	var profile domain.BusinessProfile
	if len(row.Document) > 0 {
		if err := json.Unmarshal(row.Document, &profile); err != nil {
			return domain.BusinessProfile{}, fmt.Errorf("businesses.get %s: decode document: %w", row.Slug, err)
		}
	} else {
		profile.BusinessHours = domain.Hours{}.Complete()
	}
	profile.Slug = domain.NormalizeSlug(row.Slug)
	if row.Status != "" {
		profile.Status = domain.ProfileStatus(row.Status)
	}
	profile.CreatedAt = row.CreatedAt
	profile.UpdatedAt = row.UpdatedAt
	return profile, nil
}
