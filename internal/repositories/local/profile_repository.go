// Package local serves profiles from YAML or JSON fixture files, one per
// slug, for development without cloud dependencies.
package local

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"varanasihub.com/site/internal/domain"
	"varanasihub.com/site/internal/repositories"
)

var extensions = []string{".yaml", ".yml", ".json"}

// ProfileRepository reads {dir}/{slug}.yaml (or .yml, .json) on every call
// so fixture edits show up without a restart.
type ProfileRepository struct {
	fsys fs.FS
}

var _ repositories.ProfileRepository = (*ProfileRepository)(nil)

// NewProfileRepository serves fixtures from dir.
func NewProfileRepository(dir string) (*ProfileRepository, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("local profiles: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("local profiles: %s is not a directory", dir)
	}
	return &ProfileRepository{fsys: os.DirFS(dir)}, nil
}

// NewProfileRepositoryFS serves fixtures from an arbitrary filesystem.
func NewProfileRepositoryFS(fsys fs.FS) *ProfileRepository {
	return &ProfileRepository{fsys: fsys}
}

// GetBySlug returns the fixture for slug.
func (r *ProfileRepository) GetBySlug(ctx context.Context, slug string) (domain.BusinessProfile, error) {
	if err := ctx.Err(); err != nil {
		return domain.BusinessProfile{}, err
	}
	if !domain.ValidSlug(slug) {
		return domain.BusinessProfile{}, repositories.NewNotFound("local.get", domain.ErrInvalidSlug)
	}
	for _, ext := range extensions {
		data, err := fs.ReadFile(r.fsys, slug+ext)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return domain.BusinessProfile{}, repositories.NewUnavailable("local.get", err)
		}
		profile, err := decode(ext, data)
		if err != nil {
			return domain.BusinessProfile{}, fmt.Errorf("local.get %s: %w", slug+ext, err)
		}
		if profile.Slug == "" {
			profile.Slug = slug
		}
		return profile, nil
	}
	return domain.BusinessProfile{}, repositories.NewNotFound("local.get", fmt.Errorf("no fixture for %q", slug))
}

// Slugs lists every fixture slug in the directory.
func (r *ProfileRepository) Slugs() ([]string, error) {
	var slugs []string
	seen := map[string]bool{}
	entries, err := fs.ReadDir(r.fsys, ".")
	if err != nil {
		return nil, err
	}
	for _, entry := range entries {
		ext := filepath.Ext(entry.Name())
		slug := entry.Name()[:len(entry.Name())-len(ext)]
		if entry.IsDir() || !isProfileExt(ext) || !domain.ValidSlug(slug) || seen[slug] {
			continue
		}
		seen[slug] = true
		slugs = append(slugs, slug)
	}
	return slugs, nil
}

func isProfileExt(ext string) bool {
	for _, candidate := range extensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

func decode(ext string, data []byte) (domain.BusinessProfile, error) {
	if ext == ".json" {
		var profile domain.BusinessProfile
		err := json.Unmarshal(data, &profile)
		return profile, err
	}
	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return domain.BusinessProfile{}, fmt.Errorf("parse yaml: %w", err)
	}
	return repositories.DecodeDocument(doc)
}
